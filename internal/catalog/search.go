package catalog

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/cesargomez89/catalogsync/internal/domain"
)

// Rank returns the items whose cleaned title fuzzy-matches query, best match
// first. Ties keep their input order. A limit <= 0 returns every match.
func Rank[T domain.CatalogItem](query string, items []T, limit int) []T {
	if query == "" {
		return items
	}

	titles := make([]string, len(items))
	for i, item := range items {
		titles[i] = CleanName(item.Title())
	}

	matches := fuzzy.RankFindNormalizedFold(query, titles)
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].OriginalIndex < matches[j].OriginalIndex
	})

	out := make([]T, 0, len(matches))
	for _, m := range matches {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, items[m.OriginalIndex])
	}
	return out
}
