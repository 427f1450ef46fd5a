package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cesargomez89/catalogsync/internal/constants"
	"github.com/cesargomez89/catalogsync/internal/domain"
)

// ToCategories normalizes provider categories, keeping the first record per id.
func ToCategories(subscriptionID int64, d domain.Domain, recs []CategoryRecord) []domain.Category {
	seen := make(map[int64]struct{}, len(recs))
	out := make([]domain.Category, 0, len(recs))
	for _, r := range recs {
		id := r.CategoryID.Int()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		name := strings.TrimSpace(r.CategoryName.String())
		if name == "" {
			name = fmt.Sprintf(constants.PlaceholderCategory, id)
		}
		out = append(out, domain.Category{
			Domain:             d,
			ProviderCategoryID: id,
			Name:               name,
			SubscriptionID:     subscriptionID,
		})
	}
	return out
}

// PlaceholderCategories builds categories for ids that items reference but
// the provider did not list.
func PlaceholderCategories(subscriptionID int64, d domain.Domain, ids []int64) []domain.Category {
	out := make([]domain.Category, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Category{
			Domain:             d,
			ProviderCategoryID: id,
			Name:               fmt.Sprintf(constants.PlaceholderCategory, id),
			SubscriptionID:     subscriptionID,
		})
	}
	return out
}

func ToChannels(acct domain.Account, subscriptionID int64, recs []ItemRecord) []domain.Channel {
	out := make([]domain.Channel, 0, len(recs))
	for _, r := range recs {
		id := r.ID()
		out = append(out, domain.Channel{
			ProviderItemID: id,
			CategoryID:     r.CategoryID.Int(),
			SubscriptionID: subscriptionID,
			Name:           nameOr(r.Name, constants.UnknownChannelName),
			StreamType:     r.StreamType.String(),
			StreamIcon:     r.StreamIcon.String(),
			URL:            StreamURL(acct, domain.DomainChannel, id, "m3u8"),
		})
	}
	return out
}

func ToMovies(acct domain.Account, subscriptionID int64, recs []ItemRecord) []domain.Movie {
	out := make([]domain.Movie, 0, len(recs))
	for _, r := range recs {
		id := r.ID()
		ext := r.ContainerExtension.String()
		if ext == "" {
			ext = "mp4"
		}
		out = append(out, domain.Movie{
			ProviderItemID:     id,
			CategoryID:         r.CategoryID.Int(),
			SubscriptionID:     subscriptionID,
			Name:               nameOr(r.Name, constants.UnknownMovieName),
			StreamType:         r.StreamType.String(),
			StreamIcon:         r.StreamIcon.String(),
			Rating:             ratingOr(r.Rating),
			Added:              r.Added.String(),
			ContainerExtension: ext,
			URL:                StreamURL(acct, domain.DomainMovie, id, ext),
		})
	}
	return out
}

func ToSeries(subscriptionID int64, recs []ItemRecord) []domain.Series {
	out := make([]domain.Series, 0, len(recs))
	for _, r := range recs {
		out = append(out, domain.Series{
			ProviderItemID: r.ID(),
			CategoryID:     r.CategoryID.Int(),
			SubscriptionID: subscriptionID,
			Name:           nameOr(r.Name, constants.UnknownSeriesName),
			Cover:          r.Cover.String(),
			Plot:           r.Plot.String(),
			Cast:           r.Cast.String(),
			Director:       r.Director.String(),
			Genre:          r.Genre.String(),
			ReleaseDate:    r.ReleaseDate.String(),
			LastModified:   r.LastModified.String(),
			Rating:         ratingOr(r.Rating),
			BackdropPath:   r.BackdropPath.First(),
			YoutubeTrailer: r.YoutubeTrailer.String(),
			EpisodeRunTime: r.EpisodeRunTime.String(),
		})
	}
	return out
}

// Dedupe keeps the first row for each natural key.
func Dedupe[T domain.CatalogItem](rows []T) []T {
	seen := make(map[domain.NaturalKey]struct{}, len(rows))
	out := rows[:0:0]
	for _, r := range rows {
		k := r.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// StreamURL builds the playback locator for a live channel or movie.
// Series episodes are resolved by clients and have no locator here.
func StreamURL(acct domain.Account, d domain.Domain, id int64, ext string) string {
	host := strings.TrimRight(acct.Host, "/")
	switch d {
	case domain.DomainChannel:
		return fmt.Sprintf("%s/live/%s/%s/%d.%s", host, acct.Username, acct.Password, id, ext)
	case domain.DomainMovie:
		return fmt.Sprintf("%s/movie/%s/%s/%d.%s", host, acct.Username, acct.Password, id, ext)
	}
	return ""
}

var (
	reNamePrefix  = regexp.MustCompile(`^.*[|-]\s`)
	reParenthesis = regexp.MustCompile(`\([^)]*\)`)
	reBrackets    = regexp.MustCompile(`[()]`)
)

// CleanName strips provider prefixes such as "EN | " and parenthesised tags
// like "(2019)" from a title.
func CleanName(name string) string {
	name = reNamePrefix.ReplaceAllString(name, "")
	name = reParenthesis.ReplaceAllString(name, "")
	name = reBrackets.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

func nameOr(name FlexString, fallback string) string {
	if s := strings.TrimSpace(name.String()); s != "" {
		return s
	}
	return fallback
}

func ratingOr(r FlexString) string {
	if s := strings.TrimSpace(r.String()); s != "" {
		return s
	}
	return constants.DefaultRating
}
