// Package diff computes added and removed catalog items between two
// snapshots of the local store.
package diff

import (
	"context"
	"sort"

	"github.com/cesargomez89/catalogsync/internal/domain"
)

// Snapshot maps the natural keys present at one point in time to item names.
// A nil Snapshot means the state could not be read.
type Snapshot map[domain.NaturalKey]string

type Delta struct {
	Added   []domain.ItemRef `json:"added"`
	Removed []domain.ItemRef `json:"removed"`
}

func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Compare returns after minus before as Added and before minus after as
// Removed. Only natural keys are compared, so renames are not changes.
func Compare(before, after Snapshot) Delta {
	var delta Delta
	for k, name := range after {
		if before == nil {
			delta.Added = append(delta.Added, domain.ItemRef{NaturalKey: k, Name: name})
			continue
		}
		if _, ok := before[k]; !ok {
			delta.Added = append(delta.Added, domain.ItemRef{NaturalKey: k, Name: name})
		}
	}
	for k, name := range before {
		if _, ok := after[k]; !ok {
			delta.Removed = append(delta.Removed, domain.ItemRef{NaturalKey: k, Name: name})
		}
	}
	sortRefs(delta.Added)
	sortRefs(delta.Removed)
	return delta
}

func sortRefs(refs []domain.ItemRef) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].CategoryID != refs[j].CategoryID {
			return refs[i].CategoryID < refs[j].CategoryID
		}
		return refs[i].ProviderItemID < refs[j].ProviderItemID
	})
}

// KeyReader is the store query the engine needs.
type KeyReader interface {
	ItemKeys(ctx context.Context, subscriptionID int64, d domain.Domain) (map[domain.NaturalKey]string, error)
}

// Engine captures snapshots from the store.
type Engine struct {
	store KeyReader
}

func NewEngine(store KeyReader) *Engine {
	return &Engine{store: store}
}

// Capture reads the current natural-key set for a subscription and domain.
func (e *Engine) Capture(ctx context.Context, subscriptionID int64, d domain.Domain) (Snapshot, error) {
	keys, err := e.store.ItemKeys(ctx, subscriptionID, d)
	if err != nil {
		return nil, err
	}
	return Snapshot(keys), nil
}
