package catalog

import (
	"context"

	"github.com/cesargomez89/catalogsync/internal/domain"
)

// Provider fetches one content domain at a time from a remote account.
// Errors are *domain.ProviderError.
type Provider interface {
	FetchCategories(ctx context.Context, acct domain.Account, d domain.Domain) ([]CategoryRecord, error)
	// FetchItems returns the domain's items in one category, or in every
	// category when categoryID is empty.
	FetchItems(ctx context.Context, acct domain.Account, d domain.Domain, categoryID string) ([]ItemRecord, error)
}

// BulkFetcher is implemented by providers that can return a whole domain in
// one FetchItems call.
type BulkFetcher interface {
	SupportsBulk() bool
}

// SupportsBulk reports whether p accepts an empty category id.
func SupportsBulk(p Provider) bool {
	b, ok := p.(BulkFetcher)
	return ok && b.SupportsBulk()
}
