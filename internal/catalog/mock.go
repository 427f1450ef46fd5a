package catalog

import (
	"context"
	"strconv"
	"sync"

	"github.com/cesargomez89/catalogsync/internal/domain"
)

// Call records one MockProvider invocation.
type Call struct {
	Host       string
	Kind       string
	Domain     domain.Domain
	CategoryID string
}

type failureKey struct {
	host string
	kind string
	d    domain.Domain
}

// MockProvider serves an in-memory catalog and records every call.
type MockProvider struct {
	categories map[domain.Domain][]CategoryRecord
	items      map[domain.Domain][]ItemRecord
	failures   map[failureKey]error
	calls      []Call
	mu         sync.Mutex
	Bulk       bool

	// OmitCategoryIDs blanks category_id on per-category responses.
	OmitCategoryIDs bool
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		categories: make(map[domain.Domain][]CategoryRecord),
		items:      make(map[domain.Domain][]ItemRecord),
		failures:   make(map[failureKey]error),
		Bulk:       true,
	}
}

// NewDemoProvider returns a MockProvider with a small catalog, for local runs.
func NewDemoProvider() *MockProvider {
	p := NewMockProvider()
	p.SetCategories(domain.DomainChannel,
		CategoryRecord{CategoryID: "1", CategoryName: "News"},
		CategoryRecord{CategoryID: "2", CategoryName: "Sports"},
	)
	p.SetItems(domain.DomainChannel,
		ItemRecord{StreamID: "101", Name: "EN | World News HD", CategoryID: "1", StreamType: "live"},
		ItemRecord{StreamID: "102", Name: "EN | Football 24 (Backup)", CategoryID: "2", StreamType: "live"},
	)
	p.SetCategories(domain.DomainMovie, CategoryRecord{CategoryID: "10", CategoryName: "Action"})
	p.SetItems(domain.DomainMovie,
		ItemRecord{StreamID: "201", Name: "The Heist (2019)", CategoryID: "10", Rating: "7.1", ContainerExtension: "mkv"},
	)
	p.SetCategories(domain.DomainSeries, CategoryRecord{CategoryID: "20", CategoryName: "Drama"})
	p.SetItems(domain.DomainSeries,
		ItemRecord{SeriesID: "301", Name: "Harbor Lights", CategoryID: "20", BackdropPath: FlexStrings{"https://img.example/harbor.jpg"}},
	)
	return p
}

func (p *MockProvider) SetCategories(d domain.Domain, recs ...CategoryRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.categories[d] = recs
}

func (p *MockProvider) SetItems(d domain.Domain, recs ...ItemRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[d] = recs
}

// FailOn makes calls of kind ("categories" or "items") for a host and domain
// return err. An empty host matches every subscription.
func (p *MockProvider) FailOn(host, kind string, d domain.Domain, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[failureKey{host: host, kind: kind, d: d}] = err
}

// Calls returns the recorded calls in order.
func (p *MockProvider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

func (p *MockProvider) SupportsBulk() bool {
	return p.Bulk
}

func (p *MockProvider) FetchCategories(ctx context.Context, acct domain.Account, d domain.Domain) ([]CategoryRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{Host: acct.Host, Kind: "categories", Domain: d})
	if err := p.failure(acct.Host, "categories", d); err != nil {
		return nil, err
	}
	out := make([]CategoryRecord, len(p.categories[d]))
	copy(out, p.categories[d])
	return out, nil
}

func (p *MockProvider) FetchItems(ctx context.Context, acct domain.Account, d domain.Domain, categoryID string) ([]ItemRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{Host: acct.Host, Kind: "items", Domain: d, CategoryID: categoryID})
	if err := p.failure(acct.Host, "items", d); err != nil {
		return nil, err
	}

	var out []ItemRecord
	for _, r := range p.items[d] {
		if categoryID == "" || strconv.FormatInt(r.CategoryID.Int(), 10) == categoryID {
			if categoryID != "" && p.OmitCategoryIDs {
				r.CategoryID = ""
			}
			out = append(out, r)
		}
	}
	return out, nil
}

func (p *MockProvider) failure(host, kind string, d domain.Domain) error {
	if err, ok := p.failures[failureKey{host: host, kind: kind, d: d}]; ok {
		return err
	}
	if err, ok := p.failures[failureKey{kind: kind, d: d}]; ok {
		return err
	}
	return nil
}
