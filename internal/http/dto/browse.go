package dto

import (
	"net/url"

	"github.com/cesargomez89/catalogsync/internal/constants"
	"github.com/cesargomez89/catalogsync/internal/domain"
)

// BrowseQuery is the parsed form of GET /api/subscriptions/{id}/items/{domain}.
type BrowseQuery struct {
	CategoryID *int64
	Domain     domain.Domain
	Query      string
	Limit      int
}

func ParseBrowseQuery(domainParam string, values url.Values) (BrowseQuery, []ValidationError) {
	var q BrowseQuery
	var errs []ValidationError

	d, derrs := validateDomain(domainParam)
	errs = append(errs, derrs...)
	q.Domain = d

	if raw := values.Get("category"); raw != "" {
		id, cerrs := ParseID("category", raw)
		errs = append(errs, cerrs...)
		q.CategoryID = &id
	}

	limit, lerrs := validateLimit(values.Get("limit"), constants.DefaultBrowseLimit)
	errs = append(errs, lerrs...)
	q.Limit = limit
	q.Query = values.Get("q")

	return q, errs
}

// ParseCategoryDomain reads the required domain query parameter.
func ParseCategoryDomain(values url.Values) (domain.Domain, []ValidationError) {
	raw := values.Get("domain")
	if raw == "" {
		return "", []ValidationError{{Field: "domain", Message: "is required"}}
	}
	return validateDomain(raw)
}

type FavoriteRequest struct {
	Favorite *bool `json:"favorite"`
}

func (r *FavoriteRequest) Validate() []ValidationError {
	if r.Favorite == nil {
		return []ValidationError{{Field: "favorite", Message: "is required"}}
	}
	return nil
}
