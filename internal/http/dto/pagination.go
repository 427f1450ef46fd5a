package dto

// Listing wraps a bounded list response. Truncated is set when the result
// filled the limit, so more rows may exist.
type Listing[T any] struct {
	Items     []T  `json:"items"`
	Count     int  `json:"count"`
	Limit     int  `json:"limit"`
	Truncated bool `json:"truncated"`
}

func NewListing[T any](items []T, limit int) Listing[T] {
	if items == nil {
		items = []T{}
	}
	return Listing[T]{
		Items:     items,
		Count:     len(items),
		Limit:     limit,
		Truncated: limit > 0 && len(items) >= limit,
	}
}
