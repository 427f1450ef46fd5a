package dto

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cesargomez89/catalogsync/internal/constants"
	"github.com/cesargomez89/catalogsync/internal/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) ToMap() map[string]string {
	return map[string]string{e.Field: e.Message}
}

func ToMap(errs []ValidationError) map[string]string {
	result := make(map[string]string)
	for _, e := range errs {
		result[e.Field] = e.Message
	}
	return result
}

func ToResponse(errs []ValidationError) string {
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// ParseID parses a positive integer path or query parameter.
func ParseID(field, raw string) (int64, []ValidationError) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, []ValidationError{{Field: field, Message: "must be a positive integer"}}
	}
	return id, nil
}

func validateLimit(raw string, def int) (int, []ValidationError) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > constants.MaxBrowseLimit {
		return 0, []ValidationError{{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", constants.MaxBrowseLimit)}}
	}
	return n, nil
}

func validateDomain(raw string) (domain.Domain, []ValidationError) {
	d, err := domain.ParseDomain(raw)
	if err != nil {
		return "", []ValidationError{{Field: "domain", Message: "must be one of: channel, movie, series"}}
	}
	return d, nil
}

// ParseLimit reads the limit query parameter for list endpoints.
func ParseLimit(values url.Values, def int) (int, []ValidationError) {
	return validateLimit(values.Get("limit"), def)
}
