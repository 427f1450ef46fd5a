package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/cesargomez89/catalogsync/internal/domain"
	"github.com/cesargomez89/catalogsync/internal/httpclient"
	"github.com/cesargomez89/catalogsync/internal/logger"
	"github.com/cesargomez89/catalogsync/internal/metrics"
)

type actions struct {
	categories string
	items      string
}

var domainActions = map[domain.Domain]actions{
	domain.DomainChannel: {categories: "get_live_categories", items: "get_live_streams"},
	domain.DomainMovie:   {categories: "get_vod_categories", items: "get_vod_streams"},
	domain.DomainSeries:  {categories: "get_series_categories", items: "get_series"},
}

// XtreamProvider talks to an Xtream Codes player_api.php endpoint.
type XtreamProvider struct {
	client   *httpclient.Client
	breakers *Breakers
	logger   *logger.Logger
}

func NewXtreamProvider(client *httpclient.Client, breakers *Breakers, log *logger.Logger) *XtreamProvider {
	if log == nil {
		log = logger.Default()
	}
	if breakers == nil {
		breakers = NewBreakers(log)
	}
	return &XtreamProvider{
		client:   client,
		breakers: breakers,
		logger:   log.WithComponent("xtream"),
	}
}

// SupportsBulk is true: item actions without category_id return the whole domain.
func (p *XtreamProvider) SupportsBulk() bool {
	return true
}

func (p *XtreamProvider) FetchCategories(ctx context.Context, acct domain.Account, d domain.Domain) ([]CategoryRecord, error) {
	a, ok := domainActions[d]
	if !ok {
		return nil, domain.NewPermanentError("categories", 0, fmt.Errorf("unknown domain %q", d))
	}
	body, err := p.get(ctx, acct, a.categories, "")
	if err != nil {
		return nil, err
	}
	recs, err := decodeList[CategoryRecord](body)
	if err != nil {
		return nil, domain.NewPermanentError(a.categories, 0, err)
	}
	return recs, nil
}

func (p *XtreamProvider) FetchItems(ctx context.Context, acct domain.Account, d domain.Domain, categoryID string) ([]ItemRecord, error) {
	a, ok := domainActions[d]
	if !ok {
		return nil, domain.NewPermanentError("items", 0, fmt.Errorf("unknown domain %q", d))
	}
	body, err := p.get(ctx, acct, a.items, categoryID)
	if err != nil {
		return nil, err
	}
	recs, err := decodeList[ItemRecord](body)
	if err != nil {
		return nil, domain.NewPermanentError(a.items, 0, err)
	}
	return recs, nil
}

func (p *XtreamProvider) get(ctx context.Context, acct domain.Account, action, categoryID string) ([]byte, error) {
	u, host, err := buildURL(acct, action, categoryID)
	if err != nil {
		return nil, domain.NewPermanentError(action, 0, err)
	}

	p.logger.Debug("Fetching from provider", "host", host, "action", action, "category_id", categoryID)
	body, err := p.breakers.Execute(host, func() ([]byte, error) {
		return p.client.Get(ctx, u)
	})
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(action, "error").Inc()
		return nil, classify(action, err)
	}
	metrics.ProviderRequests.WithLabelValues(action, "ok").Inc()
	return body, nil
}

func buildURL(acct domain.Account, action, categoryID string) (string, string, error) {
	base, err := url.Parse(strings.TrimRight(acct.Host, "/"))
	if err != nil || base.Host == "" {
		return "", "", fmt.Errorf("invalid provider host %q", acct.Host)
	}
	q := url.Values{}
	q.Set("username", acct.Username)
	q.Set("password", acct.Password)
	q.Set("action", action)
	if categoryID != "" {
		q.Set("category_id", categoryID)
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/player_api.php"
	base.RawQuery = q.Encode()
	return base.String(), base.Host, nil
}

// classify maps transport failures onto the provider error taxonomy.
// Retryable failures reaching here have already used the client's retries.
func classify(action string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.NewTransientError(action, 0, err)
	}
	if errors.Is(err, context.Canceled) {
		return domain.NewPermanentError(action, 0, err)
	}

	var se *httpclient.StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden:
			return domain.NewPermanentError(action, se.StatusCode, domain.ErrInvalidCredentials)
		case se.Retryable():
			return domain.Escalate(domain.NewTransientError(action, se.StatusCode, err))
		default:
			return domain.NewPermanentError(action, se.StatusCode, err)
		}
	}
	if httpclient.IsRetryable(err) {
		return domain.Escalate(domain.NewTransientError(action, 0, err))
	}
	return domain.NewPermanentError(action, 0, err)
}

type authEnvelope struct {
	UserInfo *struct {
		Auth FlexString `json:"auth"`
	} `json:"user_info"`
}

// decodeList decodes a JSON array. Some panels answer with an object keyed by
// index instead, and a failed login answers with a user_info envelope.
func decodeList[T any](body []byte) ([]T, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []T{}, nil
	}

	switch body[0] {
	case '[':
		var out []T
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
		}
		return out, nil
	case '{':
		var env authEnvelope
		if err := json.Unmarshal(body, &env); err == nil && env.UserInfo != nil {
			if env.UserInfo.Auth.Int() == 0 {
				return nil, domain.ErrInvalidCredentials
			}
			return []T{}, nil
		}
		var keyed map[string]T
		if err := json.Unmarshal(body, &keyed); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
		}
		keys := make([]string, 0, len(keyed))
		for k := range keyed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]T, 0, len(keyed))
		for _, k := range keys {
			out = append(out, keyed[k])
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unexpected body starting with %q", domain.ErrMalformedResponse, body[0])
}
