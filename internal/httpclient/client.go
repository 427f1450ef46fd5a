package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/cesargomez89/catalogsync/internal/constants"
)

const userAgent = "catalogsync/1.0"

// StatusError is returned for non-2xx responses that survive all retries.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Config controls retries and pacing.
type Config struct {
	// Timeout bounds each attempt, including reading the body.
	Timeout   time.Duration
	RetryBase time.Duration
	Retries   int
	// RatePerSecond is applied per host. Zero disables pacing.
	RatePerSecond float64
}

// Client wraps an http.Client to provide per-host rate limiting and automatic retries.
type Client struct {
	httpClient *http.Client
	cfg        Config

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewClient creates a new rate-limited, retrying HTTP client.
func NewClient(httpClient *http.Client, cfg Config) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultProviderTimeout
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = constants.DefaultRetryBase
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &Client{
		httpClient: httpClient,
		cfg:        cfg,
		limiters:   make(map[string]*rate.Limiter),
	}
}

// Get fetches rawURL and returns the body. Network errors, timeouts, 429 and
// 5xx responses are retried up to cfg.Retries times.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	limiter := c.limiterFor(u.Host)

	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		body, retryAfter, err := c.attempt(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !IsRetryable(err) || attempt == c.cfg.Retries {
			break
		}

		backoffWait := time.Duration(attempt+1) * c.cfg.RetryBase
		if retryAfter > backoffWait {
			backoffWait = retryAfter
		}
		backoffTimer := time.NewTimer(backoffWait)
		select {
		case <-ctx.Done():
			backoffTimer.Stop()
			return nil, ctx.Err()
		case <-backoffTimer.C:
		}
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, rawURL string) ([]byte, time.Duration, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, redactError(err, req.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, parseRetryAfter(resp), &StatusError{URL: redact(req.URL), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	return body, 0, nil
}

func (c *Client) limiterFor(host string) *rate.Limiter {
	if c.cfg.RatePerSecond <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(c.cfg.RatePerSecond), 1)
		c.limiters[host] = l
	}
	return l
}

// IsRetryable classifies errors returned by Get.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

// redact drops the query string, which carries provider credentials.
func redact(u *url.URL) string {
	clean := *u
	clean.RawQuery = ""
	return clean.String()
}

// redactError rewrites the URL carried by a transport error so the query
// string never reaches logs, run history or API responses.
func redactError(err error, u *url.URL) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	return &url.Error{Op: ue.Op, URL: redact(u), Err: ue.Err}
}

// parseRetryAfter reads a Retry-After header and returns the duration to wait.
func parseRetryAfter(resp *http.Response) time.Duration {
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(ra); err == nil {
		return time.Until(t)
	}
	return 0
}
