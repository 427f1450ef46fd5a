package catalog

import (
	"sync"

	"github.com/sony/gobreaker/v2"

	"github.com/cesargomez89/catalogsync/internal/constants"
	"github.com/cesargomez89/catalogsync/internal/httpclient"
	"github.com/cesargomez89/catalogsync/internal/logger"
	"github.com/cesargomez89/catalogsync/internal/metrics"
)

// Breakers keeps one circuit breaker per provider host. Subscriptions that
// share a host share its breaker.
type Breakers struct {
	logger   *logger.Logger
	settings gobreaker.Settings
	breakers map[string]*gobreaker.CircuitBreaker[[]byte]
	mu       sync.Mutex
}

func NewBreakers(log *logger.Logger) *Breakers {
	if log == nil {
		log = logger.Default()
	}
	b := &Breakers{
		logger:   log.WithComponent("breaker"),
		breakers: make(map[string]*gobreaker.CircuitBreaker[[]byte]),
	}
	b.settings = gobreaker.Settings{
		MaxRequests: constants.BreakerMaxRequests,
		Interval:    constants.BreakerInterval,
		Timeout:     constants.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= constants.BreakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn("Provider circuit changed state", "host", name, "from", from.String(), "to", to.String())
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
		// Client errors say nothing about host health.
		IsSuccessful: func(err error) bool {
			return err == nil || !httpclient.IsRetryable(err)
		},
	}
	return b
}

// Execute runs fn through the host's breaker.
func (b *Breakers) Execute(host string, fn func() ([]byte, error)) ([]byte, error) {
	return b.get(host).Execute(fn)
}

// State returns the breaker state for host.
func (b *Breakers) State(host string) gobreaker.State {
	return b.get(host).State()
}

func (b *Breakers) get(host string) *gobreaker.CircuitBreaker[[]byte] {
	b.mu.Lock()
	defer b.mu.Unlock()
	cb, ok := b.breakers[host]
	if !ok {
		s := b.settings
		s.Name = host
		cb = gobreaker.NewCircuitBreaker[[]byte](s)
		b.breakers[host] = cb
		metrics.BreakerState.WithLabelValues(host).Set(float64(gobreaker.StateClosed))
	}
	return cb
}
