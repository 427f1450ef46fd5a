// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort             = "8080"
	DefaultDBPath           = "catalogsync.db"
	DefaultChunkSize        = 5000
	DefaultWorkerPoolSize   = 3
	DefaultSyncInterval     = 24 * time.Hour
	DefaultProviderTimeout  = 60 * time.Second
	DefaultProviderRetries  = 2
	DefaultRetryBase        = 1 * time.Second
	DefaultProviderRate     = 5.0
	DefaultTriggerRateLimit = 10
	DefaultRunHistoryLimit  = 20
	DefaultBrowseLimit      = 100
	MaxBrowseLimit          = 1000
)

// Write modes for the catalog store
const (
	WriteModeOnConflict     = "on_conflict"
	WriteModeCheckThenWrite = "check_then_insert"
)

// Circuit breaker defaults, applied per provider host
const (
	BreakerMaxRequests      = 1
	BreakerInterval         = time.Minute
	BreakerOpenTimeout      = 2 * time.Minute
	BreakerFailureThreshold = 5
)

// Placeholder names used when the provider omits them
const (
	UnknownChannelName  = "Unknown channel"
	UnknownMovieName    = "Unknown movie"
	UnknownSeriesName   = "Unknown series"
	PlaceholderCategory = "category %d"
	DefaultRating       = "0"
)
