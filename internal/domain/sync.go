package domain

import "time"

// Stage is a step of the per-subscription sync state machine.
type Stage string

const (
	StageChannelCategories Stage = "CHANNEL_CATEGORIES"
	StageChannels          Stage = "CHANNELS"
	StageMovieCategories   Stage = "MOVIE_CATEGORIES"
	StageMovies            Stage = "MOVIES"
	StageSeriesCategories  Stage = "SERIES_CATEGORIES"
	StageSeries            Stage = "SERIES"
	StageCompleted         Stage = "COMPLETED"
	StageFailed            Stage = "FAILED"
)

// Stages lists the six working stages in execution order.
func Stages() []Stage {
	return []Stage{
		StageChannelCategories, StageChannels,
		StageMovieCategories, StageMovies,
		StageSeriesCategories, StageSeries,
	}
}

// TotalStages is the denominator of sync progress.
const TotalStages = 6

// CategoryStage returns the category stage for a domain.
func CategoryStage(d Domain) Stage {
	switch d {
	case DomainChannel:
		return StageChannelCategories
	case DomainMovie:
		return StageMovieCategories
	default:
		return StageSeriesCategories
	}
}

// ItemStage returns the item stage for a domain.
func ItemStage(d Domain) Stage {
	switch d {
	case DomainChannel:
		return StageChannels
	case DomainMovie:
		return StageMovies
	default:
		return StageSeries
	}
}

type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// SyncRun records the status of one orchestrator run so clients can poll it.
type SyncRun struct {
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
	Error          *string   `json:"error,omitempty" db:"error"`
	ID             string    `json:"id" db:"id"`
	Status         RunStatus `json:"status" db:"status"`
	Stage          Stage     `json:"stage" db:"stage"`
	SubscriptionID int64     `json:"subscription_id" db:"subscription_id"`
	Progress       float64   `json:"progress" db:"progress"`
}

// Progress is completed stages over total stages.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total)
}

// StageResult is the outcome of one stage.
type StageResult struct {
	Stage        Stage  `json:"stage"`
	Error        string `json:"error,omitempty"`
	Fetched      int    `json:"fetched"`
	Inserted     int    `json:"inserted"`
	Skipped      int    `json:"skipped"`
	Failed       int    `json:"failed"`
	Placeholders int    `json:"placeholders,omitempty"`
	Pruned       int64  `json:"pruned,omitempty"`
	DurationMS   int64  `json:"duration_ms"`
}

// SyncReport is returned by one orchestrator run. It is not persisted.
type SyncReport struct {
	Timestamp      time.Time             `json:"timestamp"`
	Added          map[Domain][]ItemRef  `json:"addedItems"`
	Removed        map[Domain][]ItemRef  `json:"removedItems"`
	Categories     map[Domain][]Category `json:"categories"`
	RunID          string                `json:"runId"`
	State          Stage                 `json:"state"`
	FailedStage    Stage                 `json:"failedStage,omitempty"`
	Error          string                `json:"error,omitempty"`
	Stages         []StageResult         `json:"stages"`
	Progress       Progress              `json:"progress"`
	SubscriptionID int64                 `json:"subscriptionId"`
	FailedCount    int                   `json:"failedCount"`
	Success        bool                  `json:"success"`
}

// NewSyncReport returns an empty report in the first stage.
func NewSyncReport(runID string, subscriptionID int64) *SyncReport {
	return &SyncReport{
		Timestamp:      time.Now(),
		Added:          make(map[Domain][]ItemRef),
		Removed:        make(map[Domain][]ItemRef),
		Categories:     make(map[Domain][]Category),
		RunID:          runID,
		State:          StageChannelCategories,
		Stages:         []StageResult{},
		Progress:       Progress{Total: TotalStages},
		SubscriptionID: subscriptionID,
	}
}

// Outcome is one entry of a runner invocation.
type Outcome struct {
	Report         *SyncReport `json:"report,omitempty"`
	Error          string      `json:"error,omitempty"`
	SubscriptionID int64       `json:"subscriptionId"`
	Success        bool        `json:"success"`
}

type EventKind string

const (
	EventStarted  EventKind = "started"
	EventStage    EventKind = "stage"
	EventFinished EventKind = "finished"
)

// ProgressEvent is emitted by the orchestrator as a run advances.
type ProgressEvent struct {
	At             time.Time    `json:"at"`
	Result         *StageResult `json:"result,omitempty"`
	Kind           EventKind    `json:"kind"`
	RunID          string       `json:"runId"`
	State          Stage        `json:"state"`
	Error          string       `json:"error,omitempty"`
	Progress       Progress     `json:"progress"`
	SubscriptionID int64        `json:"subscriptionId"`
}
