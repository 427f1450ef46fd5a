package dto

import (
	"time"

	"github.com/cesargomez89/catalogsync/internal/domain"
)

// CronResponse is the body of the scheduled trigger.
type CronResponse struct {
	Message string           `json:"message,omitempty"`
	Error   string           `json:"error,omitempty"`
	Results []domain.Outcome `json:"results,omitempty"`
	Success bool             `json:"success"`
}

type ErrorResponse struct {
	Fields  map[string]string `json:"fields,omitempty"`
	Error   string            `json:"error"`
	Success bool              `json:"success"`
}

func NewErrorResponse(msg string) ErrorResponse {
	return ErrorResponse{Error: msg}
}

func NewValidationResponse(errs []ValidationError) ErrorResponse {
	return ErrorResponse{Error: ToResponse(errs), Fields: ToMap(errs)}
}

type RunResponse struct {
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	ID             string    `json:"id"`
	Status         string    `json:"status"`
	Stage          string    `json:"stage"`
	Error          string    `json:"error,omitempty"`
	SubscriptionID int64     `json:"subscription_id"`
	Progress       float64   `json:"progress"`
}

func NewRunResponse(r *domain.SyncRun) RunResponse {
	resp := RunResponse{
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		ID:             r.ID,
		Status:         string(r.Status),
		Stage:          string(r.Stage),
		SubscriptionID: r.SubscriptionID,
		Progress:       r.Progress,
	}
	if r.Error != nil {
		resp.Error = *r.Error
	}
	return resp
}

func NewRunResponses(runs []*domain.SyncRun) []RunResponse {
	out := make([]RunResponse, 0, len(runs))
	for _, r := range runs {
		out = append(out, NewRunResponse(r))
	}
	return out
}

// ProgressResponse combines the live hub event with the persisted run.
type ProgressResponse struct {
	Live           *domain.ProgressEvent `json:"live,omitempty"`
	LastRun        *RunResponse          `json:"last_run,omitempty"`
	SubscriptionID int64                 `json:"subscription_id"`
}
