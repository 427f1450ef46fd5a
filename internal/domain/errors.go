package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInvalidCredentials   = errors.New("invalid provider credentials")
	ErrMalformedResponse    = errors.New("malformed provider response")
)

// ErrorKind classifies provider failures.
type ErrorKind int

const (
	Transient ErrorKind = iota
	Permanent
)

func (k ErrorKind) String() string {
	if k == Transient {
		return "transient"
	}
	return "permanent"
}

// ProviderError is returned by provider clients.
type ProviderError struct {
	Err        error
	Op         string
	Kind       ErrorKind
	StatusCode int
	// Escalated is set when a transient failure exhausted its retries.
	Escalated bool
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s (%s)", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" status %d", e.StatusCode)
	}
	if e.Escalated {
		msg += " after retries"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewTransientError(op string, status int, err error) *ProviderError {
	return &ProviderError{Op: op, Kind: Transient, StatusCode: status, Err: err}
}

func NewPermanentError(op string, status int, err error) *ProviderError {
	return &ProviderError{Op: op, Kind: Permanent, StatusCode: status, Err: err}
}

// IsTransient reports whether err carries a transient ProviderError.
func IsTransient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind == Transient
	}
	return false
}

// Escalate turns a transient provider error into a permanent one.
// Other errors are returned unchanged.
func Escalate(err error) error {
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Kind != Transient {
		return err
	}
	return &ProviderError{Op: pe.Op, Kind: Permanent, StatusCode: pe.StatusCode, Err: pe.Err, Escalated: true}
}

// WriteError is a chunk-level store failure.
type WriteError struct {
	Err   error
	Chunk int
	Rows  int
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("chunk %d (%d rows): %v", e.Chunk, e.Rows, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// StageError is returned when the state machine halts in FAILED(stage).
type StageError struct {
	Err   error
	Stage Stage
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
