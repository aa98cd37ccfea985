package events

import (
	"errors"
	"fmt"
)

var (
	// ErrFilterRejected marks a news item dropped by the keyword filter. It is an expected outcome.
	ErrFilterRejected = errors.New("filter rejected")
	// ErrNoEligibleEvents is matched by every NoEligibleEventsError.
	ErrNoEligibleEvents = errors.New("no eligible events")
	ErrEventNotFound    = errors.New("event not found")
)

type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// ValidationError means model output (or a candidate event) is malformed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

// GenerationError is returned by the creative path when no event could be produced.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return "generation failed at " + e.Stage
	}
	return fmt.Sprintf("generation failed at %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

type NoEligibleEventsError struct {
	Rank Rank
}

func (e *NoEligibleEventsError) Error() string {
	return fmt.Sprintf("no eligible events for rank %s", e.Rank)
}

func (e *NoEligibleEventsError) Is(target error) bool { return target == ErrNoEligibleEvents }

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persistence %s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }
