package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time in the scheduler's location.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return TimeOfDay{}, fmt.Errorf("time of day %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("time of day %q: bad hour", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %q: bad minute", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// Next returns the first occurrence strictly after now.
func (t TimeOfDay) Next(now time.Time) time.Time {
	at := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

// Job is one recurring unit of work. Exactly one of At and Every is set.
type Job struct {
	Name    string
	At      *TimeOfDay
	Every   time.Duration
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

func (j Job) validate() error {
	if strings.TrimSpace(j.Name) == "" {
		return errors.New("job name required")
	}
	if j.Run == nil {
		return fmt.Errorf("job %s: Run is nil", j.Name)
	}
	if (j.At == nil) == (j.Every <= 0) {
		return fmt.Errorf("job %s: exactly one of At or Every must be set", j.Name)
	}
	return nil
}

func (j Job) nextRun(now time.Time) time.Time {
	if j.At != nil {
		return j.At.Next(now)
	}
	return now.Add(j.Every)
}

var (
	ErrUnknownJob = errors.New("unknown job")
	ErrJobRunning = errors.New("job already running")
	ErrJobLocked  = errors.New("job locked by another instance")
)

type panicError struct{ Val any }

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.Val) }
