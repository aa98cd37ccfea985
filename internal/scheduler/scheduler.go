package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/eventforge/internal/observability"
	"github.com/yungbote/eventforge/internal/pkg/logger"
)

const (
	defaultTimeout = 30 * time.Minute
	lockMargin     = time.Minute
)

type entry struct {
	job     Job
	running atomic.Bool
}

type Scheduler struct {
	log     *logger.Logger
	metrics *observability.Metrics
	locker  Locker
	now     func() time.Time

	mu      sync.Mutex
	entries []*entry
	byName  map[string]*entry
	base    context.Context
	cancel  context.CancelFunc
	loops   sync.WaitGroup
}

type Option func(*Scheduler)

func WithLocker(l Locker) Option { return func(s *Scheduler) { s.locker = l } }

func WithMetrics(m *observability.Metrics) Option { return func(s *Scheduler) { s.metrics = m } }

func WithClock(now func() time.Time) Option { return func(s *Scheduler) { s.now = now } }

func New(baseLog *logger.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		log:    baseLog.With("component", "Scheduler"),
		now:    time.Now,
		byName: map[string]*entry{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Add registers a job. Jobs added after Start are picked up on the next Start.
func (s *Scheduler) Add(j Job) error {
	if err := j.validate(); err != nil {
		return err
	}
	if j.Timeout <= 0 {
		j.Timeout = defaultTimeout
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byName[j.Name]; dup {
		return fmt.Errorf("job %s already registered", j.Name)
	}
	e := &entry{job: j}
	s.entries = append(s.entries, e)
	s.byName[j.Name] = e
	return nil
}

func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.job.Name)
	}
	return out
}

// Start arms a timer per job. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	s.base = context.WithoutCancel(ctx)
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	for _, e := range s.entries {
		s.loops.Add(1)
		go s.loop(loopCtx, e)
		s.log.Info("Job scheduled", "job", e.job.Name, "next_run", e.job.nextRun(s.now()))
	}
}

// Stop cancels pending timers. In-flight runs continue to their own completion.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.loops.Wait()
	s.log.Info("Scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	defer s.loops.Done()
	for {
		now := s.now()
		timer := time.NewTimer(e.job.nextRun(now).Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			go func() {
				_ = s.execute(s.base, e)
			}()
		}
	}
}

// RunNow runs a job immediately under ctx, honouring the overlap guard and lock.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	e, ok := s.byName[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.execute(ctx, e)
}

func (s *Scheduler) execute(parent context.Context, e *entry) (err error) {
	name := e.job.Name
	if !e.running.CompareAndSwap(false, true) {
		s.log.Warn("Job still running, skipping tick", "job", name)
		s.metrics.ObserveJob(name, "skipped", 0)
		return ErrJobRunning
	}
	defer e.running.Store(false)

	if s.locker != nil {
		release, ok, lerr := s.locker.Acquire(parent, name, e.job.Timeout+lockMargin)
		switch {
		case lerr != nil:
			s.log.Warn("Job lock unavailable, running unguarded", "job", name, "error", lerr)
		case !ok:
			s.log.Info("Job held by another instance, skipping", "job", name)
			s.metrics.ObserveJob(name, "locked", 0)
			return ErrJobLocked
		default:
			defer release()
		}
	}

	ctx, cancel := context.WithTimeout(parent, e.job.Timeout)
	defer cancel()
	ctx, span := observability.Tracer().Start(ctx, "scheduler.job")
	span.SetAttributes(attribute.String("job.name", name))
	defer span.End()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Job panic", "job", name, "panic", r)
			err = &panicError{Val: r}
		}
		status := "ok"
		var pe *panicError
		switch {
		case errors.As(err, &pe):
			status = "panic"
		case err != nil:
			status = "error"
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, status)
		}
		s.metrics.ObserveJob(name, status, time.Since(start))
	}()

	s.log.Info("Job started", "job", name)
	if err = e.job.Run(ctx); err != nil {
		s.log.Error("Job failed", "job", name, "error", err, "duration", time.Since(start))
		return err
	}
	s.log.Info("Job finished", "job", name, "duration", time.Since(start))
	return nil
}
