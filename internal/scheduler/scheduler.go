// Package scheduler runs the daily statistics aggregation on a fixed interval
// and on demand.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/metrics"
)

const (
	JobID   = "daily_stats_aggregation"
	JobName = "Daily Stats Aggregation Job"

	triggerStartup  = "startup"
	triggerInterval = "interval"
	triggerManual   = "manual"
)

var (
	ErrStopped         = errors.New("scheduler: stopped")
	ErrInvalidInterval = errors.New("scheduler: interval must be positive")
)

// Runner performs one aggregation pass for the current day.
type Runner interface {
	AggregateToday(ctx context.Context) (*model.AggregationResult, error)
}

type Config struct {
	Interval        time.Duration
	RunTimeout      time.Duration
	ShutdownTimeout time.Duration
}

// Scheduler owns the periodic job. A scheduled fire that arrives while the
// previous scheduled pass is still running is skipped, so at most one
// scheduled pass runs at a time. Manual triggers are never skipped.
type Scheduler struct {
	runner  Runner
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu        sync.Mutex
	state     model.JobState
	closed    bool
	nextRun   time.Time
	lastRunAt time.Time
	lastErr   string
	cancel    context.CancelFunc
	loopDone  chan struct{}

	// [LIFECYCLE_CONTROL]
	inFlight atomic.Bool
	manual   atomic.Int32
	skipped  atomic.Int64
	runs     sync.WaitGroup
}

func New(runner Runner, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Scheduler {
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 15 * time.Second
	}
	return &Scheduler{
		runner:  runner,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		now:     time.Now,
		state:   model.JobStopped,
	}
}

// Start runs one pass synchronously and then starts the periodic loop.
// An invalid interval leaves the scheduler degraded; the failure is
// reported by Status and returned, and the rest of the process keeps running.
// A Stop during the first pass cancels it, and Start returns ErrStopped
// without starting the loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return nil
	}
	if s.cfg.Interval <= 0 {
		s.state = model.JobDegraded
		s.lastErr = fmt.Sprintf("%v: %s", ErrInvalidInterval, s.cfg.Interval)
		s.mu.Unlock()
		return fmt.Errorf("%w: got %s", ErrInvalidInterval, s.cfg.Interval)
	}
	base, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.closed = false
	s.cancel = cancel
	s.runs.Add(1)
	s.mu.Unlock()

	// A failed first pass is recorded in Status; the schedule still starts.
	s.inFlight.Store(true)
	s.run(base, triggerStartup)
	s.inFlight.Store(false)
	s.runs.Done()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		s.logger.Info("[SCHEDULER] stopped during the startup pass", slog.String("job_id", JobID))
		return ErrStopped
	}
	ticker := time.NewTicker(s.cfg.Interval)
	done := make(chan struct{})
	s.state = model.JobRunning
	s.loopDone = done
	s.nextRun = s.now().Add(s.cfg.Interval)
	s.mu.Unlock()

	go s.loop(base, ticker, done)

	s.logger.Info("[SCHEDULER] started",
		slog.String("job_id", JobID),
		slog.Duration("interval", s.cfg.Interval),
	)
	return nil
}

func (s *Scheduler) loop(ctx context.Context, ticker *time.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			s.nextRun = s.now().Add(s.cfg.Interval)
			s.mu.Unlock()
			s.fire(ctx)
		}
	}
}

// fire starts a scheduled pass unless one is still running.
func (s *Scheduler) fire(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		n := s.skipped.Add(1)
		s.metrics.SchedulerSkipped.Inc()
		s.logger.Warn("[SCHEDULER] fire skipped, previous pass still running",
			slog.String("job_id", JobID),
			slog.Int64("skipped_total", n),
		)
		return
	}

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		defer s.inFlight.Store(false)
		s.run(ctx, triggerInterval)
	}()
}

// Trigger runs a pass now and waits for it. The pass is detached from the
// caller's cancellation so its write completes. It works while degraded and
// fails with ErrStopped once Stop was called.
func (s *Scheduler) Trigger(ctx context.Context) (*model.AggregationResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStopped
	}
	s.runs.Add(1)
	s.mu.Unlock()
	defer s.runs.Done()

	s.manual.Add(1)
	defer s.manual.Add(-1)

	return s.run(context.WithoutCancel(ctx), triggerManual)
}

func (s *Scheduler) run(ctx context.Context, trigger string) (*model.AggregationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	res, err := s.runner.AggregateToday(ctx)

	s.mu.Lock()
	s.lastRunAt = s.now().UTC()
	if err != nil {
		s.lastErr = err.Error()
	} else {
		s.lastErr = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.metrics.AggregationRuns.WithLabelValues(trigger, "error").Inc()
		s.logger.Error("[SCHEDULER] aggregation failed",
			slog.String("job_id", JobID),
			slog.String("trigger", trigger),
			slog.Any("err", err),
		)
		return nil, err
	}

	s.metrics.AggregationRuns.WithLabelValues(trigger, "success").Inc()
	s.logger.Debug("[SCHEDULER] aggregation done",
		slog.String("trigger", trigger),
		slog.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

// Stop ends the loop, cancels a running scheduled pass and waits for
// outstanding passes, bounded by ctx and the shutdown timeout.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	cancel, done := s.cancel, s.loopDone
	s.cancel, s.loopDone = nil, nil
	if s.state == model.JobRunning {
		s.state = model.JobStopped
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	// done is nil while the startup pass runs; the loop never starts then.
	if done != nil {
		<-done
	}

	waitCtx, stop := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer stop()

	finished := make(chan struct{})
	go func() {
		s.runs.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		s.logger.Info("[SCHEDULER] stopped", slog.String("job_id", JobID))
		return nil
	case <-waitCtx.Done():
		s.logger.Warn("[SCHEDULER] stop timed out with a pass still running", slog.String("job_id", JobID))
		return waitCtx.Err()
	}
}

// Status is a read-only view of the job.
func (s *Scheduler) Status() model.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := model.JobStatus{
		ID:        JobID,
		Name:      JobName,
		Trigger:   fmt.Sprintf("interval[%s]", s.cfg.Interval),
		State:     s.state,
		Running:   s.state == model.JobRunning,
		InFlight:  s.inFlight.Load() || s.manual.Load() > 0,
		LastError: s.lastErr,
		Skipped:   s.skipped.Load(),
	}
	if st.Running {
		next := s.nextRun
		st.NextRun = &next
	}
	if !s.lastRunAt.IsZero() {
		last := s.lastRunAt
		st.LastRunAt = &last
	}
	return st
}
