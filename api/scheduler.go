/*
scheduler.go - Automated due-check scheduler

PURPOSE:
  Runs the AMC due-check on a cron schedule (daily at 02:00 by default) so
  newly due payment periods appear without anyone pressing a button.

DESIGN:
  - robfig/cron drives the schedule; SkipIfStillRunning drops a tick that
    fires while the previous batch is still going
  - A mutex shared with RunNow keeps manual and scheduled runs from
    overlapping (the batch is a singleton)
  - Every run is recorded in due_check_runs for audit and UI display
  - Results feed the Prometheus collectors in metrics.go

CONFIGURATION:
  - Schedule: five-field cron expression (config due_check.schedule)
  - Enabled:  Whether the scheduler is active (config due_check.enabled)

USAGE:
  scheduler, err := NewDueCheckScheduler(store, syncer, metrics, logger, "0 2 * * *")
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerDueCheck endpoint (manual run)
  - amc/sync.go: Synchronizer.RunDueCheck
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/warp/amc-engine/amc"
	"github.com/warp/amc-engine/store/sqlite"
)

// ErrDueCheckRunning is returned by RunNow while another batch is in flight.
var ErrDueCheckRunning = errors.New("due check already running")

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// DueCheckScheduler handles the automated AMC due-check.
type DueCheckScheduler struct {
	Store        *sqlite.Store
	Synchronizer *amc.Synchronizer
	Metrics      *Metrics
	Logger       *slog.Logger
	Schedule     string
	Enabled      bool
	Now          func() time.Time

	cron    *cron.Cron
	running sync.Mutex
	mu      sync.Mutex
	started bool
}

// NewDueCheckScheduler validates schedule and creates a scheduler.
func NewDueCheckScheduler(store *sqlite.Store, syncer *amc.Synchronizer, metrics *Metrics, logger *slog.Logger, schedule string) (*DueCheckScheduler, error) {
	if _, err := cronParser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("invalid due check schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DueCheckScheduler{
		Store:        store,
		Synchronizer: syncer,
		Metrics:      metrics,
		Logger:       logger.With("component", "scheduler"),
		Schedule:     schedule,
		Enabled:      true,
		Now:          time.Now,
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
	}, nil
}

// Start registers the due-check job and starts the cron loop.
func (s *DueCheckScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.Logger.Info("scheduler disabled, not starting")
		return nil
	}
	if s.started {
		return nil
	}

	if _, err := s.cron.AddFunc(s.Schedule, func() {
		if _, err := s.RunNow(context.Background()); err != nil && !errors.Is(err, ErrDueCheckRunning) {
			s.Logger.Error("scheduled due check failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("register due check job: %w", err)
	}
	s.cron.Start()
	s.started = true

	s.Logger.Info("scheduler started", "schedule", s.Schedule, "next_run", s.NextRunTime())
	return nil
}

// Stop stops the cron loop and waits for a running batch to finish.
func (s *DueCheckScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	<-s.cron.Stop().Done()
	s.started = false
	s.Logger.Info("scheduler stopped")
}

// NextRunTime returns when the next scheduled run will occur.
func (s *DueCheckScheduler) NextRunTime() time.Time {
	sched, err := cronParser.Parse(s.Schedule)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(s.Now())
}

// RunNow executes one due-check batch and records it. Returns
// ErrDueCheckRunning without doing anything if a batch is already in flight.
func (s *DueCheckScheduler) RunNow(ctx context.Context) (sqlite.DueCheckRun, error) {
	if !s.running.TryLock() {
		return sqlite.DueCheckRun{}, ErrDueCheckRunning
	}
	defer s.running.Unlock()

	run := sqlite.DueCheckRun{
		ID:        uuid.NewString(),
		Status:    "running",
		StartedAt: s.Now(),
	}
	if err := s.Store.SaveDueCheckRun(ctx, run); err != nil {
		return run, fmt.Errorf("failed to save run record: %w", err)
	}

	result, err := s.Synchronizer.RunDueCheck(ctx)

	completed := s.Now()
	run.CompletedAt = &completed
	run.Result = result
	run.Status = "completed"
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
	}
	s.Metrics.ObserveDueCheck(result, err, completed.Sub(run.StartedAt), completed)

	if saveErr := s.Store.SaveDueCheckRun(ctx, run); saveErr != nil {
		s.Logger.Error("failed to update run record", "run_id", run.ID, "error", saveErr)
	}
	if err != nil {
		return run, err
	}

	s.Logger.Info("due check run recorded", "run_id", run.ID,
		"updated", result.Updated, "errors", result.Errors, "new_payments", result.NewPaymentsAdded)
	return run, nil
}
