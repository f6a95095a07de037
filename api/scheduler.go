/*
scheduler.go - Periodic recalculation scheduler

PURPOSE:
  Keeps the current month's assessments fresh without anyone pressing
  "recalculate". On every tick each configured business is recalculated
  for the month that contains "now" in the engine's time zone.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on start
  - Businesses come from the config, or from the directory when none are listed
  - One failing business is logged and counted; the others still run
  - Every attempt lands in the run log through the engine

CONFIGURATION:
  - CheckInterval: How often to recalculate (default: 1 hour)
  - Enabled: Whether scheduler is active (config: scheduler.enabled)

USAGE:
  scheduler := NewRecalculationScheduler(engine, store, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Recalculate endpoint (manual recalculation)
  - attendance/engine.go: Engine.Recalculate
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// Recalculator is the part of attendance.Engine the scheduler drives.
type Recalculator interface {
	Recalculate(ctx context.Context, businessID generic.BusinessID, month generic.Month) (*attendance.Assessment, error)
	Config() attendance.Config
}

// BusinessLister enumerates businesses when none are configured.
type BusinessLister interface {
	ListBusinesses(ctx context.Context) ([]generic.BusinessID, error)
}

// ErrorCounter is told about every failed scheduled recalculation.
type ErrorCounter interface {
	IncrementSchedulerError()
}

// RecalculationScheduler handles automated recalculation of the current month.
type RecalculationScheduler struct {
	Engine        Recalculator
	Directory     BusinessLister
	Businesses    []generic.BusinessID
	CheckInterval time.Duration
	Enabled       bool
	Timeout       time.Duration // per business
	Clock         generic.Clock
	Errors        ErrorCounter
	Logger        *slog.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRecalculationScheduler creates a new scheduler.
func NewRecalculationScheduler(engine Recalculator, directory BusinessLister, logger *slog.Logger) *RecalculationScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecalculationScheduler{
		Engine:        engine,
		Directory:     directory,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Timeout:       5 * time.Minute,
		Clock:         generic.SystemClock{},
		Logger:        logger.With("component", "scheduler"),
	}
}

// Start begins the scheduler.
func (rs *RecalculationScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Logger.Info("scheduler disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run(rs.ticker, rs.stop)

	rs.Logger.Info("scheduler started", "interval", rs.CheckInterval)
}

// Stop stops the scheduler and waits for an in-flight pass to finish.
func (rs *RecalculationScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.Logger.Info("scheduler stopped")
	}
}

func (rs *RecalculationScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	// Run immediately on start
	rs.RunNow(context.Background())

	for {
		select {
		case <-ticker.C:
			rs.RunNow(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow recalculates the current month for every target business and
// reports how many runs succeeded and failed.
func (rs *RecalculationScheduler) RunNow(ctx context.Context) (processed, failed int) {
	businesses, err := rs.targets(ctx)
	if err != nil {
		rs.Logger.Error("listing businesses failed", "error", err)
		rs.countError()
		return 0, 0
	}

	loc := rs.Engine.Config().Location
	if loc == nil {
		loc = time.UTC
	}
	month := generic.MonthOf(rs.Clock.Now(), loc)

	for _, businessID := range businesses {
		runCtx, cancel := context.WithTimeout(ctx, rs.Timeout)
		_, err := rs.Engine.Recalculate(runCtx, businessID, month)
		cancel()
		if err != nil {
			failed++
			rs.countError()
			rs.Logger.Warn("scheduled recalculation failed",
				"business_id", string(businessID), "month", month.String(), "error", err)
			continue
		}
		processed++
	}

	if processed > 0 || failed > 0 {
		rs.Logger.Info("scheduled recalculation pass completed",
			"month", month.String(), "processed", processed, "failed", failed)
	}
	return processed, failed
}

func (rs *RecalculationScheduler) targets(ctx context.Context) ([]generic.BusinessID, error) {
	if len(rs.Businesses) > 0 || rs.Directory == nil {
		return rs.Businesses, nil
	}
	return rs.Directory.ListBusinesses(ctx)
}

func (rs *RecalculationScheduler) countError() {
	if rs.Errors != nil {
		rs.Errors.IncrementSchedulerError()
	}
}

// GetNextRunTime returns when the next scheduled pass will occur.
func (rs *RecalculationScheduler) GetNextRunTime() time.Time {
	return rs.Clock.Now().Add(rs.CheckInterval)
}
