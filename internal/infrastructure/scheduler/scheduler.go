package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	partnerapp "github.com/cashflow/backend/internal/application/partner"
	"github.com/cashflow/backend/internal/infrastructure/config"
)

// cronTickerInterval is the interval at which the scheduler checks for due jobs
const cronTickerInterval = 1 * time.Minute

// ErrSchedulerNotRunning is returned when a manual trigger hits a stopped scheduler
var ErrSchedulerNotRunning = errors.New("scheduler is not running")

// DashboardRebuilder precomputes the dashboard snapshots
type DashboardRebuilder interface {
	RebuildAll(ctx context.Context) error
}

// ClassificationSweeper re-evaluates every customer's payment-behavior class
type ClassificationSweeper interface {
	SweepClassifications(ctx context.Context, asOf time.Time) (*partnerapp.SweepResponse, error)
}

// dailyJob is one hour:minute slot with the work to run there
type dailyJob struct {
	name   string
	hour   int
	minute int
	run    func(ctx context.Context)
}

// MaintenanceScheduler drives the nightly maintenance jobs off a minute
// ticker: the dashboard snapshot rebuild and the classification sweep. Both
// jobs are idempotent, so a missed or doubled tick is harmless.
type MaintenanceScheduler struct {
	config    config.SchedulerConfig
	rebuilder DashboardRebuilder
	sweeper   ClassificationSweeper
	logger    *zap.Logger
	jobs      []dailyJob

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastRunAt map[string]time.Time
	nextRunAt map[string]time.Time
}

// NewMaintenanceScheduler creates a new MaintenanceScheduler
func NewMaintenanceScheduler(
	cfg config.SchedulerConfig,
	rebuilder DashboardRebuilder,
	sweeper ClassificationSweeper,
	logger *zap.Logger,
) *MaintenanceScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MaintenanceScheduler{
		config:    cfg,
		rebuilder: rebuilder,
		sweeper:   sweeper,
		logger:    logger,
		lastRunAt: make(map[string]time.Time),
		nextRunAt: make(map[string]time.Time),
	}
	s.jobs = []dailyJob{
		{name: "dashboard_rebuild", hour: cfg.RebuildHour, minute: cfg.RebuildMinute, run: s.runDashboardRebuild},
		{name: "classification_sweep", hour: cfg.SweepHour, minute: cfg.SweepMinute, run: s.runClassificationSweep},
	}
	return s
}

// Start starts the scheduler loop. A disabled scheduler starts as a no-op.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	if !s.config.Enabled {
		s.logger.Info("Maintenance scheduler disabled by configuration")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, job := range s.jobs {
		s.calculateNextRunTime(job)
	}

	s.wg.Add(1)
	go s.cronLoop(ctx)

	s.logger.Info("Maintenance scheduler started",
		zap.Int("rebuild_hour", s.config.RebuildHour),
		zap.Int("rebuild_minute", s.config.RebuildMinute),
		zap.Int("sweep_hour", s.config.SweepHour),
		zap.Int("sweep_minute", s.config.SweepMinute),
	)
	return nil
}

// Stop stops the scheduler and waits for in-flight jobs
func (s *MaintenanceScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Maintenance scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Maintenance scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *MaintenanceScheduler) cronLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(cronTickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, job := range s.jobs {
				if now.Hour() == job.hour && now.Minute() == job.minute {
					s.execute(ctx, job)
				}
			}
		}
	}
}

func (s *MaintenanceScheduler) execute(parent context.Context, job dailyJob) {
	now := time.Now()
	s.mu.Lock()
	s.lastRunAt[job.name] = now
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(parent, s.config.JobTimeout)
	defer cancel()

	job.run(ctx)
	s.calculateNextRunTime(job)
}

func (s *MaintenanceScheduler) calculateNextRunTime(job dailyJob) {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), job.hour, job.minute, 0, 0, now.Location())
	if now.After(next) {
		next = next.AddDate(0, 0, 1)
	}
	s.mu.Lock()
	s.nextRunAt[job.name] = next
	s.mu.Unlock()
}

func (s *MaintenanceScheduler) runDashboardRebuild(ctx context.Context) {
	s.logger.Info("Starting nightly dashboard rebuild")
	started := time.Now()
	if err := s.rebuilder.RebuildAll(ctx); err != nil {
		s.logger.Error("Nightly dashboard rebuild failed", zap.Error(err))
		return
	}
	s.logger.Info("Nightly dashboard rebuild finished", zap.Duration("took", time.Since(started)))
}

func (s *MaintenanceScheduler) runClassificationSweep(ctx context.Context) {
	s.logger.Info("Starting daily classification sweep")
	started := time.Now()
	summary, err := s.sweeper.SweepClassifications(ctx, time.Now())
	if err != nil {
		s.logger.Error("Daily classification sweep failed", zap.Error(err))
		return
	}
	s.logger.Info("Daily classification sweep finished",
		zap.Int("customers", summary.Customers),
		zap.Int("reclassified", summary.Reclassified),
		zap.Int("failed", summary.Failed),
		zap.Duration("took", time.Since(started)),
	)
}

// TriggerRebuild runs the dashboard rebuild immediately. Uses a background
// context so an HTTP caller disconnecting does not cancel the job.
func (s *MaintenanceScheduler) TriggerRebuild() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
		defer cancel()
		s.runDashboardRebuild(ctx)
	}()
	return nil
}

// TriggerSweep runs the classification sweep immediately
func (s *MaintenanceScheduler) TriggerSweep() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
		defer cancel()
		s.runClassificationSweep(ctx)
	}()
	return nil
}

// GetStatus returns the scheduler state for the health endpoint
func (s *MaintenanceScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]any{
		"enabled":    s.config.Enabled,
		"is_running": s.isRunning,
	}
	for _, job := range s.jobs {
		if last, ok := s.lastRunAt[job.name]; ok {
			status[job.name+"_last_run_at"] = last
		}
		if next, ok := s.nextRunAt[job.name]; ok {
			status[job.name+"_next_run_at"] = next
		}
	}
	return status
}
