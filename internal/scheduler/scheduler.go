package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pcarvalho/brandwatch/internal/db"
)

// Runner executes one collection job for a tenant.
type Runner interface {
	Run(ctx context.Context, tenantID string) (*db.CollectionJob, error)
}

// SettingsStore is the persistence surface the scheduler needs for cron
// bookkeeping.
type SettingsStore interface {
	GetCronSetting(tenantID string) (*db.CronSetting, error)
	ListEnabledCronSettings() ([]*db.CronSetting, error)
	UpdateCronRunTimes(tenantID string, lastRunAt, nextRunAt time.Time) error
}

// Scheduler owns one recurring timer per enabled tenant. Timer handles live
// only in memory; next_run_at is persisted after every run so a restart can
// reconcile against the clock instead of losing the schedule.
type Scheduler struct {
	store  SettingsStore
	runner Runner
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	baseCtx context.Context
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

func NewScheduler(store SettingsStore, runner Runner, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		store:   store,
		runner:  runner,
		logger:  logger,
		now:     time.Now,
		cancels: make(map[string]context.CancelFunc),
	}
}

// Start reconciles persisted schedules against the clock and arms one timer
// per enabled tenant. Blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	settings, err := s.store.ListEnabledCronSettings()
	if err != nil {
		s.logger.Error("Failed to load cron settings on startup", zap.Error(err))
	} else {
		s.logger.Info("Reconciling tenant schedules", zap.Int("count", len(settings)))
		for _, setting := range settings {
			s.Schedule(setting.TenantID)
		}
	}

	<-ctx.Done()
	s.logger.Info("Stopping scheduler")

	s.mu.Lock()
	for tenantID, cancel := range s.cancels {
		cancel()
		delete(s.cancels, tenantID)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Schedule installs the tenant's recurring timer, cancelling any existing one
// first, so re-scheduling is idempotent. A disabled setting just cancels.
func (s *Scheduler) Schedule(tenantID string) {
	setting, err := s.store.GetCronSetting(tenantID)
	if err != nil {
		s.logger.Error("Failed to load cron setting",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		return
	}

	s.Cancel(tenantID)

	if !setting.IsEnabled || setting.IntervalHours <= 0 {
		return
	}

	s.mu.Lock()
	if s.baseCtx == nil || s.baseCtx.Err() != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancels[tenantID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runLoop(ctx, setting)
	}()

	s.logger.Info("Tenant scheduled",
		zap.String("tenant_id", tenantID),
		zap.Int("interval_hours", setting.IntervalHours),
	)
}

// Cancel stops and removes the tenant's timer if one is installed.
func (s *Scheduler) Cancel(tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.cancels[tenantID]; ok {
		cancel()
		delete(s.cancels, tenantID)
		s.logger.Info("Tenant schedule cancelled", zap.String("tenant_id", tenantID))
	}
}

func (s *Scheduler) runLoop(ctx context.Context, setting *db.CronSetting) {
	interval := time.Duration(setting.IntervalHours) * time.Hour

	// Missed runs collapse into a single catch-up run; a tenant that was
	// down for three intervals gets one collection, not three.
	delay := time.Duration(0)
	if setting.NextRunAt != nil {
		if until := setting.NextRunAt.Sub(s.now()); until > 0 {
			delay = until
		}
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		s.runOnce(ctx, setting.TenantID, interval)
		timer.Reset(interval)
	}
}

func (s *Scheduler) runOnce(ctx context.Context, tenantID string, interval time.Duration) {
	s.logger.Info("Scheduled collection firing", zap.String("tenant_id", tenantID))

	if _, err := s.runner.Run(ctx, tenantID); err != nil {
		s.logger.Error("Scheduled collection failed",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
	}

	lastRun := s.now()
	nextRun := lastRun.Add(interval)
	if err := s.store.UpdateCronRunTimes(tenantID, lastRun, nextRun); err != nil {
		s.logger.Error("Failed to persist cron run times",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
	}
}
