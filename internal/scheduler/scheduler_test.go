package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pcarvalho/brandwatch/internal/config"
	"github.com/pcarvalho/brandwatch/internal/db"
	"github.com/pcarvalho/brandwatch/internal/metrics"
)

// Shared across the package: promauto registers on the default registry, so
// only one collector may be built per test binary.
var testMetrics = metrics.NewCollector(config.MimirConfig{})

type fakeSettingsStore struct {
	mu       sync.Mutex
	settings map[string]*db.CronSetting
	runTimes map[string]time.Time
}

func newFakeSettingsStore(settings ...*db.CronSetting) *fakeSettingsStore {
	store := &fakeSettingsStore{
		settings: make(map[string]*db.CronSetting),
		runTimes: make(map[string]time.Time),
	}
	for _, setting := range settings {
		store.settings[setting.TenantID] = setting
	}
	return store
}

func (s *fakeSettingsStore) GetCronSetting(tenantID string) (*db.CronSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setting, ok := s.settings[tenantID]
	if !ok {
		return nil, fmt.Errorf("no cron setting for %s", tenantID)
	}
	copied := *setting
	return &copied, nil
}

func (s *fakeSettingsStore) ListEnabledCronSettings() ([]*db.CronSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var enabled []*db.CronSetting
	for _, setting := range s.settings {
		if setting.IsEnabled {
			copied := *setting
			enabled = append(enabled, &copied)
		}
	}
	return enabled, nil
}

func (s *fakeSettingsStore) UpdateCronRunTimes(tenantID string, lastRunAt, nextRunAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runTimes[tenantID] = nextRunAt
	return nil
}

type fakeRunner struct {
	mu   sync.Mutex
	runs []string
	err  error
	ran  chan string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{ran: make(chan string, 16)}
}

func (r *fakeRunner) Run(ctx context.Context, tenantID string) (*db.CollectionJob, error) {
	r.mu.Lock()
	r.runs = append(r.runs, tenantID)
	err := r.err
	r.mu.Unlock()
	r.ran <- tenantID
	if err != nil {
		return nil, err
	}
	return &db.CollectionJob{TenantID: tenantID, Status: db.JobStatusCompleted}, nil
}

func (r *fakeRunner) runCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

func newTestScheduler(ctx context.Context, store SettingsStore, runner Runner) *Scheduler {
	sched := NewScheduler(store, runner, zap.NewNop())
	sched.mu.Lock()
	sched.baseCtx = ctx
	sched.mu.Unlock()
	return sched
}

func timerCount(s *Scheduler) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cancels)
}

func enabledSetting(tenantID string, nextRunAt *time.Time) *db.CronSetting {
	return &db.CronSetting{
		TenantID:      tenantID,
		IsEnabled:     true,
		IntervalHours: 1,
		NextRunAt:     nextRunAt,
		Timezone:      "UTC",
	}
}

func TestScheduleIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	future := time.Now().Add(time.Hour)
	store := newFakeSettingsStore(enabledSetting("tenant-1", &future))
	sched := newTestScheduler(ctx, store, newFakeRunner())

	sched.Schedule("tenant-1")
	sched.Schedule("tenant-1")
	assert.Equal(t, 1, timerCount(sched))

	sched.Cancel("tenant-1")
	assert.Equal(t, 0, timerCount(sched))

	// Cancelling a tenant with no timer is a no-op.
	sched.Cancel("tenant-1")
	assert.Equal(t, 0, timerCount(sched))
}

func TestScheduleDisabledSettingCancelsTimer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	future := time.Now().Add(time.Hour)
	setting := enabledSetting("tenant-1", &future)
	store := newFakeSettingsStore(setting)
	sched := newTestScheduler(ctx, store, newFakeRunner())

	sched.Schedule("tenant-1")
	require.Equal(t, 1, timerCount(sched))

	store.mu.Lock()
	setting.IsEnabled = false
	store.mu.Unlock()

	sched.Schedule("tenant-1")
	assert.Equal(t, 0, timerCount(sched))
}

func TestScheduleMissedRunFiresCatchUpOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// next_run_at is long past: the timer fires immediately, exactly once.
	past := time.Now().Add(-3 * time.Hour)
	store := newFakeSettingsStore(enabledSetting("tenant-1", &past))
	runner := newFakeRunner()
	sched := newTestScheduler(ctx, store, runner)

	sched.Schedule("tenant-1")

	select {
	case tenantID := <-runner.ran:
		assert.Equal(t, "tenant-1", tenantID)
	case <-time.After(time.Second):
		t.Fatal("catch-up run never fired")
	}

	// Three missed intervals collapse into the one catch-up run.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, runner.runCount())

	// The next run was pushed a full interval out and persisted.
	store.mu.Lock()
	nextRun := store.runTimes["tenant-1"]
	store.mu.Unlock()
	assert.WithinDuration(t, time.Now().Add(time.Hour), nextRun, time.Minute)
}

func TestScheduleFutureRunDoesNotFireEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	future := time.Now().Add(time.Hour)
	store := newFakeSettingsStore(enabledSetting("tenant-1", &future))
	runner := newFakeRunner()
	sched := newTestScheduler(ctx, store, runner)

	sched.Schedule("tenant-1")

	select {
	case <-runner.ran:
		t.Fatal("run fired before next_run_at")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStartReconcilesEnabledTenants(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	future := time.Now().Add(time.Hour)
	disabled := enabledSetting("tenant-off", &future)
	disabled.IsEnabled = false
	store := newFakeSettingsStore(
		enabledSetting("tenant-1", &future),
		enabledSetting("tenant-2", &future),
		disabled,
	)
	sched := NewScheduler(store, newFakeRunner(), zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		sched.Start(ctx)
	}()

	require.Eventually(t, func() bool {
		return timerCount(sched) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, 0, timerCount(sched))
}
