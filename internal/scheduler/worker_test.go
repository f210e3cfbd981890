package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/pcarvalho/brandwatch/internal/collector"
	"github.com/pcarvalho/brandwatch/internal/queue"
)

type scriptedTriggerQueue struct {
	jobs []*queue.TriggerJob
}

func (q *scriptedTriggerQueue) Pop(ctx context.Context, timeout time.Duration) (*queue.TriggerJob, error) {
	if len(q.jobs) == 0 {
		return nil, queue.ErrTimeout
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return job, nil
}

func TestConsumeTriggersRunsCollection(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	future := time.Now().Add(time.Hour)
	store := newFakeSettingsStore(enabledSetting("tenant-1", &future))
	runner := newFakeRunner()
	sched := newTestScheduler(ctx, store, runner)

	triggers := &scriptedTriggerQueue{jobs: []*queue.TriggerJob{
		{ID: "trig-1", Type: queue.TriggerCollect, TenantID: "tenant-1"},
	}}

	go sched.ConsumeTriggers(ctx, triggers, 10*time.Millisecond)

	select {
	case tenantID := <-runner.ran:
		assert.Equal(t, "tenant-1", tenantID)
	case <-time.After(time.Second):
		t.Fatal("trigger never ran the collection")
	}
}

func TestConsumeTriggersRescheduleArmsTimer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	future := time.Now().Add(time.Hour)
	store := newFakeSettingsStore(enabledSetting("tenant-1", &future))
	sched := newTestScheduler(ctx, store, newFakeRunner())

	triggers := &scriptedTriggerQueue{jobs: []*queue.TriggerJob{
		{ID: "trig-1", Type: queue.TriggerReschedule, TenantID: "tenant-1"},
	}}

	go sched.ConsumeTriggers(ctx, triggers, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return timerCount(sched) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestConsumeTriggersToleratesAlreadyRunning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	future := time.Now().Add(time.Hour)
	store := newFakeSettingsStore(enabledSetting("tenant-1", &future))
	runner := newFakeRunner()
	runner.err = collector.ErrAlreadyRunning
	sched := newTestScheduler(ctx, store, runner)

	triggers := &scriptedTriggerQueue{jobs: []*queue.TriggerJob{
		{ID: "trig-1", Type: queue.TriggerCollect, TenantID: "tenant-1"},
		{ID: "trig-2", Type: queue.TriggerCollect, TenantID: "tenant-1"},
	}}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sched.ConsumeTriggers(ctx, triggers, 10*time.Millisecond)
	}()

	// Both triggers are consumed; the busy tenant is skipped, not crashed on.
	assert.Eventually(t, func() bool {
		return runner.runCount() == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestConsumeTriggersIgnoresUnknownType(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newFakeSettingsStore()
	runner := newFakeRunner()
	sched := NewScheduler(store, runner, zap.NewNop())

	triggers := &scriptedTriggerQueue{jobs: []*queue.TriggerJob{
		{ID: "trig-1", Type: queue.TriggerType("bogus"), TenantID: "tenant-1"},
	}}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sched.ConsumeTriggers(ctx, triggers, 10*time.Millisecond)
	}()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, runner.runCount())

	cancel()
	<-done
}
