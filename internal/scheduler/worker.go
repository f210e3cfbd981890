package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pcarvalho/brandwatch/internal/collector"
	"github.com/pcarvalho/brandwatch/internal/queue"
)

// TriggerQueue delivers control messages pushed by the API process.
type TriggerQueue interface {
	Pop(ctx context.Context, timeout time.Duration) (*queue.TriggerJob, error)
}

// ConsumeTriggers processes "run now" and "reschedule" messages until ctx is
// cancelled. Immediate collections run inline; the per-tenant lock in the
// orchestrator rejects a trigger that overlaps a scheduled run.
func (s *Scheduler) ConsumeTriggers(ctx context.Context, triggers TriggerQueue, pollTimeout time.Duration) {
	s.logger.Info("Trigger consumer started")

	for {
		if ctx.Err() != nil {
			s.logger.Info("Trigger consumer stopped")
			return
		}

		job, err := triggers.Pop(ctx, pollTimeout)
		if err != nil {
			if errors.Is(err, queue.ErrTimeout) || ctx.Err() != nil {
				continue
			}
			s.logger.Error("Failed to pop trigger", zap.Error(err))
			continue
		}

		switch job.Type {
		case queue.TriggerCollect:
			s.logger.Info("Manual collection triggered",
				zap.String("tenant_id", job.TenantID),
				zap.String("trigger_id", job.ID),
			)
			if _, err := s.runner.Run(ctx, job.TenantID); err != nil {
				if errors.Is(err, collector.ErrAlreadyRunning) {
					s.logger.Warn("Manual trigger skipped, collection already running",
						zap.String("tenant_id", job.TenantID),
					)
					continue
				}
				s.logger.Error("Manual collection failed",
					zap.String("tenant_id", job.TenantID),
					zap.Error(err),
				)
			}

		case queue.TriggerReschedule:
			s.logger.Info("Reschedule triggered", zap.String("tenant_id", job.TenantID))
			s.Schedule(job.TenantID)

		default:
			s.logger.Warn("Unknown trigger type",
				zap.String("type", string(job.Type)),
				zap.String("tenant_id", job.TenantID),
			)
		}
	}
}
