package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pcarvalho/brandwatch/internal/metrics"
)

const sweepInterval = time.Hour

// RetentionStore deletes expired historical rows.
type RetentionStore interface {
	DeleteNewsOlderThan(cutoff time.Time) (int64, error)
	DeleteSocialOlderThan(cutoff time.Time) (int64, error)
}

// RetentionSweeper deletes historical records past the retention window on
// its own hourly timer, independent of any tenant schedule. A failed sweep is
// logged and retried on the next tick, never propagated.
type RetentionSweeper struct {
	store         RetentionStore
	retentionDays int
	metrics       *metrics.Collector
	logger        *zap.Logger
	now           func() time.Time
}

func NewRetentionSweeper(store RetentionStore, retentionDays int, collector *metrics.Collector, logger *zap.Logger) *RetentionSweeper {
	return &RetentionSweeper{
		store:         store,
		retentionDays: retentionDays,
		metrics:       collector,
		logger:        logger,
		now:           time.Now,
	}
}

func (r *RetentionSweeper) Start(ctx context.Context) {
	r.logger.Info("Retention sweeper started", zap.Int("retention_days", r.retentionDays))

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Retention sweeper stopped")
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep deletes rows at or past the retention boundary: a record stored
// exactly retentionDays ago is removed.
func (r *RetentionSweeper) Sweep() {
	cutoff := r.now().AddDate(0, 0, -r.retentionDays)

	newsDeleted, err := r.store.DeleteNewsOlderThan(cutoff)
	if err != nil {
		r.logger.Error("Retention sweep failed for news data", zap.Error(err))
		r.metrics.RecordRetentionError()
	} else {
		r.metrics.RecordRetentionSweep("historical_news_data", newsDeleted)
	}

	socialDeleted, err := r.store.DeleteSocialOlderThan(cutoff)
	if err != nil {
		r.logger.Error("Retention sweep failed for social data", zap.Error(err))
		r.metrics.RecordRetentionError()
	} else {
		r.metrics.RecordRetentionSweep("historical_social_data", socialDeleted)
	}

	if newsDeleted > 0 || socialDeleted > 0 {
		r.logger.Info("Retention sweep completed",
			zap.Time("cutoff", cutoff),
			zap.Int64("news_deleted", newsDeleted),
			zap.Int64("social_deleted", socialDeleted),
		)
	}
}
