package collector

import (
	"time"

	"github.com/pcarvalho/brandwatch/internal/db"
	"github.com/pcarvalho/brandwatch/internal/sentiment"
)

const topItemLimit = 10

// snapshotAggregator accumulates the denormalized monitoring snapshot while
// the job runs, so refreshing it never needs to scan historical tables.
type snapshotAggregator struct {
	newsCount   int
	socialCount int
	scoreSum    float64
	scoredCount int
	positive    int
	negative    int
	neutral     int
	topItems    []map[string]interface{}
}

func newSnapshotAggregator() *snapshotAggregator {
	return &snapshotAggregator{}
}

func (a *snapshotAggregator) empty() bool {
	return a.newsCount == 0 && a.socialCount == 0
}

func (a *snapshotAggregator) add(platform db.Platform, title, itemURL string, result sentiment.Result) {
	if platform == db.PlatformNews {
		a.newsCount++
	} else {
		a.socialCount++
	}

	a.scoreSum += result.Score
	a.scoredCount++

	switch result.Category {
	case sentiment.CategoryPositive:
		a.positive++
	case sentiment.CategoryNegative:
		a.negative++
	default:
		a.neutral++
	}

	if len(a.topItems) < topItemLimit {
		a.topItems = append(a.topItems, map[string]interface{}{
			"title":    title,
			"url":      itemURL,
			"score":    result.Score,
			"label":    string(result.Category),
			"platform": string(platform),
		})
	}
}

func (a *snapshotAggregator) snapshot(tenantID, jobID string, now time.Time) *db.MonitoringSnapshot {
	avg := 0.0
	if a.scoredCount > 0 {
		avg = a.scoreSum / float64(a.scoredCount)
	}

	items := a.topItems
	if items == nil {
		items = []map[string]interface{}{}
	}

	return &db.MonitoringSnapshot{
		TenantID:        tenantID,
		CollectionJobID: jobID,
		NewsCount:       a.newsCount,
		SocialCount:     a.socialCount,
		AverageScore:    avg,
		PositiveCount:   a.positive,
		NegativeCount:   a.negative,
		NeutralCount:    a.neutral,
		TopItems:        db.JSONB{"items": items},
		RefreshedAt:     now,
	}
}
