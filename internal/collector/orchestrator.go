package collector

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pcarvalho/brandwatch/internal/db"
	"github.com/pcarvalho/brandwatch/internal/metrics"
	"github.com/pcarvalho/brandwatch/internal/provider"
	"github.com/pcarvalho/brandwatch/internal/sentiment"
)

// ErrAlreadyRunning is returned when a collection is triggered for a tenant
// that already has one in flight.
var ErrAlreadyRunning = errors.New("collection already running for tenant")

// Store is the persistence surface the orchestrator needs.
type Store interface {
	GetTenantKeywords(tenantID string) ([]string, error)
	CreateCollectionJob(job *db.CollectionJob) error
	UpdateCollectionJob(job *db.CollectionJob) error
	UpsertNewsRecord(rec *db.NewsRecord) error
	UpsertSocialRecord(rec *db.SocialRecord) error
	SaveSnapshot(snap *db.MonitoringSnapshot) error
}

// Searcher performs one logical provider request with credential fail-over.
type Searcher interface {
	Search(ctx context.Context, endpoint string) (*provider.Result, error)
}

// SnapshotCache keeps the latest snapshot hot for the dashboard read path.
type SnapshotCache interface {
	CacheSnapshot(ctx context.Context, tenantID string, snapshot interface{}) error
}

// Orchestrator runs one tenant's collection job end to end: keyword loop,
// sentiment scoring, persistence and the final snapshot refresh. Keywords are
// processed strictly sequentially; one keyword's failure never aborts the
// loop, only a failure before the loop fails the job.
type Orchestrator struct {
	store   Store
	client  Searcher
	cache   SnapshotCache
	metrics *metrics.Collector
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	running map[string]bool
}

func NewOrchestrator(store Store, client Searcher, cache SnapshotCache, collector *metrics.Collector, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:   store,
		client:  client,
		cache:   cache,
		metrics: collector,
		logger:  logger,
		now:     time.Now,
		running: make(map[string]bool),
	}
}

// Run executes one collection job for the tenant. The returned job is the
// terminal snapshot; the returned error is non-nil only for job-level
// failures (per-keyword failures live in the job metadata).
func (o *Orchestrator) Run(ctx context.Context, tenantID string) (*db.CollectionJob, error) {
	if !o.tryLock(tenantID) {
		return nil, ErrAlreadyRunning
	}
	defer o.unlock(tenantID)

	start := o.now()
	logger := o.logger.With(zap.String("tenant_id", tenantID))

	job := db.CollectionJob{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Status:    db.JobStatusPending,
		Keywords:  db.StringSlice{},
		StartTime: start,
		Metadata:  db.JSONB{},
	}
	if err := o.store.CreateCollectionJob(&job); err != nil {
		return nil, fmt.Errorf("failed to create collection job: %w", err)
	}

	o.metrics.RecordJobStart(tenantID)
	logger = logger.With(zap.String("job_id", job.ID))

	keywords, err := o.store.GetTenantKeywords(tenantID)
	if err != nil {
		return o.failJob(job, fmt.Sprintf("failed to load keywords: %v", err), logger)
	}
	if len(keywords) == 0 {
		return o.failJob(job, "tenant has no keywords configured", logger)
	}

	job.Keywords = keywords
	job.TotalKeywords = len(keywords)
	job.Status = db.JobStatusRunning
	if err := o.store.UpdateCollectionJob(&job); err != nil {
		return o.failJob(job, fmt.Sprintf("failed to start collection job: %v", err), logger)
	}

	logger.Info("Collection job started", zap.Int("total_keywords", len(keywords)))

	agg := newSnapshotAggregator()

	for _, keyword := range keywords {
		outcome := o.collectKeyword(ctx, &job, keyword, agg, logger)
		job = ApplyOutcome(job, outcome)
		if err := o.store.UpdateCollectionJob(&job); err != nil {
			logger.Error("Failed to persist job progress",
				zap.String("keyword", keyword),
				zap.Error(err),
			)
		}
		o.metrics.RecordKeywordProcessed(tenantID)
	}

	o.refreshSnapshot(ctx, &job, agg, logger)

	job = Finalize(job, db.JobStatusCompleted, "", o.now())
	if err := o.store.UpdateCollectionJob(&job); err != nil {
		logger.Error("Failed to persist completed job", zap.Error(err))
	}

	o.metrics.RecordJobEnd(tenantID, string(db.JobStatusCompleted), o.now().Sub(start))
	logger.Info("Collection job completed",
		zap.Int("processed_keywords", job.ProcessedKeywords),
		zap.Int("keyword_errors", len(metadataErrors(job.Metadata))),
		zap.Duration("duration", o.now().Sub(start)),
	)

	return &job, nil
}

// collectKeyword gathers one keyword across both platforms. Errors are
// returned inside the outcome, never propagated.
func (o *Orchestrator) collectKeyword(ctx context.Context, job *db.CollectionJob, keyword string, agg *snapshotAggregator, logger *zap.Logger) KeywordOutcome {
	outcome := KeywordOutcome{Keyword: keyword}

	if strings.TrimSpace(keyword) == "" {
		outcome.Err = fmt.Errorf("empty keyword")
		o.metrics.RecordKeywordFailure(job.TenantID, "all")
		return outcome
	}

	var errs []string

	stored, err := o.collectNews(ctx, job, keyword, agg)
	outcome.NewsStored = stored
	if err != nil {
		errs = append(errs, fmt.Sprintf("news: %v", err))
		o.metrics.RecordKeywordFailure(job.TenantID, string(db.PlatformNews))
		logger.Warn("Keyword collection failed",
			zap.String("keyword", keyword),
			zap.String("platform", string(db.PlatformNews)),
			zap.Error(err),
		)
	}

	stored, err = o.collectSocial(ctx, job, keyword, agg)
	outcome.SocialStored = stored
	if err != nil {
		errs = append(errs, fmt.Sprintf("social: %v", err))
		o.metrics.RecordKeywordFailure(job.TenantID, string(db.PlatformSocial))
		logger.Warn("Keyword collection failed",
			zap.String("keyword", keyword),
			zap.String("platform", string(db.PlatformSocial)),
			zap.Error(err),
		)
	}

	if len(errs) > 0 {
		outcome.Err = errors.New(strings.Join(errs, "; "))
	}
	return outcome
}

func (o *Orchestrator) collectNews(ctx context.Context, job *db.CollectionJob, keyword string, agg *snapshotAggregator) (int, error) {
	endpoint := "/search/news?q=" + url.QueryEscape(keyword)
	result, err := o.client.Search(ctx, endpoint)
	if err != nil {
		o.metrics.RecordProviderRequest(job.TenantID, string(provider.KindOf(err)))
		return 0, err
	}
	o.metrics.RecordProviderRequest(job.TenantID, "success")

	resp, err := provider.ParseNewsResponse(result.Body)
	if err != nil {
		return 0, err
	}

	stored := 0
	for _, item := range resp.Items {
		scored := sentiment.Score(item.Title + " " + item.Description)
		rec := &db.NewsRecord{
			ID:              uuid.New().String(),
			TenantID:        job.TenantID,
			Keyword:         keyword,
			CollectionJobID: job.ID,
			SourceID:        item.ID,
			Title:           item.Title,
			URL:             item.URL,
			PublishedAt:     item.PublishedAt,
			SourceName:      item.Source,
			SentimentScore:  scored.Score,
			SentimentLabel:  string(scored.Category),
			RawPayload:      db.JSONB{"description": item.Description},
			CollectedAt:     o.now(),
		}
		if err := o.store.UpsertNewsRecord(rec); err != nil {
			// Persistence failures cost this item, not the keyword.
			o.logger.Error("Failed to store news record",
				zap.String("tenant_id", job.TenantID),
				zap.String("source_id", item.ID),
				zap.Error(err),
			)
			continue
		}
		stored++
		agg.add(db.PlatformNews, item.Title, item.URL, scored)
		o.metrics.RecordSentiment(job.TenantID, string(db.PlatformNews), string(scored.Category), scored.Score)
	}

	o.metrics.RecordStored(job.TenantID, string(db.PlatformNews), stored)
	return stored, nil
}

func (o *Orchestrator) collectSocial(ctx context.Context, job *db.CollectionJob, keyword string, agg *snapshotAggregator) (int, error) {
	endpoint := "/search/social?q=" + url.QueryEscape(keyword)
	result, err := o.client.Search(ctx, endpoint)
	if err != nil {
		o.metrics.RecordProviderRequest(job.TenantID, string(provider.KindOf(err)))
		return 0, err
	}
	o.metrics.RecordProviderRequest(job.TenantID, "success")

	resp, err := provider.ParseSocialResponse(result.Body)
	if err != nil {
		return 0, err
	}

	stored := 0
	for _, item := range resp.Items {
		scored := sentiment.Score(item.Text)
		rec := &db.SocialRecord{
			ID:              uuid.New().String(),
			TenantID:        job.TenantID,
			Keyword:         keyword,
			CollectionJobID: job.ID,
			SourceID:        item.ID,
			Title:           item.Text,
			URL:             item.URL,
			PublishedAt:     item.PublishedAt,
			SourceName:      item.Platform,
			SentimentScore:  scored.Score,
			SentimentLabel:  string(scored.Category),
			RawPayload:      db.JSONB{"author": item.Author},
			CollectedAt:     o.now(),
		}
		if err := o.store.UpsertSocialRecord(rec); err != nil {
			o.logger.Error("Failed to store social record",
				zap.String("tenant_id", job.TenantID),
				zap.String("source_id", item.ID),
				zap.Error(err),
			)
			continue
		}
		stored++
		agg.add(db.PlatformSocial, item.Text, item.URL, scored)
		o.metrics.RecordSentiment(job.TenantID, string(db.PlatformSocial), string(scored.Category), scored.Score)
	}

	o.metrics.RecordStored(job.TenantID, string(db.PlatformSocial), stored)
	return stored, nil
}

func (o *Orchestrator) refreshSnapshot(ctx context.Context, job *db.CollectionJob, agg *snapshotAggregator, logger *zap.Logger) {
	// A run that collected nothing (every keyword failed, or the provider
	// returned no items) must not wipe the tenant's last good snapshot.
	if agg.empty() {
		logger.Info("Skipping snapshot refresh, nothing collected")
		return
	}

	snap := agg.snapshot(job.TenantID, job.ID, o.now())
	if err := o.store.SaveSnapshot(snap); err != nil {
		logger.Error("Failed to refresh monitoring snapshot", zap.Error(err))
		return
	}
	if o.cache != nil {
		if err := o.cache.CacheSnapshot(ctx, job.TenantID, snap); err != nil {
			logger.Warn("Failed to cache monitoring snapshot", zap.Error(err))
		}
	}
}

func (o *Orchestrator) failJob(job db.CollectionJob, message string, logger *zap.Logger) (*db.CollectionJob, error) {
	failed := Finalize(job, db.JobStatusFailed, message, o.now())
	if err := o.store.UpdateCollectionJob(&failed); err != nil {
		logger.Error("Failed to persist failed job", zap.Error(err))
	}
	o.metrics.RecordJobEnd(job.TenantID, string(db.JobStatusFailed), o.now().Sub(job.StartTime))
	logger.Error("Collection job failed", zap.String("reason", message))
	return &failed, fmt.Errorf("collection job failed: %s", message)
}

func (o *Orchestrator) tryLock(tenantID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running[tenantID] {
		return false
	}
	o.running[tenantID] = true
	return true
}

func (o *Orchestrator) unlock(tenantID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.running, tenantID)
}
