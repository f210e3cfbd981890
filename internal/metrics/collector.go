package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pcarvalho/brandwatch/internal/config"
)

type Collector struct {
	config *config.MimirConfig

	// Collection job metrics
	collectionsTotal  *prometheus.CounterVec
	collectionRunning *prometheus.GaugeVec
	jobDuration       *prometheus.HistogramVec
	keywordsProcessed *prometheus.CounterVec
	keywordFailures   *prometheus.CounterVec
	recordsStored     *prometheus.CounterVec

	// Provider client metrics
	providerRequests *prometheus.CounterVec
	credentialActive *prometheus.GaugeVec
	credentialErrors *prometheus.GaugeVec

	// Sentiment metrics
	sentimentScore *prometheus.HistogramVec
	sentimentLabel *prometheus.CounterVec

	// Retention metrics
	retentionDeleted *prometheus.CounterVec
	retentionErrors  prometheus.Counter
}

func NewCollector(cfg config.MimirConfig) *Collector {
	return &Collector{
		config: &cfg,

		collectionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brandwatch_collections_total",
				Help: "Total number of collection jobs by terminal status",
			},
			[]string{"tenant_id", "status"},
		),

		collectionRunning: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "brandwatch_collection_running",
				Help: "Whether a collection job is currently running for the tenant",
			},
			[]string{"tenant_id"},
		),

		jobDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brandwatch_collection_duration_seconds",
				Help:    "Duration of collection jobs in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"tenant_id"},
		),

		keywordsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brandwatch_keywords_processed_total",
				Help: "Total number of keywords processed across collection jobs",
			},
			[]string{"tenant_id"},
		),

		keywordFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brandwatch_keyword_failures_total",
				Help: "Total number of per-keyword failures caught inside collection jobs",
			},
			[]string{"tenant_id", "platform"},
		),

		recordsStored: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brandwatch_records_stored_total",
				Help: "Total number of historical records persisted",
			},
			[]string{"tenant_id", "platform"},
		),

		providerRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brandwatch_provider_requests_total",
				Help: "Total provider requests by outcome",
			},
			[]string{"tenant_id", "outcome"},
		),

		// Credentials are shared across tenants, so these carry no tenant
		// label and are scraped off the scheduler process directly.
		credentialActive: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "brandwatch_credential_active",
				Help: "Whether the credential is active (1) or cooling down (0)",
			},
			[]string{"credential_id"},
		),

		credentialErrors: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "brandwatch_credential_error_count",
				Help: "Current error count of the credential",
			},
			[]string{"credential_id"},
		),

		sentimentScore: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brandwatch_sentiment_score",
				Help:    "Distribution of sentiment scores of collected items",
				Buckets: []float64{-1, -0.75, -0.5, -0.25, -0.1, 0, 0.1, 0.25, 0.5, 0.75, 1},
			},
			[]string{"tenant_id", "platform"},
		),

		sentimentLabel: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brandwatch_sentiment_labels_total",
				Help: "Total collected items by sentiment label",
			},
			[]string{"tenant_id", "platform", "label"},
		),

		retentionDeleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brandwatch_retention_deleted_total",
				Help: "Total historical records removed by the retention sweep",
			},
			[]string{"table"},
		),

		retentionErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "brandwatch_retention_errors_total",
				Help: "Total failed retention sweeps",
			},
		),
	}
}

func (c *Collector) RecordJobStart(tenantID string) {
	c.collectionRunning.WithLabelValues(tenantID).Set(1)
}

func (c *Collector) RecordJobEnd(tenantID, status string, duration time.Duration) {
	c.collectionRunning.WithLabelValues(tenantID).Set(0)
	c.collectionsTotal.WithLabelValues(tenantID, status).Inc()
	c.jobDuration.WithLabelValues(tenantID).Observe(duration.Seconds())
}

func (c *Collector) RecordKeywordProcessed(tenantID string) {
	c.keywordsProcessed.WithLabelValues(tenantID).Inc()
}

func (c *Collector) RecordKeywordFailure(tenantID, platform string) {
	c.keywordFailures.WithLabelValues(tenantID, platform).Inc()
}

func (c *Collector) RecordStored(tenantID, platform string, count int) {
	c.recordsStored.WithLabelValues(tenantID, platform).Add(float64(count))
}

func (c *Collector) RecordProviderRequest(tenantID, outcome string) {
	c.providerRequests.WithLabelValues(tenantID, outcome).Inc()
}

func (c *Collector) RecordCredentialState(credentialID string, active bool, errorCount int) {
	activeValue := 0.0
	if active {
		activeValue = 1.0
	}
	c.credentialActive.WithLabelValues(credentialID).Set(activeValue)
	c.credentialErrors.WithLabelValues(credentialID).Set(float64(errorCount))
}

func (c *Collector) RecordSentiment(tenantID, platform, label string, score float64) {
	c.sentimentScore.WithLabelValues(tenantID, platform).Observe(score)
	c.sentimentLabel.WithLabelValues(tenantID, platform, label).Inc()
}

func (c *Collector) RecordRetentionSweep(table string, deleted int64) {
	c.retentionDeleted.WithLabelValues(table).Add(float64(deleted))
}

func (c *Collector) RecordRetentionError() {
	c.retentionErrors.Inc()
}
