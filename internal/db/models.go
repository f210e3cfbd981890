package db

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

type Platform string

const (
	PlatformNews   Platform = "news"
	PlatformSocial Platform = "social"
)

// CollectionJob is one run of gathering content for all of a tenant's
// keywords. Status only moves pending -> running -> completed|failed and a
// terminal job is never mutated again.
type CollectionJob struct {
	ID                string      `json:"id" db:"id"`
	TenantID          string      `json:"-" db:"tenant_id"`
	Status            JobStatus   `json:"status" db:"status"`
	Keywords          StringSlice `json:"keywords" db:"keywords"`
	TotalKeywords     int         `json:"total_keywords" db:"total_keywords"`
	ProcessedKeywords int         `json:"processed_keywords" db:"processed_keywords"`
	StartTime         time.Time   `json:"start_time" db:"start_time"`
	EndTime           *time.Time  `json:"end_time,omitempty" db:"end_time"`
	ErrorMessage      *string     `json:"error_message,omitempty" db:"error_message"`
	Metadata          JSONB       `json:"metadata" db:"metadata"`
}

// NewsRecord is one collected article, owned by exactly one collection job.
type NewsRecord struct {
	ID              string    `json:"id" db:"id"`
	TenantID        string    `json:"-" db:"tenant_id"`
	Keyword         string    `json:"keyword" db:"keyword"`
	CollectionJobID string    `json:"collection_job_id" db:"collection_job_id"`
	SourceID        string    `json:"source_id" db:"source_id"`
	Title           string    `json:"title" db:"title"`
	URL             string    `json:"url" db:"url"`
	PublishedAt     time.Time `json:"published_at" db:"published_at"`
	SourceName      string    `json:"source_name" db:"source_name"`
	SentimentScore  float64   `json:"sentiment_score" db:"sentiment_score"`
	SentimentLabel  string    `json:"sentiment_label" db:"sentiment_label"`
	RawPayload      JSONB     `json:"raw_payload" db:"raw_payload"`
	CollectedAt     time.Time `json:"collected_at" db:"collected_at"`
}

// SocialRecord is one collected social post, owned by exactly one collection
// job.
type SocialRecord struct {
	ID              string    `json:"id" db:"id"`
	TenantID        string    `json:"-" db:"tenant_id"`
	Keyword         string    `json:"keyword" db:"keyword"`
	CollectionJobID string    `json:"collection_job_id" db:"collection_job_id"`
	SourceID        string    `json:"source_id" db:"source_id"`
	Title           string    `json:"title" db:"title"`
	URL             string    `json:"url" db:"url"`
	PublishedAt     time.Time `json:"published_at" db:"published_at"`
	SourceName      string    `json:"source_name" db:"source_name"`
	SentimentScore  float64   `json:"sentiment_score" db:"sentiment_score"`
	SentimentLabel  string    `json:"sentiment_label" db:"sentiment_label"`
	RawPayload      JSONB     `json:"raw_payload" db:"raw_payload"`
	CollectedAt     time.Time `json:"collected_at" db:"collected_at"`
}

// CronSetting drives whether and how often the scheduler collects for a
// tenant. One row per tenant.
type CronSetting struct {
	TenantID      string     `json:"tenant_id" db:"tenant_id"`
	IsEnabled     bool       `json:"is_enabled" db:"is_enabled"`
	IntervalHours int        `json:"interval_hours" db:"interval_hours"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty" db:"last_run_at"`
	NextRunAt     *time.Time `json:"next_run_at,omitempty" db:"next_run_at"`
	Timezone      string     `json:"timezone" db:"timezone"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// MonitoringSnapshot is the denormalized fast-read copy of a tenant's
// freshest collected data, refreshed at the end of every completed job.
type MonitoringSnapshot struct {
	TenantID        string    `json:"tenant_id" db:"tenant_id"`
	CollectionJobID string    `json:"collection_job_id" db:"collection_job_id"`
	NewsCount       int       `json:"news_count" db:"news_count"`
	SocialCount     int       `json:"social_count" db:"social_count"`
	AverageScore    float64   `json:"average_score" db:"average_score"`
	PositiveCount   int       `json:"positive_count" db:"positive_count"`
	NegativeCount   int       `json:"negative_count" db:"negative_count"`
	NeutralCount    int       `json:"neutral_count" db:"neutral_count"`
	TopItems        JSONB     `json:"top_items" db:"top_items"`
	RefreshedAt     time.Time `json:"refreshed_at" db:"refreshed_at"`
}

// CredentialHealth is the persisted health state of one provider credential.
type CredentialHealth struct {
	ID           string     `json:"id" db:"id"`
	Active       bool       `json:"active" db:"active"`
	ErrorCount   int        `json:"error_count" db:"error_count"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
	ReactivateAt *time.Time `json:"reactivate_at,omitempty" db:"reactivate_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Custom types for PostgreSQL arrays and JSONB
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = []string{}
		return nil
	}
	return json.Unmarshal(value.([]byte), s)
}

type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}
	return json.Unmarshal(value.([]byte), j)
}
