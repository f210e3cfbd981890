package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Repository struct {
	db *sqlx.DB
}

func NewConnection(databaseURL string, maxConns, maxIdle int) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Keyword operations
func (r *Repository) GetTenantKeywords(tenantID string) ([]string, error) {
	keywords := []string{}
	query := `SELECT keyword FROM tenant_keywords WHERE tenant_id = $1 ORDER BY position ASC`
	err := r.db.Select(&keywords, query, tenantID)
	return keywords, err
}

func (r *Repository) SetTenantKeywords(tenantID string, keywords []string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tenant_keywords WHERE tenant_id = $1`, tenantID); err != nil {
		return err
	}

	query := `INSERT INTO tenant_keywords (tenant_id, keyword, position) VALUES ($1, $2, $3)`
	for i, kw := range keywords {
		if _, err := tx.Exec(query, tenantID, kw, i); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Collection job operations
func (r *Repository) CreateCollectionJob(job *CollectionJob) error {
	query := `
        INSERT INTO collection_jobs (
            id, tenant_id, status, keywords, total_keywords,
            processed_keywords, start_time, end_time, error_message, metadata
        ) VALUES (
            :id, :tenant_id, :status, :keywords, :total_keywords,
            :processed_keywords, :start_time, :end_time, :error_message, :metadata
        )`

	_, err := r.db.NamedExec(query, job)
	return err
}

func (r *Repository) UpdateCollectionJob(job *CollectionJob) error {
	query := `
        UPDATE collection_jobs SET
            status = :status,
            keywords = :keywords,
            total_keywords = :total_keywords,
            processed_keywords = :processed_keywords,
            end_time = :end_time,
            error_message = :error_message,
            metadata = :metadata
        WHERE id = :id AND tenant_id = :tenant_id`

	_, err := r.db.NamedExec(query, job)
	return err
}

func (r *Repository) GetCollectionJob(id, tenantID string) (*CollectionJob, error) {
	var job CollectionJob
	query := `SELECT * FROM collection_jobs WHERE id = $1 AND tenant_id = $2`
	err := r.db.Get(&job, query, id, tenantID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("collection job not found")
	}
	return &job, err
}

func (r *Repository) GetJobsByTenant(tenantID string, limit, offset int) ([]*CollectionJob, error) {
	jobs := []*CollectionJob{}
	query := `
        SELECT * FROM collection_jobs
        WHERE tenant_id = $1
        ORDER BY start_time DESC
        LIMIT $2 OFFSET $3`

	err := r.db.Select(&jobs, query, tenantID, limit, offset)
	return jobs, err
}

func (r *Repository) CountJobsByTenant(tenantID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM collection_jobs WHERE tenant_id = $1`
	err := r.db.Get(&count, query, tenantID)
	return count, err
}

// Historical record operations. Upserts are keyed on (tenant_id, source_id)
// so a restarted job never double-writes an item it already stored.
func (r *Repository) UpsertNewsRecord(rec *NewsRecord) error {
	query := `
        INSERT INTO historical_news_data (
            id, tenant_id, keyword, collection_job_id, source_id, title, url,
            published_at, source_name, sentiment_score, sentiment_label,
            raw_payload, collected_at
        ) VALUES (
            :id, :tenant_id, :keyword, :collection_job_id, :source_id, :title, :url,
            :published_at, :source_name, :sentiment_score, :sentiment_label,
            :raw_payload, :collected_at
        ) ON CONFLICT (tenant_id, source_id) DO UPDATE SET
            keyword = EXCLUDED.keyword,
            collection_job_id = EXCLUDED.collection_job_id,
            sentiment_score = EXCLUDED.sentiment_score,
            sentiment_label = EXCLUDED.sentiment_label,
            collected_at = EXCLUDED.collected_at`

	_, err := r.db.NamedExec(query, rec)
	return err
}

func (r *Repository) UpsertSocialRecord(rec *SocialRecord) error {
	query := `
        INSERT INTO historical_social_data (
            id, tenant_id, keyword, collection_job_id, source_id, title, url,
            published_at, source_name, sentiment_score, sentiment_label,
            raw_payload, collected_at
        ) VALUES (
            :id, :tenant_id, :keyword, :collection_job_id, :source_id, :title, :url,
            :published_at, :source_name, :sentiment_score, :sentiment_label,
            :raw_payload, :collected_at
        ) ON CONFLICT (tenant_id, source_id) DO UPDATE SET
            keyword = EXCLUDED.keyword,
            collection_job_id = EXCLUDED.collection_job_id,
            sentiment_score = EXCLUDED.sentiment_score,
            sentiment_label = EXCLUDED.sentiment_label,
            collected_at = EXCLUDED.collected_at`

	_, err := r.db.NamedExec(query, rec)
	return err
}

// Retention. The cutoff row itself is deleted: age >= the window counts as
// expired.
func (r *Repository) DeleteNewsOlderThan(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM historical_news_data WHERE collected_at <= $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repository) DeleteSocialOlderThan(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM historical_social_data WHERE collected_at <= $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Cron settings
func (r *Repository) GetCronSetting(tenantID string) (*CronSetting, error) {
	var setting CronSetting
	query := `SELECT * FROM cron_job_settings WHERE tenant_id = $1`
	err := r.db.Get(&setting, query, tenantID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("cron setting not found")
	}
	return &setting, err
}

func (r *Repository) ListEnabledCronSettings() ([]*CronSetting, error) {
	settings := []*CronSetting{}
	query := `SELECT * FROM cron_job_settings WHERE is_enabled = true`
	err := r.db.Select(&settings, query)
	return settings, err
}

func (r *Repository) UpsertCronSetting(setting *CronSetting) error {
	query := `
        INSERT INTO cron_job_settings (
            tenant_id, is_enabled, interval_hours, last_run_at, next_run_at,
            timezone, updated_at
        ) VALUES (
            :tenant_id, :is_enabled, :interval_hours, :last_run_at, :next_run_at,
            :timezone, :updated_at
        ) ON CONFLICT (tenant_id) DO UPDATE SET
            is_enabled = EXCLUDED.is_enabled,
            interval_hours = EXCLUDED.interval_hours,
            timezone = EXCLUDED.timezone,
            updated_at = EXCLUDED.updated_at`

	_, err := r.db.NamedExec(query, setting)
	return err
}

func (r *Repository) UpdateCronRunTimes(tenantID string, lastRunAt, nextRunAt time.Time) error {
	query := `
        UPDATE cron_job_settings SET
            last_run_at = $2,
            next_run_at = $3,
            updated_at = NOW()
        WHERE tenant_id = $1`

	_, err := r.db.Exec(query, tenantID, lastRunAt, nextRunAt)
	return err
}

// Monitoring snapshot
func (r *Repository) SaveSnapshot(snap *MonitoringSnapshot) error {
	query := `
        INSERT INTO latest_monitoring_snapshot (
            tenant_id, collection_job_id, news_count, social_count,
            average_score, positive_count, negative_count, neutral_count,
            top_items, refreshed_at
        ) VALUES (
            :tenant_id, :collection_job_id, :news_count, :social_count,
            :average_score, :positive_count, :negative_count, :neutral_count,
            :top_items, :refreshed_at
        ) ON CONFLICT (tenant_id) DO UPDATE SET
            collection_job_id = EXCLUDED.collection_job_id,
            news_count = EXCLUDED.news_count,
            social_count = EXCLUDED.social_count,
            average_score = EXCLUDED.average_score,
            positive_count = EXCLUDED.positive_count,
            negative_count = EXCLUDED.negative_count,
            neutral_count = EXCLUDED.neutral_count,
            top_items = EXCLUDED.top_items,
            refreshed_at = EXCLUDED.refreshed_at`

	_, err := r.db.NamedExec(query, snap)
	return err
}

func (r *Repository) GetSnapshot(tenantID string) (*MonitoringSnapshot, error) {
	var snap MonitoringSnapshot
	query := `SELECT * FROM latest_monitoring_snapshot WHERE tenant_id = $1`
	err := r.db.Get(&snap, query, tenantID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot not found")
	}
	return &snap, err
}

// Credential health
func (r *Repository) ListCredentialHealth() ([]*CredentialHealth, error) {
	creds := []*CredentialHealth{}
	query := `SELECT * FROM api_credentials`
	err := r.db.Select(&creds, query)
	return creds, err
}

func (r *Repository) SaveCredentialHealth(id string, active bool, errorCount int, lastUsedAt, reactivateAt time.Time) error {
	query := `
        INSERT INTO api_credentials (
            id, active, error_count, last_used_at, reactivate_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, NOW())
        ON CONFLICT (id) DO UPDATE SET
            active = EXCLUDED.active,
            error_count = EXCLUDED.error_count,
            last_used_at = EXCLUDED.last_used_at,
            reactivate_at = EXCLUDED.reactivate_at,
            updated_at = NOW()`

	var lastUsed, reactivate interface{}
	if !lastUsedAt.IsZero() {
		lastUsed = lastUsedAt
	}
	if !reactivateAt.IsZero() {
		reactivate = reactivateAt
	}

	_, err := r.db.Exec(query, id, active, errorCount, lastUsed, reactivate)
	return err
}
