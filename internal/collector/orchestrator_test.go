package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pcarvalho/brandwatch/internal/config"
	"github.com/pcarvalho/brandwatch/internal/db"
	"github.com/pcarvalho/brandwatch/internal/metrics"
	"github.com/pcarvalho/brandwatch/internal/provider"
)

// promauto registers on the default registry, so the package shares one
// collector across tests.
var testMetrics = metrics.NewCollector(config.MimirConfig{})

type fakeStore struct {
	mu       sync.Mutex
	keywords []string
	kwErr    error

	jobs          map[string]db.CollectionJob
	jobUpdates    []db.CollectionJob
	newsRecords   []db.NewsRecord
	socialRecords []db.SocialRecord
	snapshot      *db.MonitoringSnapshot
}

func newFakeStore(keywords ...string) *fakeStore {
	return &fakeStore{
		keywords: keywords,
		jobs:     make(map[string]db.CollectionJob),
	}
}

func (s *fakeStore) GetTenantKeywords(tenantID string) ([]string, error) {
	if s.kwErr != nil {
		return nil, s.kwErr
	}
	return s.keywords, nil
}

func (s *fakeStore) CreateCollectionJob(job *db.CollectionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

func (s *fakeStore) UpdateCollectionJob(job *db.CollectionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	s.jobUpdates = append(s.jobUpdates, *job)
	return nil
}

func (s *fakeStore) UpsertNewsRecord(rec *db.NewsRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newsRecords = append(s.newsRecords, *rec)
	return nil
}

func (s *fakeStore) UpsertSocialRecord(rec *db.SocialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.socialRecords = append(s.socialRecords, *rec)
	return nil
}

func (s *fakeStore) SaveSnapshot(snap *db.MonitoringSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
	return nil
}

// fakeSearcher answers per-keyword: a keyword mapped to an error always
// fails, everything else returns the canned items.
type fakeSearcher struct {
	failures map[string]error
	items    []provider.NewsItem
	social   []provider.SocialItem
	block    chan struct{}
}

func (f *fakeSearcher) Search(ctx context.Context, endpoint string) (*provider.Result, error) {
	if f.block != nil {
		<-f.block
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	if failure, ok := f.failures[u.Query().Get("q")]; ok {
		return nil, failure
	}

	var body []byte
	if strings.HasPrefix(u.Path, "/search/social") {
		body, _ = json.Marshal(provider.SocialResponse{Items: f.social})
	} else {
		body, _ = json.Marshal(provider.NewsResponse{Items: f.items})
	}
	return &provider.Result{StatusCode: 200, Body: body, CredentialID: "cred-1"}, nil
}

func newTestOrchestrator(store Store, searcher Searcher) *Orchestrator {
	return NewOrchestrator(store, searcher, nil, testMetrics, zap.NewNop())
}

func TestRunCompletesWithAllKeywords(t *testing.T) {
	store := newFakeStore("acme", "globex")
	searcher := &fakeSearcher{
		items: []provider.NewsItem{
			{ID: "n1", Title: "Acme launches a great product", URL: "http://example.com/n1"},
		},
	}

	job, err := newTestOrchestrator(store, searcher).Run(context.Background(), "tenant-1")
	require.NoError(t, err)

	assert.Equal(t, db.JobStatusCompleted, job.Status)
	assert.Equal(t, 2, job.TotalKeywords)
	assert.Equal(t, 2, job.ProcessedKeywords)
	require.NotNil(t, job.EndTime)

	// One news record per keyword; sentiment was scored.
	assert.Len(t, store.newsRecords, 2)
	assert.Equal(t, "positive", store.newsRecords[0].SentimentLabel)
	assert.NotNil(t, store.snapshot)
	assert.Equal(t, 2, store.snapshot.NewsCount)
}

func TestRunPartialFailureStillCompletes(t *testing.T) {
	store := newFakeStore("good-one", "bad-one", "also-good")
	searcher := &fakeSearcher{
		failures: map[string]error{
			"bad-one": fmt.Errorf("connection refused"),
		},
		items: []provider.NewsItem{{ID: "n1", Title: "fine"}},
	}

	job, err := newTestOrchestrator(store, searcher).Run(context.Background(), "tenant-1")
	require.NoError(t, err)

	// One bad keyword must not convert a mostly-successful run into a
	// reported failure.
	assert.Equal(t, db.JobStatusCompleted, job.Status)
	assert.Equal(t, 3, job.ProcessedKeywords)
	assert.Nil(t, job.ErrorMessage)

	errs := metadataErrors(job.Metadata)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "bad-one")
}

func TestRunWithNothingCollectedKeepsPreviousSnapshot(t *testing.T) {
	store := newFakeStore("bad-one")
	searcher := &fakeSearcher{
		failures: map[string]error{"bad-one": fmt.Errorf("provider down")},
	}

	job, err := newTestOrchestrator(store, searcher).Run(context.Background(), "tenant-1")
	require.NoError(t, err)

	assert.Equal(t, db.JobStatusCompleted, job.Status)
	// The all-zero aggregate must not overwrite the last good dashboard data.
	assert.Nil(t, store.snapshot)
}

func TestRunFailsWithoutKeywords(t *testing.T) {
	store := newFakeStore()

	job, err := newTestOrchestrator(store, &fakeSearcher{}).Run(context.Background(), "tenant-1")
	require.Error(t, err)

	assert.Equal(t, db.JobStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "no keywords")
	require.NotNil(t, job.EndTime)
	assert.Equal(t, 0, job.ProcessedKeywords)
}

func TestRunFailsWhenKeywordsUnreadable(t *testing.T) {
	store := newFakeStore()
	store.kwErr = fmt.Errorf("connection reset")

	job, err := newTestOrchestrator(store, &fakeSearcher{}).Run(context.Background(), "tenant-1")
	require.Error(t, err)

	assert.Equal(t, db.JobStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "failed to load keywords")
}

func TestRunEmptyKeywordRejectedBeforeRequest(t *testing.T) {
	store := newFakeStore("acme", "   ")
	searcher := &fakeSearcher{items: []provider.NewsItem{{ID: "n1", Title: "ok"}}}

	job, err := newTestOrchestrator(store, searcher).Run(context.Background(), "tenant-1")
	require.NoError(t, err)

	assert.Equal(t, db.JobStatusCompleted, job.Status)
	assert.Equal(t, 2, job.ProcessedKeywords)
	errs := metadataErrors(job.Metadata)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "empty keyword")
}

func TestRunProgressPersistedInOrder(t *testing.T) {
	store := newFakeStore("a", "b", "c")
	searcher := &fakeSearcher{items: []provider.NewsItem{{ID: "n1", Title: "ok"}}}

	_, err := newTestOrchestrator(store, searcher).Run(context.Background(), "tenant-1")
	require.NoError(t, err)

	// processed_keywords is monotonically non-decreasing across persisted
	// job updates.
	last := 0
	for _, update := range store.jobUpdates {
		assert.GreaterOrEqual(t, update.ProcessedKeywords, last)
		last = update.ProcessedKeywords
	}
	assert.Equal(t, 3, last)
}

func TestRunRejectsOverlappingJobForSameTenant(t *testing.T) {
	store := newFakeStore("acme")
	block := make(chan struct{})
	searcher := &fakeSearcher{
		items: []provider.NewsItem{{ID: "n1", Title: "ok"}},
		block: block,
	}
	orch := newTestOrchestrator(store, searcher)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := orch.Run(context.Background(), "tenant-1")
		assert.NoError(t, err)
	}()

	// Wait until the first run holds the tenant lock.
	require.Eventually(t, func() bool {
		if orch.tryLock("tenant-1") {
			orch.unlock("tenant-1")
			return false
		}
		return true
	}, time.Second, 5*time.Millisecond)

	_, err := orch.Run(context.Background(), "tenant-1")
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(block)
	<-done
}
