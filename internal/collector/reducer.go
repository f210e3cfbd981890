package collector

import (
	"fmt"
	"time"

	"github.com/pcarvalho/brandwatch/internal/db"
)

const metadataErrorsKey = "keyword_errors"

// KeywordOutcome is the result of processing one keyword across all
// platforms, successful or not.
type KeywordOutcome struct {
	Keyword      string
	NewsStored   int
	SocialStored int
	Err          error
}

// ApplyOutcome is the pure job-state transition: it folds one keyword outcome
// into the next job snapshot. Progress advances whether the keyword succeeded
// or failed; failures are recorded as diagnostic context, never as job
// failure.
func ApplyOutcome(job db.CollectionJob, outcome KeywordOutcome) db.CollectionJob {
	next := job
	next.Metadata = cloneMetadata(job.Metadata)

	if next.ProcessedKeywords < next.TotalKeywords {
		next.ProcessedKeywords++
	}

	if outcome.Err != nil {
		errs := metadataErrors(next.Metadata)
		errs = append(errs, fmt.Sprintf("%s: %v", outcome.Keyword, outcome.Err))
		next.Metadata[metadataErrorsKey] = errs
	}

	return next
}

// Finalize moves the job to its terminal state and stamps the end time.
func Finalize(job db.CollectionJob, status db.JobStatus, errorMessage string, now time.Time) db.CollectionJob {
	next := job
	next.Metadata = cloneMetadata(job.Metadata)
	next.Status = status
	next.EndTime = &now
	if errorMessage != "" {
		next.ErrorMessage = &errorMessage
	}
	return next
}

func cloneMetadata(m db.JSONB) db.JSONB {
	out := make(db.JSONB, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// metadataErrors reads the recorded error list, tolerating the
// []interface{} shape the value takes after a JSONB round trip.
func metadataErrors(m db.JSONB) []string {
	switch v := m[metadataErrorsKey].(type) {
	case []string:
		return append([]string{}, v...)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}
