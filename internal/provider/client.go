package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const rateLimitBodyMarker = "limit"

// Result is the success envelope of one logical provider request.
type Result struct {
	StatusCode   int
	Body         []byte
	CredentialID string
}

// Client performs one logical search request by trying pool credentials in
// health order. Rate-limited credentials are failed over; any other error
// fails the call immediately. Attempts are bounded by the pool size.
type Client struct {
	baseURL         string
	pool            *Pool
	httpClient      *http.Client
	rateLimitStatus int
	logger          *zap.Logger
	now             func() time.Time
}

func NewClient(baseURL string, pool *Pool, timeout time.Duration, rateLimitStatus int, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		pool:            pool,
		httpClient:      &http.Client{Timeout: timeout},
		rateLimitStatus: rateLimitStatus,
		logger:          logger,
		now:             time.Now,
	}
}

// Search issues GET {baseURL}{endpoint} with the selected credential token
// appended as a query parameter.
func (c *Client) Search(ctx context.Context, endpoint string) (*Result, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, newError(KindValidation, "none", 0, fmt.Errorf("empty endpoint"))
	}

	tried := make(map[string]bool)
	var lastErr error

	for attempt := 0; attempt < c.pool.Size(); attempt++ {
		id, secret, ok := c.pool.Acquire(tried, c.now())
		if !ok {
			break
		}
		tried[id] = true

		result, err := c.attempt(ctx, endpoint, id, secret)
		if err == nil {
			c.pool.MarkSuccess(id, c.now())
			return result, nil
		}

		rateLimited := IsRateLimit(err)
		c.pool.MarkError(id, rateLimited, c.now())
		lastErr = err

		if !rateLimited {
			// Fail fast: only rate limits justify burning another credential.
			return nil, err
		}

		c.logger.Debug("Credential rate limited, failing over",
			zap.String("credential_id", id),
			zap.String("endpoint", endpoint),
		)
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no active credential available")
	}
	return nil, newError(KindExhaustion, "none", 0, lastErr)
}

func (c *Client) attempt(ctx context.Context, endpoint, credentialID, secret string) (*Result, error) {
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	url := c.baseURL + endpoint + sep + "token=" + secret

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, newError(KindFatal, credentialID, 0, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newError(KindTransient, credentialID, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(KindTransient, credentialID, resp.StatusCode, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &Result{
			StatusCode:   resp.StatusCode,
			Body:         body,
			CredentialID: credentialID,
		}, nil
	}

	if c.isRateLimitResponse(resp.StatusCode, body) {
		return nil, newError(KindRateLimit, credentialID, resp.StatusCode,
			fmt.Errorf("provider rate limit: %s", truncate(body, 200)))
	}

	return nil, newError(KindTransient, credentialID, resp.StatusCode,
		fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200)))
}

func (c *Client) isRateLimitResponse(status int, body []byte) bool {
	if status == c.rateLimitStatus {
		return true
	}
	return bytes.Contains(bytes.ToLower(body), []byte(rateLimitBodyMarker))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
