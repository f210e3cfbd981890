package provider

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// A credential is disabled after this many consecutive-ish failures.
	maxErrorCount = 3
	// Disabled credentials come back automatically after the cool-down.
	reactivationCooldown = time.Hour
)

// Credential is one provider token plus its health bookkeeping.
type Credential struct {
	ID           string
	Secret       string
	Active       bool
	ErrorCount   int
	LastUsedAt   time.Time // zero means never used
	ReactivateAt time.Time

	limiter *rate.Limiter
}

// HealthStore persists credential health so a disabled credential is not
// stuck disabled across a process restart.
type HealthStore interface {
	SaveCredentialHealth(id string, active bool, errorCount int, lastUsedAt, reactivateAt time.Time) error
}

// Pool holds the static set of credentials. All health mutation goes through
// the pool mutex; concurrent tenant jobs share one pool.
type Pool struct {
	mu     sync.Mutex
	creds  []*Credential
	store  HealthStore
	logger *zap.Logger
}

func NewPool(tokens []string, requestsPerMin int, store HealthStore, logger *zap.Logger) *Pool {
	creds := make([]*Credential, 0, len(tokens))
	for i, token := range tokens {
		creds = append(creds, &Credential{
			ID:      credentialID(i),
			Secret:  token,
			Active:  true,
			limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMin)/60.0), requestsPerMin),
		})
	}
	return &Pool{creds: creds, store: store, logger: logger}
}

func credentialID(index int) string {
	return fmt.Sprintf("cred-%d", index+1)
}

func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.creds)
}

// RestoreHealth seeds the in-memory pool from persisted state, matched by id.
func (p *Pool) RestoreHealth(id string, active bool, errorCount int, lastUsedAt, reactivateAt time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.creds {
		if c.ID == id {
			c.Active = active
			c.ErrorCount = errorCount
			c.LastUsedAt = lastUsedAt
			c.ReactivateAt = reactivateAt
			return
		}
	}
}

// Acquire picks the healthiest active credential not yet tried in this call:
// lowest error count first, ties broken by last-used ascending with
// never-used credentials treated as oldest. Credentials whose cool-down has
// elapsed are re-armed here rather than by a timer, so re-activation survives
// restarts.
func (p *Pool) Acquire(tried map[string]bool, now time.Time) (id, secret string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	candidates := make([]*Credential, 0, len(p.creds))
	for _, c := range p.creds {
		if !c.Active && !c.ReactivateAt.IsZero() && !now.Before(c.ReactivateAt) {
			c.Active = true
			c.ErrorCount = 0
			c.ReactivateAt = time.Time{}
			p.persist(c)
			p.logger.Info("Credential reactivated", zap.String("credential_id", c.ID))
		}
		if c.Active && !tried[c.ID] {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return "", "", false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if healthier(c, best) {
			best = c
		}
	}

	// Prefer a candidate whose token bucket still has room; fall back to the
	// healthiest one so a saturated pool slows down instead of stalling.
	chosen := best
	if !best.limiter.Allow() {
		for _, c := range candidates {
			if c != best && c.limiter.Allow() {
				chosen = c
				break
			}
		}
	}

	return chosen.ID, chosen.Secret, true
}

func healthier(a, b *Credential) bool {
	if a.ErrorCount != b.ErrorCount {
		return a.ErrorCount < b.ErrorCount
	}
	if a.LastUsedAt.IsZero() != b.LastUsedAt.IsZero() {
		return a.LastUsedAt.IsZero()
	}
	return a.LastUsedAt.Before(b.LastUsedAt)
}

// MarkSuccess records a successful request: refreshes last-used and walks the
// error count back by one, never below zero.
func (p *Pool) MarkSuccess(id string, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.find(id)
	if c == nil {
		return
	}
	c.LastUsedAt = now
	if c.ErrorCount > 0 {
		c.ErrorCount--
	}
	p.persist(c)
}

// MarkError records a failed request. A rate-limit response, or reaching the
// error threshold, disables the credential until the cool-down elapses.
func (p *Pool) MarkError(id string, rateLimited bool, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.find(id)
	if c == nil {
		return
	}
	c.LastUsedAt = now
	c.ErrorCount++
	if rateLimited || c.ErrorCount >= maxErrorCount {
		c.Active = false
		c.ReactivateAt = now.Add(reactivationCooldown)
		p.logger.Warn("Credential disabled",
			zap.String("credential_id", c.ID),
			zap.Int("error_count", c.ErrorCount),
			zap.Bool("rate_limited", rateLimited),
			zap.Time("reactivate_at", c.ReactivateAt),
		)
	}
	p.persist(c)
}

// Snapshot returns a copy of the current credential states.
func (p *Pool) Snapshot() []Credential {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Credential, 0, len(p.creds))
	for _, c := range p.creds {
		cp := *c
		cp.limiter = nil
		out = append(out, cp)
	}
	return out
}

func (p *Pool) find(id string) *Credential {
	for _, c := range p.creds {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (p *Pool) persist(c *Credential) {
	if p.store == nil {
		return
	}
	if err := p.store.SaveCredentialHealth(c.ID, c.Active, c.ErrorCount, c.LastUsedAt, c.ReactivateAt); err != nil {
		p.logger.Error("Failed to persist credential health",
			zap.String("credential_id", c.ID),
			zap.Error(err),
		)
	}
}
