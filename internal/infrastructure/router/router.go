// Package router selects a generative-model tier under per-tier daily
// quotas, issues the transport call, and fails over across tiers on quota
// exhaustion or model-not-found errors. Responses are cached by prompt hash.
//
// All tier/quota/cache state lives behind one mutex: the pre-call quota
// increment must be atomic with tier selection so concurrent callers cannot
// both land on a tier with one request of headroom left.
package router

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintask/fintask-go/internal/domain"
	"github.com/fintask/fintask-go/internal/ports"
)

const (
	// maxAttempts bounds total tries across tiers for one request.
	maxAttempts = 2

	cacheCapacity = 100
	cacheTTL      = 10 * time.Minute
)

type tierState struct {
	tier      domain.ModelTier
	used      int
	resetAt   time.Time
	available bool
}

// Router is explicitly constructed and injected; there are no package-level
// router singletons, so tests instantiate isolated instances.
type Router struct {
	mu        sync.Mutex
	tiers     []*tierState
	cache     *responseCache
	transport ports.ModelTransport
	now       func() time.Time
	loc       *time.Location
	log       zerolog.Logger
}

// Option customizes a Router at construction time.
type Option func(*Router)

// WithClock overrides the time source. Used by tests to drive quota resets
// and cache expiry.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// New builds a Router over the given tier registry. Tier order is priority
// order within each capability class.
func New(transport ports.ModelTransport, tiers []domain.ModelTier, log zerolog.Logger, opts ...Option) *Router {
	r := &Router{
		cache:     newResponseCache(cacheCapacity, cacheTTL),
		transport: transport,
		now:       time.Now,
		loc:       quotaResetLocation(),
		log:       log,
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, tier := range tiers {
		r.tiers = append(r.tiers, &tierState{
			tier:      tier,
			resetAt:   r.nextReset(r.now()),
			available: true,
		})
	}
	return r
}

// Generate returns the model's raw text answer for prompt, consulting the
// response cache first and retrying across tiers on failure. When every
// attempt fails, the last transport error is propagated.
func (r *Router) Generate(ctx context.Context, prompt string, hints ports.GenerationHints) (string, error) {
	if response, ok := r.cachedResponse(prompt); ok {
		cacheHits.Inc()
		r.log.Debug().Msg("response cache hit")
		return response, nil
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		state := r.acquireTier(hints)
		requestsTotal.WithLabelValues(state.tier.Key).Inc()

		response, err := r.transport.Generate(ctx, state.tier.Model, prompt)
		if err == nil {
			r.cacheResponse(prompt, response)
			return response, nil
		}

		lastErr = err
		r.recordFailure(state, err)
	}
	return "", lastErr
}

// SelectTier runs quota reset and tier selection without spending quota.
// Exposed so the selection precedence is testable in isolation.
func (r *Router) SelectTier(hints ports.GenerationHints) domain.ModelTier {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetQuotasLocked()
	return r.selectLocked(hints).tier
}

// acquireTier picks a tier and spends one quota unit before the call is
// dispatched. A failed call still counts against the tier.
func (r *Router) acquireTier(hints ports.GenerationHints) *tierState {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetQuotasLocked()
	state := r.selectLocked(hints)
	state.used++
	return state
}

// selectLocked walks the preferred capability class in priority order, then
// the other class as a last resort. When every tier is exhausted it returns
// the first tier anyway so the caller's transport call fails loudly instead
// of the router inventing a silent success.
func (r *Router) selectLocked(hints ports.GenerationHints) *tierState {
	order := []domain.TierClass{domain.TierStandard, domain.TierPro}
	if hints.PreferPro || hints.Complex {
		order = []domain.TierClass{domain.TierPro, domain.TierStandard}
	}

	for _, class := range order {
		for _, state := range r.tiers {
			if state.tier.Class != class {
				continue
			}
			if !state.available || state.used >= state.tier.DailyQuota {
				continue
			}
			return state
		}
	}
	return r.tiers[0]
}

// resetQuotasLocked lazily zeroes any tier whose reset instant has passed.
// Each tier's window is tracked independently.
func (r *Router) resetQuotasLocked() {
	now := r.now()
	for _, state := range r.tiers {
		if now.Before(state.resetAt) {
			continue
		}
		state.used = 0
		state.resetAt = r.nextReset(now)
	}
}

func (r *Router) recordFailure(state *tierState, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var terr *ports.TransportError
	status := 0
	if errors.As(err, &terr) {
		status = terr.StatusCode
	}
	message := strings.ToLower(err.Error())

	switch {
	case status == 404 || strings.Contains(message, "not found"):
		// Process-lifetime: a missing model does not come back mid-run.
		state.available = false
		tierSwitches.WithLabelValues("not_found").Inc()
		r.log.Warn().
			Str("tier", state.tier.Key).
			Str("model", state.tier.Model).
			Msg("model not found, tier marked unavailable")
	case status == 429 || strings.Contains(message, "quota") || strings.Contains(message, "limit"):
		// Force the counter over the ceiling so the next attempt skips it.
		state.used = state.tier.DailyQuota + 1
		tierSwitches.WithLabelValues("quota").Inc()
		r.log.Warn().
			Str("tier", state.tier.Key).
			Int("quota", state.tier.DailyQuota).
			Msg("quota exhausted, switching tier")
	default:
		r.log.Debug().
			Str("tier", state.tier.Key).
			Err(err).
			Msg("transient model failure")
	}
}

func (r *Router) cachedResponse(prompt string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.get(prompt, r.now())
}

func (r *Router) cacheResponse(prompt, response string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.put(prompt, response, r.now())
}

// nextReset is the next local-midnight instant in the reference timezone.
func (r *Router) nextReset(now time.Time) time.Time {
	local := now.In(r.loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.loc)
	return midnight.AddDate(0, 0, 1)
}

// quotaResetLocation pins the daily boundary to Pacific time, matching the
// provider's quota accounting.
func quotaResetLocation() *time.Location {
	if loc, err := time.LoadLocation("America/Los_Angeles"); err == nil {
		return loc
	}
	return time.FixedZone("PST", -8*60*60)
}
