package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/alecbaum/wagl-backend-sub002/internal/counter"
	"github.com/alecbaum/wagl-backend-sub002/internal/domain"
	"github.com/alecbaum/wagl-backend-sub002/pkg/log"
)

// Config holds limiter configuration.
type Config struct {
	// Window is the fixed quota window, hourly by default.
	Window time.Duration `mapstructure:"window"`
	// ProviderLimit overrides the provider-tier ceiling.
	ProviderLimit int64 `mapstructure:"provider_limit"`
}

// Result is the outcome of a limit check.
type Result struct {
	Allowed    bool          `json:"allowed"`
	Limit      int64         `json:"limit"`
	Used       int64         `json:"used"`
	Remaining  int64         `json:"remaining"`
	ResetAt    time.Time     `json:"reset_at"`
	RetryAfter time.Duration `json:"retry_after"`
	Reason     string        `json:"reason,omitempty"`
	FailedOpen bool          `json:"-"`
}

// Error is the typed rejection carried to callers, with enough detail
// to act on (current count, limit, reset time).
type Error struct {
	Result
}

func (e *Error) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d/%d, resets at %s", e.Used, e.Limit, e.ResetAt.Format(time.RFC3339))
}

// Limiter enforces per-identity, per-tier, per-endpoint quotas on top
// of a shared counter store.
type Limiter struct {
	store  counter.Store
	window time.Duration
	cfg    Config
}

// NewLimiter creates a limiter over the given counter store.
func NewLimiter(store counter.Store, cfg Config) *Limiter {
	window := cfg.Window
	if window <= 0 {
		window = time.Hour
	}
	return &Limiter{store: store, window: window, cfg: cfg}
}

func limitKey(identity, endpoint string) string {
	return fmt.Sprintf("%s:%s", identity, endpoint)
}

func (l *Limiter) limitFor(tier domain.Tier) int64 {
	if tier == domain.TierProvider && l.cfg.ProviderLimit > 0 {
		return l.cfg.ProviderLimit
	}
	return tier.HourlyLimit()
}

// Check records one request against the quota and decides whether it
// is allowed. The increment is unconditional: rejected calls count too,
// so a client cannot probe for free.
//
// When the counter store is unreachable the limiter fails OPEN: the
// request is allowed and a warning is logged. Availability wins over
// perfect quota enforcement; this is deliberate policy, not an
// accidental error swallow.
func (l *Limiter) Check(ctx context.Context, identity string, tier domain.Tier, endpoint string) Result {
	lg := log.Ctx(ctx)
	limit := l.limitFor(tier)
	key := limitKey(identity, endpoint)

	used, err := l.store.IncrementAndGet(ctx, key, l.window)
	if err != nil {
		lg.Warn().Err(err).
			Str(log.FieldEndpoint, endpoint).
			Str(log.FieldTier, string(tier)).
			Msg("counter store unreachable, rate limiter failing open")
		return Result{
			Allowed:    true,
			Limit:      limit,
			ResetAt:    time.Now().Add(l.window),
			Reason:     "counter store unavailable",
			FailedOpen: true,
		}
	}

	res := l.buildResult(ctx, key, limit, used)
	if !res.Allowed {
		lg.Info().
			Str(log.FieldEndpoint, endpoint).
			Str(log.FieldTier, string(tier)).
			Int64("used", res.Used).
			Int64("limit", res.Limit).
			Msg("request rejected by rate limiter")
	}
	return res
}

// Info returns current usage without recording a request. Read-only
// path, separate from Check.
func (l *Limiter) Info(ctx context.Context, identity string, tier domain.Tier, endpoint string) (Result, error) {
	limit := l.limitFor(tier)
	key := limitKey(identity, endpoint)

	used, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit,
			ResetAt:   time.Now().Add(l.window),
		}, nil
	}
	return l.buildResult(ctx, key, limit, used), nil
}

func (l *Limiter) buildResult(ctx context.Context, key string, limit, used int64) Result {
	ttl, err := l.store.TTL(ctx, key)
	if err != nil || ttl <= 0 {
		ttl = l.window
	}
	resetAt := time.Now().Add(ttl)

	res := Result{
		Allowed:   used <= limit,
		Limit:     limit,
		Used:      used,
		Remaining: limit - used,
		ResetAt:   resetAt,
	}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		res.RetryAfter = ttl
		res.Reason = "quota exceeded"
	}
	return res
}
