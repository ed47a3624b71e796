// Package ratelimit implements sliding-window request counting keyed by an
// arbitrary identifier (IP, email address or user id).
package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/layer-3/mailgate/core"
	"github.com/layer-3/mailgate/ports"
)

const (
	DefaultWindow      = time.Minute
	DefaultMaxRequests = 3
)

// Config bounds one limiter instance.
type Config struct {
	Window      time.Duration
	MaxRequests int
}

// Limiter evaluates sliding-window rate limits against a ports.RateStore.
// It never surfaces store errors to callers: after the store stack has
// exhausted its fallbacks the limiter errs toward allowing the request.
//
// The caller must supply a stable identifier; the limiter performs no
// normalization, so distinct identifiers never share a bucket.
type Limiter struct {
	store  ports.RateStore
	cfg    Config
	logger *zap.Logger

	now func() time.Time
}

// NewLimiter creates a limiter over store. Zero config fields fall back to
// the package defaults.
func NewLimiter(store ports.RateStore, cfg Config, logger *zap.Logger) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultMaxRequests
	}
	return &Limiter{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Check records a request attempt for identifier and returns the full
// decision: whether it is allowed, how many requests remain, and how long
// until the window next admits one.
func (l *Limiter) Check(ctx context.Context, identifier string) core.RateLimitDecision {
	now := l.now()
	w, err := l.store.Hit(ctx, identifier, now, l.cfg.Window)
	if err != nil {
		// Producing a decision always beats crashing the caller.
		l.logger.Error("rate store hit failed, allowing request", zap.String("identifier", identifier), zap.Error(err))
		return core.RateLimitDecision{Allowed: true, Remaining: l.cfg.MaxRequests - 1}
	}

	if w.Count > int64(l.cfg.MaxRequests) {
		// Over the limit: roll the appended timestamp back so denied
		// requests do not extend the window.
		if dropErr := l.store.Drop(ctx, identifier, now); dropErr != nil {
			l.logger.Warn("failed to roll back rejected hit", zap.String("identifier", identifier), zap.Error(dropErr))
		}
		return core.RateLimitDecision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: l.retryAfter(w.Oldest, now),
		}
	}

	return core.RateLimitDecision{
		Allowed:   true,
		Remaining: l.cfg.MaxRequests - int(w.Count),
	}
}

// CanMakeRequest records a request attempt and reports whether it is allowed.
func (l *Limiter) CanMakeRequest(ctx context.Context, identifier string) bool {
	return l.Check(ctx, identifier).Allowed
}

// RemainingRequests returns how many requests identifier may still make in
// the current window, without recording an attempt.
func (l *Limiter) RemainingRequests(ctx context.Context, identifier string) int {
	w, err := l.store.Peek(ctx, identifier, l.now(), l.cfg.Window)
	if err != nil {
		l.logger.Error("rate store peek failed", zap.String("identifier", identifier), zap.Error(err))
		return l.cfg.MaxRequests
	}
	remaining := l.cfg.MaxRequests - int(w.Count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// TimeUntilNextRequest returns how long identifier must wait before the
// window admits another request; zero when a request would be allowed now.
func (l *Limiter) TimeUntilNextRequest(ctx context.Context, identifier string) time.Duration {
	now := l.now()
	w, err := l.store.Peek(ctx, identifier, now, l.cfg.Window)
	if err != nil {
		l.logger.Error("rate store peek failed", zap.String("identifier", identifier), zap.Error(err))
		return 0
	}
	if w.Count < int64(l.cfg.MaxRequests) {
		return 0
	}
	return l.retryAfter(w.Oldest, now)
}

func (l *Limiter) retryAfter(oldest, now time.Time) time.Duration {
	if oldest.IsZero() {
		return 0
	}
	wait := oldest.Add(l.cfg.Window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}
