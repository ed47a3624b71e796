package store

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/layer-3/mailgate/ports"
)

// FallbackStore composes a durable primary store with a process-local
// fallback. When the primary errors the call is transparently replayed on
// the fallback, so callers always get a decision. The degradation and the
// recovery are each logged once per transition rather than per request.
type FallbackStore struct {
	primary  ports.RateStore
	fallback ports.RateStore
	logger   *zap.Logger
	degraded atomic.Bool
}

// NewFallbackStore wraps primary with fallback.
func NewFallbackStore(primary, fallback ports.RateStore, logger *zap.Logger) *FallbackStore {
	return &FallbackStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (s *FallbackStore) Hit(ctx context.Context, identifier string, now time.Time, window time.Duration) (ports.Window, error) {
	w, err := s.primary.Hit(ctx, identifier, now, window)
	if err == nil {
		s.markHealthy()
		return w, nil
	}
	s.markDegraded(err)
	return s.fallback.Hit(ctx, identifier, now, window)
}

func (s *FallbackStore) Peek(ctx context.Context, identifier string, now time.Time, window time.Duration) (ports.Window, error) {
	w, err := s.primary.Peek(ctx, identifier, now, window)
	if err == nil {
		s.markHealthy()
		return w, nil
	}
	s.markDegraded(err)
	return s.fallback.Peek(ctx, identifier, now, window)
}

func (s *FallbackStore) Drop(ctx context.Context, identifier string, ts time.Time) error {
	err := s.primary.Drop(ctx, identifier, ts)
	if err == nil {
		s.markHealthy()
		return nil
	}
	s.markDegraded(err)
	return s.fallback.Drop(ctx, identifier, ts)
}

// Close closes both stores, preferring the primary's error.
func (s *FallbackStore) Close() error {
	fbErr := s.fallback.Close()
	if err := s.primary.Close(); err != nil {
		return err
	}
	return fbErr
}

func (s *FallbackStore) markDegraded(cause error) {
	if s.degraded.CompareAndSwap(false, true) {
		s.logger.Warn("rate-limit store degraded to in-memory fallback", zap.Error(cause))
	}
}

func (s *FallbackStore) markHealthy() {
	if s.degraded.CompareAndSwap(true, false) {
		s.logger.Info("rate-limit store recovered, using durable backend")
	}
}

var _ ports.RateStore = (*FallbackStore)(nil)
