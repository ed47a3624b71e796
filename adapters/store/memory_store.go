package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/mailgate/ports"
)

// MemoryStore is the process-local fallback for when Redis is unreachable.
// Counts are only correct for single-process deployments; entries whose every
// timestamp has expired are evicted by a periodic sweep so a degraded
// instance cannot grow without bound.
type MemoryStore struct {
	mu      sync.RWMutex
	windows map[string][]time.Time

	now  func() time.Time
	done chan struct{}
	once sync.Once
}

// NewMemoryStore creates an in-memory rate store sweeping expired identifiers
// every sweepInterval. The sweep treats maxAge as the longest window any
// caller uses.
func NewMemoryStore(sweepInterval, maxAge time.Duration) *MemoryStore {
	s := &MemoryStore{
		windows: make(map[string][]time.Time),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go s.sweep(sweepInterval, maxAge)
	return s
}

func (s *MemoryStore) Hit(_ context.Context, identifier string, now time.Time, window time.Duration) (ports.Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := trim(s.windows[identifier], now.Add(-window))
	kept = append(kept, now)
	s.windows[identifier] = kept

	return ports.Window{Count: int64(len(kept)), Oldest: kept[0]}, nil
}

func (s *MemoryStore) Peek(_ context.Context, identifier string, now time.Time, window time.Duration) (ports.Window, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kept := trim(s.windows[identifier], now.Add(-window))
	w := ports.Window{Count: int64(len(kept))}
	if len(kept) > 0 {
		w.Oldest = kept[0]
	}
	return w, nil
}

func (s *MemoryStore) Drop(_ context.Context, identifier string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.windows[identifier]
	for i := len(kept) - 1; i >= 0; i-- {
		if kept[i].Equal(ts) {
			s.windows[identifier] = append(kept[:i], kept[i+1:]...)
			break
		}
	}
	return nil
}

// Close stops the sweep goroutine.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *MemoryStore) sweep(interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := s.now().Add(-maxAge)
			s.mu.Lock()
			for id, stamps := range s.windows {
				if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
					delete(s.windows, id)
				}
			}
			s.mu.Unlock()
		case <-s.done:
			return
		}
	}
}

// trim returns the suffix of stamps strictly newer than cutoff. Timestamps
// are stored in arrival order, so a single scan from the front suffices.
func trim(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	return stamps[i:]
}

var _ ports.RateStore = (*MemoryStore)(nil)
