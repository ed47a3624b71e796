package ports

import (
	"context"
	"time"
)

// Window is a snapshot of one identifier's sliding window.
type Window struct {
	Count  int64     // timestamps currently inside the window
	Oldest time.Time // oldest in-window timestamp; zero when Count == 0
}

// RateStore persists per-identifier request timestamps for sliding-window
// rate limiting. Implementations must make Hit atomic with respect to
// concurrent callers for the same identifier.
type RateStore interface {
	// Hit trims timestamps older than now-window, appends now, refreshes the
	// identifier's TTL and returns the resulting window (count includes the
	// appended timestamp).
	Hit(ctx context.Context, identifier string, now time.Time, window time.Duration) (Window, error)

	// Peek returns the window without recording a hit.
	Peek(ctx context.Context, identifier string, now time.Time, window time.Duration) (Window, error)

	// Drop removes the timestamp recorded at ts. Used to roll back a Hit
	// whose request was rejected, so denied requests do not extend the window.
	Drop(ctx context.Context, identifier string, ts time.Time) error

	// Close releases any resources held by the store.
	Close() error
}
