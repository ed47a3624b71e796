package core

import "time"

// RateLimitDecision is the result of a single rate-limit check.
// It is derived per call and never persisted.
type RateLimitDecision struct {
	Allowed    bool
	Remaining  int           // requests left in the current window, never negative
	RetryAfter time.Duration // time until the oldest in-window request expires; zero when allowed
}

// FieldError attributes a validation failure to a single payload field so
// callers can render targeted feedback.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Reason
}

// SPFResult is the outcome of the sender-domain policy check. This is a
// coarse allow-list gate, not a full SPF/DMARC resolver.
type SPFResult struct {
	Valid  bool
	Reason string
}

// SecurityCheckResult is the outcome of scanning one outbound message.
// Produced fresh per message and never mutated afterwards.
type SecurityCheckResult struct {
	Passed  bool
	Reason  string
	Threats []string
	SPF     SPFResult
}
