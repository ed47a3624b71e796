package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrStoreUnavailable = errors.New("rate-limit store unavailable")
	ErrEmptyRecipient   = errors.New("recipient address is empty")
	ErrDecryptAuth      = errors.New("ciphertext authentication failed")
	ErrInvalidCipher    = errors.New("invalid ciphertext format")
	ErrInvalidHash      = errors.New("invalid password hash format")
)

// RejectionKind discriminates the policy rejections of the dispatch pipeline.
type RejectionKind string

const (
	RejectRateLimit  RejectionKind = "rate_limit"
	RejectValidation RejectionKind = "validation"
	RejectContent    RejectionKind = "content"
	RejectSender     RejectionKind = "sender_policy"
)

// PolicyRejection is a non-retryable refusal by one of the pipeline stages.
// The Error string keeps a fixed per-category prefix so callers that predate
// structured errors can still pattern-match on it.
type PolicyRejection struct {
	Kind        RejectionKind
	Reason      string
	FieldErrors []FieldError      // set when Kind == RejectValidation
	Threats     []string          // set when Kind == RejectContent
	Decision    RateLimitDecision // set when Kind == RejectRateLimit
}

func (e *PolicyRejection) Error() string {
	switch e.Kind {
	case RejectRateLimit:
		return fmt.Sprintf("Rate limit exceeded: retry after %s, %d attempts remaining",
			e.Decision.RetryAfter.Round(time.Second), e.Decision.Remaining)
	case RejectValidation:
		parts := make([]string, len(e.FieldErrors))
		for i, fe := range e.FieldErrors {
			parts[i] = fe.String()
		}
		return "Validation failed: " + strings.Join(parts, "; ")
	case RejectContent, RejectSender:
		return "Security check failed: " + e.Reason
	}
	return "Request rejected: " + e.Reason
}

// Retryable reports whether the caller may retry; policy rejections never are.
func (e *PolicyRejection) Retryable() bool { return false }

// TransportError wraps a failure of an external collaborator (mail transport,
// DNS). Unlike policy rejections it is retryable by the caller.
type TransportError struct {
	Op  string // "connect", "auth", "send", ...
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Retryable() bool { return true }

// ConfigError reports a missing or malformed configuration value. It is
// raised at startup or first use and is fatal.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// AsPolicyRejection unwraps err into a *PolicyRejection if it is one.
func AsPolicyRejection(err error) (*PolicyRejection, bool) {
	var pr *PolicyRejection
	ok := errors.As(err, &pr)
	return pr, ok
}

// AsTransportError unwraps err into a *TransportError if it is one.
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	ok := errors.As(err, &te)
	return te, ok
}
