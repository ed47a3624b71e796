// Package gate implements the content-security checks every outbound contact
// email must pass: payload validation, sanitization, rendered-content threat
// scanning and sender-domain policy.
package gate

import (
	"context"
	"net"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Mode switches the strictness of validation heuristics.
type Mode string

const (
	// ModeStrict additionally rejects obvious placeholder/spam field values.
	// Meant for production; the wordlist is blunt and flags legitimate words
	// like "test" in development.
	ModeStrict Mode = "strict"

	// ModeLenient skips the suspicious-content heuristic.
	ModeLenient Mode = "lenient"
)

// Config bounds one gate instance.
type Config struct {
	Mode Mode

	// AllowedSenderDomains is the allow-list of domains this service may
	// send from.
	AllowedSenderDomains []string

	// VerifyMX enables the best-effort DNS MX lookup during the sender
	// policy check. The lookup fails open on network error.
	VerifyMX bool

	// DNSTimeout bounds the optional MX lookup. Defaults to 3s.
	DNSTimeout time.Duration
}

// Gate runs the content-security checks. Construct with NewGate.
type Gate struct {
	cfg      Config
	validate *validator.Validate
	resolver *net.Resolver
	logger   *zap.Logger
}

// NewGate creates a gate from cfg.
func NewGate(cfg Config, logger *zap.Logger) *Gate {
	if cfg.DNSTimeout <= 0 {
		cfg.DNSTimeout = 3 * time.Second
	}
	return &Gate{
		cfg:      cfg,
		validate: validator.New(),
		resolver: net.DefaultResolver,
		logger:   logger,
	}
}

// SecurityHeaders returns the observability headers stamped onto every
// message that passed the gate.
func (g *Gate) SecurityHeaders() map[string]string {
	return map[string]string{
		"X-Mailer-Security": "mailgate",
		"X-Content-Scanned": "true",
		"X-Security-Policy": string(g.cfg.Mode),
	}
}

// lookupMX is the injectable DNS hook used by the sender policy check.
func (g *Gate) lookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.DNSTimeout)
	defer cancel()
	return g.resolver.LookupMX(ctx, domain)
}
