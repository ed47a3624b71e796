package gate

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/layer-3/mailgate/core"
)

// CheckSenderPolicy validates the sending domain against the allow-list of
// owned domains. This is a coarse policy gate, not a full SPF resolver; when
// VerifyMX is enabled a best-effort DNS MX lookup runs on top, and it fails
// open so a resolver outage can never block legitimate submissions.
func (g *Gate) CheckSenderPolicy(ctx context.Context, domain string) core.SPFResult {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return core.SPFResult{Valid: false, Reason: "sender domain is empty"}
	}

	allowed := false
	for _, d := range g.cfg.AllowedSenderDomains {
		if strings.EqualFold(d, domain) {
			allowed = true
			break
		}
	}
	if !allowed {
		return core.SPFResult{Valid: false, Reason: "domain " + domain + " is not an allowed sender"}
	}

	if g.cfg.VerifyMX {
		if mx, err := g.lookupMX(ctx, domain); err != nil {
			// Fail open: DNS trouble must not become a denial-of-service
			// vector against legitimate senders.
			g.logger.Warn("mx lookup failed, treating sender as valid",
				zap.String("domain", domain), zap.Error(err))
		} else if len(mx) == 0 {
			return core.SPFResult{Valid: false, Reason: "domain " + domain + " has no mail exchangers"}
		}
	}

	return core.SPFResult{Valid: true}
}
