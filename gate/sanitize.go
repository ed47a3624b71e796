package gate

import (
	"regexp"
	"strings"

	"github.com/layer-3/mailgate/core"
)

// sanitizeMaxLen is the hard per-field truncation applied after stripping.
const sanitizeMaxLen = 5000

var (
	angleBrackets = regexp.MustCompile(`[<>]`)
	jsScheme      = regexp.MustCompile(`(?i)javascript:`)
	eventHandlers = regexp.MustCompile(`(?i)on\w+\s*=`)
)

// Sanitize returns a copy of payload with every free-text field cleaned:
// whitespace trimmed, angle brackets removed, javascript: scheme prefixes
// and inline event-handler patterns stripped, and the value truncated.
//
// The transform is pure and idempotent: sanitizing an already-sanitized
// payload changes nothing.
func (g *Gate) Sanitize(payload core.ContactPayload) core.ContactPayload {
	payload.Name = sanitizeField(payload.Name)
	payload.Email = sanitizeField(payload.Email)
	payload.Company = sanitizeField(payload.Company)
	payload.Phone = sanitizeField(payload.Phone)
	payload.Subject = sanitizeField(payload.Subject)
	payload.Message = sanitizeField(payload.Message)
	payload.ServiceType = sanitizeField(payload.ServiceType)
	return payload
}

func sanitizeField(s string) string {
	// Stripping runs to a fixpoint: removing one match can splice the
	// surrounding text into a new match ("oonload=nload=" and friends).
	for {
		next := angleBrackets.ReplaceAllString(s, "")
		next = jsScheme.ReplaceAllString(next, "")
		next = eventHandlers.ReplaceAllString(next, "")
		if next == s {
			break
		}
		s = next
	}
	if len(s) > sanitizeMaxLen {
		s = s[:sanitizeMaxLen]
	}
	return strings.TrimSpace(s)
}
