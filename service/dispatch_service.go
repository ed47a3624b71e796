// Package service sequences the defense-in-depth pipeline around every
// outbound contact email: rate-limit, validate, sanitize, security-scan,
// send, log.
package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/layer-3/mailgate/core"
	"github.com/layer-3/mailgate/gate"
	"github.com/layer-3/mailgate/ports"
	"github.com/layer-3/mailgate/ratelimit"
)

// Config resolves the fixed sender and recipient of contact dispatches.
type Config struct {
	From string // sending address, must belong to an allowed domain
	To   string // destination inbox for contact submissions
}

// DispatchService orchestrates a single send attempt. It holds no state
// across calls; retries and backoff are the caller's concern.
type DispatchService struct {
	limiter *ratelimit.Limiter
	gate    *gate.Gate
	mailer  ports.Mailer
	events  ports.EventPublisher
	logger  *zap.Logger
	cfg     Config
}

// NewDispatchService wires the pipeline components together.
func NewDispatchService(
	limiter *ratelimit.Limiter,
	g *gate.Gate,
	mailer ports.Mailer,
	events ports.EventPublisher,
	cfg Config,
	logger *zap.Logger,
) (*DispatchService, error) {
	if cfg.From == "" || cfg.To == "" {
		return nil, &core.ConfigError{Field: "dispatch.addresses", Reason: "from and to are required"}
	}
	return &DispatchService{
		limiter: limiter,
		gate:    g,
		mailer:  mailer,
		events:  events,
		logger:  logger,
		cfg:     cfg,
	}, nil
}

// SendContactEmail runs the full pipeline for one submission. clientID keys
// the rate limit; when empty the submitter's email address is used. On
// success the transport's message identifier comes back in the receipt; on
// rejection the error is a *core.PolicyRejection, on delivery failure a
// retryable *core.TransportError.
func (s *DispatchService) SendContactEmail(ctx context.Context, payload core.ContactPayload, clientID string) (core.SendReceipt, error) {
	if clientID == "" {
		clientID = payload.Email
	}

	if decision := s.limiter.Check(ctx, clientID); !decision.Allowed {
		return core.SendReceipt{}, s.reject(ctx, clientID, &core.PolicyRejection{
			Kind:     core.RejectRateLimit,
			Decision: decision,
		})
	}

	if fieldErrs := s.gate.Validate(payload); len(fieldErrs) > 0 {
		return core.SendReceipt{}, s.reject(ctx, clientID, &core.PolicyRejection{
			Kind:        core.RejectValidation,
			FieldErrors: fieldErrs,
		})
	}

	payload = s.gate.Sanitize(payload)
	msg := s.render(payload)

	scan := s.gate.ScanContent(msg.Subject, msg.HTML, msg.Text)
	if !scan.Passed {
		return core.SendReceipt{}, s.reject(ctx, clientID, &core.PolicyRejection{
			Kind:    core.RejectContent,
			Reason:  scan.Reason,
			Threats: scan.Threats,
		})
	}

	spf := s.gate.CheckSenderPolicy(ctx, senderDomain(s.cfg.From))
	scan.SPF = spf
	if !spf.Valid {
		return core.SendReceipt{}, s.reject(ctx, clientID, &core.PolicyRejection{
			Kind:   core.RejectSender,
			Reason: spf.Reason,
		})
	}

	messageID, err := s.mailer.Send(ctx, msg)
	if err != nil {
		// Transport failures are logged with context and re-raised;
		// credentials never appear in fields.
		s.logger.Error("mail transport failed",
			zap.String("identifier", clientID),
			zap.String("recipient", s.cfg.To),
			zap.Error(err))
		return core.SendReceipt{}, err
	}

	receipt := core.SendReceipt{
		MessageID:    messageID,
		Recipient:    s.cfg.To,
		DispatchedAt: time.Now().UTC(),
		SecurityInfo: scan,
	}

	s.logger.Info("contact email dispatched",
		zap.String("message_id", receipt.MessageID),
		zap.String("recipient", receipt.Recipient),
		zap.Time("dispatched_at", receipt.DispatchedAt))

	if err := s.events.PublishDispatched(ctx, receipt); err != nil {
		// The message is already accepted by the transport; a failed audit
		// event must not fail the request.
		s.logger.Warn("failed to publish dispatch event", zap.Error(err))
	}

	return receipt, nil
}

// reject publishes the audit event and returns the rejection unchanged.
func (s *DispatchService) reject(ctx context.Context, clientID string, rejection *core.PolicyRejection) error {
	if err := s.events.PublishRejected(ctx, clientID, rejection); err != nil {
		s.logger.Warn("failed to publish rejection event", zap.Error(err))
	}
	s.logger.Info("dispatch rejected",
		zap.String("identifier", clientID),
		zap.String("kind", string(rejection.Kind)))
	return rejection
}

// render builds the outbound message. Body templating proper is an external
// concern; this produces the minimal text and HTML renditions the scanner
// and transport need, with user content HTML-escaped.
func (s *DispatchService) render(payload core.ContactPayload) core.EmailMessage {
	subject := payload.Subject
	if subject == "" {
		subject = fmt.Sprintf("Contact request from %s (%s)", payload.Name, payload.ServiceType)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Name: %s\n", payload.Name)
	fmt.Fprintf(&text, "Email: %s\n", payload.Email)
	if payload.Company != "" {
		fmt.Fprintf(&text, "Company: %s\n", payload.Company)
	}
	if payload.Phone != "" {
		fmt.Fprintf(&text, "Phone: %s\n", payload.Phone)
	}
	fmt.Fprintf(&text, "Service: %s\n\n%s\n", payload.ServiceType, payload.Message)

	var htmlBody strings.Builder
	htmlBody.WriteString("<p><strong>" + html.EscapeString(payload.Name) + "</strong> &lt;" + html.EscapeString(payload.Email) + "&gt;</p>")
	if payload.Company != "" {
		htmlBody.WriteString("<p>Company: " + html.EscapeString(payload.Company) + "</p>")
	}
	htmlBody.WriteString("<p>Service: " + html.EscapeString(payload.ServiceType) + "</p>")
	htmlBody.WriteString("<p>" + html.EscapeString(payload.Message) + "</p>")

	return core.EmailMessage{
		From:    s.cfg.From,
		To:      s.cfg.To,
		ReplyTo: payload.Email,
		Subject: subject,
		Text:    text.String(),
		HTML:    htmlBody.String(),
		Headers: s.gate.SecurityHeaders(),
	}
}

func senderDomain(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 {
		return address[i+1:]
	}
	return address
}
