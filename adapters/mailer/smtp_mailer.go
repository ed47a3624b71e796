// Package mailer implements the outbound SMTP transport.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/layer-3/mailgate/core"
	"github.com/layer-3/mailgate/ports"
)

// Config holds the SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// DialTimeout bounds the TLS dial; SendTimeout bounds the whole SMTP
	// conversation. Both default generously because third-party mail
	// servers can be slow.
	DialTimeout time.Duration
	SendTimeout time.Duration
}

// SMTPMailer sends messages over SMTP with implicit TLS. Connections are
// established per send; the net/smtp client is not safe for concurrent use,
// so no connection is shared across sends.
type SMTPMailer struct {
	cfg    Config
	logger *zap.Logger
}

// NewSMTPMailer creates an SMTP mailer, failing fast on missing credentials.
func NewSMTPMailer(cfg Config, logger *zap.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, &core.ConfigError{Field: "smtp.host", Reason: "is required"}
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, &core.ConfigError{Field: "smtp.credentials", Reason: "username and password are required"}
	}
	if cfg.Port == 0 {
		cfg.Port = 465
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 30 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 60 * time.Second
	}
	return &SMTPMailer{cfg: cfg, logger: logger}, nil
}

// Send delivers msg and returns the generated Message-ID. Failures come back
// as *core.TransportError and are retryable by the caller.
func (m *SMTPMailer) Send(ctx context.Context, msg core.EmailMessage) (string, error) {
	if msg.To == "" {
		return "", &core.TransportError{Op: "send", Err: core.ErrEmptyRecipient}
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	dialer := &net.Dialer{Timeout: m.cfg.DialTimeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: m.cfg.Host})
	if err != nil {
		return "", &core.TransportError{Op: "connect", Err: err}
	}
	defer conn.Close()

	// One deadline covers the whole SMTP conversation.
	deadline := time.Now().Add(m.cfg.SendTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return "", &core.TransportError{Op: "connect", Err: err}
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return "", &core.TransportError{Op: "greeting", Err: err}
	}
	defer client.Close()

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return "", &core.TransportError{Op: "auth", Err: err}
	}

	if err := client.Mail(msg.From); err != nil {
		return "", &core.TransportError{Op: "mail", Err: err}
	}
	if err := client.Rcpt(msg.To); err != nil {
		return "", &core.TransportError{Op: "rcpt", Err: err}
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), m.cfg.Host)

	w, err := client.Data()
	if err != nil {
		return "", &core.TransportError{Op: "data", Err: err}
	}
	if _, err := w.Write(render(msg, messageID)); err != nil {
		return "", &core.TransportError{Op: "send", Err: err}
	}
	if err := w.Close(); err != nil {
		return "", &core.TransportError{Op: "send", Err: err}
	}
	if err := client.Quit(); err != nil {
		m.logger.Warn("smtp quit failed after accepted message", zap.Error(err))
	}

	return messageID, nil
}

// render builds the RFC 5322 message. When both bodies are present they are
// wrapped in a multipart/alternative envelope.
func render(msg core.EmailMessage, messageID string) []byte {
	var b strings.Builder

	writeHeader := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}

	writeHeader("Message-ID", messageID)
	writeHeader("Date", time.Now().Format(time.RFC1123Z))
	writeHeader("From", msg.From)
	writeHeader("To", msg.To)
	if msg.ReplyTo != "" {
		writeHeader("Reply-To", msg.ReplyTo)
	}
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader("MIME-Version", "1.0")
	for k, v := range msg.Headers {
		writeHeader(k, v)
	}

	switch {
	case msg.HTML != "" && msg.Text != "":
		boundary := strings.ReplaceAll(uuid.New().String(), "-", "")
		writeHeader("Content-Type", `multipart/alternative; boundary="`+boundary+`"`)
		b.WriteString("\r\n")
		writePart(&b, boundary, "text/plain; charset=UTF-8", msg.Text)
		writePart(&b, boundary, "text/html; charset=UTF-8", msg.HTML)
		b.WriteString("--" + boundary + "--\r\n")
	case msg.HTML != "":
		writeHeader("Content-Type", "text/html; charset=UTF-8")
		b.WriteString("\r\n")
		b.WriteString(msg.HTML)
		b.WriteString("\r\n")
	default:
		writeHeader("Content-Type", "text/plain; charset=UTF-8")
		b.WriteString("\r\n")
		b.WriteString(msg.Text)
		b.WriteString("\r\n")
	}

	return []byte(b.String())
}

func writePart(b *strings.Builder, boundary, contentType, body string) {
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: " + contentType + "\r\n\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
}

var _ ports.Mailer = (*SMTPMailer)(nil)
