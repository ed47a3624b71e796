package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/layer-3/mailgate/core"
	"github.com/layer-3/mailgate/ports"
	"github.com/layer-3/mailgate/secure"
)

const (
	// SecurityAuditTopic carries rejected-dispatch events.
	SecurityAuditTopic = "mailgate.security.audit"

	// DispatchedTopic carries successful-send records.
	DispatchedTopic = "mailgate.dispatch.sent"
)

// RejectedEvent is the wire form of a policy rejection. The threat list is
// included for audit consumers; it is never exposed to the submitting client.
type RejectedEvent struct {
	Identifier string    `json:"identifier"`
	Kind       string    `json:"kind"`
	Reason     string    `json:"reason"`
	Threats    []string  `json:"threats,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DispatchedEvent is the wire form of a successful send.
type DispatchedEvent struct {
	MessageID    string    `json:"message_id"`
	Recipient    string    `json:"recipient"`
	DispatchedAt time.Time `json:"dispatched_at"`
}

// SignatureMetadataKey is the message metadata entry carrying the HMAC-SHA256
// signature of the payload, present when the publisher was given a key.
const SignatureMetadataKey = "signature"

// WatermillPublisher implements ports.EventPublisher on a Watermill publisher.
type WatermillPublisher struct {
	publisher message.Publisher
	key       []byte
}

// NewWatermillPublisher creates a new Watermill-backed event publisher. A
// non-empty key makes every published message carry a payload signature that
// audit consumers can verify.
func NewWatermillPublisher(publisher message.Publisher, key []byte) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher, key: key}
}

// PublishRejected publishes a security-audit event for a rejected dispatch.
func (p *WatermillPublisher) PublishRejected(_ context.Context, identifier string, rejection *core.PolicyRejection) error {
	event := RejectedEvent{
		Identifier: identifier,
		Kind:       string(rejection.Kind),
		Reason:     rejection.Error(),
		Threats:    rejection.Threats,
		OccurredAt: time.Now().UTC(),
	}
	return p.publish(SecurityAuditTopic, event)
}

// PublishDispatched publishes a record of a successfully sent message.
func (p *WatermillPublisher) PublishDispatched(_ context.Context, receipt core.SendReceipt) error {
	event := DispatchedEvent{
		MessageID:    receipt.MessageID,
		Recipient:    receipt.Recipient,
		DispatchedAt: receipt.DispatchedAt,
	}
	return p.publish(DispatchedTopic, event)
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	if len(p.key) > 0 {
		msg.Metadata.Set(SignatureMetadataKey, secure.CreateHMAC(payload, p.key))
	}
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
