package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/mailgate/core"
	"github.com/layer-3/mailgate/secure"
)

// capturingPublisher records every published message in memory.
type capturingPublisher struct {
	topics   []string
	messages []*message.Message
	err      error
}

func (p *capturingPublisher) Publish(topic string, messages ...*message.Message) error {
	if p.err != nil {
		return p.err
	}
	for _, msg := range messages {
		p.topics = append(p.topics, topic)
		p.messages = append(p.messages, msg)
	}
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func TestPublishRejected(t *testing.T) {
	inner := &capturingPublisher{}
	pub := NewWatermillPublisher(inner, nil)

	rejection := &core.PolicyRejection{
		Kind:    core.RejectContent,
		Reason:  "2 content threats detected",
		Threats: []string{"script tag injection", "iframe tag"},
	}
	require.NoError(t, pub.PublishRejected(context.Background(), "1.2.3.4", rejection))

	require.Len(t, inner.messages, 1)
	assert.Equal(t, SecurityAuditTopic, inner.topics[0])
	assert.NotEmpty(t, inner.messages[0].UUID)

	var event RejectedEvent
	require.NoError(t, json.Unmarshal(inner.messages[0].Payload, &event))
	assert.Equal(t, "1.2.3.4", event.Identifier)
	assert.Equal(t, "content", event.Kind)
	assert.Equal(t, rejection.Error(), event.Reason)
	assert.Equal(t, []string{"script tag injection", "iframe tag"}, event.Threats)
	assert.False(t, event.OccurredAt.IsZero())
}

func TestPublishDispatched(t *testing.T) {
	inner := &capturingPublisher{}
	pub := NewWatermillPublisher(inner, nil)

	receipt := core.SendReceipt{
		MessageID:    "<id@localhost>",
		Recipient:    "inbox@example.org",
		DispatchedAt: time.Unix(1_700_000_000, 0).UTC(),
	}
	require.NoError(t, pub.PublishDispatched(context.Background(), receipt))

	require.Len(t, inner.messages, 1)
	assert.Equal(t, DispatchedTopic, inner.topics[0])

	var event DispatchedEvent
	require.NoError(t, json.Unmarshal(inner.messages[0].Payload, &event))
	assert.Equal(t, "<id@localhost>", event.MessageID)
	assert.Equal(t, "inbox@example.org", event.Recipient)
	assert.True(t, receipt.DispatchedAt.Equal(event.DispatchedAt))
}

func TestPublishSignsMessagesWhenKeyed(t *testing.T) {
	inner := &capturingPublisher{}
	key := []byte("audit-signing-key")
	pub := NewWatermillPublisher(inner, key)

	require.NoError(t, pub.PublishDispatched(context.Background(), core.SendReceipt{
		MessageID: "<id@localhost>",
		Recipient: "inbox@example.org",
	}))

	require.Len(t, inner.messages, 1)
	msg := inner.messages[0]
	sig := msg.Metadata.Get(SignatureMetadataKey)
	require.NotEmpty(t, sig)
	assert.True(t, secure.VerifyHMAC(msg.Payload, sig, key))
	assert.False(t, secure.VerifyHMAC(msg.Payload, sig, []byte("other-key")))
}

func TestPublishOmitsSignatureWithoutKey(t *testing.T) {
	inner := &capturingPublisher{}
	pub := NewWatermillPublisher(inner, nil)

	require.NoError(t, pub.PublishDispatched(context.Background(), core.SendReceipt{}))
	require.Len(t, inner.messages, 1)
	assert.Empty(t, inner.messages[0].Metadata.Get(SignatureMetadataKey))
}

func TestPublishSurfacesBrokerErrors(t *testing.T) {
	inner := &capturingPublisher{err: errors.New("broker down")}
	pub := NewWatermillPublisher(inner, nil)

	err := pub.PublishDispatched(context.Background(), core.SendReceipt{})
	assert.Error(t, err)
}
