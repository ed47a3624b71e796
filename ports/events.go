package ports

import (
	"context"

	"github.com/layer-3/mailgate/core"
)

// EventPublisher notifies interested consumers about security-relevant
// outcomes of the dispatch pipeline.
type EventPublisher interface {
	// PublishRejected publishes a security-audit event for a rejected dispatch.
	PublishRejected(ctx context.Context, identifier string, rejection *core.PolicyRejection) error

	// PublishDispatched publishes a record of a successfully sent message.
	PublishDispatched(ctx context.Context, receipt core.SendReceipt) error
}
