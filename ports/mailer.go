package ports

import (
	"context"

	"github.com/layer-3/mailgate/core"
)

// Mailer is the outbound mail transport. Send returns the transport-assigned
// message identifier or a *core.TransportError.
type Mailer interface {
	Send(ctx context.Context, msg core.EmailMessage) (string, error)
}
