package notification

import "context"

// Sender delivers a text message to a customer. The engine depends only on
// this contract, never on the channel's wire format.
type Sender interface {
	Send(ctx context.Context, recipient, text string) error
}
