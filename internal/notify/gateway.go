// Package notify delivers alert messages to a chat channel.
package notify

import "context"

// Delivery reports the outcome of one send attempt. Delivered false with a
// nil error still counts as a failed attempt.
type Delivery struct {
	Delivered bool
	MessageID int
}

// Gateway sends one message to a chat. Implementations must honour ctx
// cancellation; callers bound every send with a timeout and treat a timeout
// as not delivered.
type Gateway interface {
	Send(ctx context.Context, chatID int64, text string) (Delivery, error)
}
