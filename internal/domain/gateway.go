package domain

import "context"

// Gateway is a chat platform connection that converts platform messages
// into InboundEvents and publishes them on the bus. Start blocks until
// the context is cancelled or the connection fails.
type Gateway interface {
	Name() string
	Start(ctx context.Context, bus EventBus) error
}
