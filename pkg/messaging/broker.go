package messaging

import (
	"context"
)

// Broker is the out-of-band delivery edge for the desktop and mobile
// channels. Publish appends one message to a named queue; the device-facing
// consumers drain the queue outside this process.
type Broker interface {
	Publish(ctx context.Context, queue string, message interface{}) error
	Close() error
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
