// Package messaging provides abstractions for message broker communication.
// It defines the small surface the wodles need from a broker so that sources
// and producers are not coupled to a specific implementation.
package messaging

import (
	"context"
	"time"
)

// Publisher publishes raw payloads to subjects.
type Publisher interface {
	// Publish sends data to subject. Durable implementations return once the
	// broker has stored the message.
	Publish(ctx context.Context, subject string, data []byte) error

	// Close releases any resources held by the publisher.
	Close() error
}

// Conn is the connection state a health check inspects.
type Conn interface {
	// IsConnected returns true if the client is connected to the broker.
	IsConnected() bool

	// RTT measures the round trip time to the broker.
	RTT() (time.Duration, error)
}
