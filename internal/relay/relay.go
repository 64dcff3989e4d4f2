// Package relay abstracts the pub/sub transport announcements travel over.
// The bus only ever sees raw payloads on a topic; delivery is at-least-once
// and echoes the publisher's own messages back, which is exactly what the
// dedup layer above is built for.
package relay

import "context"

// Relay publishes and consumes opaque payloads on a topic.
type Relay interface {
	// Publish sends payload on topic. Fire-and-forget: an error means the
	// send failed, and it is never retried automatically.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe returns a channel of raw payloads for topic. The channel is
	// closed when ctx is cancelled or the relay shuts down.
	Subscribe(ctx context.Context, topic string) (<-chan []byte, error)

	// Close releases transport resources.
	Close() error
}
