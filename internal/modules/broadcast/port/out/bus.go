package out

import "context"

// Bus is the raw transport under the tab channel: one shared named topic,
// best-effort delivery, no ordering guarantees across publishers.
type Bus interface {
	Publish(ctx context.Context, payload []byte) error
	// Subscribe registers the sink for inbound payloads and starts delivery.
	// Delivery stops when the bus is closed.
	Subscribe(ctx context.Context, sink func(payload []byte)) error
	Close() error
}
