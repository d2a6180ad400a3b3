package outbox

import "context"

// Item is one queued payload awaiting delivery to the peer.
type Item struct {
	ID      int64
	Payload []byte
}

// Repository is the durable store-and-forward queue behind the transport's
// reliable channel. Payloads survive process restarts and peer outages;
// they are only marked delivered once a send to the peer succeeded.
type Repository interface {
	// Enqueue appends a payload to the queue.
	Enqueue(ctx context.Context, payload []byte) error

	// Pending lists undelivered payloads in enqueue order.
	Pending(ctx context.Context) ([]Item, error)

	// MarkDelivered flags a payload as delivered.
	MarkDelivered(ctx context.Context, id int64) error
}
