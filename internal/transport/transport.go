// Package transport moves opaque payloads between the two paired devices.
//
// It exposes two delivery paths with different guarantees: SendImmediate is
// best-effort and fails while the peer is unreachable; SendReliable queues
// the payload in the durable outbox and redelivers once the peer is back.
// Everything inbound (messages, reachability changes, activation) arrives on
// a single ordered event channel, so a consumer loop handles it all without
// locks.
package transport

import "context"

// EventType discriminates transport events.
type EventType int

const (
	// EventActivated fires once the transport finished starting up.
	EventActivated EventType = iota
	// EventReachability fires when the peer becomes reachable or unreachable.
	EventReachability
	// EventMessage carries an inbound payload from the peer.
	EventMessage
)

// String returns the event type name for logging.
func (t EventType) String() string {
	switch t {
	case EventActivated:
		return "Activated"
	case EventReachability:
		return "Reachability"
	case EventMessage:
		return "Message"
	default:
		return "Unknown"
	}
}

// Event is one item on the transport's ordered event channel.
type Event struct {
	Type EventType

	// Payload is set for EventMessage.
	Payload []byte

	// Reply answers a request-reply message. Nil when the sender does not
	// await a reply. It may be called at most once.
	Reply func(payload []byte)

	// Reachable is set for EventReachability.
	Reachable bool

	// Err is set for EventActivated when activation failed.
	Err error
}

// Transport is the channel between this device and its peer.
type Transport interface {
	// Run activates the transport (listener, reachability probe) and
	// blocks until ctx is cancelled.
	Run(ctx context.Context) error

	// IsReachable reports the last known reachability of the peer.
	IsReachable() bool

	// SendImmediate delivers the payload now, best-effort. It returns the
	// peer's reply when the payload asked for one, or nil. It fails with
	// common.ErrPeerUnreachable while the peer is offline.
	SendImmediate(ctx context.Context, payload []byte) ([]byte, error)

	// SendReliable queues the payload for eventual delivery. It survives
	// process restarts and peer outages.
	SendReliable(ctx context.Context, payload []byte) error

	// Events returns the single ordered event channel.
	Events() <-chan Event

	// Close releases the transport's resources.
	Close() error
}
