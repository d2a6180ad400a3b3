package transport

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/waterlog/internal/common"
)

const inMemoryReplyTimeout = 250 * time.Millisecond

// PairEnd is one side of an in-memory transport pair. It is used by tests
// and by the two-device simulation: reachability is a toggle, the reliable
// channel is a buffered queue flushed when the link comes back.
type PairEnd struct {
	mu        sync.Mutex
	peer      *PairEnd
	events    chan Event
	reachable bool
	queued    [][]byte
	closed    bool
}

// Pair returns two linked ends, both initially reachable.
func Pair() (*PairEnd, *PairEnd) {
	a := &PairEnd{events: make(chan Event, 64), reachable: true}
	b := &PairEnd{events: make(chan Event, 64), reachable: true}
	a.peer, b.peer = b, a
	return a, b
}

// Run emits the activation event and blocks until ctx is cancelled.
func (p *PairEnd) Run(ctx context.Context) error {
	p.deliver(Event{Type: EventActivated})
	<-ctx.Done()
	return nil
}

func (p *PairEnd) IsReachable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reachable
}

// SetReachable toggles this end's view of the link. Regaining reachability
// flushes the queued reliable payloads to the peer and emits a reachability
// event, mirroring what the real transport does.
func (p *PairEnd) SetReachable(v bool) {
	p.mu.Lock()
	if p.reachable == v {
		p.mu.Unlock()
		return
	}
	p.reachable = v
	var flush [][]byte
	if v {
		flush = p.queued
		p.queued = nil
	}
	p.mu.Unlock()

	for _, payload := range flush {
		p.peer.deliver(Event{Type: EventMessage, Payload: payload})
	}
	p.deliver(Event{Type: EventReachability, Reachable: v})
}

func (p *PairEnd) SendImmediate(ctx context.Context, payload []byte) ([]byte, error) {
	if !p.IsReachable() {
		return nil, common.ErrPeerUnreachable
	}

	replyCh := make(chan []byte, 1)
	var once sync.Once
	ev := Event{
		Type:    EventMessage,
		Payload: payload,
		Reply: func(b []byte) {
			once.Do(func() { replyCh <- b })
		},
	}
	if !p.peer.deliver(ev) {
		return nil, common.ErrPeerUnreachable
	}

	select {
	case reply := <-replyCh:
		return reply, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(inMemoryReplyTimeout):
		// The peer chose not to reply; that is fine.
		return nil, nil
	}
}

func (p *PairEnd) SendReliable(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	if !p.reachable {
		p.queued = append(p.queued, payload)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	p.peer.deliver(Event{Type: EventMessage, Payload: payload})
	return nil
}

func (p *PairEnd) Events() <-chan Event {
	return p.events
}

func (p *PairEnd) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.events)
	}
	return nil
}

// deliver places an event on this end's channel unless it is closed or the
// buffer is full (a stalled consumer drops traffic rather than deadlocking
// the sender; the next snapshot exchange repairs any gap).
func (p *PairEnd) deliver(ev Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.events <- ev:
		return true
	default:
		return false
	}
}
