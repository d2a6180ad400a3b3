// Package syncer owns the merge protocol between the two device replicas.
//
// The coordinator is a consumer loop over the transport's single ordered
// event channel, so inbound payloads, reachability edges and activation are
// handled one at a time without locks around the event flow. Replica
// mutations themselves are additionally serialized with a mutex because
// snapshot replies are merged from a helper goroutine.
//
// The protocol is deliberately optimistic: no acknowledgements, no retry
// logic beyond the durable outbox, overlapping syncs allowed to race. Merge
// is an idempotent, commutative union by entry id, which makes duplicate and
// out-of-order delivery harmless.
package syncer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/waterlog/internal/common"
	"github.com/dmitrijs2005/waterlog/internal/logging"
	"github.com/dmitrijs2005/waterlog/internal/models"
	"github.com/dmitrijs2005/waterlog/internal/repositories/flags"
	"github.com/dmitrijs2005/waterlog/internal/repositories/replica"
	"github.com/dmitrijs2005/waterlog/internal/transport"
)

// Coordinator reconciles inbound peer state into the local store and
// announces local changes to the peer.
type Coordinator struct {
	replicas replica.Repository
	flags    flags.Repository
	tr       transport.Transport
	log      logging.Logger

	// premium is this device's own entitlement, declared to the peer
	// last-write-wins.
	premium bool

	mu          sync.Mutex
	dataChanged atomic.Bool
}

// New builds a coordinator. It is constructed once by the composition root
// and injected wherever needed; there is no package-level instance.
func New(replicas replica.Repository, fl flags.Repository, tr transport.Transport, log logging.Logger, premium bool) *Coordinator {
	if log == nil {
		log = logging.Noop{}
	}
	return &Coordinator{
		replicas: replicas,
		flags:    fl,
		tr:       tr,
		log:      log,
		premium:  premium,
	}
}

// Run consumes transport events until ctx is cancelled or the event channel
// closes.
func (c *Coordinator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-c.tr.Events():
			if !ok {
				return nil
			}
			c.handleEvent(ctx, ev)
		}
	}
}

// EntryAdmitted announces a freshly admitted local entry: a best-effort
// direct send when the peer is reachable, plus an unconditional enqueue on
// the reliable channel. Both paths may deliver; the union merge absorbs the
// duplicate.
func (c *Coordinator) EntryAdmitted(ctx context.Context, e models.Entry) {
	payload, err := transport.EncodeEntry(e)
	if err != nil {
		c.log.Error(ctx, "failed to encode entry payload", "id", e.Id, "err", err)
		return
	}

	if c.tr.IsReachable() {
		if _, err := c.tr.SendImmediate(ctx, payload); err != nil {
			c.log.Debug(ctx, "direct entry send failed", "id", e.Id, "err", err)
		}
	}
	if err := c.tr.SendReliable(ctx, payload); err != nil {
		c.log.Error(ctx, "failed to enqueue entry for reliable delivery", "id", e.Id, "err", err)
	}
}

// DataChanged reports whether the replica or the cached capability changed
// since the last call, and clears the signal. The presentation layer polls
// this to know when to re-query stats.
func (c *Coordinator) DataChanged() bool {
	return c.dataChanged.Swap(false)
}

func (c *Coordinator) handleEvent(ctx context.Context, ev transport.Event) {
	switch ev.Type {
	case transport.EventActivated:
		if ev.Err != nil {
			c.log.Error(ctx, "transport activation failed", "err", ev.Err)
			return
		}
		c.log.Info(ctx, "transport activated")
		if c.tr.IsReachable() {
			c.refresh(ctx)
		}
	case transport.EventReachability:
		c.log.Info(ctx, "peer reachability changed", "reachable", ev.Reachable)
		if ev.Reachable {
			c.refresh(ctx)
		}
	case transport.EventMessage:
		c.handlePayload(ctx, ev.Payload, ev.Reply)
	}
}

// refresh runs the regained-reachability routine: declare our capability and
// pull the peer's full snapshot. It runs in a goroutine so the event loop
// stays free to answer the peer's mirror-image snapshot request; the racing
// syncs are harmless because merge is idempotent.
func (c *Coordinator) refresh(ctx context.Context) {
	go func() {
		c.broadcastCapability(ctx)

		req, err := transport.EncodeSnapshotRequest()
		if err != nil {
			c.log.Error(ctx, "failed to encode snapshot request", "err", err)
			return
		}
		reply, err := c.tr.SendImmediate(ctx, req)
		if err != nil {
			c.log.Debug(ctx, "snapshot request failed, proceeding with local state", "err", err)
			return
		}
		if reply != nil {
			c.handlePayload(ctx, reply, nil)
		}
	}()
}

func (c *Coordinator) broadcastCapability(ctx context.Context) {
	payload, err := transport.EncodeCapability(c.premium)
	if err != nil {
		c.log.Error(ctx, "failed to encode capability payload", "err", err)
		return
	}
	// Last-write-wins: only the latest declaration matters, so this is a
	// best-effort send re-issued on every reachability edge, not an
	// outbox entry.
	if _, err := c.tr.SendImmediate(ctx, payload); err != nil {
		c.log.Debug(ctx, "capability broadcast failed", "err", err)
	}
}

// handlePayload decodes and applies one inbound payload. Undecodable
// payloads are dropped with a diagnostic; they never reach the replica.
func (c *Coordinator) handlePayload(ctx context.Context, payload []byte, reply func([]byte)) {
	msg, err := transport.Decode(payload)
	if err != nil {
		c.log.Warn(ctx, "dropping undecodable payload", "err", err)
		return
	}

	switch msg.Kind {
	case transport.KindEntry:
		c.mergeEntries(ctx, []models.Entry{*msg.Entry})
	case transport.KindSnapshot:
		c.mergeEntries(ctx, msg.Entries)
	case transport.KindCapability:
		if err := c.flags.SetPeerPremium(ctx, *msg.Premium); err != nil {
			c.log.Error(ctx, "failed to cache peer capability", "err", err)
			return
		}
		c.dataChanged.Store(true)
	case transport.KindSnapshotRequest:
		c.answerSnapshotRequest(ctx, reply)
	}
}

func (c *Coordinator) mergeEntries(ctx context.Context, entries []models.Entry) {
	if len(entries) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, changed, err := c.replicas.Merge(ctx, entries)
	if err != nil {
		c.log.Error(ctx, "failed to merge inbound entries", "count", len(entries), "err", err)
		return
	}
	if changed {
		c.log.Debug(ctx, "merged inbound entries", "count", len(entries))
		c.dataChanged.Store(true)
	}
}

func (c *Coordinator) answerSnapshotRequest(ctx context.Context, reply func([]byte)) {
	rep, err := c.replicas.Load(ctx)
	if err != nil {
		if !errors.Is(err, common.ErrStorageDecode) {
			c.log.Error(ctx, "failed to load replica for snapshot", "err", err)
			return
		}
		c.log.Warn(ctx, "stored replica is corrupt, answering with empty snapshot", "err", err)
	}

	payload, err := transport.EncodeSnapshot(rep)
	if err != nil {
		c.log.Error(ctx, "failed to encode snapshot", "err", err)
		return
	}

	if reply != nil {
		reply(payload)
		return
	}
	if _, err := c.tr.SendImmediate(ctx, payload); err != nil {
		c.log.Debug(ctx, "snapshot push failed", "err", err)
	}
}
