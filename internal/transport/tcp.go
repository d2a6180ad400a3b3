package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/waterlog/internal/common"
	"github.com/dmitrijs2005/waterlog/internal/logging"
	"github.com/dmitrijs2005/waterlog/internal/repositories/outbox"
)

// TCPConfig holds the settings for the TCP link between the two devices.
type TCPConfig struct {
	Device        string
	ListenAddr    string
	PeerAddr      string
	PairingSecret string
	ProbeInterval time.Duration
	DialTimeout   time.Duration
	ReplyTimeout  time.Duration
}

func (c *TCPConfig) applyDefaults() {
	if c.ProbeInterval <= 0 {
		c.ProbeInterval = 3 * time.Second
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 2 * time.Second
	}
	if c.ReplyTimeout <= 0 {
		c.ReplyTimeout = 3 * time.Second
	}
}

// TCPTransport links the two devices over TCP with length-prefixed JSON
// frames. Every connection starts with a pairing-token handshake. A
// background probe tracks reachability; the durable outbox backs the
// reliable channel and is flushed whenever the peer comes back.
type TCPTransport struct {
	cfg    TCPConfig
	key    []byte
	outbox outbox.Repository
	log    logging.Logger

	events    chan Event
	reachable atomic.Bool
	nextID    atomic.Uint64

	mu       sync.Mutex
	listener net.Listener
	runCtx   context.Context
	closed   bool

	flushMu sync.Mutex
}

// NewTCP builds the transport. It does not touch the network until Run.
func NewTCP(cfg TCPConfig, ob outbox.Repository, log logging.Logger) *TCPTransport {
	cfg.applyDefaults()
	if log == nil {
		log = logging.Noop{}
	}
	return &TCPTransport{
		cfg:    cfg,
		key:    PairingKey(cfg.PairingSecret),
		outbox: ob,
		log:    log,
		events: make(chan Event, 64),
	}
}

func (t *TCPTransport) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", t.cfg.ListenAddr)
	if err != nil {
		t.deliver(Event{Type: EventActivated, Err: err})
		return fmt.Errorf("failed to listen on %s: %w", t.cfg.ListenAddr, err)
	}

	t.mu.Lock()
	t.listener = ln
	t.runCtx = ctx
	t.mu.Unlock()

	t.deliver(Event{Type: EventActivated})

	go t.probeLoop(ctx)
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		go t.handleConn(ctx, conn)
	}
}

func (t *TCPTransport) IsReachable() bool {
	return t.reachable.Load()
}

func (t *TCPTransport) SendImmediate(ctx context.Context, payload []byte) ([]byte, error) {
	if !t.reachable.Load() {
		return nil, common.ErrPeerUnreachable
	}
	return t.sendNow(ctx, payload)
}

func (t *TCPTransport) SendReliable(ctx context.Context, payload []byte) error {
	if err := t.outbox.Enqueue(ctx, payload); err != nil {
		return err
	}
	if t.reachable.Load() {
		go t.flushOutbox(t.backgroundCtx())
	}
	return nil
}

func (t *TCPTransport) Events() <-chan Event {
	return t.events
}

func (t *TCPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.listener != nil {
		_ = t.listener.Close()
	}
	close(t.events)
	return nil
}

// sendNow dials, handshakes and delivers one payload. Snapshot requests go
// out as request frames and wait for the correlated response; everything
// else is fire-and-forget.
func (t *TCPTransport) sendNow(ctx context.Context, payload []byte) ([]byte, error) {
	conn, err := t.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrPeerUnreachable, err)
	}
	defer conn.Close()

	wantsReply := false
	if msg, err := Decode(payload); err == nil && msg.Kind == KindSnapshotRequest {
		wantsReply = true
	}

	if !wantsReply {
		if err := writeFrame(conn, frame{Type: frameMsg, Body: payload}); err != nil {
			return nil, err
		}
		return nil, nil
	}

	id := t.nextID.Add(1)
	if err := writeFrame(conn, frame{Type: frameReq, ID: id, Body: payload}); err != nil {
		return nil, err
	}

	_ = conn.SetReadDeadline(time.Now().Add(t.cfg.ReplyTimeout))
	for {
		f, err := readFrame(conn)
		if err != nil {
			// No reply in time is not an error; the caller proceeds
			// with cached data.
			return nil, nil
		}
		if f.Type == frameResp && f.ID == id {
			return f.Body, nil
		}
	}
}

// dial opens an authenticated connection to the peer.
func (t *TCPTransport) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: t.cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", t.cfg.PeerAddr)
	if err != nil {
		return nil, err
	}

	token, err := GenerateToken(t.cfg.Device, t.key)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	_ = conn.SetDeadline(time.Now().Add(t.cfg.DialTimeout))
	if err := writeFrame(conn, frame{Type: frameAuth, Token: token}); err != nil {
		_ = conn.Close()
		return nil, err
	}
	f, err := readFrame(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if f.Type != frameAuth {
		_ = conn.Close()
		if f.Error != "" {
			return nil, fmt.Errorf("handshake rejected: %s", f.Error)
		}
		return nil, common.ErrInvalidToken
	}
	_ = conn.SetDeadline(time.Time{})
	return conn, nil
}

// handleConn serves one inbound connection: handshake first, then frames
// until the peer hangs up.
func (t *TCPTransport) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	var writeMu sync.Mutex
	write := func(f frame) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return writeFrame(conn, f)
	}

	_ = conn.SetReadDeadline(time.Now().Add(t.cfg.DialTimeout))
	f, err := readFrame(conn)
	if err != nil || f.Type != frameAuth {
		_ = write(frame{Type: frameErr, Error: "handshake expected"})
		return
	}
	peer, err := VerifyToken(f.Token, t.key)
	if err != nil {
		t.log.Warn(ctx, "rejected connection with bad pairing token", "err", err)
		_ = write(frame{Type: frameErr, Error: common.ErrInvalidToken.Error()})
		return
	}
	if err := write(frame{Type: frameAuth}); err != nil {
		return
	}

	for {
		_ = conn.SetReadDeadline(time.Now().Add(time.Minute))
		f, err := readFrame(conn)
		if err != nil {
			return
		}

		switch f.Type {
		case framePing:
			_ = write(frame{Type: framePong})
		case frameMsg:
			t.deliver(Event{Type: EventMessage, Payload: f.Body})
		case frameReq:
			id := f.ID
			var once sync.Once
			t.deliver(Event{
				Type:    EventMessage,
				Payload: f.Body,
				Reply: func(b []byte) {
					once.Do(func() {
						if err := write(frame{Type: frameResp, ID: id, Body: b}); err != nil {
							t.log.Warn(ctx, "failed to write reply", "peer", peer, "err", err)
						}
					})
				},
			})
		default:
			t.log.Debug(ctx, "ignoring unexpected frame", "type", f.Type, "peer", peer)
		}
	}
}

func (t *TCPTransport) probeLoop(ctx context.Context) {
	t.probe(ctx)

	ticker := time.NewTicker(t.cfg.ProbeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.probe(ctx)
		}
	}
}

// probe checks whether the peer answers a ping and records the result,
// emitting a reachability event on every edge.
func (t *TCPTransport) probe(ctx context.Context) {
	ok := t.ping(ctx)
	was := t.reachable.Swap(ok)
	if was == ok {
		return
	}

	t.log.Info(ctx, "peer reachability changed", "reachable", ok, "peer", t.cfg.PeerAddr)
	t.deliver(Event{Type: EventReachability, Reachable: ok})
	if ok {
		go t.flushOutbox(ctx)
	}
}

func (t *TCPTransport) ping(ctx context.Context) bool {
	conn, err := t.dial(ctx)
	if err != nil {
		return false
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(t.cfg.DialTimeout))
	if err := writeFrame(conn, frame{Type: framePing}); err != nil {
		return false
	}
	f, err := readFrame(conn)
	return err == nil && f.Type == framePong
}

// flushOutbox drains the durable queue while the peer stays reachable.
// Failures stop the pass; the next reachability edge or reliable send
// triggers another one.
func (t *TCPTransport) flushOutbox(ctx context.Context) {
	t.flushMu.Lock()
	defer t.flushMu.Unlock()

	items, err := t.outbox.Pending(ctx)
	if err != nil {
		t.log.Error(ctx, "failed to read outbox", "err", err)
		return
	}

	for _, item := range items {
		if !t.reachable.Load() {
			return
		}
		if _, err := t.sendNow(ctx, item.Payload); err != nil {
			t.log.Warn(ctx, "outbox delivery failed", "id", item.ID, "err", err)
			return
		}
		if err := t.outbox.MarkDelivered(ctx, item.ID); err != nil {
			t.log.Error(ctx, "failed to mark payload delivered", "id", item.ID, "err", err)
			return
		}
	}
}

func (t *TCPTransport) backgroundCtx() context.Context {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.runCtx != nil {
		return t.runCtx
	}
	return context.Background()
}

// deliver places an event on the channel unless the transport is closed.
// A full buffer drops the event; the periodic snapshot exchange repairs
// any resulting gap.
func (t *TCPTransport) deliver(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.events <- ev:
	default:
		t.log.Warn(context.Background(), "event buffer full, dropping event", "type", ev.Type.String())
	}
}
