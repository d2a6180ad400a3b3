package transport

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// Wire framing: a 4-byte big-endian length prefix followed by one JSON
// frame. Frames either carry the handshake, a one-way payload, a
// request/response pair correlated by id, or a reachability ping.
const (
	frameAuth = "auth"
	frameMsg  = "msg"
	frameReq  = "req"
	frameResp = "resp"
	framePing = "ping"
	framePong = "pong"
	frameErr  = "err"
)

// maxFrameSize bounds a single frame. A full snapshot of years of drink
// entries is far below this.
const maxFrameSize = 4 << 20

type frame struct {
	Type  string `json:"type"`
	ID    uint64 `json:"id,omitempty"`
	Token string `json:"token,omitempty"`
	Body  []byte `json:"body,omitempty"`
	Error string `json:"error,omitempty"`
}

func writeFrame(w io.Writer, f frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if len(b) > maxFrameSize {
		return fmt.Errorf("frame too large: %d bytes", len(b))
	}

	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(b)))
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func readFrame(r io.Reader) (frame, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return frame{}, err
	}
	n := binary.BigEndian.Uint32(prefix[:])
	if n > maxFrameSize {
		return frame{}, fmt.Errorf("frame too large: %d bytes", n)
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return frame{}, err
	}

	var f frame
	if err := json.Unmarshal(b, &f); err != nil {
		return frame{}, fmt.Errorf("failed to decode frame: %w", err)
	}
	return f, nil
}
