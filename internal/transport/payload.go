package transport

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/waterlog/internal/common"
	"github.com/dmitrijs2005/waterlog/internal/models"
)

// Kind tags the content of a sync payload.
type Kind string

const (
	// KindEntry carries a single freshly admitted entry.
	KindEntry Kind = "entry"
	// KindSnapshot carries the sender's full replica.
	KindSnapshot Kind = "snapshot"
	// KindSnapshotRequest asks the peer to reply with its full replica.
	KindSnapshotRequest Kind = "snapshot_request"
	// KindCapability declares the sender's premium entitlement,
	// last-write-wins.
	KindCapability Kind = "capability"
)

// Message is the decoded form of a sync payload.
type Message struct {
	Kind    Kind           `json:"kind"`
	Entry   *models.Entry  `json:"entry,omitempty"`
	Entries []models.Entry `json:"entries,omitempty"`
	Premium *bool          `json:"premium,omitempty"`
}

// EncodeEntry builds the payload for a single admitted entry.
func EncodeEntry(e models.Entry) ([]byte, error) {
	return encode(Message{Kind: KindEntry, Entry: &e})
}

// EncodeSnapshot builds the payload for a full replica.
func EncodeSnapshot(r models.Replica) ([]byte, error) {
	return encode(Message{Kind: KindSnapshot, Entries: r.Entries})
}

// EncodeSnapshotRequest builds the control payload asking for a snapshot.
func EncodeSnapshotRequest() ([]byte, error) {
	return encode(Message{Kind: KindSnapshotRequest})
}

// EncodeCapability builds the last-write-wins capability declaration.
func EncodeCapability(premium bool) ([]byte, error) {
	return encode(Message{Kind: KindCapability, Premium: &premium})
}

func encode(m Message) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", m.Kind, err)
	}
	return b, nil
}

// Decode parses an inbound payload. Malformed bytes, unknown kinds and
// kind/content mismatches all wrap common.ErrPayloadDecode so the receiver
// can drop the payload with a single errors.Is check.
func Decode(b []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %w", common.ErrPayloadDecode, err)
	}

	switch m.Kind {
	case KindEntry:
		if m.Entry == nil || m.Entry.Id == "" {
			return Message{}, fmt.Errorf("%w: entry payload without entry", common.ErrPayloadDecode)
		}
	case KindSnapshot, KindSnapshotRequest:
		// An empty snapshot is legitimate.
	case KindCapability:
		if m.Premium == nil {
			return Message{}, fmt.Errorf("%w: capability payload without value", common.ErrPayloadDecode)
		}
	default:
		return Message{}, fmt.Errorf("%w: unknown kind %q", common.ErrPayloadDecode, m.Kind)
	}
	return m, nil
}
