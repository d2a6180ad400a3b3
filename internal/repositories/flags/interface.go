package flags

import (
	"context"
	"time"
)

// Repository stores the small scalar flags a device keeps next to its
// replica: the rate limiter's last-admitted timestamp and the cached peer
// capability. These are local-only values; none of them travel with sync
// except the premium flag, which the peer overwrites last-write-wins.
type Repository interface {
	// LastAdmitted returns the timestamp of the most recently admitted
	// entry on this device. ok is false when nothing was admitted yet.
	LastAdmitted(ctx context.Context) (t time.Time, ok bool, err error)

	// SetLastAdmitted stores the new last-admitted timestamp.
	SetLastAdmitted(ctx context.Context, t time.Time) error

	// PeerPremium returns the last premium capability value received from
	// the peer. ok is false when the peer never declared one.
	PeerPremium(ctx context.Context) (premium bool, ok bool, err error)

	// SetPeerPremium overwrites the cached peer capability unconditionally.
	SetPeerPremium(ctx context.Context, premium bool) error
}
