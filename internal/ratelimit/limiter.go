// Package ratelimit gates the creation of new entries: a device admits a new
// drink only when the previous admitted one is old enough. The cooldown is
// per-device and not synchronized: logging from the phone and the watch
// inside the same window is allowed.
package ratelimit

import (
	"context"
	"time"

	"github.com/dmitrijs2005/waterlog/internal/repositories/flags"
)

// DefaultMinInterval is the cooldown between two admitted entries.
const DefaultMinInterval = 120 * time.Second

// WaitMessage is shown verbatim to the user on rejection.
const WaitMessage = "Please wait before adding another drink."

// Limiter reads and writes the last-admitted timestamp through the flags
// repository, so the cooldown survives process restarts.
type Limiter struct {
	flags flags.Repository
	min   time.Duration
}

// NewLimiter returns a limiter with the given minimum interval; a
// non-positive interval falls back to DefaultMinInterval.
func NewLimiter(flags flags.Repository, min time.Duration) *Limiter {
	if min <= 0 {
		min = DefaultMinInterval
	}
	return &Limiter{flags: flags, min: min}
}

// CanAdmit reports whether a new entry may be admitted at the given instant.
// On rejection the returned message is ready for display.
func (l *Limiter) CanAdmit(ctx context.Context, now time.Time) (bool, string, error) {
	last, ok, err := l.flags.LastAdmitted(ctx)
	if err != nil {
		return false, "", err
	}
	if ok && now.Sub(last) < l.min {
		return false, WaitMessage, nil
	}
	return true, "", nil
}

// RecordAdmission stores now as the new last-admitted timestamp. Call it
// exactly once per entry that was actually persisted, never speculatively:
// recording without persisting would suppress a legitimate next log.
func (l *Limiter) RecordAdmission(ctx context.Context, now time.Time) error {
	return l.flags.SetLastAdmitted(ctx, now)
}
