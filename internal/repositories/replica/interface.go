package replica

import (
	"context"

	"github.com/dmitrijs2005/waterlog/internal/models"
)

// Repository owns the device's replica blob in durable local storage.
// Implementations are backed by the local SQLite database.
//
// Load returns an empty replica both for a missing blob and for a corrupt
// one; in the corrupt case the error wraps common.ErrStorageDecode so the
// caller can log the diagnostic and keep going. Corrupt local state degrades
// to "no history", it never blocks the app.
type Repository interface {
	// Load reads the full replica.
	Load(ctx context.Context) (models.Replica, error)

	// Save serializes and writes the whole replica atomically. This is not
	// an incremental log: every save is total.
	Save(ctx context.Context, r models.Replica) error

	// Append is load → merge the single entry → save, as one transaction,
	// and returns the resulting replica.
	Append(ctx context.Context, e models.Entry) (models.Replica, error)

	// Merge unions inbound peer entries into the stored replica, as one
	// transaction. The bool reports whether the replica actually grew.
	Merge(ctx context.Context, entries []models.Entry) (models.Replica, bool, error)

	// Reset drops the stored replica (the bulk "start over" operation).
	Reset(ctx context.Context) error
}
