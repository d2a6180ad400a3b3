package flags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/waterlog/internal/common"
	"github.com/dmitrijs2005/waterlog/internal/dbx"
)

const (
	keyLastAdmitted = "last_admitted"
	keyPeerPremium  = "peer_premium"
)

// SQLiteRepository keeps the scalar flags in the same kv table as the
// replica blob, one key per flag.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a repository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) LastAdmitted(ctx context.Context) (time.Time, bool, error) {
	raw, ok, err := r.get(ctx, keyLastAdmitted)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		// An unreadable timestamp degrades to "never admitted".
		return time.Time{}, false, nil
	}
	return t, true, nil
}

func (r *SQLiteRepository) SetLastAdmitted(ctx context.Context, t time.Time) error {
	return r.set(ctx, keyLastAdmitted, []byte(t.Format(time.RFC3339Nano)))
}

func (r *SQLiteRepository) PeerPremium(ctx context.Context) (bool, bool, error) {
	raw, ok, err := r.get(ctx, keyPeerPremium)
	if err != nil || !ok {
		return false, false, err
	}
	return string(raw) == "1", true, nil
}

func (r *SQLiteRepository) SetPeerPremium(ctx context.Context, premium bool) error {
	v := []byte("0")
	if premium {
		v = []byte("1")
	}
	return r.set(ctx, keyPeerPremium, v)
}

func (r *SQLiteRepository) get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE namespace = ? AND key = ?`, common.StorageGroup, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get flag[%s]: %w", key, err)
	}
	return value, true, nil
}

func (r *SQLiteRepository) set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv (namespace, key, value) VALUES (?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value
	`, common.StorageGroup, key, value)
	if err != nil {
		return fmt.Errorf("failed to set flag[%s]: %w", key, err)
	}
	return nil
}
