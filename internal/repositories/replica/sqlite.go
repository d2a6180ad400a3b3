package replica

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/waterlog/internal/common"
	"github.com/dmitrijs2005/waterlog/internal/dbx"
	"github.com/dmitrijs2005/waterlog/internal/models"
)

const replicaKey = "replica"

// SQLiteRepository stores the serialized replica as a single blob in the kv
// table, under the shared storage group. Storing the whole blob (rather than
// a row per entry) keeps save total and atomic, and keeps the stored bytes
// byte-for-byte stable for a fixed replica value.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns a repository bound to the given database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Load(ctx context.Context) (models.Replica, error) {
	return load(ctx, r.db)
}

func (r *SQLiteRepository) Save(ctx context.Context, rep models.Replica) error {
	return save(ctx, r.db, rep)
}

func (r *SQLiteRepository) Append(ctx context.Context, e models.Entry) (models.Replica, error) {
	var result models.Replica
	err := dbx.WithTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		stored, err := load(ctx, tx)
		if err != nil && !errors.Is(err, common.ErrStorageDecode) {
			return err
		}
		result = stored.Merge(e)
		return save(ctx, tx, result)
	})
	if err != nil {
		return models.Replica{}, err
	}
	return result, nil
}

func (r *SQLiteRepository) Merge(ctx context.Context, entries []models.Entry) (models.Replica, bool, error) {
	var result models.Replica
	var changed bool
	err := dbx.WithTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		stored, err := load(ctx, tx)
		if err != nil && !errors.Is(err, common.ErrStorageDecode) {
			return err
		}
		result = stored.Merge(entries...)
		changed = result.Len() != stored.Len()
		if !changed {
			return nil
		}
		return save(ctx, tx, result)
	})
	if err != nil {
		return models.Replica{}, false, err
	}
	return result, changed, nil
}

func (r *SQLiteRepository) Reset(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM kv WHERE namespace = ? AND key = ?`, common.StorageGroup, replicaKey)
	if err != nil {
		return fmt.Errorf("failed to reset replica: %w", err)
	}
	return nil
}

func load(ctx context.Context, q dbx.DBTX) (models.Replica, error) {
	var blob []byte
	err := q.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE namespace = ? AND key = ?`, common.StorageGroup, replicaKey).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Replica{}, nil
	}
	if err != nil {
		return models.Replica{}, fmt.Errorf("failed to load replica: %w", err)
	}

	var rep models.Replica
	if err := json.Unmarshal(blob, &rep); err != nil {
		return models.Replica{}, fmt.Errorf("%w: %w", common.ErrStorageDecode, err)
	}
	return rep, nil
}

func save(ctx context.Context, q dbx.DBTX, rep models.Replica) error {
	blob, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to encode replica: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO kv (namespace, key, value) VALUES (?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value
	`, common.StorageGroup, replicaKey, blob)
	if err != nil {
		return fmt.Errorf("failed to save replica: %w", err)
	}
	return nil
}
