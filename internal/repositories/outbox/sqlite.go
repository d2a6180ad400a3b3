package outbox

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/waterlog/internal/dbx"
)

// SQLiteRepository implements Repository over the outbox table.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a repository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, payload []byte) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO outbox (payload) VALUES (?)`, payload)
	if err != nil {
		return fmt.Errorf("failed to enqueue payload: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Pending(ctx context.Context) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, payload FROM outbox WHERE delivered = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending payloads: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Payload); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *SQLiteRepository) MarkDelivered(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE outbox SET delivered = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark payload delivered: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}
