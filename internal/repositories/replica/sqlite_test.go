package replica

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/waterlog/internal/common"
	"github.com/dmitrijs2005/waterlog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE kv (
  namespace TEXT NOT NULL,
  key TEXT NOT NULL,
  value BLOB NOT NULL,
  PRIMARY KEY (namespace, key)
);
`)
	require.NoError(t, err)
	return db
}

func TestLoad_MissingReturnsEmpty(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	rep, err := r.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Len())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	rep := models.Replica{}.Merge(
		models.Entry{Id: "a", Size: models.SizeCup, LoggedAt: base},
		models.Entry{Id: "b", Size: models.SizeGlass, LoggedAt: base.Add(time.Hour)},
	)

	require.NoError(t, r.Save(ctx, rep))

	loaded, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, rep.Len(), loaded.Len())
	assert.Equal(t, rep.Entries[0].Id, loaded.Entries[0].Id)

	// Saving what was loaded must not change the stored bytes.
	var before []byte
	require.NoError(t, db.QueryRow(`SELECT value FROM kv WHERE key='replica'`).Scan(&before))
	require.NoError(t, r.Save(ctx, loaded))
	var after []byte
	require.NoError(t, db.QueryRow(`SELECT value FROM kv WHERE key='replica'`).Scan(&after))
	assert.Equal(t, before, after)
}

func TestLoad_CorruptReturnsEmptyWithDiagnostic(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO kv (namespace, key, value) VALUES (?, 'replica', ?)`,
		common.StorageGroup, []byte("{not json"))
	require.NoError(t, err)

	rep, err := r.Load(ctx)
	assert.True(t, errors.Is(err, common.ErrStorageDecode))
	assert.Equal(t, 0, rep.Len())
}

func TestAppend(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	rep, err := r.Append(ctx, models.Entry{Id: "a", Size: models.SizeCup, LoggedAt: base})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Len())

	rep, err = r.Append(ctx, models.Entry{Id: "b", Size: models.SizeMug, LoggedAt: base.Add(time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Len())
	assert.Equal(t, "b", rep.Entries[0].Id)

	loaded, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, rep, loaded)
}

func TestAppend_RecoversFromCorruptBlob(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO kv (namespace, key, value) VALUES (?, 'replica', ?)`,
		common.StorageGroup, []byte("garbage"))
	require.NoError(t, err)

	rep, err := r.Append(ctx, models.Entry{Id: "a", Size: models.SizeCup, LoggedAt: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Len())
}

func TestMerge(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	_, err := r.Append(ctx, models.Entry{Id: "a", Size: models.SizeCup, LoggedAt: base})
	require.NoError(t, err)

	inbound := []models.Entry{
		{Id: "a", Size: models.SizeCup, LoggedAt: base},
		{Id: "b", Size: models.SizeGlass, LoggedAt: base.Add(time.Minute)},
	}

	rep, changed, err := r.Merge(ctx, inbound)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, rep.Len())

	// Redelivery of the same payload is a no-op.
	rep2, changed, err := r.Merge(ctx, inbound)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, rep, rep2)
}

func TestReset(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	_, err := r.Append(ctx, models.Entry{Id: "a", Size: models.SizeCup, LoggedAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, r.Reset(ctx))

	rep, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Len())
}
