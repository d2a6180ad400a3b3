package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/waterlog/internal/common"
	"github.com/dmitrijs2005/waterlog/internal/models"
	"github.com/dmitrijs2005/waterlog/internal/ratelimit"
	"github.com/dmitrijs2005/waterlog/internal/repositories/flags"
	"github.com/dmitrijs2005/waterlog/internal/repositories/replica"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

type recordingNotifier struct {
	admitted []models.Entry
}

func (n *recordingNotifier) EntryAdmitted(_ context.Context, e models.Entry) {
	n.admitted = append(n.admitted, e)
}

type fixture struct {
	svc      *DrinkService
	replicas replica.Repository
	notifier *recordingNotifier
	db       *sql.DB
	clock    time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
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

	f := &fixture{
		replicas: replica.NewSQLiteRepository(db),
		notifier: &recordingNotifier{},
		db:       db,
		clock:    time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}
	limiter := ratelimit.NewLimiter(flags.NewSQLiteRepository(db), ratelimit.DefaultMinInterval)
	f.svc = NewDrinkService(f.replicas, limiter, f.notifier, nil).WithClock(func() time.Time { return f.clock })
	return f
}

func TestLog_AdmitsAndNotifies(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.Log(ctx, models.SizeCup)
	require.NoError(t, err)
	assert.True(t, res.Admitted)
	require.NotNil(t, res.Entry)
	assert.Equal(t, models.SizeCup, res.Entry.Size)

	rep, err := f.replicas.Load(ctx)
	require.NoError(t, err)
	assert.True(t, rep.Contains(res.Entry.Id))

	require.Len(t, f.notifier.admitted, 1)
	assert.Equal(t, res.Entry.Id, f.notifier.admitted[0].Id)
}

func TestLog_RateLimited(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.Log(ctx, models.SizeCup)
	require.NoError(t, err)
	require.True(t, res.Admitted)

	f.clock = f.clock.Add(119 * time.Second)
	res, err = f.svc.Log(ctx, models.SizeGlass)
	require.NoError(t, err)
	assert.False(t, res.Admitted)
	assert.Equal(t, ratelimit.WaitMessage, res.Message)
	assert.Nil(t, res.Entry)

	// The rejected attempt must not have touched the replica or the
	// notifier.
	rep, err := f.replicas.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Len())
	assert.Len(t, f.notifier.admitted, 1)

	f.clock = f.clock.Add(time.Second)
	res, err = f.svc.Log(ctx, models.SizeGlass)
	require.NoError(t, err)
	assert.True(t, res.Admitted)
}

func TestLog_UnknownSize(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Log(context.Background(), models.DrinkSize("bathtub"))
	assert.ErrorIs(t, err, common.ErrUnknownSize)
}

func TestStats(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Log(ctx, models.SizeCup)
	require.NoError(t, err)
	f.clock = f.clock.Add(3 * time.Minute)
	_, err = f.svc.Log(ctx, models.SizeBottle)
	require.NoError(t, err)

	s, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, s.TodayCount)
	assert.Equal(t, 32.0, s.TodayOunces)
	assert.Equal(t, 1, s.Streak)
}

func TestStats_CorruptStorageDegradesToEmpty(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.db.Exec(`INSERT INTO kv (namespace, key, value) VALUES (?, 'replica', ?)`,
		common.StorageGroup, []byte("not json at all"))
	require.NoError(t, err)

	s, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, s.TodayCount)
	assert.Equal(t, 0.0, s.TodayOunces)
	assert.Equal(t, 0, s.Streak)
}

func TestEntries_NewestFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.Log(ctx, models.SizeCup)
	require.NoError(t, err)
	f.clock = f.clock.Add(3 * time.Minute)
	second, err := f.svc.Log(ctx, models.SizeMug)
	require.NoError(t, err)

	entries, err := f.svc.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second.Entry.Id, entries[0].Id)
	assert.Equal(t, first.Entry.Id, entries[1].Id)
}

func TestReset(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Log(ctx, models.SizeCup)
	require.NoError(t, err)
	require.NoError(t, f.svc.Reset(ctx))

	entries, err := f.svc.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
