package sweeper

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyroom/seat-tracker/internal/models"
	"github.com/studyroom/seat-tracker/internal/repository"
)

var t0 = time.UnixMilli(1_700_000_000_000).UTC()

func setup(t *testing.T) (*repository.FileStore, *Sweeper) {
	t.Helper()
	store, err := repository.OpenFileStore(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)
	require.NoError(t, store.SeedBuckets(context.Background(), []models.SeatBucket{{Floor: "3층", SeatType: "일반석", Total: 5}}))
	return store, New(store, time.Hour)
}

func TestSweep_BoundaryIsInclusive(t *testing.T) {
	ctx := context.Background()
	store, sw := setup(t)
	require.NoError(t, store.Insert(ctx, &models.Reservation{StudentID: "a", Floor: "3층", SeatType: "일반석", CreatedAt: t0}))

	removed, err := sw.Sweep(ctx, t0.Add(time.Hour-time.Millisecond))
	require.NoError(t, err)
	assert.Empty(t, removed)

	removed, err = sw.Sweep(ctx, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "a", removed[0].StudentID)
}

func TestSweep_Idempotent(t *testing.T) {
	ctx := context.Background()
	store, sw := setup(t)
	require.NoError(t, store.Insert(ctx, &models.Reservation{StudentID: "a", Floor: "3층", SeatType: "일반석", CreatedAt: t0}))
	require.NoError(t, store.Insert(ctx, &models.Reservation{StudentID: "b", Floor: "3층", SeatType: "일반석", CreatedAt: t0.Add(30 * time.Minute)}))

	now := t0.Add(61 * time.Minute)
	_, err := sw.Sweep(ctx, now)
	require.NoError(t, err)
	first, err := store.ListLive(ctx)
	require.NoError(t, err)

	removed, err := sw.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, removed)
	second, err := store.ListLive(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, second, 1)
	assert.Equal(t, "b", second[0].StudentID)
}

func TestSweep_ReclaimsCapacity(t *testing.T) {
	ctx := context.Background()
	store, sw := setup(t)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Insert(ctx, &models.Reservation{StudentID: id, Floor: "3층", SeatType: "일반석", CreatedAt: t0}))
	}

	_, err := sw.Sweep(ctx, t0.Add(2*time.Hour))
	require.NoError(t, err)

	n, err := store.CountLive(ctx, "3층", "일반석")
	require.NoError(t, err)
	assert.Zero(t, n)
}
