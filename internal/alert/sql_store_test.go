package alert

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLStore(t *testing.T, ttl time.Duration) *SQLStore {
	return newBoundedSQLStore(t, ttl, 0)
}

func newBoundedSQLStore(t *testing.T, ttl time.Duration, maxEntries int) *SQLStore {
	t.Helper()
	s, err := NewSQLStore(filepath.Join(t.TempDir(), "alerts.db"), ttl, maxEntries)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLStore_PutGetUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLStore(t, 0)

	_, ok, err := s.Get(ctx, "TCS|SWING")
	require.NoError(t, err)
	assert.False(t, ok)

	rec := Record{Key: "TCS|SWING", Instrument: "TCS", Strategy: "SWING", Entry: 3900.5, Policy: PolicyWindow, SentAt: t0}
	require.NoError(t, s.Put(ctx, rec))
	got, ok, err := s.Get(ctx, "TCS|SWING")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec, got)

	rec.SentAt = t0.Add(time.Hour)
	rec.Entry = 3950
	require.NoError(t, s.Put(ctx, rec))
	got, _, err = s.Get(ctx, "TCS|SWING")
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Hour), got.SentAt)
	assert.Equal(t, 3950.0, got.Entry)

	recs, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestSQLStore_TTLPrune(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLStore(t, 30*time.Minute)

	require.NoError(t, s.Put(ctx, Record{Key: "a", SentAt: t0}))
	require.NoError(t, s.Put(ctx, Record{Key: "b", SentAt: t0.Add(45 * time.Minute)}))

	_, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	recs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "b", recs[0].Key)
}

func TestSQLStore_Dedup(t *testing.T) {
	ctx := context.Background()
	d, err := NewDeduplicator(newTestSQLStore(t, DefaultWindow), Config{})
	require.NoError(t, err)
	key := d.KeyFor(breakoutSignal(2500))

	require.NoError(t, d.RecordEmission(ctx, key, t0))
	ok, err := d.ShouldEmit(ctx, key, t0.Add(10*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLStore_MaxEntriesKeepsNewest(t *testing.T) {
	ctx := context.Background()
	// once policy: no age pruning, size bound only
	s := newBoundedSQLStore(t, 0, 3)

	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("SYM%d|SWING|%d.00", i, 100+i)
		require.NoError(t, s.Put(ctx, Record{Key: key, Policy: PolicyOnce, SentAt: t0.Add(time.Duration(i) * time.Hour)}))
	}

	recs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "SYM9|SWING|109.00", recs[0].Key)
	assert.Equal(t, "SYM7|SWING|107.00", recs[2].Key)

	_, ok, err := s.Get(ctx, "SYM0|SWING|100.00")
	require.NoError(t, err)
	assert.False(t, ok)

	t.Run("upsert of a kept key does not evict", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, Record{Key: "SYM8|SWING|108.00", Policy: PolicyOnce, SentAt: t0.Add(20 * time.Hour)}))
		recs, err := s.List(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, recs, 3)
		assert.Equal(t, "SYM8|SWING|108.00", recs[0].Key)
	})
}

func TestSQLStore_DefaultBound(t *testing.T) {
	s := newTestSQLStore(t, 0)
	assert.Equal(t, DefaultMaxEntries, s.maxEntries)
}
