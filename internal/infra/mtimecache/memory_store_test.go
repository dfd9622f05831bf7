package mtimecache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/cdnurl/pkg/util"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	mtime := time.Unix(1700000000, 0)

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", mtime, 0))
	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, mtime.Equal(got))

	require.NoError(t, store.Invalidate(ctx, "k"))
	_, ok, _ = store.Get(ctx, "k")
	require.False(t, ok)
}

func TestMemoryStoreExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	restore := util.NowUTC
	util.NowUTC = func() time.Time { return now }
	t.Cleanup(func() { util.NowUTC = restore })

	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", time.Unix(1, 0), time.Minute))

	_, ok, _ := store.Get(ctx, "k")
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = store.Get(ctx, "k")
	require.False(t, ok)
	require.Zero(t, store.Len())
}

func TestNopStore(t *testing.T) {
	var store NopStore
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", time.Now(), time.Minute))
	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, store.Invalidate(ctx, "k"))
}
