package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestBolt(t *testing.T) *Bolt {
	t.Helper()
	b, err := OpenBolt(filepath.Join(t.TempDir(), "test.bbolt"), BoltOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBolt_RoundTrip(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	b := openTestBolt(t)

	require.NoError(b.Put(ctx, "k", []byte("v"), 0))
	v, err := b.Get(ctx, "k")
	require.NoError(err)
	assert.Equal([]byte("v"), v)

	require.NoError(b.Evict(ctx, "k"))
	_, err = b.Get(ctx, "k")
	assert.ErrorIs(err, ErrNotFound)
	// Evicting an absent key is a no-op.
	require.NoError(b.Evict(ctx, "k"))
}

func TestBolt_ExpiryDeletesOnRead(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	b := openTestBolt(t)

	require.NoError(b.Put(ctx, "k", []byte("v"), 30*time.Millisecond))
	time.Sleep(60 * time.Millisecond)

	_, err := b.Get(ctx, "k")
	assert.ErrorIs(err, ErrNotFound)

	n, err := b.Size(ctx)
	require.NoError(err)
	assert.Equal(0, n, "expired record should be deleted on read")
}

func TestBolt_ClearAndSize(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	b := openTestBolt(t)

	require.NoError(b.Put(ctx, "a", []byte("1"), 0))
	require.NoError(b.Put(ctx, "b", []byte("2"), 0))
	n, err := b.Size(ctx)
	require.NoError(err)
	assert.Equal(2, n)

	require.NoError(b.Clear(ctx))
	n, err = b.Size(ctx)
	require.NoError(err)
	assert.Equal(0, n)

	// The store stays usable after Clear.
	require.NoError(b.Put(ctx, "c", []byte("3"), 0))
}
