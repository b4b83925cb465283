package asyncio_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrgo/asyncio"
	"github.com/tuskan/zarrgo/store"
	"github.com/tuskan/zarrgo/storekey"
)

func TestBlockOnRoundTripsThroughSyncAdapter(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	key, err := storekey.NewKey("a/b")
	require.NoError(t, err)

	asyncWritable := asyncio.FromSyncWritable{Sync: mem}
	asyncReadable := asyncio.FromSyncReadable{Sync: mem}

	w := asyncio.BlockOnWritable{Async: asyncWritable}
	r := asyncio.BlockOnReadable{Async: asyncReadable}

	require.NoError(t, w.Set(ctx, key, []byte("hello")))
	got, exists, err := r.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, []byte("hello"), got)

	require.NoError(t, w.Erase(ctx, key))
	_, exists, err = r.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestBlockOnListableListsDirectChildren(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	for _, k := range []string{"g/zarr.json", "g/a/zarr.json", "g/a/c/0/0"} {
		key, err := storekey.NewKey(k)
		require.NoError(t, err)
		require.NoError(t, mem.Set(ctx, key, []byte("x")))
	}

	l := asyncio.BlockOnListable{Async: asyncio.FromSyncListable{Sync: mem}}
	keys, prefixes, err := l.ListDir(ctx, "g/")
	require.NoError(t, err)
	require.Equal(t, []string{"zarr.json"}, keys)
	require.Equal(t, []string{"a/"}, prefixes)
}

func TestFutureAwaitRespectsCancellation(t *testing.T) {
	f, resolve := asyncio.NewFuture[int]()
	defer resolve(0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Await(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
