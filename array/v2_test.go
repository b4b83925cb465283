package array_test

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrgo/array"
	"github.com/tuskan/zarrgo/arraysubset"
	"github.com/tuskan/zarrgo/store"
	"github.com/tuskan/zarrgo/storekey"
)

// A V2 array opens from its .zarray in place: dotted chunk keys, numpy
// dtype string, and fill value for chunks that were never written.
func TestOpenV2ReadsDottedChunkKeys(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemory()

	zarray := []byte(`{
		"zarr_format": 2,
		"shape": [4, 4],
		"chunks": [2, 2],
		"dtype": "<i4",
		"compressor": null,
		"fill_value": -1,
		"order": "C"
	}`)
	metaKey, err := storekey.NewKey("v2arr/.zarray")
	require.NoError(t, err)
	require.NoError(t, backend.Set(ctx, metaKey, zarray))

	// Top-left chunk, raw little-endian int32s.
	chunk := make([]byte, 16)
	for i, v := range []int32{10, 11, 12, 13} {
		binary.LittleEndian.PutUint32(chunk[i*4:], uint32(v))
	}
	chunkKey, err := storekey.NewKey("v2arr/0.0")
	require.NoError(t, err)
	require.NoError(t, backend.Set(ctx, chunkKey, chunk))

	a, err := array.OpenV2(ctx, backend, "v2arr")
	require.NoError(t, err)
	require.Equal(t, []uint64{4, 4}, a.Shape())

	full := arraysubset.Full([]uint64{4, 4})
	data, err := a.RetrieveArraySubset(ctx, full, array.DefaultOptions())
	require.NoError(t, err)

	buf := data.FixedBytes()
	got := make([]int32, 16)
	for i := range got {
		got[i] = int32(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	want := []int32{
		10, 11, -1, -1,
		12, 13, -1, -1,
		-1, -1, -1, -1,
		-1, -1, -1, -1,
	}
	require.Equal(t, want, got)
}

// OpenAny falls back to the .zarray form only when no zarr.json exists.
func TestOpenAnyPrefersV3(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemory()

	_, err := array.OpenAny(ctx, backend, "missing")
	require.Error(t, err)

	a := float32Array(t, backend, "arr", []uint64{4, 4}, []uint64{2, 2})
	opened, err := array.OpenAny(ctx, backend, "arr")
	require.NoError(t, err)
	require.Equal(t, a.Shape(), opened.Shape())
}
