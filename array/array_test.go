package array_test

import (
	"context"
	"encoding/binary"
	"encoding/json/v2"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrgo/array"
	"github.com/tuskan/zarrgo/arraysubset"
	"github.com/tuskan/zarrgo/codec"
	"github.com/tuskan/zarrgo/metadata"
	"github.com/tuskan/zarrgo/store"
)

func regularGridExtension(chunkShape []uint64) metadata.Extension {
	cfg, err := json.Marshal(map[string]any{"chunk_shape": chunkShape})
	if err != nil {
		panic(err)
	}
	return metadata.Extension{Name: "regular", Configuration: cfg, MustUnderstand: true}
}

func float32Array(t *testing.T, backend *store.Memory, path string, shape, chunkShape []uint64) *array.Array {
	t.Helper()
	fillRaw, err := json.Marshal("NaN")
	require.NoError(t, err)
	meta := &metadata.ArrayMetadata{
		Shape:            shape,
		DataType:         metadata.Extension{Name: "float32", MustUnderstand: true},
		ChunkGrid:        regularGridExtension(chunkShape),
		ChunkKeyEncoding: metadata.Extension{Name: "default"},
		FillValue:        fillRaw,
		Codecs:           []metadata.Extension{{Name: "bytes"}},
	}
	a, err := array.Create(context.Background(), backend, path, meta)
	require.NoError(t, err)
	return a
}

func encodeFloat32s(values []float32) codec.ArrayBytes {
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return codec.Fixed(buf)
}

func decodeFloat32s(t *testing.T, data codec.ArrayBytes, n int) []float32 {
	t.Helper()
	buf := data.FixedBytes()
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

// Scenario 1: 8x8 float32 array, chunk shape 4x4, fill value NaN. Write a
// 2x2 block into the top-right chunk's local bottom-right corner, then read
// the whole array back and check every element is fill value except the
// four written ones.
func TestRetrieveArraySubsetFillsAbsentChunksWithFillValue(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemory()
	a := float32Array(t, backend, "arr", []uint64{8, 8}, []uint64{4, 4})

	subset, err := arraysubset.New([]uint64{2, 6}, []uint64{2, 2})
	require.NoError(t, err)
	written := []float32{1, 2, 3, 4}
	require.NoError(t, a.StoreArraySubset(ctx, subset, encodeFloat32s(written), array.DefaultOptions()))

	full := arraysubset.Full([]uint64{8, 8})
	data, err := a.RetrieveArraySubset(ctx, full, array.DefaultOptions())
	require.NoError(t, err)
	got := decodeFloat32s(t, data, 64)

	want := make([]float32, 64)
	for i := range want {
		want[i] = float32(math.NaN())
	}
	want[2*8+6] = 1
	want[2*8+7] = 2
	want[3*8+6] = 3
	want[3*8+7] = 4

	for i := range want {
		if math.IsNaN(float64(want[i])) {
			require.Truef(t, math.IsNaN(float64(got[i])), "index %d: want NaN, got %v", i, got[i])
			continue
		}
		require.Equalf(t, want[i], got[i], "index %d", i)
	}
}

// Scenario 2: a 3x3 block starting at [3,3] spans all four chunks of an
// 8x8/4x4 grid; verify the write lands correctly and untouched regions
// keep the fill value.
func TestStoreArraySubsetSpanningMultipleChunks(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemory()
	a := float32Array(t, backend, "arr", []uint64{8, 8}, []uint64{4, 4})

	subset, err := arraysubset.New([]uint64{3, 3}, []uint64{3, 3})
	require.NoError(t, err)
	values := make([]float32, 9)
	for i := range values {
		values[i] = float32(i + 1)
	}
	require.NoError(t, a.StoreArraySubset(ctx, subset, encodeFloat32s(values), array.DefaultOptions()))

	readBack, err := a.RetrieveArraySubset(ctx, subset, array.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, values, decodeFloat32s(t, readBack, 9))

	full := arraysubset.Full([]uint64{8, 8})
	data, err := a.RetrieveArraySubset(ctx, full, array.DefaultOptions())
	require.NoError(t, err)
	got := decodeFloat32s(t, data, 64)
	require.True(t, math.IsNaN(float64(got[0])))
	require.True(t, math.IsNaN(float64(got[63])))
}

// Scenario 3: a 4x4 "string" array, chunk shape 2x2, fill value "_",
// written as two separate chunk writes, then read back whole.
func TestStringArrayRoundTripsThroughTwoChunkWrites(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemory()
	fillRaw, err := json.Marshal("_")
	require.NoError(t, err)
	meta := &metadata.ArrayMetadata{
		Shape:            []uint64{4, 4},
		DataType:         metadata.Extension{Name: "string", MustUnderstand: true},
		ChunkGrid:        regularGridExtension([]uint64{2, 2}),
		ChunkKeyEncoding: metadata.Extension{Name: "default"},
		FillValue:        fillRaw,
		Codecs:           []metadata.Extension{{Name: "vlen-utf8"}},
	}
	a, err := array.Create(ctx, backend, "strarr", meta)
	require.NoError(t, err)

	topLeft, err := arraysubset.New([]uint64{0, 0}, []uint64{2, 2})
	require.NoError(t, err)
	require.NoError(t, a.StoreArraySubsetStrings(ctx, topLeft, []string{"a", "b", "c", "d"}, array.DefaultOptions()))

	bottomRight, err := arraysubset.New([]uint64{2, 2}, []uint64{2, 2})
	require.NoError(t, err)
	require.NoError(t, a.StoreArraySubsetStrings(ctx, bottomRight, []string{"w", "x", "y", "z"}, array.DefaultOptions()))

	full := arraysubset.Full([]uint64{4, 4})
	got, err := a.RetrieveArraySubsetStrings(ctx, full, array.DefaultOptions())
	require.NoError(t, err)
	want := []string{
		"a", "b", "_", "_",
		"c", "d", "_", "_",
		"_", "_", "w", "x",
		"_", "_", "y", "z",
	}
	require.Equal(t, want, got)
}

// Whole-chunk writes land under the encoded chunk key, chunk-subset writes
// leave the rest of the chunk intact, and erasing a chunk (twice) returns
// it to the fill-value state.
func TestChunkOperations(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemory()
	a := float32Array(t, backend, "arr", []uint64{8, 8}, []uint64{4, 4})

	chunkValues := make([]float32, 16)
	for i := range chunkValues {
		chunkValues[i] = float32(i)
	}
	require.NoError(t, a.StoreChunk(ctx, []uint64{0, 1}, encodeFloat32s(chunkValues), array.DefaultOptions()))

	got, err := a.RetrieveChunk(ctx, []uint64{0, 1}, array.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, chunkValues, decodeFloat32s(t, got, 16))

	// A chunk never written reads back as all fill value.
	absent, err := a.RetrieveChunk(ctx, []uint64{1, 1}, array.DefaultOptions())
	require.NoError(t, err)
	for _, v := range decodeFloat32s(t, absent, 16) {
		require.True(t, math.IsNaN(float64(v)))
	}

	// Writing a 2x2 region inside the chunk keeps the other elements.
	inner, err := arraysubset.New([]uint64{1, 1}, []uint64{2, 2})
	require.NoError(t, err)
	require.NoError(t, a.StoreChunkSubset(ctx, []uint64{0, 1}, inner, encodeFloat32s([]float32{-1, -2, -3, -4}), array.DefaultOptions()))
	got, err = a.RetrieveChunk(ctx, []uint64{0, 1}, array.DefaultOptions())
	require.NoError(t, err)
	updated := decodeFloat32s(t, got, 16)
	require.Equal(t, float32(0), updated[0])
	require.Equal(t, float32(-1), updated[1*4+1])
	require.Equal(t, float32(-4), updated[2*4+2])
	require.Equal(t, float32(15), updated[15])

	require.NoError(t, a.EraseChunk(ctx, []uint64{0, 1}))
	require.NoError(t, a.EraseChunk(ctx, []uint64{0, 1}))
	erased, err := a.RetrieveChunk(ctx, []uint64{0, 1}, array.DefaultOptions())
	require.NoError(t, err)
	for _, v := range decodeFloat32s(t, erased, 16) {
		require.True(t, math.IsNaN(float64(v)))
	}

	_, err = a.RetrieveChunk(ctx, []uint64{2, 0}, array.DefaultOptions())
	require.Error(t, err)
}

// StoreChunks/RetrieveChunks address a rectangular group of chunks at
// once; the buffer covers the union of those chunks in array coordinates.
func TestStoreAndRetrieveChunkRange(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemory()
	a := float32Array(t, backend, "arr", []uint64{8, 8}, []uint64{4, 4})

	// The left column of chunks: chunk indices [0..2, 0..1) cover rows 0-7,
	// cols 0-3.
	chunkRange, err := arraysubset.New([]uint64{0, 0}, []uint64{2, 1})
	require.NoError(t, err)
	values := make([]float32, 32)
	for i := range values {
		values[i] = float32(i + 100)
	}
	require.NoError(t, a.StoreChunks(ctx, chunkRange, encodeFloat32s(values), array.DefaultOptions()))

	data, shape, err := a.RetrieveChunks(ctx, chunkRange, array.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, []uint64{8, 4}, shape)
	require.Equal(t, values, decodeFloat32s(t, data, 32))
}

// A chunk written back to all fill value is erased rather than stored
// when StoreEmptyChunks is off, and kept when it is on.
func TestEmptyChunkElision(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemory()
	a := float32Array(t, backend, "arr", []uint64{4, 4}, []uint64{4, 4})

	nan := float32(math.NaN())
	fillChunk := make([]float32, 16)
	for i := range fillChunk {
		fillChunk[i] = nan
	}

	require.NoError(t, a.StoreChunk(ctx, []uint64{0, 0}, encodeFloat32s(fillChunk), array.DefaultOptions()))
	keys, err := backend.ListRecursive(ctx, "arr/")
	require.NoError(t, err)
	require.Equal(t, []string{"zarr.json"}, keys)

	opts := array.DefaultOptions()
	opts.StoreEmptyChunks = true
	require.NoError(t, a.StoreChunk(ctx, []uint64{0, 0}, encodeFloat32s(fillChunk), opts))
	keys, err = backend.ListRecursive(ctx, "arr/")
	require.NoError(t, err)
	require.Equal(t, []string{"c/0/0", "zarr.json"}, keys)
}

// Re-opening an array built by Create resolves the same grid/dtype/codec
// pipeline, and writes through the reopened handle are visible through
// the original one since both share the same backend.
func TestOpenResolvesArrayCreatedByCreate(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemory()
	a := float32Array(t, backend, "arr", []uint64{4, 4}, []uint64{2, 2})

	reopened, err := array.Open(ctx, backend, "arr")
	require.NoError(t, err)
	require.Equal(t, a.Shape(), reopened.Shape())

	subset, err := arraysubset.New([]uint64{0, 0}, []uint64{1, 1})
	require.NoError(t, err)
	require.NoError(t, reopened.StoreArraySubset(ctx, subset, encodeFloat32s([]float32{7}), array.DefaultOptions()))

	data, err := a.RetrieveArraySubset(ctx, subset, array.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, []float32{7}, decodeFloat32s(t, data, 1))
}
