package sharding_test

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrgo/arraysubset"
	"github.com/tuskan/zarrgo/codec"
	"github.com/tuskan/zarrgo/codec/sharding"
	"github.com/tuskan/zarrgo/datatype"
	"github.com/tuskan/zarrgo/store"
	"github.com/tuskan/zarrgo/storekey"
)

func uint16Rep(shape []uint64) codec.Representation {
	return codec.Representation{
		Shape:     shape,
		DataType:  datatype.New(datatype.UInt16, binary.LittleEndian),
		FillValue: []byte{0, 0},
	}
}

func uint16Bytes(values []uint16) codec.ArrayBytes {
	buf := make([]byte, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	return codec.Fixed(buf)
}

func uint16Values(t *testing.T, a codec.ArrayBytes) []uint16 {
	t.Helper()
	b := a.FixedBytes()
	out := make([]uint16, len(b)/2)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return out
}

func newInnerPipeline(t *testing.T) *codec.Pipeline {
	t.Helper()
	p, err := codec.New(nil, codec.NewBytesCodec(binary.LittleEndian), nil)
	require.NoError(t, err)
	return p
}

func newCompressedInnerPipeline(t *testing.T) *codec.Pipeline {
	t.Helper()
	p, err := codec.New(nil, codec.NewBytesCodec(binary.LittleEndian), []codec.BytesToBytesCodec{codec.NewGzipCodec(0)})
	require.NoError(t, err)
	return p
}

// storeBacked adapts a store.Memory + a fixed key into codec.BytesSource/Sink.
type storeBacked struct {
	s   *store.Memory
	key storekey.Key
}

func (b *storeBacked) Get(ctx context.Context) ([]byte, bool, error) {
	return b.s.Get(ctx, b.key)
}
func (b *storeBacked) GetPartial(ctx context.Context, ranges []storekey.ByteRange) ([][]byte, bool, error) {
	return b.s.GetPartial(ctx, b.key, ranges)
}
func (b *storeBacked) Size(ctx context.Context) (uint64, bool, error) { return b.s.Size(ctx, b.key) }
func (b *storeBacked) Set(ctx context.Context, data []byte) error     { return b.s.Set(ctx, b.key, data) }
func (b *storeBacked) SetPartial(ctx context.Context, updates []codec.PartialWrite) error {
	sw := make([]store.PartialWrite, len(updates))
	for i, u := range updates {
		sw[i] = store.PartialWrite{Offset: u.Offset, Data: u.Data}
	}
	return b.s.SetPartial(ctx, b.key, sw)
}
func (b *storeBacked) Erase(ctx context.Context) error { return b.s.Erase(ctx, b.key) }

func TestShardingFullRoundTrip(t *testing.T) {
	rep := uint16Rep([]uint64{4, 4})
	values := make([]uint16, 16)
	for i := range values {
		values[i] = uint16(i)
	}
	data := uint16Bytes(values)

	c := sharding.New([]uint64{2, 2}, newInnerPipeline(t), []codec.BytesToBytesCodec{codec.NewCrc32cCodec()}, sharding.IndexAtEnd)

	encoded, err := c.Encode(context.Background(), data, rep, codec.DefaultOptions())
	require.NoError(t, err)

	decoded, err := c.Decode(context.Background(), encoded, rep, codec.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, values, uint16Values(t, decoded))
}

func TestShardingRoundTripIndexStartWithCompression(t *testing.T) {
	rep := uint16Rep([]uint64{4, 4})
	values := make([]uint16, 16)
	for i := range values {
		values[i] = uint16(100 + i)
	}
	data := uint16Bytes(values)

	c := sharding.New([]uint64{2, 2}, newCompressedInnerPipeline(t), []codec.BytesToBytesCodec{codec.NewCrc32cCodec()}, sharding.IndexAtStart)

	encoded, err := c.Encode(context.Background(), data, rep, codec.DefaultOptions())
	require.NoError(t, err)

	decoded, err := c.Decode(context.Background(), encoded, rep, codec.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, values, uint16Values(t, decoded))
}

func TestShardingPartialEncodeSequence(t *testing.T) {
	rep := uint16Rep([]uint64{4, 4})
	// One shard, inner chunks on a 2x2 sub-grid (four 2x2 inner chunks).
	c := sharding.New([]uint64{2, 2}, newInnerPipeline(t), []codec.BytesToBytesCodec{codec.NewCrc32cCodec()}, sharding.IndexAtEnd)

	s := store.NewMemory()
	key, err := storekey.NewKey("shard")
	require.NoError(t, err)
	backing := &storeBacked{s: s, key: key}
	ctx := context.Background()

	opts := codec.DefaultOptions()
	opts.ExperimentalPartialEncoding = true

	write := func(start, shape []uint64, values []uint16) {
		subset, err := arraysubset.New(start, shape)
		require.NoError(t, err)
		enc, err := c.PartialEncoder(ctx, backing, backing, rep, opts)
		require.NoError(t, err)
		err = enc.EncodeSubsets(ctx, []codec.SubsetBytes{{Subset: subset, Bytes: uint16Bytes(values)}})
		require.NoError(t, err)
	}

	read := func() []uint16 {
		dec, err := c.PartialDecoder(ctx, backing, rep, codec.DefaultOptions())
		require.NoError(t, err)
		out, err := dec.DecodeSubsets(ctx, []arraysubset.Subset{arraysubset.Full(rep.Shape)})
		require.NoError(t, err)
		return uint16Values(t, out[0])
	}

	// Write the top-left inner chunk, then overwrite it back to fill value:
	// the shard must not exist afterward (every inner chunk absent).
	write([]uint64{0, 0}, []uint64{2, 2}, []uint16{1, 1, 1, 1})
	write([]uint64{0, 0}, []uint64{2, 2}, []uint16{0, 0, 0, 0})
	_, exists, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, exists, "shard with every inner chunk absent must be erased")

	// Write the top two inner chunks together (a fresh shard), then
	// overwrite with the same footprint (in-place path).
	write([]uint64{0, 0}, []uint64{2, 4}, []uint16{1, 2, 3, 4, 5, 6, 7, 8})
	write([]uint64{0, 0}, []uint64{2, 4}, []uint16{9, 10, 11, 12, 13, 14, 15, 16})
	// Finally fill in the bottom half.
	write([]uint64{2, 0}, []uint64{2, 4}, []uint16{17, 18, 19, 20, 21, 22, 23, 24})

	got := read()
	require.Equal(t, []uint16{9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24}, got)
}

// The index-at-start layout with a compressed inner chain must reach the
// same logical contents as the uncompressed index-at-end variant after the
// same partial-write sequence.
func TestShardingPartialEncodeIndexStartCompressedMatchesUncompressed(t *testing.T) {
	rep := uint16Rep([]uint64{4, 4})
	ctx := context.Background()

	run := func(c *sharding.Codec) []uint16 {
		s := store.NewMemory()
		key, err := storekey.NewKey("shard")
		require.NoError(t, err)
		backing := &storeBacked{s: s, key: key}

		opts := codec.DefaultOptions()
		opts.ExperimentalPartialEncoding = true

		write := func(start, shape []uint64, values []uint16) {
			subset, err := arraysubset.New(start, shape)
			require.NoError(t, err)
			enc, err := c.PartialEncoder(ctx, backing, backing, rep, opts)
			require.NoError(t, err)
			require.NoError(t, enc.EncodeSubsets(ctx, []codec.SubsetBytes{{Subset: subset, Bytes: uint16Bytes(values)}}))
		}

		write([]uint64{0, 0}, []uint64{2, 4}, []uint16{1, 2, 3, 4, 5, 6, 7, 8})
		write([]uint64{0, 0}, []uint64{2, 4}, []uint16{9, 10, 11, 12, 13, 14, 15, 16})
		write([]uint64{2, 0}, []uint64{2, 4}, []uint16{17, 18, 19, 20, 21, 22, 23, 24})

		dec, err := c.PartialDecoder(ctx, backing, rep, codec.DefaultOptions())
		require.NoError(t, err)
		out, err := dec.DecodeSubsets(ctx, []arraysubset.Subset{arraysubset.Full(rep.Shape)})
		require.NoError(t, err)
		return uint16Values(t, out[0])
	}

	plain := run(sharding.New([]uint64{2, 2}, newInnerPipeline(t), []codec.BytesToBytesCodec{codec.NewCrc32cCodec()}, sharding.IndexAtEnd))
	compressed := run(sharding.New([]uint64{2, 2}, newCompressedInnerPipeline(t), []codec.BytesToBytesCodec{codec.NewCrc32cCodec()}, sharding.IndexAtStart))
	require.Equal(t, plain, compressed)
}

// Two updates in one EncodeSubsets call that land in the same inner chunk
// must both survive: the second applies on top of the first, not on top of
// the stored bytes.
func TestShardingPartialEncodeComposesUpdatesWithinOneCall(t *testing.T) {
	rep := uint16Rep([]uint64{4, 4})
	c := sharding.New([]uint64{2, 2}, newInnerPipeline(t), []codec.BytesToBytesCodec{codec.NewCrc32cCodec()}, sharding.IndexAtEnd)

	s := store.NewMemory()
	key, err := storekey.NewKey("shard")
	require.NoError(t, err)
	backing := &storeBacked{s: s, key: key}
	ctx := context.Background()

	opts := codec.DefaultOptions()
	opts.ExperimentalPartialEncoding = true

	row0, err := arraysubset.New([]uint64{0, 0}, []uint64{1, 2})
	require.NoError(t, err)
	row1, err := arraysubset.New([]uint64{1, 0}, []uint64{1, 2})
	require.NoError(t, err)

	enc, err := c.PartialEncoder(ctx, backing, backing, rep, opts)
	require.NoError(t, err)
	require.NoError(t, enc.EncodeSubsets(ctx, []codec.SubsetBytes{
		{Subset: row0, Bytes: uint16Bytes([]uint16{1, 2})},
		{Subset: row1, Bytes: uint16Bytes([]uint16{3, 4})},
	}))

	dec, err := c.PartialDecoder(ctx, backing, rep, codec.DefaultOptions())
	require.NoError(t, err)
	topLeft, err := arraysubset.New([]uint64{0, 0}, []uint64{2, 2})
	require.NoError(t, err)
	out, err := dec.DecodeSubsets(ctx, []arraysubset.Subset{topLeft})
	require.NoError(t, err)
	require.Equal(t, []uint16{1, 2, 3, 4}, uint16Values(t, out[0]))
}

// Without ExperimentalPartialEncoding, partial encodes fall back to
// read-modify-write of the whole shard; contents still come out right and
// an all-fill result still erases the shard key.
func TestShardingPartialEncodeFallbackWithoutExperimentalFlag(t *testing.T) {
	rep := uint16Rep([]uint64{4, 4})
	c := sharding.New([]uint64{2, 2}, newInnerPipeline(t), []codec.BytesToBytesCodec{codec.NewCrc32cCodec()}, sharding.IndexAtEnd)

	s := store.NewMemory()
	key, err := storekey.NewKey("shard")
	require.NoError(t, err)
	backing := &storeBacked{s: s, key: key}
	ctx := context.Background()

	subset, err := arraysubset.New([]uint64{0, 0}, []uint64{2, 2})
	require.NoError(t, err)

	enc, err := c.PartialEncoder(ctx, backing, backing, rep, codec.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, enc.EncodeSubsets(ctx, []codec.SubsetBytes{{Subset: subset, Bytes: uint16Bytes([]uint16{1, 2, 3, 4})}}))

	dec, err := c.PartialDecoder(ctx, backing, rep, codec.DefaultOptions())
	require.NoError(t, err)
	out, err := dec.DecodeSubsets(ctx, []arraysubset.Subset{subset})
	require.NoError(t, err)
	require.Equal(t, []uint16{1, 2, 3, 4}, uint16Values(t, out[0]))

	enc2, err := c.PartialEncoder(ctx, backing, backing, rep, codec.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, enc2.EncodeSubsets(ctx, []codec.SubsetBytes{{Subset: subset, Bytes: uint16Bytes([]uint16{0, 0, 0, 0})}}))
	_, exists, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, exists)
}
