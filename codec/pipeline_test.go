package codec_test

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrgo/arraysubset"
	"github.com/tuskan/zarrgo/codec"
	"github.com/tuskan/zarrgo/datatype"
	"github.com/tuskan/zarrgo/storekey"
	"github.com/tuskan/zarrgo/zarrconfig"
)

func int32Rep(shape []uint64) codec.Representation {
	return codec.Representation{
		Shape:     shape,
		DataType:  datatype.New(datatype.Int32, binary.LittleEndian),
		FillValue: []byte{0, 0, 0, 0},
	}
}

func makeInt32Bytes(values []int32) codec.ArrayBytes {
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	return codec.Fixed(buf)
}

func TestPipelineRoundTripBytesOnly(t *testing.T) {
	rep := int32Rep([]uint64{2, 3})
	data := makeInt32Bytes([]int32{1, 2, 3, 4, 5, 6})

	p, err := codec.New(nil, codec.NewBytesCodec(binary.LittleEndian), nil)
	require.NoError(t, err)

	encoded, err := p.Encode(context.Background(), data, rep, codec.DefaultOptions())
	require.NoError(t, err)

	decoded, err := p.Decode(context.Background(), encoded, rep, codec.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, data.FixedBytes(), decoded.FixedBytes())
}

func TestPipelineRoundTripWithCompressionAndChecksum(t *testing.T) {
	rep := int32Rep([]uint64{4, 4})
	values := make([]int32, 16)
	for i := range values {
		values[i] = int32(i * i)
	}
	data := makeInt32Bytes(values)

	p, err := codec.New(
		[]codec.ArrayToArrayCodec{codec.NewTransposeCodec([]int{1, 0})},
		codec.NewBytesCodec(binary.LittleEndian),
		[]codec.BytesToBytesCodec{codec.NewGzipCodec(0), codec.NewCrc32cCodec()},
	)
	require.NoError(t, err)

	encoded, err := p.Encode(context.Background(), data, rep, codec.DefaultOptions())
	require.NoError(t, err)

	decoded, err := p.Decode(context.Background(), encoded, rep, codec.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, data.FixedBytes(), decoded.FixedBytes())
}

func TestPipelineChecksumMismatchIsFatal(t *testing.T) {
	rep := int32Rep([]uint64{2, 2})
	data := makeInt32Bytes([]int32{1, 2, 3, 4})

	p, err := codec.New(nil, codec.NewBytesCodec(binary.LittleEndian), []codec.BytesToBytesCodec{codec.NewCrc32cCodec()})
	require.NoError(t, err)

	encoded, err := p.Encode(context.Background(), data, rep, codec.DefaultOptions())
	require.NoError(t, err)
	encoded[0] ^= 0xFF

	_, err = p.Decode(context.Background(), encoded, rep, codec.DefaultOptions())
	require.ErrorIs(t, err, codec.ErrChecksumMismatch)
}

func TestApplyConfigAliasesResolvesRenamedCodec(t *testing.T) {
	cfg := zarrconfig.Get()
	cfg.CodecAliases = map[string]string{"deflate": "gzip"}
	zarrconfig.Set(cfg)
	t.Cleanup(func() {
		cfg.CodecAliases = nil
		zarrconfig.Set(cfg)
	})

	codec.ApplyConfigAliases()
	require.True(t, codec.BytesToBytesRegistry.Registered("deflate"))
}

func TestExtractSubsetSpanningRows(t *testing.T) {
	rep := int32Rep([]uint64{3, 3})
	data := makeInt32Bytes([]int32{0, 1, 2, 3, 4, 5, 6, 7, 8})

	subset, err := arraysubset.New([]uint64{1, 1}, []uint64{2, 2})
	require.NoError(t, err)
	extracted, err := codec.ExtractSubset(data, rep, subset)
	require.NoError(t, err)

	got := make([]int32, 4)
	for i := range got {
		got[i] = int32(binary.LittleEndian.Uint32(extracted.FixedBytes()[i*4:]))
	}
	require.Equal(t, []int32{4, 5, 7, 8}, got)
}

func TestVlenBytesCodecRoundTrip(t *testing.T) {
	rep := codec.Representation{
		Shape:    []uint64{3},
		DataType: datatype.New(datatype.String, nil),
	}
	payload := []byte("foobarbaz")
	offsets := []uint64{0, 3, 6, 9}
	data := codec.Variable(payload, offsets)

	p, err := codec.New(nil, codec.NewVlenBytesCodec(), nil)
	require.NoError(t, err)

	encoded, err := p.Encode(context.Background(), data, rep, codec.DefaultOptions())
	require.NoError(t, err)

	decoded, err := p.Decode(context.Background(), encoded, rep, codec.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, payload, decoded.Payload())
	require.Equal(t, offsets, decoded.Offsets())
}

func TestBytesCodecPartialDecodeMissingChunkReturnsFillValue(t *testing.T) {
	rep := int32Rep([]uint64{2, 2})
	rep.FillValue = []byte{0xFF, 0, 0, 0}
	source := &missingSource{}
	c := codec.NewBytesCodec(binary.LittleEndian)

	dec, err := c.PartialDecoder(context.Background(), source, rep, codec.DefaultOptions())
	require.NoError(t, err)

	out, err := dec.DecodeSubsets(context.Background(), []arraysubset.Subset{arraysubset.Full(rep.Shape)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	for i := 0; i < 4; i++ {
		require.Equal(t, rep.FillValue, out[0].FixedBytes()[i*4:(i+1)*4])
	}
}

type missingSource struct{}

func (missingSource) Get(ctx context.Context) ([]byte, bool, error) { return nil, false, nil }
func (missingSource) GetPartial(ctx context.Context, ranges []storekey.ByteRange) ([][]byte, bool, error) {
	return nil, false, nil
}
func (missingSource) Size(ctx context.Context) (uint64, bool, error) { return 0, false, nil }
