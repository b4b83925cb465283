package codec

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Xxhash64Codec appends a little-endian xxhash64 checksum of the input to
// its end, and validates it on decode. This is an extension codec, not a
// core Zarr V3 codec; readers that do not recognise it may skip it when
// its metadata entry carries must_understand=false.
type Xxhash64Codec struct{}

// NewXxhash64Codec constructs an Xxhash64Codec.
func NewXxhash64Codec() *Xxhash64Codec { return &Xxhash64Codec{} }

func (c *Xxhash64Codec) Encode(ctx context.Context, data []byte) ([]byte, error) {
	sum := xxhash.Sum64(data)
	out := make([]byte, len(data)+8)
	copy(out, data)
	binary.LittleEndian.PutUint64(out[len(data):], sum)
	return out, nil
}

func (c *Xxhash64Codec) Decode(ctx context.Context, data []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: xxhash64 payload shorter than checksum", ErrUnexpectedSize)
	}
	payload := data[:len(data)-8]
	want := binary.LittleEndian.Uint64(data[len(data)-8:])
	got := xxhash.Sum64(payload)
	if got != want {
		return nil, fmt.Errorf("%w: xxhash64 got %016x, want %016x", ErrChecksumMismatch, got, want)
	}
	return payload, nil
}

func (c *Xxhash64Codec) EncodedRepresentation(rep BytesRepresentation) (BytesRepresentation, error) {
	if rep.Kind == BytesFixed {
		return BytesRepresentation{Kind: BytesFixed, Size: rep.Size + 8}, nil
	}
	return BytesRepresentation{Kind: BytesUnbounded}, nil
}

func (c *Xxhash64Codec) RecommendedConcurrency() (efficient, maximum int) {
	return 1, 1
}

func (c *Xxhash64Codec) PartialDecoder(ctx context.Context, source BytesSource) (BytesSource, error) {
	return DefaultBytesPartialDecoder(ctx, source, c)
}

func (c *Xxhash64Codec) PartialEncoder(ctx context.Context, source BytesSource, sink BytesSink) (BytesSink, error) {
	return DefaultBytesPartialEncoder(source, sink, c), nil
}
