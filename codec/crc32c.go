package codec

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Crc32cCodec appends a little-endian CRC-32C (Castagnoli) checksum of the
// input to its end, and validates it on decode.
type Crc32cCodec struct{}

// NewCrc32cCodec constructs a Crc32cCodec.
func NewCrc32cCodec() *Crc32cCodec { return &Crc32cCodec{} }

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func (c *Crc32cCodec) Encode(ctx context.Context, data []byte) ([]byte, error) {
	sum := crc32.Checksum(data, castagnoli)
	out := make([]byte, len(data)+4)
	copy(out, data)
	binary.LittleEndian.PutUint32(out[len(data):], sum)
	return out, nil
}

func (c *Crc32cCodec) Decode(ctx context.Context, data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: crc32c payload shorter than checksum", ErrUnexpectedSize)
	}
	payload := data[:len(data)-4]
	want := binary.LittleEndian.Uint32(data[len(data)-4:])
	got := crc32.Checksum(payload, castagnoli)
	if got != want {
		return nil, fmt.Errorf("%w: crc32c got %08x, want %08x", ErrChecksumMismatch, got, want)
	}
	return payload, nil
}

func (c *Crc32cCodec) EncodedRepresentation(rep BytesRepresentation) (BytesRepresentation, error) {
	if rep.Kind == BytesFixed {
		return BytesRepresentation{Kind: BytesFixed, Size: rep.Size + 4}, nil
	}
	return BytesRepresentation{Kind: BytesUnbounded}, nil
}

func (c *Crc32cCodec) RecommendedConcurrency() (efficient, maximum int) {
	return 1, 1
}

func (c *Crc32cCodec) PartialDecoder(ctx context.Context, source BytesSource) (BytesSource, error) {
	return DefaultBytesPartialDecoder(ctx, source, c)
}

func (c *Crc32cCodec) PartialEncoder(ctx context.Context, source BytesSource, sink BytesSink) (BytesSink, error) {
	return DefaultBytesPartialEncoder(source, sink, c), nil
}
