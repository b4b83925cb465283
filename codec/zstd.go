package codec

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// ZstdCodec is a bytes->bytes compression stage using klauspost/compress's
// zstd implementation.
type ZstdCodec struct {
	Level    zstd.EncoderLevel
	Checksum bool
}

// NewZstdCodec constructs a ZstdCodec at the given encoder level.
func NewZstdCodec(level int, checksum bool) *ZstdCodec {
	return &ZstdCodec{Level: zstd.EncoderLevelFromZstd(level), Checksum: checksum}
}

func (c *ZstdCodec) Encode(ctx context.Context, data []byte) ([]byte, error) {
	opts := []zstd.EOption{zstd.WithEncoderLevel(c.Level)}
	if !c.Checksum {
		opts = append(opts, zstd.WithEncoderCRC(false))
	}
	w, err := zstd.NewWriter(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("codec: zstd writer: %w", err)
	}
	defer w.Close()
	return w.EncodeAll(data, nil), nil
}

func (c *ZstdCodec) Decode(ctx context.Context, data []byte) ([]byte, error) {
	r, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("codec: zstd reader: %w", err)
	}
	defer r.Close()
	out, err := r.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("codec: zstd decompress: %w", err)
	}
	return out, nil
}

func (c *ZstdCodec) EncodedRepresentation(rep BytesRepresentation) (BytesRepresentation, error) {
	return BytesRepresentation{Kind: BytesUnbounded}, nil
}

func (c *ZstdCodec) RecommendedConcurrency() (efficient, maximum int) {
	return 1, 1
}

func (c *ZstdCodec) PartialDecoder(ctx context.Context, source BytesSource) (BytesSource, error) {
	return DefaultBytesPartialDecoder(ctx, source, c)
}

func (c *ZstdCodec) PartialEncoder(ctx context.Context, source BytesSource, sink BytesSink) (BytesSink, error) {
	return DefaultBytesPartialEncoder(source, sink, c), nil
}
