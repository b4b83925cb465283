package codec

import (
	"context"
	"fmt"

	blosc "github.com/mrjoshuak/go-blosc"
)

// BloscCodec is a bytes->bytes compression stage wrapping the blosc
// meta-compressor.
type BloscCodec struct {
	Cname     string
	Clevel    int
	Shuffle   int
	Typesize  int
	BlockSize int
}

// NewBloscCodec constructs a BloscCodec. cname selects the inner
// compressor ("lz4", "zstd", "zlib", ...); shuffle is 0 (none), 1 (byte
// shuffle) or 2 (bit shuffle).
func NewBloscCodec(cname string, clevel, shuffle, typesize int) *BloscCodec {
	return &BloscCodec{Cname: cname, Clevel: clevel, Shuffle: shuffle, Typesize: typesize}
}

func bloscCodecFromName(name string) blosc.Codec {
	switch name {
	case "lz4":
		return blosc.LZ4
	case "lz4hc":
		return blosc.LZ4HC
	case "snappy":
		return blosc.Snappy
	case "zlib":
		return blosc.ZLIB
	case "zstd":
		return blosc.ZSTD
	default:
		return blosc.BloscLZ
	}
}

func (c *BloscCodec) Encode(ctx context.Context, data []byte) ([]byte, error) {
	out, err := blosc.Compress(data, bloscCodecFromName(c.Cname), c.Clevel, blosc.Shuffle(c.Shuffle), c.Typesize)
	if err != nil {
		return nil, fmt.Errorf("codec: blosc compress: %w", err)
	}
	return out, nil
}

func (c *BloscCodec) Decode(ctx context.Context, data []byte) ([]byte, error) {
	out, err := blosc.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("codec: blosc decompress: %w", err)
	}
	return out, nil
}

func (c *BloscCodec) EncodedRepresentation(rep BytesRepresentation) (BytesRepresentation, error) {
	return BytesRepresentation{Kind: BytesUnbounded}, nil
}

func (c *BloscCodec) RecommendedConcurrency() (efficient, maximum int) {
	return 1, 1
}

func (c *BloscCodec) PartialDecoder(ctx context.Context, source BytesSource) (BytesSource, error) {
	return DefaultBytesPartialDecoder(ctx, source, c)
}

func (c *BloscCodec) PartialEncoder(ctx context.Context, source BytesSource, sink BytesSink) (BytesSink, error) {
	return DefaultBytesPartialEncoder(source, sink, c), nil
}
