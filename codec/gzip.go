package codec

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// GzipCodec is a bytes->bytes compression stage using klauspost/compress's
// gzip implementation, preferred over the standard library's compress/gzip
// for its faster encoder.
type GzipCodec struct {
	Level int
}

// NewGzipCodec constructs a GzipCodec at the given compression level
// (gzip.DefaultCompression if 0).
func NewGzipCodec(level int) *GzipCodec {
	if level == 0 {
		level = gzip.DefaultCompression
	}
	return &GzipCodec{Level: level}
}

func (c *GzipCodec) Encode(ctx context.Context, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, c.Level)
	if err != nil {
		return nil, fmt.Errorf("codec: gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("codec: gzip write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("codec: gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *GzipCodec) Decode(ctx context.Context, data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("codec: gzip reader: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("codec: gzip decompress: %w", err)
	}
	return out, nil
}

func (c *GzipCodec) EncodedRepresentation(rep BytesRepresentation) (BytesRepresentation, error) {
	return BytesRepresentation{Kind: BytesUnbounded}, nil
}

func (c *GzipCodec) RecommendedConcurrency() (efficient, maximum int) {
	return 1, 1
}

func (c *GzipCodec) PartialDecoder(ctx context.Context, source BytesSource) (BytesSource, error) {
	return DefaultBytesPartialDecoder(ctx, source, c)
}

func (c *GzipCodec) PartialEncoder(ctx context.Context, source BytesSource, sink BytesSink) (BytesSink, error) {
	return DefaultBytesPartialEncoder(source, sink, c), nil
}
