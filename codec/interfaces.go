package codec

import (
	"context"

	"github.com/tuskan/zarrgo/arraysubset"
	"github.com/tuskan/zarrgo/storekey"
)

// ArrayToArrayCodec transforms decoded array-bytes at one shape/dtype into
// decoded array-bytes at another (transpose, squeeze, bitround).
type ArrayToArrayCodec interface {
	EncodeArray(ctx context.Context, data ArrayBytes, rep Representation) (ArrayBytes, error)
	DecodeArray(ctx context.Context, data ArrayBytes, encodedRep Representation, decodedRep Representation) (ArrayBytes, error)
	// EncodedRepresentation returns the Representation produced by
	// EncodeArray given an input Representation.
	EncodedRepresentation(rep Representation) (Representation, error)
	RecommendedConcurrency(rep Representation) (efficient, maximum int)
}

// ArrayToBytesCodec converts array-bytes to/from an opaque byte stream.
// Exactly one is present per pipeline.
type ArrayToBytesCodec interface {
	Encode(ctx context.Context, data ArrayBytes, rep Representation, opts Options) ([]byte, error)
	Decode(ctx context.Context, data []byte, rep Representation, opts Options) (ArrayBytes, error)
	EncodedRepresentation(rep Representation) (BytesRepresentation, error)
	RecommendedConcurrency(rep Representation) (efficient, maximum int)

	// PartialDecoder returns a decoder that can serve subsets of one
	// chunk without necessarily decoding all of it, backed by source.
	PartialDecoder(ctx context.Context, source BytesSource, rep Representation, opts Options) (ArrayPartialDecoder, error)

	// PartialEncoder returns an encoder that can update subsets of one
	// chunk, backed by source (for reads) and sink (for writes).
	PartialEncoder(ctx context.Context, source BytesSource, sink BytesSink, rep Representation, opts Options) (ArrayPartialEncoder, error)
}

// BytesToBytesCodec transforms an opaque byte stream into another opaque
// byte stream (compression, checksums).
type BytesToBytesCodec interface {
	Encode(ctx context.Context, data []byte) ([]byte, error)
	Decode(ctx context.Context, data []byte) ([]byte, error)
	EncodedRepresentation(rep BytesRepresentation) (BytesRepresentation, error)
	RecommendedConcurrency() (efficient, maximum int)

	// PartialDecoder wraps source with this stage's (de)compression. Most
	// bytes->bytes codecs cannot stream and decode the whole input on
	// first touch; see DefaultBytesPartialDecoder.
	PartialDecoder(ctx context.Context, source BytesSource) (BytesSource, error)
	// PartialEncoder wraps sink similarly for partial encode support.
	PartialEncoder(ctx context.Context, source BytesSource, sink BytesSink) (BytesSink, error)
}

// ArrayPartialDecoder serves decoded bytes for subsets of a single chunk,
// performing only the I/O and decompression necessary. Each subset is in
// the chunk's own local coordinate space.
type ArrayPartialDecoder interface {
	DecodeSubsets(ctx context.Context, subsets []arraysubset.Subset) ([]ArrayBytes, error)
}

// ArrayPartialEncoder updates subsets of a single stored chunk so that
// subsequent reads of those subsets return the new bytes and all other
// positions are unchanged (or fill value, if the chunk did not exist).
type ArrayPartialEncoder interface {
	EncodeSubsets(ctx context.Context, updates []SubsetBytes) error
}

// BytesSource abstracts "the backing store for one chunk" as far as a
// codec stage needs to read it: full-value and byte-range reads.
type BytesSource interface {
	Get(ctx context.Context) ([]byte, bool, error)
	GetPartial(ctx context.Context, ranges []storekey.ByteRange) ([][]byte, bool, error)
	Size(ctx context.Context) (uint64, bool, error)
}

// BytesSink abstracts writing one chunk's value: full replace, partial
// (offset-anchored) updates, and erase.
type BytesSink interface {
	Set(ctx context.Context, data []byte) error
	SetPartial(ctx context.Context, updates []PartialWrite) error
	Erase(ctx context.Context) error
}

// PartialWrite is one offset-anchored byte range update within SetPartial.
type PartialWrite struct {
	Offset uint64
	Data   []byte
}
