// Package codec composes array→array, array→bytes, and bytes→bytes codec
// stages into a pipeline with forward encode, forward decode, and partial
// decode/encode paths, each sharing a concurrency/options context.
package codec

import (
	"errors"
	"fmt"

	"github.com/tuskan/zarrgo/arraysubset"
	"github.com/tuskan/zarrgo/datatype"
)

// Representation carries the shape, data type, and fill value observed at
// a given position in the codec chain.
type Representation struct {
	Shape     []uint64
	DataType  datatype.DataType
	FillValue []byte
}

// NumElements returns the product of Shape.
func (r Representation) NumElements() uint64 {
	n := uint64(1)
	for _, d := range r.Shape {
		n *= d
	}
	return n
}

// ErrUnexpectedSize is returned when decoded or encoded bytes do not match
// the size a Representation predicts.
var ErrUnexpectedSize = errors.New("codec: unexpected size")

// ErrUnsupportedDataType is returned when a codec cannot operate on the
// data type present in a Representation.
var ErrUnsupportedDataType = errors.New("codec: unsupported data type for this codec")

// ErrChecksumMismatch is returned by a checksum codec (crc32c, xxhash64)
// when the stored checksum does not match the decoded payload. There is
// no automatic fallback: this is always fatal.
var ErrChecksumMismatch = errors.New("codec: checksum mismatch")

// ArrayBytes is the tagged union of decoded array data at the array<->codec
// boundary: Fixed for fixed-size elements, Variable for variable-length
// elements represented as (payload, offsets).
type ArrayBytes struct {
	variable bool
	fixed    []byte
	payload  []byte
	offsets  []uint64
}

// Fixed wraps a fixed-size-element buffer.
func Fixed(b []byte) ArrayBytes { return ArrayBytes{fixed: b} }

// Variable wraps a variable-length-element buffer: payload is the
// concatenated element bytes, offsets has len(elements)+1 entries with
// offsets[0]=0 and offsets[N]=len(payload).
func Variable(payload []byte, offsets []uint64) ArrayBytes {
	return ArrayBytes{variable: true, payload: payload, offsets: offsets}
}

// IsVariable reports whether this buffer holds variable-length elements.
func (a ArrayBytes) IsVariable() bool { return a.variable }

// FixedBytes returns the backing bytes of a Fixed buffer.
func (a ArrayBytes) FixedBytes() []byte { return a.fixed }

// Payload returns the concatenated element bytes of a Variable buffer.
func (a ArrayBytes) Payload() []byte { return a.payload }

// Offsets returns the offsets table of a Variable buffer.
func (a ArrayBytes) Offsets() []uint64 { return a.offsets }

// NumElementsVariable returns the element count of a Variable buffer,
// len(offsets)-1. For a Fixed buffer it returns 0: the count depends on the
// element size, which only a Representation carries.
func (a ArrayBytes) NumElementsVariable() int {
	if !a.variable {
		return 0
	}
	return len(a.offsets) - 1
}

// Validate checks the buffer's internal invariants against r.
func (a ArrayBytes) Validate(r Representation) error {
	n := r.NumElements()
	if a.variable {
		if uint64(len(a.offsets)) != n+1 {
			return fmt.Errorf("%w: variable buffer has %d offsets, want %d", ErrUnexpectedSize, len(a.offsets), n+1)
		}
		if n > 0 && a.offsets[0] != 0 {
			return fmt.Errorf("%w: offsets[0] must be 0", ErrUnexpectedSize)
		}
		if len(a.offsets) > 0 && a.offsets[len(a.offsets)-1] != uint64(len(a.payload)) {
			return fmt.Errorf("%w: offsets[N] must equal len(payload)", ErrUnexpectedSize)
		}
		for i := 1; i < len(a.offsets); i++ {
			if a.offsets[i] < a.offsets[i-1] {
				return fmt.Errorf("%w: offsets must be non-decreasing", ErrUnexpectedSize)
			}
		}
		return nil
	}
	size, fixed := r.DataType.Size()
	if !fixed {
		return fmt.Errorf("%w: representation is variable but buffer is fixed", ErrUnexpectedSize)
	}
	want := n * uint64(size)
	if uint64(len(a.fixed)) != want {
		return fmt.Errorf("%w: fixed buffer has %d bytes, want %d", ErrUnexpectedSize, len(a.fixed), want)
	}
	return nil
}

// FillArrayBytes builds an ArrayBytes for r entirely filled with r's fill
// value (or, for variable types, n empty-length elements if FillValue is
// empty, or n copies of FillValue otherwise).
func FillArrayBytes(r Representation) ArrayBytes {
	n := r.NumElements()
	if r.DataType.Variable() {
		offsets := make([]uint64, n+1)
		var payload []byte
		for i := uint64(0); i < n; i++ {
			payload = append(payload, r.FillValue...)
			offsets[i+1] = uint64(len(payload))
		}
		return Variable(payload, offsets)
	}
	size, _ := r.DataType.Size()
	buf := make([]byte, n*uint64(size))
	if size > 0 {
		for i := uint64(0); i < n; i++ {
			copy(buf[i*uint64(size):(i+1)*uint64(size)], r.FillValue)
		}
	}
	return Fixed(buf)
}

// BytesRepresentation describes the encoded size a codec stage produces:
// exactly Size bytes (Fixed), at most Size bytes (Bounded), or unknown
// (Unbounded).
type BytesRepresentation struct {
	Kind BytesRepresentationKind
	Size uint64
}

type BytesRepresentationKind int

const (
	BytesUnbounded BytesRepresentationKind = iota
	BytesFixed
	BytesBounded
)

// Options bundles the per-call concurrency and behavioural knobs shared by
// every encode, decode, and partial encode/decode entry point.
type Options struct {
	// ConcurrentTarget is the total goroutine budget this call (and any
	// nested pipeline it drives) may use.
	ConcurrentTarget int
	// StoreEmptyChunks disables fill-value elision when true: a chunk
	// whose contents equal the fill value is still written rather than
	// erased.
	StoreEmptyChunks bool
	// ExperimentalPartialEncoding enables the sharding codec's
	// specialised partial encoder; without it, partial encodes fall back
	// to read-modify-write of the whole chunk.
	ExperimentalPartialEncoding bool
}

// DefaultOptions returns an Options with a concurrency target of 1 and
// conservative (safe) behavioural defaults.
func DefaultOptions() Options {
	return Options{ConcurrentTarget: 1}
}

// SubsetBytes pairs a subset of a chunk (in chunk-local coordinates) with
// the decoded bytes for that subset, the unit partial decode/encode calls
// operate on.
type SubsetBytes struct {
	Subset arraysubset.Subset
	Bytes  ArrayBytes
}
