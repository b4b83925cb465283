package codec

import (
	"context"
	"fmt"
	"math"

	"github.com/tuskan/zarrgo/datatype"
)

// BitroundCodec zeroes the least-significant mantissa bits of each float
// element, keeping Keepbits bits of precision. It is lossy and its Decode
// is simply the identity: the rounded value already is the stored value.
type BitroundCodec struct {
	Keepbits int
}

// NewBitroundCodec constructs a BitroundCodec keeping the given number of
// mantissa bits.
func NewBitroundCodec(keepbits int) *BitroundCodec {
	return &BitroundCodec{Keepbits: keepbits}
}

func roundFloat32(v float32, keep int) float32 {
	if keep >= 23 {
		return v
	}
	bits := math.Float32bits(v)
	shift := uint(23 - keep)
	half := uint32(1) << (shift - 1)
	rounded := (bits + half) &^ ((uint32(1) << shift) - 1)
	return math.Float32frombits(rounded)
}

func roundFloat64(v float64, keep int) float64 {
	if keep >= 52 {
		return v
	}
	bits := math.Float64bits(v)
	shift := uint(52 - keep)
	half := uint64(1) << (shift - 1)
	rounded := (bits + half) &^ ((uint64(1) << shift) - 1)
	return math.Float64frombits(rounded)
}

func (c *BitroundCodec) round(data []byte, rep Representation) ([]byte, error) {
	switch rep.DataType.Kind() {
	case datatype.Float32:
		out := make([]byte, len(data))
		copy(out, data)
		for i := 0; i+4 <= len(out); i += 4 {
			bits := nativeOrder.Uint32(out[i : i+4])
			v := math.Float32frombits(bits)
			r := roundFloat32(v, c.Keepbits)
			nativeOrder.PutUint32(out[i:i+4], math.Float32bits(r))
		}
		return out, nil
	case datatype.Float64:
		out := make([]byte, len(data))
		copy(out, data)
		for i := 0; i+8 <= len(out); i += 8 {
			bits := nativeOrder.Uint64(out[i : i+8])
			v := math.Float64frombits(bits)
			r := roundFloat64(v, c.Keepbits)
			nativeOrder.PutUint64(out[i:i+8], math.Float64bits(r))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: bitround only supports float32/float64", ErrUnsupportedDataType)
	}
}

func (c *BitroundCodec) EncodeArray(ctx context.Context, data ArrayBytes, rep Representation) (ArrayBytes, error) {
	if data.IsVariable() {
		return ArrayBytes{}, fmt.Errorf("%w: bitround does not support variable-length data types", ErrUnsupportedDataType)
	}
	rounded, err := c.round(data.FixedBytes(), rep)
	if err != nil {
		return ArrayBytes{}, err
	}
	return Fixed(rounded), nil
}

// DecodeArray is the identity: bitround is lossy on encode only.
func (c *BitroundCodec) DecodeArray(ctx context.Context, data ArrayBytes, encodedRep, decodedRep Representation) (ArrayBytes, error) {
	return data, nil
}

func (c *BitroundCodec) EncodedRepresentation(rep Representation) (Representation, error) {
	return rep, nil
}

func (c *BitroundCodec) RecommendedConcurrency(rep Representation) (efficient, maximum int) {
	return 1, 1
}
