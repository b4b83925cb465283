package array

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/tuskan/zarrgo/arraysubset"
	"github.com/tuskan/zarrgo/codec"
	"github.com/tuskan/zarrgo/datatype"
)

// shapeToInts converts a []uint64 array shape to the []int dimensions
// tensors.FromFlatDataAndDimensions expects.
func shapeToInts(shape []uint64) []int {
	out := make([]int, len(shape))
	for i, d := range shape {
		out[i] = int(d)
	}
	return out
}

// tensorFromFixed decodes a Fixed ArrayBytes buffer (already byte-order
// normalised to little-endian by the codec pipeline) into a
// *tensors.Tensor, covering every numeric Zarr V3 kind gomlx can
// represent.
func tensorFromFixed(data codec.ArrayBytes, dt datatype.DataType, shape []uint64) (*tensors.Tensor, error) {
	buf := data.FixedBytes()
	dims := shapeToInts(shape)
	n := int(codec.Representation{Shape: shape}.NumElements())

	switch dt.Kind() {
	case datatype.Float32:
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		}
		return tensors.FromFlatDataAndDimensions(out, dims...), nil
	case datatype.Float64:
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
		}
		return tensors.FromFlatDataAndDimensions(out, dims...), nil
	case datatype.Int8:
		out := make([]int8, n)
		for i := range out {
			out[i] = int8(buf[i])
		}
		return tensors.FromFlatDataAndDimensions(out, dims...), nil
	case datatype.Int16:
		out := make([]int16, n)
		for i := range out {
			out[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
		}
		return tensors.FromFlatDataAndDimensions(out, dims...), nil
	case datatype.Int32:
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(binary.LittleEndian.Uint32(buf[i*4:]))
		}
		return tensors.FromFlatDataAndDimensions(out, dims...), nil
	case datatype.Int64:
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint64(buf[i*8:]))
		}
		return tensors.FromFlatDataAndDimensions(out, dims...), nil
	case datatype.UInt8:
		out := append([]uint8(nil), buf[:n]...)
		return tensors.FromFlatDataAndDimensions(out, dims...), nil
	case datatype.UInt16:
		out := make([]uint16, n)
		for i := range out {
			out[i] = binary.LittleEndian.Uint16(buf[i*2:])
		}
		return tensors.FromFlatDataAndDimensions(out, dims...), nil
	case datatype.UInt32:
		out := make([]uint32, n)
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(buf[i*4:])
		}
		return tensors.FromFlatDataAndDimensions(out, dims...), nil
	case datatype.UInt64:
		out := make([]uint64, n)
		for i := range out {
			out[i] = binary.LittleEndian.Uint64(buf[i*8:])
		}
		return tensors.FromFlatDataAndDimensions(out, dims...), nil
	case datatype.Bool:
		out := make([]bool, n)
		for i := range out {
			out[i] = buf[i] != 0
		}
		return tensors.FromFlatDataAndDimensions(out, dims...), nil
	default:
		return nil, fmt.Errorf("array: %s has no typed-element (tensor) form, use the raw-bytes operations", dt.Name())
	}
}

// numericElement is the set of fixed-size element types StoreArraySubsetFlat
// accepts directly, without going through gomlx (whose Tensor has no public
// flat-data extraction method to mirror FromFlatDataAndDimensions' input).
type numericElement interface {
	~float32 | ~float64 | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// flatToFixed packs a flat element slice into a native-order Fixed
// ArrayBytes buffer matching dt. It is StoreArraySubsetFlat's encoder, the
// inverse of tensorFromFixed's per-kind decode loops.
func flatToFixed[T numericElement](values []T, dt datatype.DataType) (codec.ArrayBytes, error) {
	size, fixed := dt.Size()
	if !fixed {
		return codec.ArrayBytes{}, fmt.Errorf("array: %s has no flat-element form, use the raw-bytes operations", dt.Name())
	}
	buf := make([]byte, len(values)*size)
	for i, v := range values {
		off := i * size
		switch dt.Kind() {
		case datatype.Float32:
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(float32(v)))
		case datatype.Float64:
			binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(float64(v)))
		case datatype.Int8, datatype.UInt8, datatype.Bool:
			buf[off] = byte(v)
		case datatype.Int16, datatype.UInt16:
			binary.LittleEndian.PutUint16(buf[off:], uint16(v))
		case datatype.Int32, datatype.UInt32:
			binary.LittleEndian.PutUint32(buf[off:], uint32(v))
		case datatype.Int64, datatype.UInt64:
			binary.LittleEndian.PutUint64(buf[off:], uint64(v))
		default:
			return codec.ArrayBytes{}, fmt.Errorf("array: %s has no flat-element form, use the raw-bytes operations", dt.Name())
		}
	}
	return codec.Fixed(buf), nil
}

// StoreArraySubsetFlat is StoreArraySubset's typed-elements form for the
// bool, int, uint, float32 and float64 data types (any other data type
// returns an error), the write-side counterpart of
// RetrieveArraySubsetTensor. gomlx's Tensor type is read/compute-oriented
// and has no documented flat-slice accessor to round-trip through, so the
// write path takes the flat slice directly.
func StoreArraySubsetFlat[T numericElement](ctx context.Context, a *Array, subset arraysubset.Subset, values []T, opts codec.Options) error {
	data, err := flatToFixed(values, a.dtype)
	if err != nil {
		return err
	}
	return a.StoreArraySubset(ctx, subset, data, opts)
}

// RetrieveArraySubsetTensor is RetrieveArraySubset's typed-elements form
// for fixed-size numeric data types, backed by gomlx tensors.
// Variable-length dtypes (string, bytes) have no tensor form; use
// RetrieveArraySubsetStrings instead.
func (a *Array) RetrieveArraySubsetTensor(ctx context.Context, subset arraysubset.Subset, opts codec.Options) (*tensors.Tensor, error) {
	data, err := a.RetrieveArraySubset(ctx, subset, opts)
	if err != nil {
		return nil, err
	}
	return tensorFromFixed(data, a.dtype, subset.Shape())
}

// RetrieveArraySubsetStrings is RetrieveArraySubset's typed-elements form
// for the "string" data type: gomlx has no ragged/string tensor type, so
// variable-length dtypes surface as a plain Go slice in row-major order
// rather than a tensor.
func (a *Array) RetrieveArraySubsetStrings(ctx context.Context, subset arraysubset.Subset, opts codec.Options) ([]string, error) {
	if a.dtype.Kind() != datatype.String {
		return nil, fmt.Errorf("array: %s is not the string data type", a.dtype.Name())
	}
	data, err := a.RetrieveArraySubset(ctx, subset, opts)
	if err != nil {
		return nil, err
	}
	offs := data.Offsets()
	payload := data.Payload()
	out := make([]string, len(offs)-1)
	for i := range out {
		out[i] = string(payload[offs[i]:offs[i+1]])
	}
	return out, nil
}

// StoreArraySubsetStrings is StoreArraySubset's typed-elements form for the
// "string" data type.
func (a *Array) StoreArraySubsetStrings(ctx context.Context, subset arraysubset.Subset, values []string, opts codec.Options) error {
	if a.dtype.Kind() != datatype.String {
		return fmt.Errorf("array: %s is not the string data type", a.dtype.Name())
	}
	var payload []byte
	offsets := make([]uint64, len(values)+1)
	for i, v := range values {
		payload = append(payload, v...)
		offsets[i+1] = uint64(len(payload))
	}
	return a.StoreArraySubset(ctx, subset, codec.Variable(payload, offsets), opts)
}
