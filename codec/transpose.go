package codec

import (
	"context"
	"fmt"
)

// TransposeCodec permutes an array's axes before the array->bytes codec
// sees it. Order[i] names which input axis becomes output axis i.
type TransposeCodec struct {
	Order []int
}

// NewTransposeCodec constructs a TransposeCodec for the given axis order.
func NewTransposeCodec(order []int) *TransposeCodec {
	cp := append([]int(nil), order...)
	return &TransposeCodec{Order: cp}
}

func (c *TransposeCodec) permutedShape(shape []uint64) ([]uint64, error) {
	if len(c.Order) != len(shape) {
		return nil, fmt.Errorf("codec: transpose order length %d does not match shape dimensionality %d", len(c.Order), len(shape))
	}
	out := make([]uint64, len(shape))
	for i, axis := range c.Order {
		if axis < 0 || axis >= len(shape) {
			return nil, fmt.Errorf("codec: transpose order references axis %d out of range", axis)
		}
		out[i] = shape[axis]
	}
	return out, nil
}

func (c *TransposeCodec) inverseOrder() []int {
	inv := make([]int, len(c.Order))
	for i, axis := range c.Order {
		inv[axis] = i
	}
	return inv
}

// permute copies src (shaped srcShape, row-major, fixed element size) into
// a new buffer shaped according to order applied to srcShape.
func permute(src []byte, srcShape []uint64, order []int, elemSize int) []byte {
	ndim := len(srcShape)
	dstShape := make([]uint64, ndim)
	for i, axis := range order {
		dstShape[i] = srcShape[axis]
	}

	srcStrides := rowMajorStrides(srcShape)
	dstStrides := rowMajorStrides(dstShape)

	total := uint64(1)
	for _, d := range dstShape {
		total *= d
	}
	out := make([]byte, total*uint64(elemSize))

	idx := make([]uint64, ndim)
	for linear := uint64(0); linear < total; linear++ {
		rem := linear
		for i := 0; i < ndim; i++ {
			idx[i] = rem / dstStrides[i]
			rem %= dstStrides[i]
		}
		var srcOffset uint64
		for i, axis := range order {
			srcOffset += idx[i] * srcStrides[axis]
		}
		copy(out[linear*uint64(elemSize):(linear+1)*uint64(elemSize)], src[srcOffset*uint64(elemSize):(srcOffset+1)*uint64(elemSize)])
	}
	return out
}

func rowMajorStrides(shape []uint64) []uint64 {
	strides := make([]uint64, len(shape))
	acc := uint64(1)
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

func (c *TransposeCodec) EncodeArray(ctx context.Context, data ArrayBytes, rep Representation) (ArrayBytes, error) {
	if data.IsVariable() {
		return ArrayBytes{}, fmt.Errorf("%w: transpose does not support variable-length data types", ErrUnsupportedDataType)
	}
	size, fixed := rep.DataType.Size()
	if !fixed {
		return ArrayBytes{}, fmt.Errorf("%w: transpose requires a fixed-size data type", ErrUnsupportedDataType)
	}
	out := permute(data.FixedBytes(), rep.Shape, c.Order, size)
	return Fixed(out), nil
}

func (c *TransposeCodec) DecodeArray(ctx context.Context, data ArrayBytes, encodedRep, decodedRep Representation) (ArrayBytes, error) {
	if data.IsVariable() {
		return ArrayBytes{}, fmt.Errorf("%w: transpose does not support variable-length data types", ErrUnsupportedDataType)
	}
	size, fixed := decodedRep.DataType.Size()
	if !fixed {
		return ArrayBytes{}, fmt.Errorf("%w: transpose requires a fixed-size data type", ErrUnsupportedDataType)
	}
	out := permute(data.FixedBytes(), encodedRep.Shape, c.inverseOrder(), size)
	return Fixed(out), nil
}

func (c *TransposeCodec) EncodedRepresentation(rep Representation) (Representation, error) {
	shape, err := c.permutedShape(rep.Shape)
	if err != nil {
		return Representation{}, err
	}
	return Representation{Shape: shape, DataType: rep.DataType, FillValue: rep.FillValue}, nil
}

func (c *TransposeCodec) RecommendedConcurrency(rep Representation) (efficient, maximum int) {
	return 1, 1
}
