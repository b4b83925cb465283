// Package arraysubset describes rectangular regions of N-D index space and
// iterates over them: every index, contiguous runs in row-major order, and
// overlaps with a chunk grid.
package arraysubset

import (
	"errors"
	"fmt"
)

// ErrIncompatibleDimensionality is returned when two index-space values that
// must share a dimensionality do not.
var ErrIncompatibleDimensionality = errors.New("arraysubset: incompatible dimensionality")

// ErrIncompatibleArraySubsetAndShape is returned when a subset is not
// contained within a bounding shape.
var ErrIncompatibleArraySubsetAndShape = errors.New("arraysubset: subset not contained in shape")

// Subset is a half-open hyperrectangle [Start, Start+Shape) in N-D index
// space.
type Subset struct {
	start []uint64
	shape []uint64
}

// New constructs a Subset from a start and a shape. The two must have equal
// length.
func New(start, shape []uint64) (Subset, error) {
	if len(start) != len(shape) {
		return Subset{}, fmt.Errorf("%w: start has %d dims, shape has %d", ErrIncompatibleDimensionality, len(start), len(shape))
	}
	s := make([]uint64, len(start))
	sh := make([]uint64, len(shape))
	copy(s, start)
	copy(sh, shape)
	return Subset{start: s, shape: sh}, nil
}

// NewFromEnd constructs a Subset from a start and an exclusive end.
func NewFromEnd(start, end []uint64) (Subset, error) {
	if len(start) != len(end) {
		return Subset{}, fmt.Errorf("%w: start has %d dims, end has %d", ErrIncompatibleDimensionality, len(start), len(end))
	}
	shape := make([]uint64, len(start))
	for i := range start {
		if end[i] < start[i] {
			return Subset{}, fmt.Errorf("%w: end %d before start %d at dim %d", ErrIncompatibleArraySubsetAndShape, end[i], start[i], i)
		}
		shape[i] = end[i] - start[i]
	}
	return New(start, shape)
}

// Full returns the Subset covering the whole of shape.
func Full(shape []uint64) Subset {
	s, _ := New(make([]uint64, len(shape)), shape)
	return s
}

// Dimensionality returns the number of axes.
func (s Subset) Dimensionality() int { return len(s.start) }

// Start returns a copy of the start indices.
func (s Subset) Start() []uint64 { return append([]uint64(nil), s.start...) }

// Shape returns a copy of the shape.
func (s Subset) Shape() []uint64 { return append([]uint64(nil), s.shape...) }

// End returns the inclusive end index per axis (Start+Shape-1), or Start
// itself for empty axes.
func (s Subset) End() []uint64 {
	end := make([]uint64, len(s.start))
	for i := range s.start {
		if s.shape[i] == 0 {
			end[i] = s.start[i]
			continue
		}
		end[i] = s.start[i] + s.shape[i] - 1
	}
	return end
}

// EndExclusive returns the exclusive end index per axis (Start+Shape).
func (s Subset) EndExclusive() []uint64 {
	end := make([]uint64, len(s.start))
	for i := range s.start {
		end[i] = s.start[i] + s.shape[i]
	}
	return end
}

// NumElements returns the product of the shape; 0 if any axis is 0.
func (s Subset) NumElements() uint64 {
	n := uint64(1)
	for _, d := range s.shape {
		n *= d
	}
	return n
}

// Empty reports whether the subset contains no elements. A 0-d subset
// always denotes exactly one scalar element, so it is never empty.
func (s Subset) Empty() bool {
	for _, d := range s.shape {
		if d == 0 {
			return true
		}
	}
	return false
}

// FitsIn reports whether the subset is fully contained within boundShape.
func (s Subset) FitsIn(boundShape []uint64) error {
	if len(boundShape) != len(s.start) {
		return fmt.Errorf("%w: subset has %d dims, bound has %d", ErrIncompatibleDimensionality, len(s.start), len(boundShape))
	}
	end := s.EndExclusive()
	for i := range boundShape {
		if end[i] > boundShape[i] {
			return fmt.Errorf("%w: axis %d end %d exceeds bound %d", ErrIncompatibleArraySubsetAndShape, i, end[i], boundShape[i])
		}
	}
	return nil
}

// Strides returns the C-order (row-major, last axis fastest) strides for
// the given shape, in elements.
func Strides(shape []uint64) []uint64 {
	if len(shape) == 0 {
		return []uint64{}
	}
	strides := make([]uint64, len(shape))
	stride := uint64(1)
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

// Overlap returns the intersection of s and other, and false if they do
// not overlap. Both must share dimensionality.
func (s Subset) Overlap(other Subset) (Subset, bool) {
	if len(s.start) != len(other.start) {
		return Subset{}, false
	}
	start := make([]uint64, len(s.start))
	shape := make([]uint64, len(s.start))
	sEnd := s.EndExclusive()
	oEnd := other.EndExclusive()
	for i := range s.start {
		lo := s.start[i]
		if other.start[i] > lo {
			lo = other.start[i]
		}
		hi := sEnd[i]
		if oEnd[i] < hi {
			hi = oEnd[i]
		}
		if hi <= lo {
			return Subset{}, false
		}
		start[i] = lo
		shape[i] = hi - lo
	}
	out, _ := New(start, shape)
	return out, true
}

// Relative returns s translated so that origin becomes the new zero point
// (used to convert an array-coordinate subset into chunk-local coordinates).
func (s Subset) Relative(origin []uint64) (Subset, error) {
	if len(origin) != len(s.start) {
		return Subset{}, ErrIncompatibleDimensionality
	}
	start := make([]uint64, len(s.start))
	for i := range s.start {
		if s.start[i] < origin[i] {
			return Subset{}, fmt.Errorf("%w: start %d before origin %d", ErrIncompatibleArraySubsetAndShape, s.start[i], origin[i])
		}
		start[i] = s.start[i] - origin[i]
	}
	return New(start, s.shape)
}
