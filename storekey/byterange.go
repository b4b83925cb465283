package storekey

import (
	"errors"
	"fmt"
)

// ErrInvalidByteRange is returned when a byte range request falls outside
// the bounds of the value it is applied to.
var ErrInvalidByteRange = errors.New("storekey: invalid byte range")

// ByteRange is a partial-read request, anchored either at the start or at
// the end of a value. A nil Length means "to end".
type ByteRange struct {
	fromEnd bool
	offset  uint64
	length  *uint64
}

// FromStart returns a byte range starting at offset, for length bytes
// (or to the end of the value if length is nil).
func FromStart(offset uint64, length *uint64) ByteRange {
	return ByteRange{fromEnd: false, offset: offset, length: length}
}

// FromEnd returns a byte range starting offsetFromEnd bytes before the end
// of the value, for length bytes (or to the end if length is nil).
func FromEnd(offsetFromEnd uint64, length *uint64) ByteRange {
	return ByteRange{fromEnd: true, offset: offsetFromEnd, length: length}
}

// IsFromEnd reports whether the range is anchored at the end of the value.
func (b ByteRange) IsFromEnd() bool { return b.fromEnd }

// Length returns the requested length and whether one was specified.
func (b ByteRange) Length() (uint64, bool) {
	if b.length == nil {
		return 0, false
	}
	return *b.length, true
}

// Resolve converts the range into a concrete half-open [start, end) pair
// given the total size of the value, validating bounds.
func (b ByteRange) Resolve(size uint64) (start, end uint64, err error) {
	if b.fromEnd {
		if b.offset > size {
			return 0, 0, fmt.Errorf("%w: offset-from-end %d exceeds size %d", ErrInvalidByteRange, b.offset, size)
		}
		start = size - b.offset
	} else {
		start = b.offset
	}
	if start > size {
		return 0, 0, fmt.Errorf("%w: start %d exceeds size %d", ErrInvalidByteRange, start, size)
	}
	if b.length != nil {
		end = start + *b.length
	} else {
		end = size
	}
	if end > size || end < start {
		return 0, 0, fmt.Errorf("%w: end %d exceeds size %d", ErrInvalidByteRange, end, size)
	}
	return start, end, nil
}
