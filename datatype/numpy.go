package datatype

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// ParseNumpyDType resolves a Zarr V2 numpy dtype string ("<f4", ">i8",
// "|b1", "|u1") into a DataType and the byte order the stored chunks use.
// The returned order is nil for single-byte types.
func ParseNumpyDType(s string) (DataType, binary.ByteOrder, error) {
	if len(s) < 3 {
		return DataType{}, nil, fmt.Errorf("%w: invalid dtype %q", ErrUnsupportedKind, s)
	}

	var order binary.ByteOrder
	switch s[0] {
	case '<', '|':
		order = binary.LittleEndian
	case '>':
		order = binary.BigEndian
	default:
		return DataType{}, nil, fmt.Errorf("%w: invalid byte order in dtype %q", ErrUnsupportedKind, s)
	}

	kind := s[1]
	size, err := strconv.Atoi(s[2:])
	if err != nil {
		return DataType{}, nil, fmt.Errorf("%w: invalid size in dtype %q", ErrUnsupportedKind, s)
	}

	var name string
	switch kind {
	case 'b':
		return New(Bool, nil), nil, nil
	case 'i':
		name = fmt.Sprintf("int%d", size*8)
	case 'u':
		name = fmt.Sprintf("uint%d", size*8)
	case 'f':
		name = fmt.Sprintf("float%d", size*8)
	case 'c':
		name = fmt.Sprintf("complex%d", size*8)
	case 'V':
		if size == 1 {
			order = nil
		}
		return NewRawBits(size, order), order, nil
	default:
		return DataType{}, nil, fmt.Errorf("%w: dtype kind %q in %q", ErrUnsupportedKind, kind, s)
	}

	dt, err := ParseName(name)
	if err != nil {
		return DataType{}, nil, err
	}
	if size == 1 {
		order = nil
	}
	return dt, order, nil
}
