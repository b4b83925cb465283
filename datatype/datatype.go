// Package datatype describes element layout (fixed or variable-length),
// endianness, and fill-value encoding for the core Zarr V3 data types.
package datatype

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies a data type's element layout.
type Kind int

const (
	Bool Kind = iota
	Int8
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	Float16
	Float32
	Float64
	BFloat16
	Complex64
	Complex128
	RawBits // size is per-instance, in bytes
	String  // variable-length, UTF-8
	Bytes   // variable-length, raw
)

// ErrUnsupportedKind is returned for an unrecognised data type kind.
var ErrUnsupportedKind = errors.New("datatype: unsupported kind")

// DataType describes one element's layout: its canonical Zarr V3 name,
// whether it is fixed or variable size, and (for fixed types) byte size
// and endianness.
type DataType struct {
	kind     Kind
	rawBits  int // only meaningful for RawBits
	endian   binary.ByteOrder
	hasOrder bool
}

// New constructs a DataType of the given kind (fixed-size or
// variable-length) with the given byte order. Pass nil for types with no endianness concern (Bool, size-1
// raw bits, String, Bytes).
func New(kind Kind, order binary.ByteOrder) DataType {
	return DataType{kind: kind, endian: order, hasOrder: order != nil}
}

// NewRawBits constructs a raw-bits(n) DataType of n bytes.
func NewRawBits(n int, order binary.ByteOrder) DataType {
	return DataType{kind: RawBits, rawBits: n, endian: order, hasOrder: order != nil}
}

// Kind returns the element kind.
func (d DataType) Kind() Kind { return d.kind }

// ByteOrder returns the configured byte order, if any.
func (d DataType) ByteOrder() (binary.ByteOrder, bool) { return d.endian, d.hasOrder }

// Name returns the canonical Zarr V3 data type name.
func (d DataType) Name() string {
	switch d.kind {
	case Bool:
		return "bool"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case UInt8:
		return "uint8"
	case UInt16:
		return "uint16"
	case UInt32:
		return "uint32"
	case UInt64:
		return "uint64"
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case BFloat16:
		return "bfloat16"
	case Complex64:
		return "complex64"
	case Complex128:
		return "complex128"
	case RawBits:
		return fmt.Sprintf("r%d", d.rawBits*8)
	case String:
		return "string"
	case Bytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Size returns the fixed element byte size, and false if the type is
// variable-length.
func (d DataType) Size() (int, bool) {
	switch d.kind {
	case Bool, Int8, UInt8:
		return 1, true
	case Int16, UInt16, Float16, BFloat16:
		return 2, true
	case Int32, UInt32, Float32, Complex64:
		return 4, true
	case Int64, UInt64, Float64, Complex128:
		return 8, true
	case RawBits:
		return d.rawBits, true
	case String, Bytes:
		return 0, false
	default:
		return 0, false
	}
}

// Variable reports whether this data type is variable-length.
func (d DataType) Variable() bool {
	_, fixed := d.Size()
	return !fixed
}

// ParseName resolves a zarr.json data_type name (e.g. "int32", "string",
// "r16") into a DataType. Fixed-size kinds are constructed without an
// explicit byte order; callers that need one (the bytes codec) carry it in
// their own configuration rather than on the DataType itself.
func ParseName(name string) (DataType, error) {
	switch name {
	case "bool":
		return New(Bool, nil), nil
	case "int8":
		return New(Int8, nil), nil
	case "int16":
		return New(Int16, nil), nil
	case "int32":
		return New(Int32, nil), nil
	case "int64":
		return New(Int64, nil), nil
	case "uint8":
		return New(UInt8, nil), nil
	case "uint16":
		return New(UInt16, nil), nil
	case "uint32":
		return New(UInt32, nil), nil
	case "uint64":
		return New(UInt64, nil), nil
	case "float16":
		return New(Float16, nil), nil
	case "float32":
		return New(Float32, nil), nil
	case "float64":
		return New(Float64, nil), nil
	case "bfloat16":
		return New(BFloat16, nil), nil
	case "complex64":
		return New(Complex64, nil), nil
	case "complex128":
		return New(Complex128, nil), nil
	case "string":
		return New(String, nil), nil
	case "bytes":
		return New(Bytes, nil), nil
	default:
		if strings.HasPrefix(name, "r") {
			bits, err := strconv.Atoi(strings.TrimPrefix(name, "r"))
			if err == nil && bits > 0 && bits%8 == 0 {
				return NewRawBits(bits/8, nil), nil
			}
		}
		return DataType{}, fmt.Errorf("%w: %q", ErrUnsupportedKind, name)
	}
}
