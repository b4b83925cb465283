package datatype

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidFillValue is returned when a fill value's JSON metadata form
// cannot be interpreted for the given data type.
var ErrInvalidFillValue = fmt.Errorf("datatype: invalid fill value")

// ParseFillValue decodes a fill value from its metadata JSON representation
// (already unmarshalled into a Go any by encoding/json/v2) into the raw
// bytes that seed an uninitialised element. Supported forms: native JSON
// numbers/bools, the strings "NaN"/"Infinity"/"-Infinity", hexadecimal byte
// strings ("0x...."), and JSON arrays (complex real/imag pairs, or
// raw-bits byte arrays).
func (d DataType) ParseFillValue(v any) ([]byte, error) {
	order := d.endian
	if order == nil {
		order = binary.LittleEndian
	}

	switch d.kind {
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: bool fill value must be JSON bool, got %T", ErrInvalidFillValue, v)
		}
		if b {
			return []byte{1}, nil
		}
		return []byte{0}, nil

	case Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64:
		return parseIntegerFill(d, v, order)

	case Float16, Float32, Float64, BFloat16:
		f, err := parseFloatScalar(v)
		if err != nil {
			return nil, err
		}
		return encodeFloat(d.kind, f, order)

	case Complex64, Complex128:
		arr, ok := v.([]any)
		if !ok || len(arr) != 2 {
			return nil, fmt.Errorf("%w: complex fill value must be a 2-element array", ErrInvalidFillValue)
		}
		re, err := parseFloatScalar(arr[0])
		if err != nil {
			return nil, err
		}
		im, err := parseFloatScalar(arr[1])
		if err != nil {
			return nil, err
		}
		subKind := Float32
		if d.kind == Complex128 {
			subKind = Float64
		}
		reB, err := encodeFloat(subKind, re, order)
		if err != nil {
			return nil, err
		}
		imB, err := encodeFloat(subKind, im, order)
		if err != nil {
			return nil, err
		}
		return append(reB, imB...), nil

	case RawBits:
		return parseRawBitsFill(v, d.rawBits)

	case String:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: string fill value must be a JSON string", ErrInvalidFillValue)
		}
		return []byte(s), nil

	case Bytes:
		return parseRawBitsFill(v, -1)

	default:
		return nil, fmt.Errorf("%w: kind %d", ErrUnsupportedKind, d.kind)
	}
}

func parseIntegerFill(d DataType, v any, order binary.ByteOrder) ([]byte, error) {
	var i64 int64
	switch n := v.(type) {
	case float64:
		i64 = int64(n)
	case string:
		if strings.HasPrefix(n, "0x") {
			raw, err := hex.DecodeString(strings.TrimPrefix(n, "0x"))
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidFillValue, err)
			}
			return raw, nil
		}
		return nil, fmt.Errorf("%w: unrecognised integer fill value string %q", ErrInvalidFillValue, n)
	default:
		return nil, fmt.Errorf("%w: integer fill value must be a number, got %T", ErrInvalidFillValue, v)
	}
	size, _ := d.Size()
	buf := make([]byte, size)
	switch size {
	case 1:
		buf[0] = byte(i64)
	case 2:
		order.PutUint16(buf, uint16(i64))
	case 4:
		order.PutUint32(buf, uint32(i64))
	case 8:
		order.PutUint64(buf, uint64(i64))
	}
	return buf, nil
}

func parseFloatScalar(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case string:
		switch n {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
		if strings.HasPrefix(n, "0x") {
			raw, err := hex.DecodeString(strings.TrimPrefix(n, "0x"))
			if err != nil || len(raw) != 8 {
				return 0, fmt.Errorf("%w: bad hex float %q", ErrInvalidFillValue, n)
			}
			bits := binary.BigEndian.Uint64(raw)
			return math.Float64frombits(bits), nil
		}
		return 0, fmt.Errorf("%w: unrecognised float fill value string %q", ErrInvalidFillValue, n)
	default:
		return 0, fmt.Errorf("%w: float fill value must be a number or string, got %T", ErrInvalidFillValue, v)
	}
}

func encodeFloat(kind Kind, f float64, order binary.ByteOrder) ([]byte, error) {
	switch kind {
	case BFloat16:
		buf := make([]byte, 2)
		bits := math.Float32bits(float32(f))
		order.PutUint16(buf, uint16(bits>>16))
		return buf, nil
	case Float16:
		buf := make([]byte, 2)
		packHalfFloat(buf, order, float32(f))
		return buf, nil
	case Float32:
		buf := make([]byte, 4)
		order.PutUint32(buf, math.Float32bits(float32(f)))
		return buf, nil
	case Float64:
		buf := make([]byte, 8)
		order.PutUint64(buf, math.Float64bits(f))
		return buf, nil
	default:
		return nil, fmt.Errorf("%w: %d is not a float kind", ErrUnsupportedKind, kind)
	}
}

// packHalfFloat encodes f as IEEE 754 binary16 into buf (2 bytes).
func packHalfFloat(buf []byte, order binary.ByteOrder, f float32) {
	bits := math.Float32bits(f)
	sign := uint16((bits >> 16) & 0x8000)
	exp := int32((bits>>23)&0xff) - 127 + 15
	mant := bits & 0x7fffff
	var half uint16
	switch {
	case exp <= 0:
		half = sign
	case exp >= 0x1f:
		half = sign | 0x7c00
		if mant != 0 {
			// NaN: keep a non-zero mantissa so it stays NaN in binary16.
			half |= 0x0200
		}
	default:
		half = sign | uint16(exp<<10) | uint16(mant>>13)
	}
	order.PutUint16(buf, half)
}

func parseRawBitsFill(v any, expectSize int) ([]byte, error) {
	switch raw := v.(type) {
	case string:
		if !strings.HasPrefix(raw, "0x") {
			return nil, fmt.Errorf("%w: raw-bits fill value string must be hex-prefixed", ErrInvalidFillValue)
		}
		b, err := hex.DecodeString(strings.TrimPrefix(raw, "0x"))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFillValue, err)
		}
		if expectSize >= 0 && len(b) != expectSize {
			return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidFillValue, expectSize, len(b))
		}
		return b, nil
	case []any:
		b := make([]byte, len(raw))
		for i, el := range raw {
			n, ok := el.(float64)
			if !ok {
				return nil, fmt.Errorf("%w: raw-bits array element must be a number", ErrInvalidFillValue)
			}
			b[i] = byte(n)
		}
		if expectSize >= 0 && len(b) != expectSize {
			return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidFillValue, expectSize, len(b))
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: raw-bits fill value must be a hex string or byte array", ErrInvalidFillValue)
	}
}
