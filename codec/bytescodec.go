package codec

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/tuskan/zarrgo/arraysubset"
	"github.com/tuskan/zarrgo/storekey"
)

// BytesCodec is the mandatory array->bytes codec for fixed-size data types:
// it lays elements out in row-major order, swapping to the requested byte
// order as needed. It is the only codec with a genuinely streaming partial
// decoder/encoder, since every element sits at a fixed byte offset.
type BytesCodec struct {
	// Endian is the on-disk byte order. Single-byte element types ignore it.
	Endian binary.ByteOrder
}

// NewBytesCodec constructs a BytesCodec for the given on-disk byte order.
func NewBytesCodec(order binary.ByteOrder) *BytesCodec {
	return &BytesCodec{Endian: order}
}

func (c *BytesCodec) elementSize(rep Representation) (int, error) {
	size, fixed := rep.DataType.Size()
	if !fixed {
		return 0, fmt.Errorf("%w: bytes codec requires a fixed-size data type", ErrUnsupportedDataType)
	}
	return size, nil
}

// nativeOrder is the byte order ArrayBytes.FixedBytes is assumed to already
// be in: little-endian, the convention for in-memory buffers prior to the
// bytes codec's own swap step.
var nativeOrder = binary.LittleEndian

func (c *BytesCodec) swap(dst, src []byte, size int) {
	if size <= 1 || c.Endian == nil || c.Endian == nativeOrder {
		copy(dst, src)
		return
	}
	for i := 0; i+size <= len(src); i += size {
		for j := 0; j < size; j++ {
			dst[i+j] = src[i+size-1-j]
		}
	}
}

func (c *BytesCodec) Encode(ctx context.Context, data ArrayBytes, rep Representation, opts Options) ([]byte, error) {
	size, err := c.elementSize(rep)
	if err != nil {
		return nil, err
	}
	src := data.FixedBytes()
	out := make([]byte, len(src))
	c.swap(out, src, size)
	return out, nil
}

func (c *BytesCodec) Decode(ctx context.Context, data []byte, rep Representation, opts Options) (ArrayBytes, error) {
	size, err := c.elementSize(rep)
	if err != nil {
		return ArrayBytes{}, err
	}
	want := rep.NumElements() * uint64(size)
	if uint64(len(data)) != want {
		return ArrayBytes{}, fmt.Errorf("%w: bytes codec got %d bytes, want %d", ErrUnexpectedSize, len(data), want)
	}
	out := make([]byte, len(data))
	c.swap(out, data, size)
	return Fixed(out), nil
}

func (c *BytesCodec) EncodedRepresentation(rep Representation) (BytesRepresentation, error) {
	size, err := c.elementSize(rep)
	if err != nil {
		return BytesRepresentation{}, err
	}
	return BytesRepresentation{Kind: BytesFixed, Size: rep.NumElements() * uint64(size)}, nil
}

func (c *BytesCodec) RecommendedConcurrency(rep Representation) (efficient, maximum int) {
	return 1, 1
}

// PartialDecoder returns a genuinely streaming decoder: DecodeSubsets issues
// one byte-range read per contiguous run.
func (c *BytesCodec) PartialDecoder(ctx context.Context, source BytesSource, rep Representation, opts Options) (ArrayPartialDecoder, error) {
	size, err := c.elementSize(rep)
	if err != nil {
		return nil, err
	}
	return &bytesPartialDecoder{codec: c, source: source, rep: rep, size: size}, nil
}

// PartialEncoder returns a genuinely streaming encoder: EncodeSubsets issues
// one byte-range write per contiguous run, with no need to touch untouched
// regions.
func (c *BytesCodec) PartialEncoder(ctx context.Context, source BytesSource, sink BytesSink, rep Representation, opts Options) (ArrayPartialEncoder, error) {
	size, err := c.elementSize(rep)
	if err != nil {
		return nil, err
	}
	return &bytesPartialEncoder{codec: c, source: source, sink: sink, rep: rep, size: size}, nil
}

type bytesPartialDecoder struct {
	codec  *BytesCodec
	source BytesSource
	rep    Representation
	size   int
}

func (d *bytesPartialDecoder) DecodeSubsets(ctx context.Context, subsets []arraysubset.Subset) ([]ArrayBytes, error) {
	out := make([]ArrayBytes, len(subsets))
	for i, s := range subsets {
		runs, err := arraysubset.ContiguousLinearisedIndices(s, d.rep.Shape)
		if err != nil {
			return nil, err
		}
		ranges := make([]storekey.ByteRange, len(runs))
		for j, r := range runs {
			length := r.RunLength * uint64(d.size)
			ranges[j] = storekey.FromStart(r.StartOffset*uint64(d.size), &length)
		}
		chunks, exists, err := d.source.GetPartial(ctx, ranges)
		if err != nil {
			return nil, err
		}
		n := s.NumElements() * uint64(d.size)
		buf := make([]byte, n)
		if exists {
			var cursor uint64
			for j := range runs {
				swapped := make([]byte, len(chunks[j]))
				d.codec.swap(swapped, chunks[j], d.size)
				copy(buf[cursor:], swapped)
				cursor += uint64(len(swapped))
			}
		} else {
			for e := uint64(0); e < s.NumElements(); e++ {
				copy(buf[e*uint64(d.size):(e+1)*uint64(d.size)], d.rep.FillValue)
			}
		}
		out[i] = Fixed(buf)
	}
	return out, nil
}

type bytesPartialEncoder struct {
	codec  *BytesCodec
	source BytesSource
	sink   BytesSink
	rep    Representation
	size   int
}

func (e *bytesPartialEncoder) EncodeSubsets(ctx context.Context, updates []SubsetBytes) error {
	full, exists, err := e.source.Size(ctx)
	if err != nil {
		return err
	}
	want := e.rep.NumElements() * uint64(e.size)
	if !exists || full != want {
		// The chunk is absent or the wrong size: materialise it fully from
		// the fill value so every untouched element still reads correctly.
		base := FillArrayBytes(e.rep)
		for _, u := range updates {
			base, err = InsertSubset(base, e.rep, u.Subset, u.Bytes)
			if err != nil {
				return err
			}
		}
		encoded, err := e.codec.Encode(ctx, base, e.rep, DefaultOptions())
		if err != nil {
			return err
		}
		return e.sink.Set(ctx, encoded)
	}

	writes := make([]PartialWrite, 0, len(updates))
	for _, u := range updates {
		runs, err := arraysubset.ContiguousLinearisedIndices(u.Subset, e.rep.Shape)
		if err != nil {
			return err
		}
		src := u.Bytes.FixedBytes()
		var cursor uint64
		for _, r := range runs {
			n := r.RunLength * uint64(e.size)
			swapped := make([]byte, n)
			e.codec.swap(swapped, src[cursor:cursor+n], e.size)
			writes = append(writes, PartialWrite{Offset: r.StartOffset * uint64(e.size), Data: swapped})
			cursor += n
		}
	}
	return e.sink.SetPartial(ctx, writes)
}
