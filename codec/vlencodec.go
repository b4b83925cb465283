package codec

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/tuskan/zarrgo/arraysubset"
)

// VlenBytesCodec is the array->bytes codec for variable-length String/Bytes
// data types. The wire format is a little-endian uint32 element count,
// followed by one (uint32 length, payload) pair per element in row-major
// order.
type VlenBytesCodec struct{}

// NewVlenBytesCodec constructs a VlenBytesCodec.
func NewVlenBytesCodec() *VlenBytesCodec { return &VlenBytesCodec{} }

func (c *VlenBytesCodec) Encode(ctx context.Context, data ArrayBytes, rep Representation, opts Options) ([]byte, error) {
	if !data.IsVariable() {
		return nil, fmt.Errorf("%w: vlen codec requires a variable-length buffer", ErrUnsupportedDataType)
	}
	offsets := data.Offsets()
	payload := data.Payload()
	n := uint32(len(offsets) - 1)

	header := make([]byte, 4)
	binary.LittleEndian.PutUint32(header, n)
	out := header
	for i := uint32(0); i < n; i++ {
		start, end := offsets[i], offsets[i+1]
		lenBuf := make([]byte, 4)
		binary.LittleEndian.PutUint32(lenBuf, uint32(end-start))
		out = append(out, lenBuf...)
		out = append(out, payload[start:end]...)
	}
	return out, nil
}

func (c *VlenBytesCodec) Decode(ctx context.Context, data []byte, rep Representation, opts Options) (ArrayBytes, error) {
	if len(data) < 4 {
		return ArrayBytes{}, fmt.Errorf("%w: vlen payload too short for header", ErrUnexpectedSize)
	}
	n := binary.LittleEndian.Uint32(data[:4])
	if uint64(n) != rep.NumElements() {
		return ArrayBytes{}, fmt.Errorf("%w: vlen header declares %d elements, representation wants %d", ErrUnexpectedSize, n, rep.NumElements())
	}
	offsets := make([]uint64, n+1)
	var payload []byte
	cursor := 4
	for i := uint32(0); i < n; i++ {
		if cursor+4 > len(data) {
			return ArrayBytes{}, fmt.Errorf("%w: vlen payload truncated reading element %d length", ErrUnexpectedSize, i)
		}
		elemLen := binary.LittleEndian.Uint32(data[cursor : cursor+4])
		cursor += 4
		if cursor+int(elemLen) > len(data) {
			return ArrayBytes{}, fmt.Errorf("%w: vlen payload truncated reading element %d body", ErrUnexpectedSize, i)
		}
		payload = append(payload, data[cursor:cursor+int(elemLen)]...)
		cursor += int(elemLen)
		offsets[i+1] = uint64(len(payload))
	}
	return Variable(payload, offsets), nil
}

func (c *VlenBytesCodec) EncodedRepresentation(rep Representation) (BytesRepresentation, error) {
	return BytesRepresentation{Kind: BytesUnbounded}, nil
}

func (c *VlenBytesCodec) RecommendedConcurrency(rep Representation) (efficient, maximum int) {
	return 1, 1
}

// PartialDecoder for vlen data falls back to decode-whole-then-slice: the
// offset table can only be parsed by reading it front to back.
func (c *VlenBytesCodec) PartialDecoder(ctx context.Context, source BytesSource, rep Representation, opts Options) (ArrayPartialDecoder, error) {
	return &vlenPartialDecoder{codec: c, source: source, rep: rep}, nil
}

func (c *VlenBytesCodec) PartialEncoder(ctx context.Context, source BytesSource, sink BytesSink, rep Representation, opts Options) (ArrayPartialEncoder, error) {
	return &vlenPartialEncoder{codec: c, source: source, sink: sink, rep: rep}, nil
}

type vlenPartialDecoder struct {
	codec  *VlenBytesCodec
	source BytesSource
	rep    Representation

	cached bool
	full   ArrayBytes
}

func (d *vlenPartialDecoder) materialise(ctx context.Context) (ArrayBytes, error) {
	if d.cached {
		return d.full, nil
	}
	raw, exists, err := d.source.Get(ctx)
	if err != nil {
		return ArrayBytes{}, err
	}
	if !exists {
		d.full = FillArrayBytes(d.rep)
		d.cached = true
		return d.full, nil
	}
	decoded, err := d.codec.Decode(ctx, raw, d.rep, DefaultOptions())
	if err != nil {
		return ArrayBytes{}, err
	}
	d.full, d.cached = decoded, true
	return d.full, nil
}

func (d *vlenPartialDecoder) DecodeSubsets(ctx context.Context, subsets []arraysubset.Subset) ([]ArrayBytes, error) {
	full, err := d.materialise(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ArrayBytes, len(subsets))
	for i, s := range subsets {
		out[i], err = ExtractSubset(full, d.rep, s)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

type vlenPartialEncoder struct {
	codec  *VlenBytesCodec
	source BytesSource
	sink   BytesSink
	rep    Representation
}

func (e *vlenPartialEncoder) EncodeSubsets(ctx context.Context, updates []SubsetBytes) error {
	decoder := &vlenPartialDecoder{codec: e.codec, source: e.source, rep: e.rep}
	full, err := decoder.materialise(ctx)
	if err != nil {
		return err
	}
	for _, u := range updates {
		full, err = InsertSubset(full, e.rep, u.Subset, u.Bytes)
		if err != nil {
			return err
		}
	}
	encoded, err := e.codec.Encode(ctx, full, e.rep, DefaultOptions())
	if err != nil {
		return err
	}
	return e.sink.Set(ctx, encoded)
}
