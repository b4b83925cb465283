package codec

import (
	"context"

	"github.com/tuskan/zarrgo/arraysubset"
	"github.com/tuskan/zarrgo/storekey"
)

// memoryBytesSource is an in-memory BytesSource/BytesSink, the cache a
// non-streamable codec decodes a chunk into once per call: the entire
// input is decoded on first touch and held for the remainder of the call.
type memoryBytesSource struct {
	data   []byte
	exists bool
}

func (m *memoryBytesSource) Get(ctx context.Context) ([]byte, bool, error) {
	return m.data, m.exists, nil
}

func (m *memoryBytesSource) GetPartial(ctx context.Context, ranges []storekey.ByteRange) ([][]byte, bool, error) {
	if !m.exists {
		return nil, false, nil
	}
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		start, end, err := r.Resolve(uint64(len(m.data)))
		if err != nil {
			return nil, false, err
		}
		out[i] = m.data[start:end]
	}
	return out, true, nil
}

func (m *memoryBytesSource) Size(ctx context.Context) (uint64, bool, error) {
	return uint64(len(m.data)), m.exists, nil
}

// DefaultBytesPartialDecoder is the shared non-streaming partial-decoder
// implementation for any BytesToBytesCodec: decode the whole value once,
// then serve byte ranges out of memory.
func DefaultBytesPartialDecoder(ctx context.Context, source BytesSource, c BytesToBytesCodec) (BytesSource, error) {
	raw, exists, err := source.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return &memoryBytesSource{exists: false}, nil
	}
	plain, err := c.Decode(ctx, raw)
	if err != nil {
		return nil, err
	}
	return &memoryBytesSource{data: plain, exists: true}, nil
}

// compressorPartialSink is the shared non-streaming partial-encoder
// implementation for any BytesToBytesCodec: every write reads the current
// plaintext (via source), applies the update, and re-encodes the whole
// value.
type compressorPartialSink struct {
	codec  BytesToBytesCodec
	source BytesSource
	sink   BytesSink
}

func (s *compressorPartialSink) Set(ctx context.Context, data []byte) error {
	encoded, err := s.codec.Encode(ctx, data)
	if err != nil {
		return err
	}
	return s.sink.Set(ctx, encoded)
}

func (s *compressorPartialSink) SetPartial(ctx context.Context, updates []PartialWrite) error {
	raw, exists, err := s.source.Get(ctx)
	if err != nil {
		return err
	}
	var plain []byte
	if exists {
		plain, err = s.codec.Decode(ctx, raw)
		if err != nil {
			return err
		}
	}
	for _, u := range updates {
		end := u.Offset + uint64(len(u.Data))
		if uint64(len(plain)) < end {
			grown := make([]byte, end)
			copy(grown, plain)
			plain = grown
		}
		copy(plain[u.Offset:end], u.Data)
	}
	return s.Set(ctx, plain)
}

func (s *compressorPartialSink) Erase(ctx context.Context) error {
	return s.sink.Erase(ctx)
}

// DefaultBytesPartialEncoder is the shared non-streaming partial-encoder
// implementation for any BytesToBytesCodec.
func DefaultBytesPartialEncoder(source BytesSource, sink BytesSink, c BytesToBytesCodec) BytesSink {
	return &compressorPartialSink{codec: c, source: source, sink: sink}
}

// arrayToArrayPartialDecoder is the default (non-streaming) partial
// decoder wrapping an array->array codec chain around an inner
// ArrayPartialDecoder: it fully decodes the chunk once, runs the array->
// array chain once, then slices the requested subsets out of memory.
type arrayToArrayPartialDecoder struct {
	pipeline *Pipeline
	inner    ArrayPartialDecoder
	outerRep Representation

	cached   bool
	full     ArrayBytes
	cacheErr error
}

func (d *arrayToArrayPartialDecoder) materialise(ctx context.Context) (ArrayBytes, error) {
	if d.cached {
		return d.full, d.cacheErr
	}
	innerRep, err := d.pipeline.encodedArrayRepresentation(d.outerRep)
	if err != nil {
		d.cached, d.cacheErr = true, err
		return ArrayBytes{}, err
	}
	innerFull := arraysubset.Full(innerRep.Shape)
	decoded, err := d.inner.DecodeSubsets(ctx, []arraysubset.Subset{innerFull})
	if err != nil {
		d.cached, d.cacheErr = true, err
		return ArrayBytes{}, err
	}
	cur := decoded[0]
	for i := len(d.pipeline.ArrayToArray) - 1; i >= 0; i-- {
		inputRep := d.outerRep
		for j := 0; j < i; j++ {
			inputRep, err = d.pipeline.ArrayToArray[j].EncodedRepresentation(inputRep)
			if err != nil {
				d.cached, d.cacheErr = true, err
				return ArrayBytes{}, err
			}
		}
		encRep, err := d.pipeline.ArrayToArray[i].EncodedRepresentation(inputRep)
		if err != nil {
			d.cached, d.cacheErr = true, err
			return ArrayBytes{}, err
		}
		cur, err = d.pipeline.ArrayToArray[i].DecodeArray(ctx, cur, encRep, inputRep)
		if err != nil {
			d.cached, d.cacheErr = true, err
			return ArrayBytes{}, err
		}
	}
	d.full, d.cached = cur, true
	return d.full, nil
}

func (d *arrayToArrayPartialDecoder) DecodeSubsets(ctx context.Context, subsets []arraysubset.Subset) ([]ArrayBytes, error) {
	full, err := d.materialise(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ArrayBytes, len(subsets))
	for i, s := range subsets {
		out[i], err = ExtractSubset(full, d.outerRep, s)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// arrayToArrayPartialEncoder is the default read-modify-write partial
// encoder for a pipeline with a non-empty array->array chain.
type arrayToArrayPartialEncoder struct {
	pipeline *Pipeline
	inner    ArrayPartialEncoder
	outerRep Representation
}

func (e *arrayToArrayPartialEncoder) EncodeSubsets(ctx context.Context, updates []SubsetBytes) error {
	full := FillArrayBytes(e.outerRep)
	for _, u := range updates {
		var err error
		full, err = InsertSubset(full, e.outerRep, u.Subset, u.Bytes)
		if err != nil {
			return err
		}
	}
	cur := full
	curRep := e.outerRep
	for _, c := range e.pipeline.ArrayToArray {
		encoded, err := c.EncodeArray(ctx, cur, curRep)
		if err != nil {
			return err
		}
		nextRep, err := c.EncodedRepresentation(curRep)
		if err != nil {
			return err
		}
		cur, curRep = encoded, nextRep
	}
	return e.inner.EncodeSubsets(ctx, []SubsetBytes{{Subset: arraysubset.Full(curRep.Shape), Bytes: cur}})
}
