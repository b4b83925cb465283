package codec

import (
	"context"
	"fmt"
)

// Pipeline composes an ordered list of array→array codecs, exactly one
// array→bytes codec, and an ordered list of bytes→bytes codecs into the
// single transform a chunk's bytes pass through between user buffers and
// the store. Pipelines are immutable once constructed: they hold only
// configuration, no per-chunk state.
type Pipeline struct {
	ArrayToArray []ArrayToArrayCodec
	ArrayToBytes ArrayToBytesCodec
	BytesToBytes []BytesToBytesCodec
}

// New builds a Pipeline. arrayToBytes must be non-nil.
func New(arrayToArray []ArrayToArrayCodec, arrayToBytes ArrayToBytesCodec, bytesToBytes []BytesToBytesCodec) (*Pipeline, error) {
	if arrayToBytes == nil {
		return nil, fmt.Errorf("codec: pipeline requires exactly one array->bytes codec")
	}
	return &Pipeline{ArrayToArray: arrayToArray, ArrayToBytes: arrayToBytes, BytesToBytes: bytesToBytes}, nil
}

// encodedArrayRepresentation walks the array->array chain forward,
// returning the Representation handed to the array->bytes codec.
func (p *Pipeline) encodedArrayRepresentation(rep Representation) (Representation, error) {
	cur := rep
	for _, c := range p.ArrayToArray {
		next, err := c.EncodedRepresentation(cur)
		if err != nil {
			return Representation{}, err
		}
		cur = next
	}
	return cur, nil
}

// Encode runs data through the full forward chain: array->array stages,
// the array->bytes codec, then bytes->bytes stages in order.
func (p *Pipeline) Encode(ctx context.Context, data ArrayBytes, rep Representation, opts Options) ([]byte, error) {
	cur := data
	curRep := rep
	for _, c := range p.ArrayToArray {
		encoded, err := c.EncodeArray(ctx, cur, curRep)
		if err != nil {
			return nil, err
		}
		nextRep, err := c.EncodedRepresentation(curRep)
		if err != nil {
			return nil, err
		}
		cur = encoded
		curRep = nextRep
	}

	b, err := p.ArrayToBytes.Encode(ctx, cur, curRep, opts)
	if err != nil {
		return nil, err
	}

	for _, c := range p.BytesToBytes {
		b, err = c.Encode(ctx, b)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Decode runs data through the full reverse chain: bytes->bytes stages in
// reverse order, the array->bytes codec, then array->array stages in
// reverse order.
func (p *Pipeline) Decode(ctx context.Context, data []byte, rep Representation, opts Options) (ArrayBytes, error) {
	arrayBytesRep, err := p.encodedArrayRepresentation(rep)
	if err != nil {
		return ArrayBytes{}, err
	}

	b := data
	for i := len(p.BytesToBytes) - 1; i >= 0; i-- {
		b, err = p.BytesToBytes[i].Decode(ctx, b)
		if err != nil {
			return ArrayBytes{}, err
		}
	}

	decoded, err := p.ArrayToBytes.Decode(ctx, b, arrayBytesRep, opts)
	if err != nil {
		return ArrayBytes{}, err
	}

	cur := decoded
	for i := len(p.ArrayToArray) - 1; i >= 0; i-- {
		// Recover the representation the codec at position i was given on
		// encode, by re-walking the forward chain up to i.
		inputRep := rep
		for j := 0; j < i; j++ {
			inputRep, err = p.ArrayToArray[j].EncodedRepresentation(inputRep)
			if err != nil {
				return ArrayBytes{}, err
			}
		}
		encodedRep, err := p.ArrayToArray[i].EncodedRepresentation(inputRep)
		if err != nil {
			return ArrayBytes{}, err
		}
		cur, err = p.ArrayToArray[i].DecodeArray(ctx, cur, encodedRep, inputRep)
		if err != nil {
			return ArrayBytes{}, err
		}
	}
	return cur, nil
}

// EncodedRepresentation returns the final on-disk BytesRepresentation
// (fixed, bounded, or unbounded) for an input array Representation.
func (p *Pipeline) EncodedRepresentation(rep Representation) (BytesRepresentation, error) {
	arrayBytesRep, err := p.encodedArrayRepresentation(rep)
	if err != nil {
		return BytesRepresentation{}, err
	}
	cur, err := p.ArrayToBytes.EncodedRepresentation(arrayBytesRep)
	if err != nil {
		return BytesRepresentation{}, err
	}
	for _, c := range p.BytesToBytes {
		cur, err = c.EncodedRepresentation(cur)
		if err != nil {
			return BytesRepresentation{}, err
		}
	}
	return cur, nil
}

// RecommendedConcurrency reports the minimum "efficient" and maximum
// "maximum" concurrency across every stage in the chain.
func (p *Pipeline) RecommendedConcurrency(rep Representation) (efficient, maximum int) {
	efficient, maximum = 1, 1
	first := true
	consider := func(e, m int) {
		if first {
			efficient, maximum = e, m
			first = false
			return
		}
		if e < efficient {
			efficient = e
		}
		if m > maximum {
			maximum = m
		}
	}

	cur := rep
	for _, c := range p.ArrayToArray {
		e, m := c.RecommendedConcurrency(cur)
		consider(e, m)
		next, err := c.EncodedRepresentation(cur)
		if err == nil {
			cur = next
		}
	}
	e, m := p.ArrayToBytes.RecommendedConcurrency(cur)
	consider(e, m)
	for _, c := range p.BytesToBytes {
		e, m := c.RecommendedConcurrency()
		consider(e, m)
	}
	if efficient < 1 {
		efficient = 1
	}
	if maximum < efficient {
		maximum = efficient
	}
	return efficient, maximum
}

// PartialDecoder builds a partial decoder rooted at source, wrapping the
// bytes->bytes stages (outermost first) around the array->bytes codec's
// own partial decoder, and layering array->array decode on top.
func (p *Pipeline) PartialDecoder(ctx context.Context, source BytesSource, rep Representation, opts Options) (ArrayPartialDecoder, error) {
	arrayBytesRep, err := p.encodedArrayRepresentation(rep)
	if err != nil {
		return nil, err
	}

	wrapped := source
	for i := len(p.BytesToBytes) - 1; i >= 0; i-- {
		wrapped, err = p.BytesToBytes[i].PartialDecoder(ctx, wrapped)
		if err != nil {
			return nil, err
		}
	}

	inner, err := p.ArrayToBytes.PartialDecoder(ctx, wrapped, arrayBytesRep, opts)
	if err != nil {
		return nil, err
	}
	if len(p.ArrayToArray) == 0 {
		return inner, nil
	}
	return &arrayToArrayPartialDecoder{pipeline: p, inner: inner, outerRep: rep}, nil
}

// PartialEncoder builds a partial encoder rooted at source/sink, mirroring
// PartialDecoder's wrapping order.
func (p *Pipeline) PartialEncoder(ctx context.Context, source BytesSource, sink BytesSink, rep Representation, opts Options) (ArrayPartialEncoder, error) {
	arrayBytesRep, err := p.encodedArrayRepresentation(rep)
	if err != nil {
		return nil, err
	}

	wrappedSource := source
	wrappedSink := sink
	for i := len(p.BytesToBytes) - 1; i >= 0; i-- {
		ws, err := p.BytesToBytes[i].PartialEncoder(ctx, wrappedSource, wrappedSink)
		if err != nil {
			return nil, err
		}
		wrappedSink = ws
		wrappedSource, err = p.BytesToBytes[i].PartialDecoder(ctx, wrappedSource)
		if err != nil {
			return nil, err
		}
	}

	inner, err := p.ArrayToBytes.PartialEncoder(ctx, wrappedSource, wrappedSink, arrayBytesRep, opts)
	if err != nil {
		return nil, err
	}
	if len(p.ArrayToArray) == 0 {
		return inner, nil
	}
	return &arrayToArrayPartialEncoder{pipeline: p, inner: inner, outerRep: rep}, nil
}
