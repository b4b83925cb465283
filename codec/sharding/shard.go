package sharding

import (
	"context"
	"fmt"

	"github.com/tuskan/zarrgo/arraysubset"
	"github.com/tuskan/zarrgo/codec"
)

// Codec is the sharding array->bytes codec: it treats one chunk as a shard
// of inner chunks laid out on a regular sub-grid, each independently
// encoded by InnerCodecs, indexed by a shard index encoded by
// IndexCodecs.
type Codec struct {
	InnerChunkShape []uint64
	InnerCodecs     *codec.Pipeline
	IndexCodecs     []codec.BytesToBytesCodec
	IndexLocation   IndexLocation
}

// New constructs a sharding Codec.
func New(innerChunkShape []uint64, inner *codec.Pipeline, indexCodecs []codec.BytesToBytesCodec, loc IndexLocation) *Codec {
	return &Codec{InnerChunkShape: innerChunkShape, InnerCodecs: inner, IndexCodecs: indexCodecs, IndexLocation: loc}
}

func (c *Codec) indexChain() *indexCodecChain {
	return &indexCodecChain{bytesToBytes: c.IndexCodecs}
}

// innerOverlaps returns every inner-grid cell overlapping the whole shard,
// including partial (truncated) cells at the array edge.
func (c *Codec) innerOverlaps(rep codec.Representation) ([]arraysubset.ChunkOverlap, error) {
	full := arraysubset.Full(rep.Shape)
	return arraysubset.Chunks(full, rep.Shape, c.InnerChunkShape)
}

func (c *Codec) innerRepresentation(rep codec.Representation, chunkSubset arraysubset.Subset) codec.Representation {
	return codec.Representation{Shape: chunkSubset.Shape(), DataType: rep.DataType, FillValue: rep.FillValue}
}

// Encode serialises data (a full shard's worth of decoded array bytes) into
// inner-chunk payloads, an index, and assembles them per IndexLocation.
func (c *Codec) Encode(ctx context.Context, data codec.ArrayBytes, rep codec.Representation, opts codec.Options) ([]byte, error) {
	overlaps, err := c.innerOverlaps(rep)
	if err != nil {
		return nil, err
	}

	payloads := make([][]byte, len(overlaps))
	present := make([]bool, len(overlaps))
	for i, ov := range overlaps {
		chunkData, err := codec.ExtractSubset(data, rep, ov.ChunkSubset)
		if err != nil {
			return nil, err
		}
		innerRep := c.innerRepresentation(rep, ov.ChunkSubset)
		if !opts.StoreEmptyChunks && codec.IsFillValue(chunkData, innerRep) {
			continue
		}
		payload, err := c.InnerCodecs.Encode(ctx, chunkData, innerRep, opts)
		if err != nil {
			return nil, err
		}
		payloads[i] = payload
		present[i] = true
	}

	return c.assemble(ctx, payloads, present)
}

// assemble lays out payloads (nil entries absent) according to
// IndexLocation, computes the index, and concatenates everything.
func (c *Codec) assemble(ctx context.Context, payloads [][]byte, present []bool) ([]byte, error) {
	chain := c.indexChain()
	indexSize, err := chain.size(len(payloads))
	if err != nil {
		return nil, err
	}

	var payloadStart uint64
	if c.IndexLocation == IndexAtStart {
		payloadStart = indexSize
	}

	entries := make([]indexEntry, len(payloads))
	var payloadRegion []byte
	offset := payloadStart
	for i, p := range payloads {
		if !present[i] {
			entries[i] = indexEntry{present: false}
			continue
		}
		entries[i] = indexEntry{offset: offset, nbytes: uint64(len(p)), present: true}
		payloadRegion = append(payloadRegion, p...)
		offset += uint64(len(p))
	}

	indexBytes, err := chain.encode(ctx, entries)
	if err != nil {
		return nil, err
	}
	if uint64(len(indexBytes)) != indexSize {
		return nil, fmt.Errorf("sharding: index codec produced %d bytes, expected fixed size %d", len(indexBytes), indexSize)
	}

	var out []byte
	if c.IndexLocation == IndexAtStart {
		out = append(out, indexBytes...)
		out = append(out, payloadRegion...)
	} else {
		out = append(out, payloadRegion...)
		out = append(out, indexBytes...)
	}
	return out, nil
}

// Decode reads the index from data, then decodes every present inner
// chunk's payload into the correct position of the shard buffer.
func (c *Codec) Decode(ctx context.Context, data []byte, rep codec.Representation, opts codec.Options) (codec.ArrayBytes, error) {
	overlaps, err := c.innerOverlaps(rep)
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	chain := c.indexChain()
	indexSize, err := chain.size(len(overlaps))
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	if uint64(len(data)) < indexSize {
		return codec.ArrayBytes{}, fmt.Errorf("%w: shard shorter than its index", codec.ErrUnexpectedSize)
	}

	var indexBytes []byte
	if c.IndexLocation == IndexAtStart {
		indexBytes = data[:indexSize]
	} else {
		indexBytes = data[uint64(len(data))-indexSize:]
	}
	entries, err := chain.decode(ctx, indexBytes, len(overlaps))
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	if err := validateIndex(entries, uint64(len(data)), indexSize, c.IndexLocation); err != nil {
		return codec.ArrayBytes{}, err
	}

	full := codec.FillArrayBytes(rep)
	for i, ov := range overlaps {
		if !entries[i].present {
			continue
		}
		e := entries[i]
		payload := data[e.offset : e.offset+e.nbytes]
		innerRep := c.innerRepresentation(rep, ov.ChunkSubset)
		decoded, err := c.InnerCodecs.Decode(ctx, payload, innerRep, opts)
		if err != nil {
			return codec.ArrayBytes{}, err
		}
		full, err = codec.InsertSubset(full, rep, ov.ChunkSubset, decoded)
		if err != nil {
			return codec.ArrayBytes{}, err
		}
	}
	return full, nil
}

func (c *Codec) EncodedRepresentation(rep codec.Representation) (codec.BytesRepresentation, error) {
	return codec.BytesRepresentation{Kind: codec.BytesUnbounded}, nil
}

func (c *Codec) RecommendedConcurrency(rep codec.Representation) (efficient, maximum int) {
	overlaps, err := c.innerOverlaps(rep)
	if err != nil || len(overlaps) == 0 {
		return 1, 1
	}
	return 1, len(overlaps)
}
