package sharding

import (
	"context"

	"github.com/tuskan/zarrgo/arraysubset"
	"github.com/tuskan/zarrgo/codec"
	"github.com/tuskan/zarrgo/storekey"
)

// PartialDecoder reads the shard index once (cached across DecodeSubsets
// calls on the same instance) and issues byte-range reads only for the
// inner chunks a requested subset actually overlaps.
type PartialDecoder struct {
	codec  *Codec
	source codec.BytesSource
	rep    codec.Representation

	cached   bool
	exists   bool
	shardLen uint64
	entries  []indexEntry
	overlaps []arraysubset.ChunkOverlap
}

// PartialDecoder constructs a PartialDecoder backed by source.
func (c *Codec) PartialDecoder(ctx context.Context, source codec.BytesSource, rep codec.Representation, opts codec.Options) (codec.ArrayPartialDecoder, error) {
	return &PartialDecoder{codec: c, source: source, rep: rep}, nil
}

func (d *PartialDecoder) loadIndex(ctx context.Context) error {
	if d.cached {
		return nil
	}
	d.cached = true
	overlaps, err := d.codec.innerOverlaps(d.rep)
	if err != nil {
		return err
	}
	d.overlaps = overlaps

	size, exists, err := d.source.Size(ctx)
	if err != nil {
		return err
	}
	if !exists {
		d.exists = false
		return nil
	}
	d.exists = true
	d.shardLen = size

	chain := d.codec.indexChain()
	indexSize, err := chain.size(len(overlaps))
	if err != nil {
		return err
	}

	var rng storekey.ByteRange
	if d.codec.IndexLocation == IndexAtStart {
		rng = storekey.FromStart(0, &indexSize)
	} else {
		rng = storekey.FromEnd(indexSize, nil)
	}
	chunks, _, err := d.source.GetPartial(ctx, []storekey.ByteRange{rng})
	if err != nil {
		return err
	}
	entries, err := chain.decode(ctx, chunks[0], len(overlaps))
	if err != nil {
		return err
	}
	if err := validateIndex(entries, size, indexSize, d.codec.IndexLocation); err != nil {
		return err
	}
	d.entries = entries
	return nil
}

func (d *PartialDecoder) DecodeSubsets(ctx context.Context, subsets []arraysubset.Subset) ([]codec.ArrayBytes, error) {
	if err := d.loadIndex(ctx); err != nil {
		return nil, err
	}

	out := make([]codec.ArrayBytes, len(subsets))
	for i, s := range subsets {
		result := codec.FillArrayBytes(d.codec.innerRepresentation(d.rep, s))
		if !d.exists {
			out[i] = result
			continue
		}
		for j, ov := range d.overlaps {
			overlap, ok := s.Overlap(ov.ChunkSubset)
			if !ok {
				continue
			}
			if !d.entries[j].present {
				continue
			}
			e := d.entries[j]
			length := e.nbytes
			chunks, _, err := d.source.GetPartial(ctx, []storekey.ByteRange{storekey.FromStart(e.offset, &length)})
			if err != nil {
				return nil, err
			}
			innerRep := d.codec.innerRepresentation(d.rep, ov.ChunkSubset)
			decoded, err := d.codec.InnerCodecs.Decode(ctx, chunks[0], innerRep, codec.DefaultOptions())
			if err != nil {
				return nil, err
			}
			localOverlap, err := overlap.Relative(ov.ChunkSubset.Start())
			if err != nil {
				return nil, err
			}
			piece, err := codec.ExtractSubset(decoded, innerRep, localOverlap)
			if err != nil {
				return nil, err
			}
			destLocal, err := overlap.Relative(s.Start())
			if err != nil {
				return nil, err
			}
			result, err = codec.InsertSubset(result, d.codec.innerRepresentation(d.rep, s), destLocal, piece)
			if err != nil {
				return nil, err
			}
		}
		out[i] = result
	}
	return out, nil
}

// PartialEncoder is the specialised (non-read-modify-write-whole) partial
// encoder: touched inner chunks are re-encoded; if every one fits within
// its predecessor's footprint the shard is patched in place, otherwise the
// whole shard is rewritten; an all-absent result erases the shard key.
type PartialEncoder struct {
	codec  *Codec
	source codec.BytesSource
	sink   codec.BytesSink
	rep    codec.Representation
	opts   codec.Options
}

// PartialEncoder constructs a PartialEncoder backed by source/sink. The
// specialised (in-place-capable) implementation is gated behind
// opts.ExperimentalPartialEncoding; without it, partial encodes fall back
// to read-modify-write of the whole shard.
func (c *Codec) PartialEncoder(ctx context.Context, source codec.BytesSource, sink codec.BytesSink, rep codec.Representation, opts codec.Options) (codec.ArrayPartialEncoder, error) {
	if !opts.ExperimentalPartialEncoding {
		return &rmwPartialEncoder{codec: c, source: source, sink: sink, rep: rep, opts: opts}, nil
	}
	return &PartialEncoder{codec: c, source: source, sink: sink, rep: rep, opts: opts}, nil
}

// rmwPartialEncoder is the fallback partial encoder: decode the whole
// shard (fill value if absent), apply the updates in memory, re-encode.
// A shard left with every inner chunk absent is erased, even when
// opts.StoreEmptyChunks is set (the recorded quirk of this codec).
type rmwPartialEncoder struct {
	codec  *Codec
	source codec.BytesSource
	sink   codec.BytesSink
	rep    codec.Representation
	opts   codec.Options
}

func (e *rmwPartialEncoder) EncodeSubsets(ctx context.Context, updates []codec.SubsetBytes) error {
	raw, exists, err := e.source.Get(ctx)
	if err != nil {
		return err
	}
	var full codec.ArrayBytes
	if exists {
		full, err = e.codec.Decode(ctx, raw, e.rep, e.opts)
		if err != nil {
			return err
		}
	} else {
		full = codec.FillArrayBytes(e.rep)
	}
	for _, u := range updates {
		full, err = codec.InsertSubset(full, e.rep, u.Subset, u.Bytes)
		if err != nil {
			return err
		}
	}
	if codec.IsFillValue(full, e.rep) {
		if exists {
			return e.sink.Erase(ctx)
		}
		return nil
	}
	encoded, err := e.codec.Encode(ctx, full, e.rep, e.opts)
	if err != nil {
		return err
	}
	return e.sink.Set(ctx, encoded)
}

func (e *PartialEncoder) EncodeSubsets(ctx context.Context, updates []codec.SubsetBytes) error {
	overlaps, err := e.codec.innerOverlaps(e.rep)
	if err != nil {
		return err
	}
	chain := e.codec.indexChain()
	indexSize, err := chain.size(len(overlaps))
	if err != nil {
		return err
	}

	size, exists, err := e.source.Size(ctx)
	if err != nil {
		return err
	}

	var oldEntries []indexEntry
	if exists {
		var rng storekey.ByteRange
		if e.codec.IndexLocation == IndexAtStart {
			rng = storekey.FromStart(0, &indexSize)
		} else {
			rng = storekey.FromEnd(indexSize, nil)
		}
		chunks, _, err := e.source.GetPartial(ctx, []storekey.ByteRange{rng})
		if err != nil {
			return err
		}
		oldEntries, err = chain.decode(ctx, chunks[0], len(overlaps))
		if err != nil {
			return err
		}
	} else {
		oldEntries = make([]indexEntry, len(overlaps))
	}

	// Apply every update to an in-memory decoded copy of each touched inner
	// chunk; a chunk touched by more than one update accumulates them all
	// before the single re-encode below.
	touched := make(map[int]bool)
	current := make(map[int]codec.ArrayBytes)

	for _, u := range updates {
		for j, ov := range overlaps {
			overlap, ok := u.Subset.Overlap(ov.ChunkSubset)
			if !ok {
				continue
			}
			innerRep := e.codec.innerRepresentation(e.rep, ov.ChunkSubset)

			if !touched[j] {
				touched[j] = true
				if oldEntries[j].present {
					en := oldEntries[j]
					length := en.nbytes
					chunks, _, err := e.source.GetPartial(ctx, []storekey.ByteRange{storekey.FromStart(en.offset, &length)})
					if err != nil {
						return err
					}
					current[j], err = e.codec.InnerCodecs.Decode(ctx, chunks[0], innerRep, e.opts)
					if err != nil {
						return err
					}
				} else {
					current[j] = codec.FillArrayBytes(innerRep)
				}
			}

			localOverlap, err := overlap.Relative(ov.ChunkSubset.Start())
			if err != nil {
				return err
			}
			srcLocal, err := overlap.Relative(u.Subset.Start())
			if err != nil {
				return err
			}
			srcRep := codec.Representation{Shape: u.Subset.Shape(), DataType: e.rep.DataType, FillValue: e.rep.FillValue}
			piece, err := codec.ExtractSubset(u.Bytes, srcRep, srcLocal)
			if err != nil {
				return err
			}
			current[j], err = codec.InsertSubset(current[j], innerRep, localOverlap, piece)
			if err != nil {
				return err
			}
		}
	}

	newPayloads := make(map[int][]byte)
	for j := range touched {
		innerRep := e.codec.innerRepresentation(e.rep, overlaps[j].ChunkSubset)
		if !e.opts.StoreEmptyChunks && codec.IsFillValue(current[j], innerRep) {
			newPayloads[j] = nil
			continue
		}
		payload, err := e.codec.InnerCodecs.Encode(ctx, current[j], innerRep, e.opts)
		if err != nil {
			return err
		}
		newPayloads[j] = payload
	}

	// Decide layout: in-place overwrite is possible only if the shard
	// already existed, the index location is unchanged, and every touched
	// chunk's new payload fits within its old footprint.
	canOverwrite := exists
	for j := range touched {
		payload := newPayloads[j]
		old := oldEntries[j]
		if payload == nil {
			// Chunk becoming absent cannot be "overwritten in place": the
			// index must be rewritten to mark it missing, which this
			// implementation folds into a full rewrite for simplicity.
			canOverwrite = false
			break
		}
		if !old.present || uint64(len(payload)) > old.nbytes {
			canOverwrite = false
			break
		}
	}

	finalEntries := make([]indexEntry, len(overlaps))
	copy(finalEntries, oldEntries)
	anyPresent := false
	for j := range finalEntries {
		if p, ok := newPayloads[j]; ok {
			if p == nil {
				finalEntries[j] = indexEntry{present: false}
			} else {
				finalEntries[j] = indexEntry{offset: oldEntries[j].offset, nbytes: uint64(len(p)), present: true}
			}
		}
		if finalEntries[j].present {
			anyPresent = true
		}
	}

	if !anyPresent {
		if exists {
			return e.sink.Erase(ctx)
		}
		return nil
	}

	if canOverwrite {
		var writes []codec.PartialWrite
		for j := range touched {
			payload := newPayloads[j]
			writes = append(writes, codec.PartialWrite{Offset: finalEntries[j].offset, Data: payload})
		}
		indexBytes, err := chain.encode(ctx, finalEntries)
		if err != nil {
			return err
		}
		var indexOffset uint64
		if e.codec.IndexLocation == IndexAtEnd {
			indexOffset = size - indexSize
		}
		writes = append(writes, codec.PartialWrite{Offset: indexOffset, Data: indexBytes})
		return e.sink.SetPartial(ctx, writes)
	}

	// Full rewrite: gather every present chunk's bytes (new for touched,
	// byte-range-copied from the old shard for untouched-but-present).
	payloads := make([][]byte, len(overlaps))
	present := make([]bool, len(overlaps))
	for j := range overlaps {
		if p, ok := newPayloads[j]; ok {
			if p != nil {
				payloads[j] = p
				present[j] = true
			}
			continue
		}
		if oldEntries[j].present {
			en := oldEntries[j]
			length := en.nbytes
			chunks, _, err := e.source.GetPartial(ctx, []storekey.ByteRange{storekey.FromStart(en.offset, &length)})
			if err != nil {
				return err
			}
			payloads[j] = chunks[0]
			present[j] = true
		}
	}

	assembled, err := e.codec.assemble(ctx, payloads, present)
	if err != nil {
		return err
	}
	return e.sink.Set(ctx, assembled)
}
