package array

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/tuskan/zarrgo/arraysubset"
	"github.com/tuskan/zarrgo/codec"
	"github.com/tuskan/zarrgo/store"
)

// chunkConcurrency splits opts' concurrency target between chunk-level
// fan-out and per-chunk codec concurrency: the budget prefers saturating
// the codec chain's "efficient" level before handing out more than one
// in-flight chunk per unit of that level.
func (a *Array) chunkConcurrency(opts codec.Options, rep codec.Representation) int {
	target := opts.ConcurrentTarget
	if target < 1 {
		target = 1
	}
	efficient, _ := a.pipeline.RecommendedConcurrency(rep)
	if efficient < 1 {
		efficient = 1
	}
	chunks := target / efficient
	if chunks < 1 {
		chunks = 1
	}
	return chunks
}

func subsetEqual(a, b arraysubset.Subset) bool {
	as, bs := a.Start(), b.Start()
	ash, bsh := a.Shape(), b.Shape()
	if len(as) != len(bs) || len(ash) != len(bsh) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] || ash[i] != bsh[i] {
			return false
		}
	}
	return true
}

// chunkOverlaps enumerates every cell of a's chunk grid that subset
// overlaps, using a.grid rather than arraysubset.Chunks so that rectangular
// (and any future extension) chunk grids work identically to regular ones.
func (a *Array) chunkOverlaps(subset arraysubset.Subset) ([]arraysubset.ChunkOverlap, error) {
	if subset.Empty() {
		return nil, nil
	}
	chunkBox, ok := a.grid.ChunksInArraySubset(subset, a.meta.Shape)
	if !ok {
		return nil, fmt.Errorf("array: subset out of array bounds")
	}
	it := arraysubset.NewIndices(chunkBox)
	var out []arraysubset.ChunkOverlap
	for {
		idx, ok := it.Next()
		if !ok {
			break
		}
		chunkSubset, ok := a.grid.Subset(idx, a.meta.Shape)
		if !ok {
			return nil, fmt.Errorf("array: chunk indices %v out of grid", idx)
		}
		out = append(out, arraysubset.ChunkOverlap{ChunkIndices: idx, ChunkSubset: chunkSubset})
	}
	return out, nil
}

// chunksToArraySubset converts a chunk-index-space subset into the array
// subset its chunks cover. Relies on the grid's chunk-to-array mapping
// being monotonic along each axis (true of both Regular and Rectangular).
func (a *Array) chunksToArraySubset(chunkSubset arraysubset.Subset) (arraysubset.Subset, error) {
	if chunkSubset.Empty() {
		return arraysubset.Subset{}, fmt.Errorf("array: empty chunk-index subset")
	}
	startArray, ok := a.grid.Subset(chunkSubset.Start(), a.meta.Shape)
	if !ok {
		return arraysubset.Subset{}, fmt.Errorf("array: chunk indices %v out of grid", chunkSubset.Start())
	}
	endArray, ok := a.grid.Subset(chunkSubset.End(), a.meta.Shape)
	if !ok {
		return arraysubset.Subset{}, fmt.Errorf("array: chunk indices %v out of grid", chunkSubset.End())
	}
	return arraysubset.NewFromEnd(startArray.Start(), endArray.EndExclusive())
}

// backingFor returns the codec.BytesSource/BytesSink pair for one chunk.
// writer is nil when the backend does not support writes; call sites that
// only read tolerate that.
func (a *Array) backingFor(indices []uint64) *chunkBacking {
	w, _ := a.backend.(store.Writable)
	return &chunkBacking{reader: a.backend, writer: w, key: a.chunkKey(indices)}
}

// RetrieveChunk decodes and returns the full contents of the chunk at
// chunkIndices. A chunk absent from the store decodes as entirely fill
// value, never an error.
func (a *Array) RetrieveChunk(ctx context.Context, chunkIndices []uint64, opts codec.Options) (codec.ArrayBytes, error) {
	rep, ok := a.chunkRepresentation(chunkIndices)
	if !ok {
		return codec.ArrayBytes{}, fmt.Errorf("array: chunk indices %v out of grid", chunkIndices)
	}
	raw, exists, err := a.backend.Get(ctx, a.chunkKey(chunkIndices))
	if err != nil {
		return codec.ArrayBytes{}, err
	}
	if !exists {
		return codec.FillArrayBytes(rep), nil
	}
	return a.pipeline.Decode(ctx, raw, rep, opts)
}

// RetrieveChunks decodes the union of every chunk within chunkIndexSubset
// (a subset in chunk-index space) and returns it as one buffer, along with
// the array shape that buffer covers.
func (a *Array) RetrieveChunks(ctx context.Context, chunkIndexSubset arraysubset.Subset, opts codec.Options) (codec.ArrayBytes, []uint64, error) {
	subset, err := a.chunksToArraySubset(chunkIndexSubset)
	if err != nil {
		return codec.ArrayBytes{}, nil, err
	}
	data, err := a.RetrieveArraySubset(ctx, subset, opts)
	return data, subset.Shape(), err
}

// RetrieveArraySubset decodes exactly the requested subset of the array,
// fanning out one task per overlapping chunk up to opts' concurrency
// budget.
func (a *Array) RetrieveArraySubset(ctx context.Context, subset arraysubset.Subset, opts codec.Options) (codec.ArrayBytes, error) {
	if err := subset.FitsIn(a.meta.Shape); err != nil {
		return codec.ArrayBytes{}, err
	}
	rep := codec.Representation{Shape: subset.Shape(), DataType: a.dtype, FillValue: a.fillValue}
	if subset.Empty() {
		return codec.FillArrayBytes(rep), nil
	}

	overlaps, err := a.chunkOverlaps(subset)
	if err != nil {
		return codec.ArrayBytes{}, err
	}

	if len(overlaps) == 1 && subsetEqual(overlaps[0].ChunkSubset, subset) {
		return a.RetrieveChunk(ctx, overlaps[0].ChunkIndices, opts)
	}

	out := codec.FillArrayBytes(rep)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(a.chunkConcurrency(opts, rep)))
	for _, ov := range overlaps {
		ov := ov
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			overlap, ok := subset.Overlap(ov.ChunkSubset)
			if !ok {
				return nil
			}
			localToChunk, err := overlap.Relative(ov.ChunkSubset.Start())
			if err != nil {
				return err
			}
			localToSubset, err := overlap.Relative(subset.Start())
			if err != nil {
				return err
			}

			chunkRep, ok := a.chunkRepresentation(ov.ChunkIndices)
			if !ok {
				return fmt.Errorf("array: chunk indices %v out of grid", ov.ChunkIndices)
			}
			pd, err := a.pipeline.PartialDecoder(gctx, a.backingFor(ov.ChunkIndices), chunkRep, opts)
			if err != nil {
				return err
			}
			decoded, err := pd.DecodeSubsets(gctx, []arraysubset.Subset{localToChunk})
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			out, err = codec.InsertSubset(out, rep, localToSubset, decoded[0])
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return codec.ArrayBytes{}, err
	}
	return out, nil
}

// elideIfEmpty implements fill-value elision: after a partial encode, if
// the chunk's full contents now equal the fill value and
// opts.StoreEmptyChunks is false, erase the chunk key instead of leaving
// it written.
func (a *Array) elideIfEmpty(ctx context.Context, chunkIndices []uint64, rep codec.Representation, opts codec.Options) error {
	if opts.StoreEmptyChunks {
		return nil
	}
	raw, exists, err := a.backend.Get(ctx, a.chunkKey(chunkIndices))
	if err != nil || !exists {
		return err
	}
	decoded, err := a.pipeline.Decode(ctx, raw, rep, opts)
	if err != nil {
		return err
	}
	if !codec.IsFillValue(decoded, rep) {
		return nil
	}
	w, err := a.writable()
	if err != nil {
		return err
	}
	return w.Erase(ctx, a.chunkKey(chunkIndices))
}

// StoreChunk encodes data and writes it as the full contents of the chunk
// at chunkIndices. If data equals the fill value and
// opts.StoreEmptyChunks is false, the chunk key is erased instead.
func (a *Array) StoreChunk(ctx context.Context, chunkIndices []uint64, data codec.ArrayBytes, opts codec.Options) error {
	rep, ok := a.chunkRepresentation(chunkIndices)
	if !ok {
		return fmt.Errorf("array: chunk indices %v out of grid", chunkIndices)
	}
	if err := data.Validate(rep); err != nil {
		return err
	}
	w, err := a.writable()
	if err != nil {
		return err
	}
	key := a.chunkKey(chunkIndices)
	if !opts.StoreEmptyChunks && codec.IsFillValue(data, rep) {
		return w.Erase(ctx, key)
	}
	encoded, err := a.pipeline.Encode(ctx, data, rep, opts)
	if err != nil {
		return err
	}
	return w.Set(ctx, key, encoded)
}

// StoreChunks writes data as the contents of the rectangular group of
// chunks within chunkIndexSubset (chunk-index space); data's shape must
// equal the array shape those chunks cover.
func (a *Array) StoreChunks(ctx context.Context, chunkIndexSubset arraysubset.Subset, data codec.ArrayBytes, opts codec.Options) error {
	subset, err := a.chunksToArraySubset(chunkIndexSubset)
	if err != nil {
		return err
	}
	return a.StoreArraySubset(ctx, subset, data, opts)
}

// StoreChunkSubset writes data into the region subsetInChunk (in the
// chunk's own local coordinates) of the chunk at chunkIndices, leaving the
// rest of the chunk unchanged (or fill value, if it did not previously
// exist).
func (a *Array) StoreChunkSubset(ctx context.Context, chunkIndices []uint64, subsetInChunk arraysubset.Subset, data codec.ArrayBytes, opts codec.Options) error {
	rep, ok := a.chunkRepresentation(chunkIndices)
	if !ok {
		return fmt.Errorf("array: chunk indices %v out of grid", chunkIndices)
	}
	if err := subsetInChunk.FitsIn(rep.Shape); err != nil {
		return err
	}

	if subsetEqual(subsetInChunk, arraysubset.Full(rep.Shape)) {
		return a.StoreChunk(ctx, chunkIndices, data, opts)
	}

	if _, err := a.writable(); err != nil {
		return err
	}
	backing := a.backingFor(chunkIndices)
	enc, err := a.pipeline.PartialEncoder(ctx, backing, backing, rep, opts)
	if err != nil {
		return err
	}
	if err := enc.EncodeSubsets(ctx, []codec.SubsetBytes{{Subset: subsetInChunk, Bytes: data}}); err != nil {
		return err
	}
	return a.elideIfEmpty(ctx, chunkIndices, rep, opts)
}

// StoreArraySubset writes data into exactly the requested subset of the
// array, leaving every other element of every overlapping chunk unchanged:
// a direct encode for chunks the subset fully covers, a partial encode
// otherwise.
func (a *Array) StoreArraySubset(ctx context.Context, subset arraysubset.Subset, data codec.ArrayBytes, opts codec.Options) error {
	if err := subset.FitsIn(a.meta.Shape); err != nil {
		return err
	}
	rep := codec.Representation{Shape: subset.Shape(), DataType: a.dtype, FillValue: a.fillValue}
	if err := data.Validate(rep); err != nil {
		return err
	}
	if subset.Empty() {
		return nil
	}

	overlaps, err := a.chunkOverlaps(subset)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(a.chunkConcurrency(opts, rep)))
	for _, ov := range overlaps {
		ov := ov
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			overlap, ok := subset.Overlap(ov.ChunkSubset)
			if !ok {
				return nil
			}
			localToChunk, err := overlap.Relative(ov.ChunkSubset.Start())
			if err != nil {
				return err
			}
			localToSubset, err := overlap.Relative(subset.Start())
			if err != nil {
				return err
			}
			chunkData, err := codec.ExtractSubset(data, rep, localToSubset)
			if err != nil {
				return err
			}

			if subsetEqual(localToChunk, arraysubset.Full(ov.ChunkSubset.Shape())) {
				return a.StoreChunk(gctx, ov.ChunkIndices, chunkData, opts)
			}
			return a.StoreChunkSubset(gctx, ov.ChunkIndices, localToChunk, chunkData, opts)
		})
	}
	return g.Wait()
}

// EraseChunk deletes the chunk key at chunkIndices, returning it to the
// absent (fill value) state. Erasing an already-absent chunk succeeds.
func (a *Array) EraseChunk(ctx context.Context, chunkIndices []uint64) error {
	w, err := a.writable()
	if err != nil {
		return err
	}
	return w.Erase(ctx, a.chunkKey(chunkIndices))
}
