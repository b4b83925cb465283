// Package chunkgrid maps array indices to chunk indices and back: the
// partitioning of an array's index space into chunks.
package chunkgrid

import "github.com/tuskan/zarrgo/arraysubset"

// Grid maps integer chunk indices to the subset of the array they cover.
type Grid interface {
	// ChunkShape returns the (possibly truncated) shape of the chunk at
	// chunkIndices, or ok=false if the indices are out of the grid.
	ChunkShape(chunkIndices []uint64, arrayShape []uint64) (shape []uint64, ok bool)

	// Subset returns the subset of the array (in array coordinates)
	// covered by the chunk at chunkIndices, or ok=false if out of grid.
	Subset(chunkIndices []uint64, arrayShape []uint64) (arraysubset.Subset, bool)

	// ChunksInArraySubset returns the bounding box, in chunk-index space,
	// of every chunk subset overlaps, or ok=false if subset is empty.
	ChunksInArraySubset(subset arraysubset.Subset, arrayShape []uint64) (arraysubset.Subset, bool)

	// GridShape returns the number of chunks along each axis for an array
	// of the given shape.
	GridShape(arrayShape []uint64) []uint64

	// Dimensionality returns the number of axes this grid operates over.
	Dimensionality() int
}

func ceilDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
