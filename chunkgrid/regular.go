package chunkgrid

import "github.com/tuskan/zarrgo/arraysubset"

// Regular is a chunk grid with a fixed chunk shape per axis. Chunk c
// covers [c*s, min((c+1)*s, arrayShape)) in each dimension; the last chunk
// along an axis may be truncated.
type Regular struct {
	ChunkShapeValue []uint64
}

var _ Grid = Regular{}

func (g Regular) Dimensionality() int { return len(g.ChunkShapeValue) }

func (g Regular) GridShape(arrayShape []uint64) []uint64 {
	out := make([]uint64, len(arrayShape))
	for i := range arrayShape {
		out[i] = ceilDiv(arrayShape[i], g.ChunkShapeValue[i])
	}
	return out
}

func (g Regular) ChunkShape(chunkIndices []uint64, arrayShape []uint64) ([]uint64, bool) {
	grid := g.GridShape(arrayShape)
	shape := make([]uint64, len(chunkIndices))
	for i, c := range chunkIndices {
		if i >= len(grid) || c >= grid[i] {
			return nil, false
		}
		start := c * g.ChunkShapeValue[i]
		end := start + g.ChunkShapeValue[i]
		if end > arrayShape[i] {
			end = arrayShape[i]
		}
		shape[i] = end - start
	}
	return shape, true
}

func (g Regular) Subset(chunkIndices []uint64, arrayShape []uint64) (arraysubset.Subset, bool) {
	shape, ok := g.ChunkShape(chunkIndices, arrayShape)
	if !ok {
		return arraysubset.Subset{}, false
	}
	start := make([]uint64, len(chunkIndices))
	for i, c := range chunkIndices {
		start[i] = c * g.ChunkShapeValue[i]
	}
	s, err := arraysubset.New(start, shape)
	if err != nil {
		return arraysubset.Subset{}, false
	}
	return s, true
}

func (g Regular) ChunksInArraySubset(subset arraysubset.Subset, arrayShape []uint64) (arraysubset.Subset, bool) {
	if subset.Empty() {
		return arraysubset.Subset{}, false
	}
	n := subset.Dimensionality()
	start := make([]uint64, n)
	shape := make([]uint64, n)
	end := subset.EndExclusive()
	subStart := subset.Start()
	for i := 0; i < n; i++ {
		minChunk := subStart[i] / g.ChunkShapeValue[i]
		var maxChunk uint64
		if end[i] == 0 {
			maxChunk = minChunk
		} else {
			maxChunk = (end[i] - 1) / g.ChunkShapeValue[i]
		}
		start[i] = minChunk
		shape[i] = maxChunk - minChunk + 1
	}
	s, err := arraysubset.New(start, shape)
	if err != nil {
		return arraysubset.Subset{}, false
	}
	return s, true
}
