package chunkgrid

import "github.com/tuskan/zarrgo/arraysubset"

// Rectangular is a chunk grid where each axis has an explicit sequence of
// chunk sizes; the sizes along axis i must sum to arrayShape[i]. Built from
// per-axis prefix-sum tables so chunk lookups are O(log chunks-per-axis)
// would be possible, but a linear scan is used here since axis chunk
// counts are typically small.
type Rectangular struct {
	// AxisChunkSizes[i] is the ordered sequence of chunk sizes along axis i.
	AxisChunkSizes [][]uint64

	prefix [][]uint64 // prefix[i][k] = sum of AxisChunkSizes[i][:k]
}

var _ Grid = (*Rectangular)(nil)

// NewRectangular builds a Rectangular grid, precomputing prefix sums.
func NewRectangular(axisChunkSizes [][]uint64) *Rectangular {
	prefix := make([][]uint64, len(axisChunkSizes))
	for i, sizes := range axisChunkSizes {
		p := make([]uint64, len(sizes)+1)
		for k, s := range sizes {
			p[k+1] = p[k] + s
		}
		prefix[i] = p
	}
	return &Rectangular{AxisChunkSizes: axisChunkSizes, prefix: prefix}
}

func (g *Rectangular) Dimensionality() int { return len(g.AxisChunkSizes) }

func (g *Rectangular) GridShape(arrayShape []uint64) []uint64 {
	out := make([]uint64, len(g.AxisChunkSizes))
	for i := range g.AxisChunkSizes {
		out[i] = uint64(len(g.AxisChunkSizes[i]))
	}
	return out
}

func (g *Rectangular) ChunkShape(chunkIndices []uint64, arrayShape []uint64) ([]uint64, bool) {
	shape := make([]uint64, len(chunkIndices))
	for i, c := range chunkIndices {
		if i >= len(g.AxisChunkSizes) || c >= uint64(len(g.AxisChunkSizes[i])) {
			return nil, false
		}
		shape[i] = g.AxisChunkSizes[i][c]
	}
	return shape, true
}

func (g *Rectangular) Subset(chunkIndices []uint64, arrayShape []uint64) (arraysubset.Subset, bool) {
	shape, ok := g.ChunkShape(chunkIndices, arrayShape)
	if !ok {
		return arraysubset.Subset{}, false
	}
	start := make([]uint64, len(chunkIndices))
	for i, c := range chunkIndices {
		start[i] = g.prefix[i][c]
	}
	s, err := arraysubset.New(start, shape)
	if err != nil {
		return arraysubset.Subset{}, false
	}
	return s, true
}

// chunkIndexForOffset returns the chunk index along an axis whose span
// contains offset, via linear scan of that axis's prefix-sum table.
func chunkIndexForOffset(prefix []uint64, offset uint64) uint64 {
	for k := 0; k < len(prefix)-1; k++ {
		if offset >= prefix[k] && offset < prefix[k+1] {
			return uint64(k)
		}
	}
	return uint64(len(prefix) - 2)
}

func (g *Rectangular) ChunksInArraySubset(subset arraysubset.Subset, arrayShape []uint64) (arraysubset.Subset, bool) {
	if subset.Empty() {
		return arraysubset.Subset{}, false
	}
	n := subset.Dimensionality()
	start := make([]uint64, n)
	shape := make([]uint64, n)
	end := subset.EndExclusive()
	subStart := subset.Start()
	for i := 0; i < n; i++ {
		minChunk := chunkIndexForOffset(g.prefix[i], subStart[i])
		maxChunk := chunkIndexForOffset(g.prefix[i], end[i]-1)
		start[i] = minChunk
		shape[i] = maxChunk - minChunk + 1
	}
	s, err := arraysubset.New(start, shape)
	if err != nil {
		return arraysubset.Subset{}, false
	}
	return s, true
}
