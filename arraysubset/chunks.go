package arraysubset

// ChunkOverlap pairs a regular chunk grid cell's indices with the subset
// (in array coordinates) it occupies.
type ChunkOverlap struct {
	ChunkIndices []uint64
	ChunkSubset  Subset
}

// Chunks enumerates every cell of a regular chunk grid (chunkShape) that s
// overlaps, within an array of shape arrayShape. Each yielded ChunkSubset is
// already clipped to arrayShape (the last chunk along an axis may be
// truncated).
func Chunks(s Subset, arrayShape, chunkShape []uint64) ([]ChunkOverlap, error) {
	if err := s.FitsIn(arrayShape); err != nil {
		return nil, err
	}
	if len(chunkShape) != len(arrayShape) {
		return nil, ErrIncompatibleDimensionality
	}
	if s.Empty() {
		return nil, nil
	}

	n := len(arrayShape)
	minChunk := make([]uint64, n)
	maxChunk := make([]uint64, n) // inclusive
	end := s.EndExclusive()
	for i := 0; i < n; i++ {
		minChunk[i] = s.start[i] / chunkShape[i]
		if end[i] == 0 {
			maxChunk[i] = minChunk[i]
		} else {
			maxChunk[i] = (end[i] - 1) / chunkShape[i]
		}
	}

	gridShape := make([]uint64, n)
	for i := 0; i < n; i++ {
		gridShape[i] = maxChunk[i] - minChunk[i] + 1
	}
	gridSubset, err := New(minChunk, gridShape)
	if err != nil {
		return nil, err
	}

	var out []ChunkOverlap
	it := NewIndices(gridSubset)
	for {
		chunkIdx, ok := it.Next()
		if !ok {
			break
		}
		start := make([]uint64, n)
		shape := make([]uint64, n)
		for i := 0; i < n; i++ {
			cs := chunkIdx[i] * chunkShape[i]
			ce := cs + chunkShape[i]
			if ce > arrayShape[i] {
				ce = arrayShape[i]
			}
			start[i] = cs
			shape[i] = ce - cs
		}
		chunkSubset, err := New(start, shape)
		if err != nil {
			return nil, err
		}
		out = append(out, ChunkOverlap{ChunkIndices: chunkIdx, ChunkSubset: chunkSubset})
	}
	return out, nil
}
