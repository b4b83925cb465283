package arraysubset

// Indices enumerates every index tuple in s, in C-contiguous (last
// dimension fastest) order. It is finite, restartable, and double-ended.
type Indices struct {
	subset  Subset
	total   uint64
	forward uint64 // next forward ordinal to emit
	back    uint64 // one past the last ordinal available from the back
}

// NewIndices builds an Indices iterator over s.
func NewIndices(s Subset) *Indices {
	return &Indices{subset: s, total: s.NumElements(), back: s.NumElements()}
}

// Len returns the number of remaining index tuples.
func (it *Indices) Len() uint64 { return it.back - it.forward }

// Next returns the next index tuple in forward order, or false when
// exhausted.
func (it *Indices) Next() ([]uint64, bool) {
	if it.forward >= it.back {
		return nil, false
	}
	idx := ordinalToIndices(it.forward, it.subset)
	it.forward++
	return idx, true
}

// NextBack returns the next index tuple in reverse order, or false when
// exhausted. Supports double-ended iteration.
func (it *Indices) NextBack() ([]uint64, bool) {
	if it.forward >= it.back {
		return nil, false
	}
	it.back--
	return ordinalToIndices(it.back, it.subset), true
}

// ordinalToIndices converts a row-major ordinal within the subset into the
// absolute index tuple (in the enclosing array's coordinate space).
func ordinalToIndices(ordinal uint64, s Subset) []uint64 {
	idx := make([]uint64, len(s.shape))
	rem := ordinal
	for i := len(s.shape) - 1; i >= 0; i-- {
		d := s.shape[i]
		if d == 0 {
			idx[i] = s.start[i]
			continue
		}
		idx[i] = s.start[i] + rem%d
		rem /= d
	}
	return idx
}

// Range is a half-open ordinal range [Start, End) into a subset's
// row-major enumeration, the unit the parallel iterator forms split over.
type Range struct {
	Start, End uint64
}

// Split partitions [0, NumElements) into n nearly-equal, contiguous ordinal
// ranges, computed arithmetically rather than by materialising indices.
// Collecting Indices built from each range in order and concatenating
// reproduces the serial Indices order exactly.
func Split(s Subset, n int) []Range {
	total := s.NumElements()
	if n < 1 {
		n = 1
	}
	if uint64(n) > total {
		n = int(total)
		if n == 0 {
			n = 1
		}
	}
	ranges := make([]Range, 0, n)
	base := total / uint64(n)
	extra := total % uint64(n)
	var cursor uint64
	for i := 0; i < n; i++ {
		size := base
		if uint64(i) < extra {
			size++
		}
		ranges = append(ranges, Range{Start: cursor, End: cursor + size})
		cursor += size
	}
	return ranges
}

// IndicesInRange returns the index tuples for ordinals [r.Start, r.End) of
// s, the worker-local equivalent of iterating a full Indices and slicing.
func IndicesInRange(s Subset, r Range) [][]uint64 {
	out := make([][]uint64, 0, r.End-r.Start)
	for o := r.Start; o < r.End; o++ {
		out = append(out, ordinalToIndices(o, s))
	}
	return out
}
