package arraysubset

// ContiguousRun describes a maximal run of elements contiguous in the
// enclosing array's row-major layout: RunLength elements starting at Start
// (an index tuple in array coordinates).
type ContiguousRun struct {
	Start     []uint64
	RunLength uint64
}

// ContiguousLinearisedRun is a ContiguousRun with Start linearised to a
// scalar offset into the enclosing array.
type ContiguousLinearisedRun struct {
	StartOffset uint64
	RunLength   uint64
}

// ContiguousIndices yields the maximal contiguous runs of s within an
// enclosing array of shape arrayShape. The run length is the product of
// the trailing dimensions s fully spans and of s's extent along the
// innermost axis it does not fully span; if s covers the whole array, a
// single run is yielded.
func ContiguousIndices(s Subset, arrayShape []uint64) ([]ContiguousRun, error) {
	if err := s.FitsIn(arrayShape); err != nil {
		return nil, err
	}
	if s.Empty() {
		return nil, nil
	}
	n := len(s.shape)

	// Find the longest suffix of axes where s spans the full array extent;
	// those axes (plus the innermost non-full axis) collapse into one run.
	contiguousFrom := n
	for i := n - 1; i >= 0; i-- {
		if s.shape[i] != arrayShape[i] {
			contiguousFrom = i
			break
		}
		contiguousFrom = i
	}

	runLength := uint64(1)
	for i := contiguousFrom; i < n; i++ {
		runLength *= s.shape[i]
	}

	outerShape := append([]uint64(nil), s.shape[:contiguousFrom]...)
	outerStart := append([]uint64(nil), s.start[:contiguousFrom]...)
	outerSubset, err := New(outerStart, outerShape)
	if err != nil {
		return nil, err
	}

	var runs []ContiguousRun
	it := NewIndices(outerSubset)
	for {
		idx, ok := it.Next()
		if !ok {
			break
		}
		full := append(idx, s.start[contiguousFrom:]...)
		runs = append(runs, ContiguousRun{Start: full, RunLength: runLength})
	}
	if len(runs) == 0 {
		// 0 outer dims: the whole subset is one run.
		runs = append(runs, ContiguousRun{Start: s.Start(), RunLength: runLength})
	}
	return runs, nil
}

// ContiguousLinearisedIndices is ContiguousIndices with each run's start
// linearised to a scalar offset into the enclosing array.
func ContiguousLinearisedIndices(s Subset, arrayShape []uint64) ([]ContiguousLinearisedRun, error) {
	runs, err := ContiguousIndices(s, arrayShape)
	if err != nil {
		return nil, err
	}
	strides := Strides(arrayShape)
	out := make([]ContiguousLinearisedRun, len(runs))
	for i, r := range runs {
		var offset uint64
		for d := range r.Start {
			offset += r.Start[d] * strides[d]
		}
		out[i] = ContiguousLinearisedRun{StartOffset: offset, RunLength: r.RunLength}
	}
	return out, nil
}
