package codec

import (
	"fmt"

	"github.com/tuskan/zarrgo/arraysubset"
)

// IsFillValue reports whether data is entirely equal to rep's fill value,
// the test empty-chunk elision applies before writing a chunk or inner
// chunk.
func IsFillValue(data ArrayBytes, rep Representation) bool {
	fill := FillArrayBytes(rep)
	if data.IsVariable() != fill.IsVariable() {
		return false
	}
	if data.IsVariable() {
		return string(data.Payload()) == string(fill.Payload())
	}
	return string(data.FixedBytes()) == string(fill.FixedBytes())
}

// ExtractSubset pulls the elements of subset (in full's own coordinate
// space, described by rep.Shape) out of full, returning a standalone
// ArrayBytes. Uses the contiguous-runs iterator so runs of elements that
// are contiguous in full's row-major layout are copied with one slice
// operation each.
func ExtractSubset(full ArrayBytes, rep Representation, subset arraysubset.Subset) (ArrayBytes, error) {
	runs, err := arraysubset.ContiguousLinearisedIndices(subset, rep.Shape)
	if err != nil {
		return ArrayBytes{}, err
	}

	if rep.DataType.Variable() {
		if !full.IsVariable() {
			return ArrayBytes{}, fmt.Errorf("%w: representation is variable but buffer is fixed", ErrUnexpectedSize)
		}
		var payload []byte
		offsets := []uint64{0}
		offs := full.Offsets()
		src := full.Payload()
		for _, r := range runs {
			for i := uint64(0); i < r.RunLength; i++ {
				elemIdx := r.StartOffset + i
				payload = append(payload, src[offs[elemIdx]:offs[elemIdx+1]]...)
				offsets = append(offsets, uint64(len(payload)))
			}
		}
		return Variable(payload, offsets), nil
	}

	size, _ := rep.DataType.Size()
	out := make([]byte, subset.NumElements()*uint64(size))
	var cursor uint64
	src := full.FixedBytes()
	for _, r := range runs {
		n := r.RunLength * uint64(size)
		start := r.StartOffset * uint64(size)
		copy(out[cursor:cursor+n], src[start:start+n])
		cursor += n
	}
	return Fixed(out), nil
}

// InsertSubset writes src (whose shape is subset.Shape()) into a copy of
// dst (whose shape is rep.Shape) at subset's position and returns that
// copy; dst itself is left unchanged. For variable dtypes the returned
// buffer is rebuilt, since element lengths may differ.
func InsertSubset(dst ArrayBytes, rep Representation, subset arraysubset.Subset, src ArrayBytes) (ArrayBytes, error) {
	runs, err := arraysubset.ContiguousLinearisedIndices(subset, rep.Shape)
	if err != nil {
		return ArrayBytes{}, err
	}

	if rep.DataType.Variable() {
		if !dst.IsVariable() || !src.IsVariable() {
			return ArrayBytes{}, fmt.Errorf("%w: variable insert requires variable buffers", ErrUnexpectedSize)
		}
		n := rep.NumElements()
		elems := make([][]byte, n)
		dstOffs := dst.Offsets()
		dstPayload := dst.Payload()
		for i := uint64(0); i < n; i++ {
			elems[i] = dstPayload[dstOffs[i]:dstOffs[i+1]]
		}
		srcOffs := src.Offsets()
		srcPayload := src.Payload()
		var srcCursor uint64
		for _, r := range runs {
			for i := uint64(0); i < r.RunLength; i++ {
				elems[r.StartOffset+i] = srcPayload[srcOffs[srcCursor]:srcOffs[srcCursor+1]]
				srcCursor++
			}
		}
		var payload []byte
		offsets := make([]uint64, n+1)
		for i, e := range elems {
			payload = append(payload, e...)
			offsets[i+1] = uint64(len(payload))
		}
		return Variable(payload, offsets), nil
	}

	size, _ := rep.DataType.Size()
	out := append([]byte(nil), dst.FixedBytes()...)
	srcBytes := src.FixedBytes()
	var cursor uint64
	for _, r := range runs {
		n := r.RunLength * uint64(size)
		start := r.StartOffset * uint64(size)
		copy(out[start:start+n], srcBytes[cursor:cursor+n])
		cursor += n
	}
	return Fixed(out), nil
}
