package arraysubset_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrgo/arraysubset"
)

func TestSubsetBasics(t *testing.T) {
	s, err := arraysubset.New([]uint64{1, 2}, []uint64{3, 4})
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2}, s.Start())
	require.Equal(t, []uint64{3, 4}, s.Shape())
	require.Equal(t, []uint64{4, 6}, s.EndExclusive())
	require.Equal(t, uint64(12), s.NumElements())

	_, err = arraysubset.New([]uint64{1}, []uint64{3, 4})
	require.ErrorIs(t, err, arraysubset.ErrIncompatibleDimensionality)

	require.NoError(t, s.FitsIn([]uint64{4, 6}))
	require.Error(t, s.FitsIn([]uint64{4, 5}))
}

func TestIndicesOrderAndDoubleEnded(t *testing.T) {
	s, _ := arraysubset.New([]uint64{0, 0}, []uint64{2, 3})
	it := arraysubset.NewIndices(s)
	var got [][]uint64
	for {
		idx, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, idx)
	}
	want := [][]uint64{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}
	require.Equal(t, want, got)

	it2 := arraysubset.NewIndices(s)
	last, ok := it2.NextBack()
	require.True(t, ok)
	require.Equal(t, []uint64{1, 2}, last)
}

func TestSplitMatchesSerialOrder(t *testing.T) {
	s, _ := arraysubset.New([]uint64{0, 0}, []uint64{3, 5})
	serial := arraysubset.NewIndices(s)
	var want [][]uint64
	for {
		idx, ok := serial.Next()
		if !ok {
			break
		}
		want = append(want, idx)
	}

	ranges := arraysubset.Split(s, 4)
	var got [][]uint64
	for _, r := range ranges {
		got = append(got, arraysubset.IndicesInRange(s, r)...)
	}
	require.Equal(t, want, got)
}

func TestContiguousIndicesWholeArray(t *testing.T) {
	arrayShape := []uint64{4, 4}
	s := arraysubset.Full(arrayShape)
	runs, err := arraysubset.ContiguousIndices(s, arrayShape)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, uint64(16), runs[0].RunLength)
}

func TestContiguousIndicesPartialRows(t *testing.T) {
	arrayShape := []uint64{4, 4}
	s, _ := arraysubset.New([]uint64{1, 0}, []uint64{2, 4})
	runs, err := arraysubset.ContiguousIndices(s, arrayShape)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, uint64(8), runs[0].RunLength)

	s2, _ := arraysubset.New([]uint64{0, 1}, []uint64{2, 2})
	runs2, err := arraysubset.ContiguousIndices(s2, arrayShape)
	require.NoError(t, err)
	require.Len(t, runs2, 2)
	require.Equal(t, uint64(2), runs2[0].RunLength)
}

func TestChunksOverlap(t *testing.T) {
	arrayShape := []uint64{8, 8}
	chunkShape := []uint64{4, 4}
	s, _ := arraysubset.New([]uint64{3, 3}, []uint64{3, 3})
	overlaps, err := arraysubset.Chunks(s, arrayShape, chunkShape)
	require.NoError(t, err)
	require.Len(t, overlaps, 4)
	for _, o := range overlaps {
		require.Len(t, o.ChunkIndices, 2)
	}
}
