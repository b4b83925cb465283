package chunkgrid_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrgo/arraysubset"
	"github.com/tuskan/zarrgo/chunkgrid"
)

func TestRegularGridTruncatesLastChunk(t *testing.T) {
	g := chunkgrid.Regular{ChunkShapeValue: []uint64{3}}
	arrayShape := []uint64{8}

	require.Equal(t, []uint64{3}, g.GridShape(arrayShape))

	shape, ok := g.ChunkShape([]uint64{2}, arrayShape)
	require.True(t, ok)
	require.Equal(t, []uint64{2}, shape)

	_, ok = g.ChunkShape([]uint64{3}, arrayShape)
	require.False(t, ok)
}

func TestRegularGridSubsetAndChunksInSubset(t *testing.T) {
	g := chunkgrid.Regular{ChunkShapeValue: []uint64{4, 4}}
	arrayShape := []uint64{8, 8}

	s, ok := g.Subset([]uint64{1, 0}, arrayShape)
	require.True(t, ok)
	require.Equal(t, []uint64{4, 0}, s.Start())
	require.Equal(t, []uint64{4, 4}, s.Shape())

	query, _ := arraysubset.New([]uint64{3, 3}, []uint64{3, 3})
	chunks, ok := g.ChunksInArraySubset(query, arrayShape)
	require.True(t, ok)
	require.Equal(t, []uint64{0, 0}, chunks.Start())
	require.Equal(t, []uint64{2, 2}, chunks.Shape())
}

func TestRectangularGrid(t *testing.T) {
	g := chunkgrid.NewRectangular([][]uint64{{3, 2, 3}, {4, 4}})
	arrayShape := []uint64{8, 8}

	require.Equal(t, []uint64{3, 2}, g.GridShape(arrayShape))

	shape, ok := g.ChunkShape([]uint64{1, 0}, arrayShape)
	require.True(t, ok)
	require.Equal(t, []uint64{2, 4}, shape)

	s, ok := g.Subset([]uint64{2, 1}, arrayShape)
	require.True(t, ok)
	require.Equal(t, []uint64{5, 4}, s.Start())
	require.Equal(t, []uint64{3, 4}, s.Shape())

	query, _ := arraysubset.New([]uint64{2, 0}, []uint64{4, 8})
	chunks, ok := g.ChunksInArraySubset(query, arrayShape)
	require.True(t, ok)
	require.Equal(t, []uint64{0, 0}, chunks.Start())
	require.Equal(t, []uint64{3, 2}, chunks.Shape())
}
