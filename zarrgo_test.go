package zarrgo_test

import (
	"context"
	"encoding/json/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrgo"
	"github.com/tuskan/zarrgo/metadata"
	"github.com/tuskan/zarrgo/store"
)

func TestGroupHierarchy(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemory()

	root, err := zarrgo.CreateGroup(ctx, backend, "", nil)
	require.NoError(t, err)

	_, err = root.CreateGroup(ctx, backend, "sub", nil)
	require.NoError(t, err)

	chunkCfg, err := json.Marshal(map[string]any{"chunk_shape": []uint64{2, 2}})
	require.NoError(t, err)
	fillRaw, err := json.Marshal(0.0)
	require.NoError(t, err)
	meta := &metadata.ArrayMetadata{
		Shape:            []uint64{4, 4},
		DataType:         metadata.Extension{Name: "float32", MustUnderstand: true},
		ChunkGrid:        metadata.Extension{Name: "regular", Configuration: chunkCfg, MustUnderstand: true},
		ChunkKeyEncoding: metadata.Extension{Name: "default"},
		FillValue:        fillRaw,
		Codecs:           []metadata.Extension{{Name: "bytes"}},
	}
	_, err = root.CreateArray(ctx, backend, "data", meta)
	require.NoError(t, err)

	children, err := root.Children(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"data", "sub"}, children)

	sub, err := root.OpenGroup(ctx, "sub")
	require.NoError(t, err)
	require.Equal(t, "sub", sub.Path())

	arr, err := root.OpenArray(ctx, "data")
	require.NoError(t, err)
	require.Equal(t, []uint64{4, 4}, arr.Shape())

	opened, err := zarrgo.Open(ctx, backend, "data")
	require.NoError(t, err)
	require.Equal(t, arr.Shape(), opened.Shape())
}
