package array_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrgo/array"
	"github.com/tuskan/zarrgo/arraysubset"
	_ "github.com/tuskan/zarrgo/codec/sharding"
	"github.com/tuskan/zarrgo/metadata"
	"github.com/tuskan/zarrgo/store"
	"github.com/tuskan/zarrgo/storekey"
)

// memoryHTTPHandler serves the contents of a store.Memory over HTTP,
// supporting Range requests via http.ServeContent — the byte-range
// contract store.HTTPStore's GetPartial relies on.
func memoryHTTPHandler(mem *store.Memory) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(r.URL.Path, "/")
		k, err := storekey.NewKey(rel)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		data, ok, err := mem.Get(r.Context(), k)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, rel, time.Time{}, bytes.NewReader(data))
	})
}

// TestHTTPStoreServesShardedArray publishes an 8x8 uint16 sharded array
// (one shard covering the whole array, 2x2 inner chunks, index at the
// end, no compression) over an httptest.Server and reads the center 4x2
// subset back through store.HTTPStore.
func TestHTTPStoreServesShardedArray(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	shardCfg, err := json.Marshal(struct {
		ChunkShape    []uint64             `json:"chunk_shape"`
		Codecs        []metadata.Extension `json:"codecs"`
		IndexCodecs   []metadata.Extension `json:"index_codecs"`
		IndexLocation string               `json:"index_location"`
	}{
		ChunkShape:    []uint64{2, 2},
		Codecs:        []metadata.Extension{{Name: "bytes", MustUnderstand: true}},
		IndexCodecs:   []metadata.Extension{{Name: "bytes", MustUnderstand: true}},
		IndexLocation: "end",
	})
	require.NoError(t, err)

	meta := &metadata.ArrayMetadata{
		Shape:            []uint64{8, 8},
		DataType:         metadata.Extension{Name: "uint16", MustUnderstand: true},
		ChunkGrid:        regularGridExtension([]uint64{8, 8}),
		ChunkKeyEncoding: metadata.Extension{Name: "default"},
		FillValue:        []byte("0"),
		Codecs:           []metadata.Extension{{Name: "sharding_indexed", Configuration: shardCfg}},
	}
	a, err := array.Create(ctx, mem, "shardarr", meta)
	require.NoError(t, err)

	values := make([]uint16, 64)
	for i := range values {
		values[i] = uint16(i + 1)
	}
	require.NoError(t, array.StoreArraySubsetFlat(ctx, a, arraysubset.Full([]uint64{8, 8}), values, array.DefaultOptions()))

	server := httptest.NewServer(memoryHTTPHandler(mem))
	defer server.Close()

	httpBackend := store.NewHTTPStore(server.URL, nil)
	remote, err := array.Open(ctx, httpBackend, "shardarr")
	require.NoError(t, err)

	subset, err := arraysubset.New([]uint64{2, 2}, []uint64{4, 2})
	require.NoError(t, err)

	raw, err := remote.RetrieveArraySubset(ctx, subset, array.DefaultOptions())
	require.NoError(t, err)
	buf := raw.FixedBytes()
	got := make([]uint16, 8)
	for i := range got {
		got[i] = binary.LittleEndian.Uint16(buf[i*2:])
	}
	require.Equal(t, []uint16{19, 20, 27, 28, 35, 36, 43, 44}, got)
}
