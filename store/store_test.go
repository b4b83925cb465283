package store_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrgo/store"
	"github.com/tuskan/zarrgo/storekey"
)

func TestMemoryGetSetPartialAndList(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	k1, err := storekey.NewKey("a/zarr.json")
	require.NoError(t, err)
	k2, err := storekey.NewKey("a/c/0/0")
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, k1, []byte(`{"zarr_format":3}`)))
	require.NoError(t, m.Set(ctx, k2, []byte("0123456789")))

	v, ok, err := m.Get(ctx, k1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"zarr_format":3}`, string(v))

	length := uint64(4)
	parts, ok, err := m.GetPartial(ctx, k2, []storekey.ByteRange{storekey.FromStart(2, &length)})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2345", string(parts[0]))

	require.NoError(t, m.SetPartial(ctx, k2, []store.PartialWrite{{Offset: 20, Data: []byte("X")}}))
	v, _, _ = m.Get(ctx, k2)
	require.Equal(t, 21, len(v))
	require.Equal(t, byte('X'), v[20])

	p, err := storekey.NewPrefix("a/")
	require.NoError(t, err)
	names, err := m.List(ctx, p)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"zarr.json", "c"}, names)

	_, ok, err = m.Get(ctx, storekey.Key("missing"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryListDirAndSizeHelpers(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	for key, value := range map[string]string{
		"root/zarr.json":      "{}",
		"root/a/zarr.json":    "{}",
		"root/a/c/0/0":        "01234",
		"root/b/zarr.json":    "{}",
		"unrelated/zarr.json": "{}",
	} {
		k, err := storekey.NewKey(key)
		require.NoError(t, err)
		require.NoError(t, m.Set(ctx, k, []byte(value)))
	}

	p, err := storekey.NewPrefix("root/")
	require.NoError(t, err)
	keys, prefixes, err := m.ListDir(ctx, p)
	require.NoError(t, err)
	require.Equal(t, []string{"zarr.json"}, keys)
	require.Equal(t, []string{"a/", "b/"}, prefixes)

	total, err := store.SizePrefix(ctx, m, m, p)
	require.NoError(t, err)
	require.Equal(t, uint64(len("{}")*3+len("01234")), total)

	all, err := store.TotalSize(ctx, m, m)
	require.NoError(t, err)
	require.Equal(t, total+uint64(len("{}")), all)
}

func TestGetPartialValuesAndEraseValues(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	k1, err := storekey.NewKey("x")
	require.NoError(t, err)
	k2, err := storekey.NewKey("y")
	require.NoError(t, err)
	require.NoError(t, m.Set(ctx, k1, []byte("abcdef")))

	length := uint64(2)
	values, err := store.GetPartialValues(ctx, m, []store.KeyRange{
		{Key: k1, Range: storekey.FromStart(1, &length)},
		{Key: k2, Range: storekey.FromStart(0, nil)},
	})
	require.NoError(t, err)
	require.Equal(t, "bc", string(values[0]))
	require.Nil(t, values[1])

	require.NoError(t, store.EraseValues(ctx, m, []storekey.Key{k1, k2}))
	_, ok, err := m.Get(ctx, k1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHTTPStoreReadOnlyRangeGet(t *testing.T) {
	body := []byte("hello world")

	// A minimal server that always serves the fixed body and honours Range.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", "11")
			w.WriteHeader(http.StatusOK)
			return
		}
		if rng := r.Header.Get("Range"); rng != "" {
			w.Header().Set("Content-Length", "5")
			w.WriteHeader(http.StatusPartialContent)
			w.Write([]byte("world"))
			return
		}
		w.Header().Set("Content-Length", "11")
		w.Write(body)
	}))
	defer srv.Close()

	s := store.NewHTTPStore(srv.URL, nil)
	size, ok, err := s.Size(context.Background(), storekey.Key("chunk"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(11), size)

	length := uint64(5)
	parts, ok, err := s.GetPartial(context.Background(), storekey.Key("chunk"), []storekey.ByteRange{storekey.FromStart(6, &length)})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "world", string(parts[0]))

	err = s.Set(context.Background(), storekey.Key("chunk"), []byte("nope"))
	require.ErrorIs(t, err, store.ErrReadOnly)
}
