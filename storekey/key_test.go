package storekey_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrgo/storekey"
)

func TestNewKey(t *testing.T) {
	_, err := storekey.NewKey("")
	require.ErrorIs(t, err, storekey.ErrInvalidKey)

	_, err = storekey.NewKey("/a/b")
	require.ErrorIs(t, err, storekey.ErrInvalidKey)

	_, err = storekey.NewKey("a/b/")
	require.ErrorIs(t, err, storekey.ErrInvalidKey)

	k, err := storekey.NewKey("a/b/c")
	require.NoError(t, err)
	require.Equal(t, storekey.Key("a/b/c"), k)
}

func TestMetadataKeys(t *testing.T) {
	require.Equal(t, storekey.Key("zarr.json"), storekey.MetadataKeyV3(""))
	require.Equal(t, storekey.Key("foo/zarr.json"), storekey.MetadataKeyV3("foo"))
	require.Equal(t, storekey.Key(".zarray"), storekey.MetadataKeyV2("", ".zarray"))
	require.Equal(t, storekey.Key("foo/.zarray"), storekey.MetadataKeyV2("foo", ".zarray"))
}

func TestByteRangeResolve(t *testing.T) {
	length := uint64(4)
	start, end, err := storekey.FromStart(2, &length).Resolve(10)
	require.NoError(t, err)
	require.Equal(t, uint64(2), start)
	require.Equal(t, uint64(6), end)

	start, end, err = storekey.FromEnd(3, nil).Resolve(10)
	require.NoError(t, err)
	require.Equal(t, uint64(7), start)
	require.Equal(t, uint64(10), end)

	_, _, err = storekey.FromStart(20, nil).Resolve(10)
	require.ErrorIs(t, err, storekey.ErrInvalidByteRange)
}
