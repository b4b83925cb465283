// Package store abstracts the key/value byte storage a Zarr hierarchy is
// read from and written to: local filesystem, cloud object storage, HTTP,
// or plain memory, each exposing only the capabilities it actually has.
package store

import (
	"context"
	"errors"

	"github.com/tuskan/zarrgo/storekey"
)

// ErrNotFound is not returned by any store in this package: Readable
// reports a missing key as (nil, false, nil), and erasing a missing key
// succeeds.
var ErrNotFound = errors.New("store: key not found")

// ErrReadOnly is returned by Writable methods on a store that does not
// support writes (store.HTTPStore).
var ErrReadOnly = errors.New("store: read-only store")

// Readable is the minimal capability every store exposes: whole-value and
// byte-range reads, keyed by storekey.Key.
type Readable interface {
	// Get returns the full value and true, or (nil, false, nil) if key does
	// not exist.
	Get(ctx context.Context, key storekey.Key) ([]byte, bool, error)
	// GetPartial returns one slice per requested range, or (nil, false, nil)
	// if key does not exist at all.
	GetPartial(ctx context.Context, key storekey.Key, ranges []storekey.ByteRange) ([][]byte, bool, error)
	// Size reports the value's length and whether it exists.
	Size(ctx context.Context, key storekey.Key) (uint64, bool, error)
}

// Writable is implemented by stores that support mutation.
type Writable interface {
	Set(ctx context.Context, key storekey.Key, data []byte) error
	// SetPartial applies offset-anchored byte updates, growing the value if
	// an update extends past its current length. Memory patches the stored
	// value directly; BlobStore reads the whole object, patches it and
	// rewrites it.
	SetPartial(ctx context.Context, key storekey.Key, updates []PartialWrite) error
	Erase(ctx context.Context, key storekey.Key) error
	// EraseAll deletes every key sharing prefix, used when deleting a node.
	EraseAll(ctx context.Context, prefix storekey.Prefix) error
}

// Listable is implemented by stores that can enumerate keys, used to
// discover child nodes of a group.
type Listable interface {
	// List returns every key directly under prefix (one path segment
	// below it), sorted lexically.
	List(ctx context.Context, prefix storekey.Prefix) ([]string, error)
	// ListRecursive returns every key anywhere under prefix, sorted
	// lexically.
	ListRecursive(ctx context.Context, prefix storekey.Prefix) ([]string, error)
	// ListDir returns prefix's direct children split into keys (values
	// stored directly under prefix) and subprefixes (one per child
	// directory, each ending in "/"), both sorted lexically.
	ListDir(ctx context.Context, prefix storekey.Prefix) (keys []string, prefixes []string, err error)
}

// PartialWrite is one offset-anchored byte range update within SetPartial.
type PartialWrite struct {
	Offset uint64
	Data   []byte
}

// KeyRange pairs a key with one byte range of its value, the unit of the
// batched GetPartialValues read.
type KeyRange struct {
	Key   storekey.Key
	Range storekey.ByteRange
}

// GetPartialValues reads one byte range from each of a batch of keys. The
// result has one entry per pair; a nil entry means that pair's key does
// not exist. Stores with a native batched read can shadow this with their
// own method; the loop over GetPartial is the portable default.
func GetPartialValues(ctx context.Context, r Readable, pairs []KeyRange) ([][]byte, error) {
	out := make([][]byte, len(pairs))
	for i, p := range pairs {
		values, exists, err := r.GetPartial(ctx, p.Key, []storekey.ByteRange{p.Range})
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		out[i] = values[0]
	}
	return out, nil
}

// EraseValues erases each key in turn. Erase is idempotent, so keys that
// are already absent do not error.
func EraseValues(ctx context.Context, w Writable, keys []storekey.Key) error {
	for _, k := range keys {
		if err := w.Erase(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// SizePrefix sums the sizes of every value under prefix.
func SizePrefix(ctx context.Context, r Readable, l Listable, prefix storekey.Prefix) (uint64, error) {
	keys, err := l.ListRecursive(ctx, prefix)
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, k := range keys {
		size, exists, err := r.Size(ctx, storekey.Key(string(prefix)+k))
		if err != nil {
			return 0, err
		}
		if exists {
			total += size
		}
	}
	return total, nil
}

// TotalSize sums the sizes of every value in the store.
func TotalSize(ctx context.Context, r Readable, l Listable) (uint64, error) {
	return SizePrefix(ctx, r, l, "")
}
