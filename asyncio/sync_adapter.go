package asyncio

import (
	"context"

	"github.com/tuskan/zarrgo/store"
	"github.com/tuskan/zarrgo/storekey"
)

// FromSyncReadable wraps a sync store.Readable as an async Readable,
// running each call on its own goroutine via Go. Together with
// BlockOnReadable this lets any sync store stand in for an async one in
// tests without a real async backend.
type FromSyncReadable struct{ Sync store.Readable }

func (f FromSyncReadable) Get(ctx context.Context, key storekey.Key) *Future[GetResult] {
	return Go(func() (GetResult, error) {
		data, exists, err := f.Sync.Get(ctx, key)
		return GetResult{Data: data, Exists: exists}, err
	})
}

func (f FromSyncReadable) GetPartial(ctx context.Context, key storekey.Key, ranges []storekey.ByteRange) *Future[GetPartialResult] {
	return Go(func() (GetPartialResult, error) {
		values, exists, err := f.Sync.GetPartial(ctx, key, ranges)
		return GetPartialResult{Values: values, Exists: exists}, err
	})
}

func (f FromSyncReadable) Size(ctx context.Context, key storekey.Key) *Future[SizeResult] {
	return Go(func() (SizeResult, error) {
		size, exists, err := f.Sync.Size(ctx, key)
		return SizeResult{Size: size, Exists: exists}, err
	})
}

var _ Readable = FromSyncReadable{}

// FromSyncWritable wraps a sync store.Writable as an async Writable.
type FromSyncWritable struct{ Sync store.Writable }

func (f FromSyncWritable) Set(ctx context.Context, key storekey.Key, data []byte) *Future[struct{}] {
	return Go(func() (struct{}, error) { return struct{}{}, f.Sync.Set(ctx, key, data) })
}

func (f FromSyncWritable) SetPartial(ctx context.Context, key storekey.Key, updates []store.PartialWrite) *Future[struct{}] {
	return Go(func() (struct{}, error) { return struct{}{}, f.Sync.SetPartial(ctx, key, updates) })
}

func (f FromSyncWritable) Erase(ctx context.Context, key storekey.Key) *Future[struct{}] {
	return Go(func() (struct{}, error) { return struct{}{}, f.Sync.Erase(ctx, key) })
}

func (f FromSyncWritable) EraseAll(ctx context.Context, prefix storekey.Prefix) *Future[struct{}] {
	return Go(func() (struct{}, error) { return struct{}{}, f.Sync.EraseAll(ctx, prefix) })
}

var _ Writable = FromSyncWritable{}

// FromSyncListable wraps a sync store.Listable as an async Listable.
type FromSyncListable struct{ Sync store.Listable }

func (f FromSyncListable) List(ctx context.Context, prefix storekey.Prefix) *Future[[]string] {
	return Go(func() ([]string, error) { return f.Sync.List(ctx, prefix) })
}

func (f FromSyncListable) ListRecursive(ctx context.Context, prefix storekey.Prefix) *Future[[]string] {
	return Go(func() ([]string, error) { return f.Sync.ListRecursive(ctx, prefix) })
}

func (f FromSyncListable) ListDir(ctx context.Context, prefix storekey.Prefix) *Future[ListDirResult] {
	return Go(func() (ListDirResult, error) {
		keys, prefixes, err := f.Sync.ListDir(ctx, prefix)
		return ListDirResult{Keys: keys, Prefixes: prefixes}, err
	})
}

var _ Listable = FromSyncListable{}
