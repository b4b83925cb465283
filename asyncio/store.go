package asyncio

import (
	"context"

	"github.com/tuskan/zarrgo/store"
	"github.com/tuskan/zarrgo/storekey"
)

// GetResult is Readable.Get's resolved value: the bytes and whether key
// existed, mirroring store.Readable.Get's two-value return.
type GetResult struct {
	Data   []byte
	Exists bool
}

// GetPartialResult is Readable.GetPartial's resolved value.
type GetPartialResult struct {
	Values []([]byte)
	Exists bool
}

// SizeResult is Readable.Size's resolved value.
type SizeResult struct {
	Size   uint64
	Exists bool
}

// Readable is the async mirror of store.Readable: identical operations,
// each returning a Future that resolves once the read completes.
type Readable interface {
	Get(ctx context.Context, key storekey.Key) *Future[GetResult]
	GetPartial(ctx context.Context, key storekey.Key, ranges []storekey.ByteRange) *Future[GetPartialResult]
	Size(ctx context.Context, key storekey.Key) *Future[SizeResult]
}

// Writable is the async mirror of store.Writable.
type Writable interface {
	Set(ctx context.Context, key storekey.Key, data []byte) *Future[struct{}]
	SetPartial(ctx context.Context, key storekey.Key, updates []store.PartialWrite) *Future[struct{}]
	Erase(ctx context.Context, key storekey.Key) *Future[struct{}]
	EraseAll(ctx context.Context, prefix storekey.Prefix) *Future[struct{}]
}

// ListDirResult is Listable.ListDir's resolved value: direct-child keys
// and subprefixes, mirroring store.Listable.ListDir's two-slice return.
type ListDirResult struct {
	Keys     []string
	Prefixes []string
}

// Listable is the async mirror of store.Listable.
type Listable interface {
	List(ctx context.Context, prefix storekey.Prefix) *Future[[]string]
	ListRecursive(ctx context.Context, prefix storekey.Prefix) *Future[[]string]
	ListDir(ctx context.Context, prefix storekey.Prefix) *Future[ListDirResult]
}

// BlockOn is the embedder-supplied callback that drives a Future to
// completion from synchronous code. The default, used when an embedder has
// no runtime of its own to integrate with, is simply (*Future[T]).Await.
type BlockOn func(ctx context.Context, await func(context.Context) error) error

// DefaultBlockOn runs await directly on the calling goroutine.
func DefaultBlockOn(ctx context.Context, await func(context.Context) error) error {
	return await(ctx)
}

// BlockOnReadable adapts an async Readable into a sync store.Readable by
// awaiting every Future with the supplied BlockOn callback.
type BlockOnReadable struct {
	Async   Readable
	BlockOn BlockOn
}

func (b BlockOnReadable) blockOn() BlockOn {
	if b.BlockOn != nil {
		return b.BlockOn
	}
	return DefaultBlockOn
}

func (b BlockOnReadable) Get(ctx context.Context, key storekey.Key) ([]byte, bool, error) {
	var res GetResult
	err := b.blockOn()(ctx, func(ctx context.Context) error {
		var e error
		res, e = b.Async.Get(ctx, key).Await(ctx)
		return e
	})
	return res.Data, res.Exists, err
}

func (b BlockOnReadable) GetPartial(ctx context.Context, key storekey.Key, ranges []storekey.ByteRange) ([][]byte, bool, error) {
	var res GetPartialResult
	err := b.blockOn()(ctx, func(ctx context.Context) error {
		var e error
		res, e = b.Async.GetPartial(ctx, key, ranges).Await(ctx)
		return e
	})
	return res.Values, res.Exists, err
}

func (b BlockOnReadable) Size(ctx context.Context, key storekey.Key) (uint64, bool, error) {
	var res SizeResult
	err := b.blockOn()(ctx, func(ctx context.Context) error {
		var e error
		res, e = b.Async.Size(ctx, key).Await(ctx)
		return e
	})
	return res.Size, res.Exists, err
}

var _ store.Readable = BlockOnReadable{}

// BlockOnWritable adapts an async Writable into a sync store.Writable.
type BlockOnWritable struct {
	Async   Writable
	BlockOn BlockOn
}

func (b BlockOnWritable) blockOn() BlockOn {
	if b.BlockOn != nil {
		return b.BlockOn
	}
	return DefaultBlockOn
}

func (b BlockOnWritable) Set(ctx context.Context, key storekey.Key, data []byte) error {
	return b.blockOn()(ctx, func(ctx context.Context) error {
		_, err := b.Async.Set(ctx, key, data).Await(ctx)
		return err
	})
}

func (b BlockOnWritable) SetPartial(ctx context.Context, key storekey.Key, updates []store.PartialWrite) error {
	return b.blockOn()(ctx, func(ctx context.Context) error {
		_, err := b.Async.SetPartial(ctx, key, updates).Await(ctx)
		return err
	})
}

func (b BlockOnWritable) Erase(ctx context.Context, key storekey.Key) error {
	return b.blockOn()(ctx, func(ctx context.Context) error {
		_, err := b.Async.Erase(ctx, key).Await(ctx)
		return err
	})
}

func (b BlockOnWritable) EraseAll(ctx context.Context, prefix storekey.Prefix) error {
	return b.blockOn()(ctx, func(ctx context.Context) error {
		_, err := b.Async.EraseAll(ctx, prefix).Await(ctx)
		return err
	})
}

var _ store.Writable = BlockOnWritable{}

// BlockOnListable adapts an async Listable into a sync store.Listable.
type BlockOnListable struct {
	Async   Listable
	BlockOn BlockOn
}

func (b BlockOnListable) blockOn() BlockOn {
	if b.BlockOn != nil {
		return b.BlockOn
	}
	return DefaultBlockOn
}

func (b BlockOnListable) List(ctx context.Context, prefix storekey.Prefix) ([]string, error) {
	var res []string
	err := b.blockOn()(ctx, func(ctx context.Context) error {
		var e error
		res, e = b.Async.List(ctx, prefix).Await(ctx)
		return e
	})
	return res, err
}

func (b BlockOnListable) ListRecursive(ctx context.Context, prefix storekey.Prefix) ([]string, error) {
	var res []string
	err := b.blockOn()(ctx, func(ctx context.Context) error {
		var e error
		res, e = b.Async.ListRecursive(ctx, prefix).Await(ctx)
		return e
	})
	return res, err
}

func (b BlockOnListable) ListDir(ctx context.Context, prefix storekey.Prefix) ([]string, []string, error) {
	var res ListDirResult
	err := b.blockOn()(ctx, func(ctx context.Context) error {
		var e error
		res, e = b.Async.ListDir(ctx, prefix).Await(ctx)
		return e
	})
	return res.Keys, res.Prefixes, err
}

var _ store.Listable = BlockOnListable{}
