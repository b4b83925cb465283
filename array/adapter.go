package array

import (
	"context"

	"github.com/tuskan/zarrgo/codec"
	"github.com/tuskan/zarrgo/store"
	"github.com/tuskan/zarrgo/storekey"
)

// chunkBacking adapts one store key into codec.BytesSource/codec.BytesSink,
// the per-chunk unit every codec pipeline call operates against.
type chunkBacking struct {
	reader store.Readable
	writer store.Writable // nil if the backend does not support writes
	key    storekey.Key
}

func (b *chunkBacking) Get(ctx context.Context) ([]byte, bool, error) {
	return b.reader.Get(ctx, b.key)
}

func (b *chunkBacking) GetPartial(ctx context.Context, ranges []storekey.ByteRange) ([][]byte, bool, error) {
	return b.reader.GetPartial(ctx, b.key, ranges)
}

func (b *chunkBacking) Size(ctx context.Context) (uint64, bool, error) {
	return b.reader.Size(ctx, b.key)
}

func (b *chunkBacking) Set(ctx context.Context, data []byte) error {
	return b.writer.Set(ctx, b.key, data)
}

func (b *chunkBacking) SetPartial(ctx context.Context, updates []codec.PartialWrite) error {
	sw := make([]store.PartialWrite, len(updates))
	for i, u := range updates {
		sw[i] = store.PartialWrite{Offset: u.Offset, Data: u.Data}
	}
	return b.writer.SetPartial(ctx, b.key, sw)
}

func (b *chunkBacking) Erase(ctx context.Context) error {
	return b.writer.Erase(ctx, b.key)
}

var _ codec.BytesSource = (*chunkBacking)(nil)
var _ codec.BytesSink = (*chunkBacking)(nil)
