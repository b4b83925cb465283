package store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/tuskan/zarrgo/storekey"
)

// BlobStore adapts a gocloud.dev/blob.Bucket into Readable/Writable/
// Listable, so any bucket blob.OpenBucket understands (file://, mem://,
// s3://, gs://) can back a hierarchy.
type BlobStore struct {
	bucket *blob.Bucket
}

// OpenBlobStore opens a bucket at the given gocloud.dev URL (e.g.
// "file:///data/myarray", "s3://bucket/prefix", "gs://bucket/prefix").
func OpenBlobStore(ctx context.Context, urlstr string) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, urlstr)
	if err != nil {
		return nil, fmt.Errorf("store: open bucket %q: %w", urlstr, err)
	}
	return &BlobStore{bucket: bucket}, nil
}

// NewBlobStore wraps an already-open bucket.
func NewBlobStore(bucket *blob.Bucket) *BlobStore {
	return &BlobStore{bucket: bucket}
}

func (s *BlobStore) Close() error { return s.bucket.Close() }

func (s *BlobStore) Get(ctx context.Context, key storekey.Key) ([]byte, bool, error) {
	data, err := s.bucket.ReadAll(ctx, string(key))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("store: read %q: %w", key, err)
	}
	return data, true, nil
}

func (s *BlobStore) GetPartial(ctx context.Context, key storekey.Key, ranges []storekey.ByteRange) ([][]byte, bool, error) {
	size, exists, err := s.Size(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		start, end, err := r.Resolve(size)
		if err != nil {
			return nil, false, err
		}
		reader, err := s.bucket.NewRangeReader(ctx, string(key), int64(start), int64(end-start), nil)
		if err != nil {
			return nil, false, fmt.Errorf("store: range read %q: %w", key, err)
		}
		buf, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			return nil, false, fmt.Errorf("store: range read %q: %w", key, err)
		}
		out[i] = buf
	}
	return out, true, nil
}

func (s *BlobStore) Size(ctx context.Context, key storekey.Key) (uint64, bool, error) {
	attrs, err := s.bucket.Attributes(ctx, string(key))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("store: stat %q: %w", key, err)
	}
	return uint64(attrs.Size), true, nil
}

func (s *BlobStore) Set(ctx context.Context, key storekey.Key, data []byte) error {
	if err := s.bucket.WriteAll(ctx, string(key), data, nil); err != nil {
		return fmt.Errorf("store: write %q: %w", key, err)
	}
	return nil
}

// SetPartial on a blob store has no native partial-write support: it reads
// the current value (if any), applies the updates in memory, and rewrites
// the whole object.
func (s *BlobStore) SetPartial(ctx context.Context, key storekey.Key, updates []PartialWrite) error {
	cur, _, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	buf := bytes.NewBuffer(nil)
	buf.Write(cur)
	v := buf.Bytes()
	for _, u := range updates {
		end := u.Offset + uint64(len(u.Data))
		if uint64(len(v)) < end {
			grown := make([]byte, end)
			copy(grown, v)
			v = grown
		}
		copy(v[u.Offset:end], u.Data)
	}
	return s.Set(ctx, key, v)
}

func (s *BlobStore) Erase(ctx context.Context, key storekey.Key) error {
	if err := s.bucket.Delete(ctx, string(key)); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil
		}
		return fmt.Errorf("store: delete %q: %w", key, err)
	}
	return nil
}

func (s *BlobStore) EraseAll(ctx context.Context, prefix storekey.Prefix) error {
	keys, err := s.ListRecursive(ctx, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.Erase(ctx, storekey.Key(string(prefix)+k)); err != nil {
			return err
		}
	}
	return nil
}

func (s *BlobStore) List(ctx context.Context, prefix storekey.Prefix) ([]string, error) {
	iter := s.bucket.List(&blob.ListOptions{Prefix: string(prefix), Delimiter: "/"})
	var out []string
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("store: list %q: %w", prefix, err)
		}
		name := obj.Key[len(prefix):]
		out = append(out, name)
	}
	return out, nil
}

func (s *BlobStore) ListDir(ctx context.Context, prefix storekey.Prefix) ([]string, []string, error) {
	iter := s.bucket.List(&blob.ListOptions{Prefix: string(prefix), Delimiter: "/"})
	var keys, prefixes []string
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("store: list %q: %w", prefix, err)
		}
		name := obj.Key[len(prefix):]
		if obj.IsDir {
			prefixes = append(prefixes, name)
		} else {
			keys = append(keys, name)
		}
	}
	return keys, prefixes, nil
}

func (s *BlobStore) ListRecursive(ctx context.Context, prefix storekey.Prefix) ([]string, error) {
	iter := s.bucket.List(&blob.ListOptions{Prefix: string(prefix)})
	var out []string
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("store: list %q: %w", prefix, err)
		}
		if obj.IsDir {
			continue
		}
		out = append(out, obj.Key[len(prefix):])
	}
	return out, nil
}
