// Package array implements the chunked array I/O engine: retrieving and
// storing whole chunks, chunk ranges, and arbitrary array subsets, with
// codec pipeline dispatch, fill-value handling, and chunk-level
// parallelism.
package array

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"strings"

	"github.com/tuskan/zarrgo/chunkgrid"
	"github.com/tuskan/zarrgo/codec"
	_ "github.com/tuskan/zarrgo/codec/sharding" // registers "sharding_indexed" into codec.ArrayToBytesRegistry
	"github.com/tuskan/zarrgo/datatype"
	"github.com/tuskan/zarrgo/metadata"
	"github.com/tuskan/zarrgo/store"
	"github.com/tuskan/zarrgo/storekey"
	"github.com/tuskan/zarrgo/zarrconfig"
)

// DefaultOptions returns a codec.Options seeded from the process-wide
// zarrconfig default concurrency target, for callers that have no reason
// to tune concurrency or the empty-chunk/partial-encoding flags per call.
func DefaultOptions() codec.Options {
	opts := codec.DefaultOptions()
	opts.ConcurrentTarget = zarrconfig.DefaultConcurrentTarget()
	return opts
}

// Array is a handle on one Zarr array node: its metadata plus the resolved
// chunk grid, data type, codec pipeline, and chunk key encoding needed to
// translate array-level operations into chunk-level store I/O.
type Array struct {
	backend store.Readable
	path    string

	meta        *metadata.ArrayMetadata
	grid        chunkgrid.Grid
	dtype       datatype.DataType
	pipeline    *codec.Pipeline
	fillValue   []byte
	keyEncoding metadata.ChunkKeyEncoding
}

// Shape returns the array's shape.
func (a *Array) Shape() []uint64 { return a.meta.Shape }

// Metadata returns the parsed zarr.json document.
func (a *Array) Metadata() *metadata.ArrayMetadata { return a.meta }

// resolve builds the derived (grid, dtype, pipeline, fill value, key
// encoding) fields of an Array from its metadata document.
func resolve(meta *metadata.ArrayMetadata) (chunkgrid.Grid, datatype.DataType, *codec.Pipeline, []byte, metadata.ChunkKeyEncoding, error) {
	grid, err := ChunkGridRegistry.ResolveByName(meta.ChunkGrid.Name, meta.ChunkGrid.Configuration)
	if err != nil {
		return nil, datatype.DataType{}, nil, nil, metadata.ChunkKeyEncoding{}, err
	}

	dtype, err := ResolveDataType(meta.DataType)
	if err != nil {
		return nil, datatype.DataType{}, nil, nil, metadata.ChunkKeyEncoding{}, err
	}

	pipeline, err := codec.BuildPipeline(meta.Codecs)
	if err != nil {
		return nil, datatype.DataType{}, nil, nil, metadata.ChunkKeyEncoding{}, err
	}

	var fillRaw any
	if len(meta.FillValue) > 0 {
		if err := json.Unmarshal(meta.FillValue, &fillRaw); err != nil {
			return nil, datatype.DataType{}, nil, nil, metadata.ChunkKeyEncoding{}, fmt.Errorf("array: decode fill_value: %w", err)
		}
	}
	fillValue, err := dtype.ParseFillValue(fillRaw)
	if err != nil {
		return nil, datatype.DataType{}, nil, nil, metadata.ChunkKeyEncoding{}, err
	}

	keyEnc, err := resolveChunkKeyEncoding(meta.ChunkKeyEncoding)
	if err != nil {
		return nil, datatype.DataType{}, nil, nil, metadata.ChunkKeyEncoding{}, err
	}

	return grid, dtype, pipeline, fillValue, keyEnc, nil
}

func resolveChunkKeyEncoding(ext metadata.Extension) (metadata.ChunkKeyEncoding, error) {
	type cfg struct {
		Separator string `json:"separator"`
	}
	c := cfg{Separator: "/"}
	if len(ext.Configuration) > 0 {
		if err := json.Unmarshal(ext.Configuration, &c); err != nil {
			return metadata.ChunkKeyEncoding{}, err
		}
	}
	switch ext.Name {
	case "default":
		return metadata.DefaultEncoding(c.Separator), nil
	case "v2":
		if c.Separator == "/" && len(ext.Configuration) == 0 {
			c.Separator = "."
		}
		return metadata.V2Encoding(c.Separator), nil
	default:
		return metadata.ChunkKeyEncoding{}, fmt.Errorf("array: unsupported chunk key encoding %q", ext.Name)
	}
}

// Open reads path's zarr.json from backend and resolves it into an Array.
func Open(ctx context.Context, backend store.Readable, path string) (*Array, error) {
	raw, ok, err := backend.Get(ctx, storekey.MetadataKeyV3(path))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("array: no zarr.json at %q: %w", path, metadata.ErrMissingMetadata)
	}
	meta, err := metadata.UnmarshalArrayMetadata(raw)
	if err != nil {
		return nil, err
	}
	return newArray(backend, path, meta)
}

// Create writes meta as path's zarr.json to backend and returns the
// resulting Array handle.
func Create(ctx context.Context, backend store.Writable, path string, meta *metadata.ArrayMetadata) (*Array, error) {
	raw, err := metadata.MarshalArrayMetadata(meta)
	if err != nil {
		return nil, err
	}
	if err := backend.Set(ctx, storekey.MetadataKeyV3(path), raw); err != nil {
		return nil, err
	}
	reader, ok := backend.(store.Readable)
	if !ok {
		return nil, fmt.Errorf("array: backend must also implement store.Readable")
	}
	return newArray(reader, path, meta)
}

func newArray(backend store.Readable, path string, meta *metadata.ArrayMetadata) (*Array, error) {
	grid, dtype, pipeline, fillValue, keyEnc, err := resolve(meta)
	if err != nil {
		return nil, err
	}
	return &Array{
		backend:     backend,
		path:        path,
		meta:        meta,
		grid:        grid,
		dtype:       dtype,
		pipeline:    pipeline,
		fillValue:   fillValue,
		keyEncoding: keyEnc,
	}, nil
}

// writable returns a.backend as a store.Writable, erroring if it does not
// support writes (e.g. a read-only store.HTTPStore).
func (a *Array) writable() (store.Writable, error) {
	w, ok := a.backend.(store.Writable)
	if !ok {
		return nil, fmt.Errorf("array: backend does not support writes")
	}
	return w, nil
}

// chunkKey returns the store key for the chunk at indices, rooted at this
// array's node path.
func (a *Array) chunkKey(indices []uint64) storekey.Key {
	rel := a.keyEncoding.EncodeChunkKey(indices)
	if a.path == "" {
		k, _ := storekey.NewKey(rel)
		return k
	}
	p, _ := storekey.NewPrefix(strings.TrimSuffix(a.path, "/") + "/")
	return p.Join(rel)
}

// chunkRepresentation returns the Representation of the (possibly
// edge-truncated) chunk at indices.
func (a *Array) chunkRepresentation(indices []uint64) (codec.Representation, bool) {
	shape, ok := a.grid.ChunkShape(indices, a.meta.Shape)
	if !ok {
		return codec.Representation{}, false
	}
	return codec.Representation{Shape: shape, DataType: a.dtype, FillValue: a.fillValue}, true
}
