package array

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/tuskan/zarrgo/chunkgrid"
	"github.com/tuskan/zarrgo/codec"
	"github.com/tuskan/zarrgo/datatype"
	"github.com/tuskan/zarrgo/metadata"
	"github.com/tuskan/zarrgo/store"
	"github.com/tuskan/zarrgo/storekey"
)

// OpenV2 reads path's .zarray from backend and resolves it into an Array.
// The V2 document is read in place — nothing is converted or rewritten —
// so chunk keys use the legacy "i0.i1" encoding (or the document's
// dimension_separator) and the codec chain is reconstructed from the
// numcodecs compressor entry.
func OpenV2(ctx context.Context, backend store.Readable, path string) (*Array, error) {
	raw, ok, err := backend.Get(ctx, storekey.MetadataKeyV2(path, ".zarray"))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("array: no .zarray at %q: %w", path, metadata.ErrMissingMetadata)
	}
	m, err := metadata.UnmarshalArrayMetadataV2(raw)
	if err != nil {
		return nil, err
	}
	if m.Order != "" && m.Order != "C" {
		return nil, fmt.Errorf("array: unsupported v2 order %q, only C is supported", m.Order)
	}
	if len(m.Filters) > 0 {
		return nil, fmt.Errorf("array: v2 filters are not supported")
	}
	// V2 pads edge chunks to the full chunk shape on disk, which the codec
	// layer's exact-size contract cannot represent; only evenly-chunked
	// arrays are readable.
	for i := range m.Shape {
		if i >= len(m.Chunks) || m.Chunks[i] == 0 || m.Shape[i]%m.Chunks[i] != 0 {
			return nil, fmt.Errorf("array: v2 shape %v is not a multiple of chunks %v", m.Shape, m.Chunks)
		}
	}

	dtype, order, err := datatype.ParseNumpyDType(m.DType)
	if err != nil {
		return nil, err
	}

	var bytesToBytes []codec.BytesToBytesCodec
	if m.Compressor != nil {
		stage, err := v2Compressor(m.Compressor, dtype)
		if err != nil {
			return nil, err
		}
		bytesToBytes = append(bytesToBytes, stage)
	}
	pipeline, err := codec.New(nil, codec.NewBytesCodec(order), bytesToBytes)
	if err != nil {
		return nil, err
	}

	var fillRaw any
	if len(m.FillValue) > 0 {
		if err := json.Unmarshal(m.FillValue, &fillRaw); err != nil {
			return nil, fmt.Errorf("array: decode v2 fill_value: %w", err)
		}
	}
	var fillValue []byte
	if fillRaw == nil {
		size, _ := dtype.Size()
		fillValue = make([]byte, size)
	} else {
		fillValue, err = dtype.ParseFillValue(fillRaw)
		if err != nil {
			return nil, err
		}
	}

	separator := m.DimensionSeparator
	if separator == "" {
		separator = "."
	}

	// Carry the shape forward in a V3 metadata document so every engine
	// operation works off one form; the original V2 bytes stay untouched in
	// the store.
	meta := &metadata.ArrayMetadata{Shape: m.Shape}
	return &Array{
		backend:     backend,
		path:        path,
		meta:        meta,
		grid:        chunkgrid.Regular{ChunkShapeValue: m.Chunks},
		dtype:       dtype,
		pipeline:    pipeline,
		fillValue:   fillValue,
		keyEncoding: metadata.V2Encoding(separator),
	}, nil
}

// v2Compressor maps one numcodecs compressor entry onto a bytes->bytes
// codec stage.
func v2Compressor(c *metadata.V2Compressor, dtype datatype.DataType) (codec.BytesToBytesCodec, error) {
	switch c.ID {
	case "blosc":
		size, _ := dtype.Size()
		return codec.NewBloscCodec(c.Cname, c.Clevel, c.Shuffle, size), nil
	case "zstd":
		return codec.NewZstdCodec(c.Level, false), nil
	case "gzip":
		return codec.NewGzipCodec(c.Level), nil
	default:
		return nil, fmt.Errorf("array: unsupported v2 compressor %q", c.ID)
	}
}

// OpenAny opens the array at path in whichever metadata version is
// present: zarr.json is preferred, .zarray is the fallback when no
// zarr.json exists. Neither version is converted or rewritten.
func OpenAny(ctx context.Context, backend store.Readable, path string) (*Array, error) {
	a, err := Open(ctx, backend, path)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, metadata.ErrMissingMetadata) {
		return nil, err
	}
	return OpenV2(ctx, backend, path)
}
