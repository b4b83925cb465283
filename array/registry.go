package array

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"

	"github.com/tuskan/zarrgo/chunkgrid"
	"github.com/tuskan/zarrgo/datatype"
	"github.com/tuskan/zarrgo/metadata"
)

// ChunkGridRegistry resolves a metadata.Extension naming a chunk grid
// ("regular", "rectangular") into a chunkgrid.Grid. It lives here rather
// than in package chunkgrid to avoid a chunkgrid<->metadata import cycle,
// mirroring how codec.ArrayToArrayRegistry etc. are homed in package codec.
var ChunkGridRegistry = metadata.NewRegistry[chunkgrid.Grid]("chunk grid")

type regularGridConfig struct {
	ChunkShape []uint64 `json:"chunk_shape"`
}

type rectangularGridConfig struct {
	ChunkShapes [][]uint64 `json:"chunk_shapes"`
}

func init() {
	ChunkGridRegistry.Register("regular", func(cfg jsontext.Value) (chunkgrid.Grid, error) {
		var c regularGridConfig
		if err := json.Unmarshal(cfg, &c); err != nil {
			return nil, err
		}
		return chunkgrid.Regular{ChunkShapeValue: c.ChunkShape}, nil
	})
	ChunkGridRegistry.Register("rectangular", func(cfg jsontext.Value) (chunkgrid.Grid, error) {
		var c rectangularGridConfig
		if err := json.Unmarshal(cfg, &c); err != nil {
			return nil, err
		}
		return chunkgrid.NewRectangular(c.ChunkShapes), nil
	})
}

// ResolveDataType turns a metadata.Extension's data_type name into a
// datatype.DataType. The built-in kinds are fixed strings; raw-bits
// ("r8", "r16", ...) is parametric in the name itself and so is handled by
// datatype.ParseName's own fallback rather than one registry entry per
// width.
func ResolveDataType(ext metadata.Extension) (datatype.DataType, error) {
	dt, err := datatype.ParseName(ext.Name)
	if err != nil {
		return datatype.DataType{}, fmt.Errorf("array: %w", err)
	}
	return dt, nil
}
