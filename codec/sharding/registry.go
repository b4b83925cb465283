package sharding

import (
	"encoding/json/jsontext"
	"encoding/json/v2"

	"github.com/tuskan/zarrgo/codec"
	"github.com/tuskan/zarrgo/metadata"
)

type shardingConfig struct {
	ChunkShape    []uint64             `json:"chunk_shape"`
	Codecs        []metadata.Extension `json:"codecs"`
	IndexCodecs   []metadata.Extension `json:"index_codecs"`
	IndexLocation string               `json:"index_location"`
}

func init() {
	codec.ArrayToBytesRegistry.Register("sharding_indexed", func(cfg jsontext.Value) (codec.ArrayToBytesCodec, error) {
		c := shardingConfig{IndexLocation: "end"}
		if err := json.Unmarshal(cfg, &c); err != nil {
			return nil, err
		}

		inner, err := codec.BuildPipeline(c.Codecs)
		if err != nil {
			return nil, err
		}

		// An index_codecs list leads with the raw "bytes" array->bytes codec
		// (the index is always little-endian u64 pairs, which packIndex
		// already produces); only the trailing bytes->bytes stages need
		// resolving here.
		indexCodecs := make([]codec.BytesToBytesCodec, 0, len(c.IndexCodecs))
		for _, ext := range c.IndexCodecs {
			if codec.ArrayToBytesRegistry.Registered(ext.Name) {
				continue
			}
			b2b, ok, err := codec.BytesToBytesRegistry.Resolve(ext)
			if err != nil {
				return nil, err
			}
			if ok {
				indexCodecs = append(indexCodecs, b2b)
			}
		}

		loc := IndexAtEnd
		if c.IndexLocation == "start" {
			loc = IndexAtStart
		}
		return New(c.ChunkShape, inner, indexCodecs, loc), nil
	})
}
