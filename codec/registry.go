package codec

import (
	"encoding/binary"
	"encoding/json/jsontext"
	"encoding/json/v2"

	"github.com/tuskan/zarrgo/metadata"
	"github.com/tuskan/zarrgo/zarrconfig"
)

// ArrayToArrayRegistry, ArrayToBytesRegistry, and BytesToBytesRegistry
// resolve a metadata.Extension by name into a constructed codec. Each is a
// concrete instantiation of metadata.Registry[T], which is itself codec-
// agnostic to avoid a codec<->metadata import cycle.
var (
	ArrayToArrayRegistry = metadata.NewRegistry[ArrayToArrayCodec]("array->array codec")
	ArrayToBytesRegistry = metadata.NewRegistry[ArrayToBytesCodec]("array->bytes codec")
	BytesToBytesRegistry = metadata.NewRegistry[BytesToBytesCodec]("bytes->bytes codec")
)

// ApplyConfigAliases installs the process-wide codec-name aliases from
// zarrconfig into all three codec registries. Embedders that override
// zarrconfig.Config.CodecAliases call this once after zarrconfig.Set; an
// alias only takes effect in the registry whose factory map carries its
// target, so registering each name everywhere is harmless.
func ApplyConfigAliases() {
	for name, id := range zarrconfig.Get().CodecAliases {
		ArrayToArrayRegistry.Alias(name, id)
		ArrayToBytesRegistry.Alias(name, id)
		BytesToBytesRegistry.Alias(name, id)
	}
}

type bytesCodecConfig struct {
	Endian string `json:"endian"`
}

type transposeCodecConfig struct {
	Order []int `json:"order"`
}

type bitroundCodecConfig struct {
	Keepbits int `json:"keepbits"`
}

type gzipCodecConfig struct {
	Level int `json:"level"`
}

type zstdCodecConfig struct {
	Level    int  `json:"level"`
	Checksum bool `json:"checksum"`
}

type bloscCodecConfig struct {
	Cname    string `json:"cname"`
	Clevel   int    `json:"clevel"`
	Shuffle  int    `json:"shuffle"`
	Typesize int    `json:"typesize"`
}

func init() {
	BytesToBytesRegistry.Register("gzip", func(cfg jsontext.Value) (BytesToBytesCodec, error) {
		var c gzipCodecConfig
		if len(cfg) > 0 {
			if err := json.Unmarshal(cfg, &c); err != nil {
				return nil, err
			}
		}
		return NewGzipCodec(c.Level), nil
	})

	BytesToBytesRegistry.Register("zstd", func(cfg jsontext.Value) (BytesToBytesCodec, error) {
		c := zstdCodecConfig{Level: 3}
		if len(cfg) > 0 {
			if err := json.Unmarshal(cfg, &c); err != nil {
				return nil, err
			}
		}
		return NewZstdCodec(c.Level, c.Checksum), nil
	})

	BytesToBytesRegistry.Register("blosc", func(cfg jsontext.Value) (BytesToBytesCodec, error) {
		c := bloscCodecConfig{Cname: "lz4", Clevel: 5}
		if len(cfg) > 0 {
			if err := json.Unmarshal(cfg, &c); err != nil {
				return nil, err
			}
		}
		return NewBloscCodec(c.Cname, c.Clevel, c.Shuffle, c.Typesize), nil
	})

	BytesToBytesRegistry.Register("crc32c", func(cfg jsontext.Value) (BytesToBytesCodec, error) {
		return NewCrc32cCodec(), nil
	})

	BytesToBytesRegistry.Register("xxhash64", func(cfg jsontext.Value) (BytesToBytesCodec, error) {
		return NewXxhash64Codec(), nil
	})
	BytesToBytesRegistry.Alias("xxh64", "xxhash64")

	ArrayToArrayRegistry.Register("transpose", func(cfg jsontext.Value) (ArrayToArrayCodec, error) {
		var c transposeCodecConfig
		if err := json.Unmarshal(cfg, &c); err != nil {
			return nil, err
		}
		return NewTransposeCodec(c.Order), nil
	})

	ArrayToArrayRegistry.Register("bitround", func(cfg jsontext.Value) (ArrayToArrayCodec, error) {
		var c bitroundCodecConfig
		if err := json.Unmarshal(cfg, &c); err != nil {
			return nil, err
		}
		return NewBitroundCodec(c.Keepbits), nil
	})

	ArrayToBytesRegistry.Register("bytes", func(cfg jsontext.Value) (ArrayToBytesCodec, error) {
		c := bytesCodecConfig{Endian: "little"}
		if len(cfg) > 0 {
			if err := json.Unmarshal(cfg, &c); err != nil {
				return nil, err
			}
		}
		var order binary.ByteOrder = binary.LittleEndian
		if c.Endian == "big" {
			order = binary.BigEndian
		}
		return NewBytesCodec(order), nil
	})

	ArrayToBytesRegistry.Register("vlen-utf8", func(cfg jsontext.Value) (ArrayToBytesCodec, error) {
		return NewVlenBytesCodec(), nil
	})
	ArrayToBytesRegistry.Register("vlen-bytes", func(cfg jsontext.Value) (ArrayToBytesCodec, error) {
		return NewVlenBytesCodec(), nil
	})
}
