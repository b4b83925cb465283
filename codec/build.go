package codec

import (
	"fmt"

	"github.com/tuskan/zarrgo/metadata"
)

// BuildPipeline resolves a zarr.json "codecs" array (or a sharding codec's
// nested "codecs" configuration) into a Pipeline: any number of leading
// array->array codecs, exactly one array->bytes codec, then any number of
// trailing bytes->bytes codecs. Resolution goes through ArrayToArrayRegistry,
// ArrayToBytesRegistry, and BytesToBytesRegistry in turn, so a codec package
// (such as codec/sharding) registering itself in its own init is
// automatically available here without BuildPipeline needing to know about
// it by name.
func BuildPipeline(configs []metadata.Extension) (*Pipeline, error) {
	var arrayToArray []ArrayToArrayCodec
	var arrayToBytes ArrayToBytesCodec
	var bytesToBytes []BytesToBytesCodec

	for _, ext := range configs {
		switch {
		case arrayToBytes == nil && ArrayToArrayRegistry.Registered(ext.Name):
			a2a, ok, err := ArrayToArrayRegistry.Resolve(ext)
			if err != nil {
				return nil, err
			}
			if ok {
				arrayToArray = append(arrayToArray, a2a)
			}
		case arrayToBytes == nil && ArrayToBytesRegistry.Registered(ext.Name):
			a2b, err := ArrayToBytesRegistry.ResolveByName(ext.Name, ext.Configuration)
			if err != nil {
				return nil, err
			}
			arrayToBytes = a2b
		default:
			b2b, ok, err := BytesToBytesRegistry.Resolve(ext)
			if err != nil {
				return nil, err
			}
			if ok {
				bytesToBytes = append(bytesToBytes, b2b)
			}
		}
	}

	if arrayToBytes == nil {
		return nil, fmt.Errorf("codec: codecs list has no array->bytes codec")
	}
	return New(arrayToArray, arrayToBytes, bytesToBytes)
}
