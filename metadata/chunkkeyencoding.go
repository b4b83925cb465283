package metadata

import (
	"strconv"
	"strings"
)

// ChunkKeyEncoding turns chunk indices into a store key, covering both
// built-in Zarr V3 encodings and both separator choices.
type ChunkKeyEncoding struct {
	V2        bool   // true selects the legacy "i0.i1…" / "i0/i1…" form
	Separator string // "." or "/"
}

// DefaultEncoding is the Zarr V3 default chunk key encoding with the given
// separator ("." or "/").
func DefaultEncoding(separator string) ChunkKeyEncoding {
	return ChunkKeyEncoding{V2: false, Separator: separator}
}

// V2Encoding is the Zarr V2 chunk key encoding with the given separator.
func V2Encoding(separator string) ChunkKeyEncoding {
	return ChunkKeyEncoding{V2: true, Separator: separator}
}

// EncodeChunkKey returns the store key for the given chunk indices.
func (e ChunkKeyEncoding) EncodeChunkKey(indices []uint64) string {
	if len(indices) == 0 {
		if e.V2 {
			return "0"
		}
		return "c"
	}

	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.FormatUint(idx, 10)
	}
	joined := strings.Join(parts, e.Separator)
	if e.V2 {
		return joined
	}
	return "c" + e.Separator + joined
}
