// Package sharding implements the sharding array->bytes codec: one outer
// chunk ("shard") holds many inner chunks on a regular sub-grid, plus an
// index of (offset, nbytes) pairs so a reader can fetch one inner chunk
// without materialising the whole shard.
package sharding

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/tuskan/zarrgo/codec"
)

// IndexLocation selects whether the shard index sits before or after the
// inner chunk payloads.
type IndexLocation int

const (
	IndexAtEnd IndexLocation = iota
	IndexAtStart
)

// absentMarker is the u64 max sentinel both halves of a missing inner
// chunk's index entry carry.
const absentMarker = math.MaxUint64

// indexEntry is one (offset, nbytes) pair of the shard index.
type indexEntry struct {
	offset  uint64
	nbytes  uint64
	present bool
}

func (e indexEntry) encode() (offset, nbytes uint64) {
	if !e.present {
		return absentMarker, absentMarker
	}
	return e.offset, e.nbytes
}

// ErrOverlappingIndexEntries is returned when two present index entries
// reference overlapping byte ranges.
var ErrOverlappingIndexEntries = errors.New("sharding: overlapping index entries")

// ErrIndexOutOfBounds is returned when an index entry falls outside the
// payload region its location implies.
var ErrIndexOutOfBounds = errors.New("sharding: index entry out of bounds")

// packIndex serialises n entries as n*16 little-endian bytes (offset,
// nbytes pairs in row-major inner-chunk order).
func packIndex(entries []indexEntry) []byte {
	out := make([]byte, len(entries)*16)
	for i, e := range entries {
		offset, nbytes := e.encode()
		binary.LittleEndian.PutUint64(out[i*16:], offset)
		binary.LittleEndian.PutUint64(out[i*16+8:], nbytes)
	}
	return out
}

func unpackIndex(data []byte, n int) ([]indexEntry, error) {
	if len(data) != n*16 {
		return nil, fmt.Errorf("%w: index payload has %d bytes, want %d", codec.ErrUnexpectedSize, len(data), n*16)
	}
	out := make([]indexEntry, n)
	for i := range out {
		offset := binary.LittleEndian.Uint64(data[i*16:])
		nbytes := binary.LittleEndian.Uint64(data[i*16+8:])
		if offset == absentMarker && nbytes == absentMarker {
			out[i] = indexEntry{present: false}
			continue
		}
		out[i] = indexEntry{offset: offset, nbytes: nbytes, present: true}
	}
	return out, nil
}

// validateIndex checks the shard index invariants: no two present entries
// overlap, and every present entry's byte range falls within the payload
// region implied by indexSize and loc.
func validateIndex(entries []indexEntry, shardLen, indexSize uint64, loc IndexLocation) error {
	type span struct{ start, end uint64 }
	var spans []span
	for _, e := range entries {
		if !e.present {
			continue
		}
		end := e.offset + e.nbytes
		switch loc {
		case IndexAtStart:
			if e.offset < indexSize || end > shardLen {
				return fmt.Errorf("%w: entry [%d,%d) outside payload region [%d,%d)", ErrIndexOutOfBounds, e.offset, end, indexSize, shardLen)
			}
		case IndexAtEnd:
			if end > shardLen-indexSize {
				return fmt.Errorf("%w: entry [%d,%d) exceeds payload region length %d", ErrIndexOutOfBounds, e.offset, end, shardLen-indexSize)
			}
		}
		spans = append(spans, span{e.offset, end})
	}
	for i := 0; i < len(spans); i++ {
		for j := i + 1; j < len(spans); j++ {
			if spans[i].start < spans[j].end && spans[j].start < spans[i].end {
				return ErrOverlappingIndexEntries
			}
		}
	}
	return nil
}

// indexCodecChain encodes/decodes the packed index bytes. The array->bytes
// step is always the raw little-endian packing packIndex already performs,
// so only an ordered bytes->bytes chain (typically just crc32c) is
// configurable.
type indexCodecChain struct {
	bytesToBytes []codec.BytesToBytesCodec
}

func (c *indexCodecChain) encode(ctx context.Context, entries []indexEntry) ([]byte, error) {
	raw := packIndex(entries)
	out := raw
	for _, stage := range c.bytesToBytes {
		var err error
		out, err = stage.Encode(ctx, out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *indexCodecChain) decode(ctx context.Context, data []byte, n int) ([]indexEntry, error) {
	raw := data
	for i := len(c.bytesToBytes) - 1; i >= 0; i-- {
		var err error
		raw, err = c.bytesToBytes[i].Decode(ctx, raw)
		if err != nil {
			return nil, err
		}
	}
	return unpackIndex(raw, n)
}

// size returns the fixed encoded size of an n-entry index, erroring if the
// configured bytes->bytes chain does not produce a fixed size (required so
// a start-located index's length is known before payloads are laid out).
func (c *indexCodecChain) size(n int) (uint64, error) {
	rep := codec.BytesRepresentation{Kind: codec.BytesFixed, Size: uint64(n * 16)}
	var err error
	for _, stage := range c.bytesToBytes {
		rep, err = stage.EncodedRepresentation(rep)
		if err != nil {
			return 0, err
		}
	}
	if rep.Kind != codec.BytesFixed {
		return 0, fmt.Errorf("sharding: index codec chain must produce a fixed size")
	}
	return rep.Size, nil
}
