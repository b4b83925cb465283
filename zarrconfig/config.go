// Package zarrconfig holds the process-wide configuration: the default
// concurrency target, codec-name alias overrides, and the
// metadata-version-convert policy. It is set programmatically by the
// embedder; there is no env or CLI parsing anywhere in the core.
package zarrconfig

import (
	"runtime"
	"sync"
)

// MetadataVersionPolicy selects what a conversion layer above the core
// should do with a node opened from V2 metadata. The core itself never
// performs the mechanical V2->V3 conversion: array.OpenAny reads whichever
// form is present in place, and this knob is carried for the layer that
// does convert.
type MetadataVersionPolicy int

const (
	// KeepVersion leaves a node in whichever version its metadata was
	// found under (zarr.json vs .zarray).
	KeepVersion MetadataVersionPolicy = iota
	// ConvertToV3 asks the conversion layer to rewrite V2 metadata as
	// zarr.json when the node is next written.
	ConvertToV3
)

// Config is the set of process-wide knobs the embedder can adjust.
type Config struct {
	// DefaultConcurrentTarget seeds codec.Options.ConcurrentTarget when a
	// caller does not set one explicitly. Defaults to
	// runtime.GOMAXPROCS(0).
	DefaultConcurrentTarget int
	// MetadataVersion selects the Open policy described above.
	MetadataVersion MetadataVersionPolicy
	// CodecAliases overrides/extends the name->identifier map an
	// embedder's extension-point registries consult, applied by calling
	// (*metadata.Registry[T]).Alias for each entry against the relevant
	// registry (codec.ArrayToArrayRegistry, codec.ArrayToBytesRegistry,
	// codec.BytesToBytesRegistry, array.ChunkGridRegistry, ...).
	CodecAliases map[string]string
}

var (
	mu      sync.RWMutex
	current = Config{DefaultConcurrentTarget: runtime.GOMAXPROCS(0), MetadataVersion: KeepVersion}
)

// Set replaces the process-wide configuration.
func Set(c Config) {
	mu.Lock()
	defer mu.Unlock()
	current = c
}

// Get returns a copy of the current process-wide configuration.
func Get() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// DefaultConcurrentTarget returns the current default concurrency target.
func DefaultConcurrentTarget() int {
	return Get().DefaultConcurrentTarget
}
