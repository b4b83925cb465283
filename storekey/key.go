// Package storekey defines the canonical representation of store keys,
// prefixes, and partial byte-range requests shared by every store
// implementation and by the codec/array layers above it.
package storekey

import (
	"errors"
	"strings"
)

// ErrInvalidKey is returned when a candidate key violates the store key
// invariants: non-empty, no leading "/", no trailing "/".
var ErrInvalidKey = errors.New("storekey: invalid key")

// Key is a validated store key: a non-empty UTF-8 string that does not
// start with "/" and does not end with "/".
type Key string

// NewKey validates s and returns it as a Key.
func NewKey(s string) (Key, error) {
	if s == "" || strings.HasPrefix(s, "/") || strings.HasSuffix(s, "/") {
		return "", ErrInvalidKey
	}
	return Key(s), nil
}

// Prefix is the empty string or a string ending in "/".
type Prefix string

// NewPrefix validates s and returns it as a Prefix.
func NewPrefix(s string) (Prefix, error) {
	if s != "" && !strings.HasSuffix(s, "/") {
		return "", ErrInvalidKey
	}
	return Prefix(s), nil
}

// Join appends a relative path component to a prefix, producing a Key.
func (p Prefix) Join(rel string) Key {
	return Key(string(p) + rel)
}

// MetadataKeyV3 returns the zarr.json key for a node at the given path
// ("" for the root node).
func MetadataKeyV3(nodePath string) Key {
	if nodePath == "" {
		return "zarr.json"
	}
	return Key(strings.TrimSuffix(nodePath, "/") + "/zarr.json")
}

// MetadataKeyV2 returns the .zarray/.zgroup/.zattrs key for a node.
func MetadataKeyV2(nodePath, name string) Key {
	if nodePath == "" {
		return Key(name)
	}
	return Key(strings.TrimSuffix(nodePath, "/") + "/" + name)
}
