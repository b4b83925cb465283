// Package metadata parses and serialises Zarr V3 zarr.json array and group
// metadata, parses the Zarr V2 .zarray array document (no V2 group or
// attributes documents, and no V2 serialisation), and resolves
// extension-point names, through alias maps, to concrete implementations.
package metadata

import (
	"encoding/json/jsontext"
	"errors"
	"fmt"
)

// ErrUnsupported is the sentinel wrapped by UnsupportedExtensionError.
var ErrUnsupported = errors.New("metadata: unsupported extension")

// UnsupportedExtensionError is returned when an extension name cannot be
// resolved to a registered factory and must_understand is true (default).
type UnsupportedExtensionError struct {
	Kind string
	Name string
}

func (e *UnsupportedExtensionError) Error() string {
	return fmt.Sprintf("metadata: unsupported %s %q", e.Kind, e.Name)
}

func (e *UnsupportedExtensionError) Unwrap() error { return ErrUnsupported }

// InvalidConfigurationError is returned when a factory rejects the
// configuration object for an otherwise-recognised extension name.
type InvalidConfigurationError struct {
	Identifier string
	Cause      error
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("metadata: invalid configuration for %q: %v", e.Identifier, e.Cause)
}

func (e *InvalidConfigurationError) Unwrap() error { return e.Cause }

// Factory builds a concrete implementation of T from a configuration
// object (nil if the metadata entry carried no "configuration" field).
type Factory[T any] func(configuration jsontext.Value) (T, error)

// Registry resolves extension-point names (with aliases) to concrete
// implementations of T in three steps:
// name -> (via alias map) identifier -> (via factory map) instance.
type Registry[T any] struct {
	kind      string
	aliases   map[string]string
	factories map[string]Factory[T]
}

// NewRegistry creates an empty registry. kind labels the extension point
// (e.g. "codec", "data type") for error messages.
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:      kind,
		aliases:   make(map[string]string),
		factories: make(map[string]Factory[T]),
	}
}

// Alias maps name to canonical identifier. Registering an identifier also
// implicitly aliases it to itself.
func (r *Registry[T]) Alias(name, identifier string) {
	r.aliases[name] = identifier
}

// Register installs factory under identifier, also aliasing identifier to
// itself so Resolve("identifier") works without a separate Alias call.
func (r *Registry[T]) Register(identifier string, factory Factory[T]) {
	r.factories[identifier] = factory
	if _, ok := r.aliases[identifier]; !ok {
		r.aliases[identifier] = identifier
	}
}

// Identifier resolves name through the alias map, returning name itself if
// no alias is registered (the metadata name is already canonical).
func (r *Registry[T]) Identifier(name string) string {
	if id, ok := r.aliases[name]; ok {
		return id
	}
	return name
}

// Registered reports whether name (after alias resolution) has a factory,
// without regard to must_understand semantics. Useful when a caller must
// decide which registry an extension-point name belongs to before calling
// Resolve.
func (r *Registry[T]) Registered(name string) bool {
	_, ok := r.factories[r.Identifier(name)]
	return ok
}

// Resolve implements the full extension resolution algorithm for one
// metadata Extension entry. If the name is unknown and MustUnderstand is
// false, it returns the zero value of T with ok=false and a nil error —
// a reader may silently ignore such an entry. If MustUnderstand is true
// (the default) an unknown name is a hard error.
func (r *Registry[T]) Resolve(ext Extension) (value T, ok bool, err error) {
	id := r.Identifier(ext.Name)
	factory, found := r.factories[id]
	if !found {
		if !ext.MustUnderstand {
			var zero T
			return zero, false, nil
		}
		var zero T
		return zero, false, &UnsupportedExtensionError{Kind: r.kind, Name: ext.Name}
	}
	v, err := factory(ext.Configuration)
	if err != nil {
		var zero T
		return zero, false, &InvalidConfigurationError{Identifier: id, Cause: err}
	}
	return v, true, nil
}

// ResolveByName resolves a bare, always-must-understand name directly
// (used for the array-to-bytes codec slot, chunk grid, and data type
// extension points, which are not wrapped in the must_understand form).
func (r *Registry[T]) ResolveByName(name string, configuration jsontext.Value) (T, error) {
	v, ok, err := r.Resolve(Extension{Name: name, Configuration: configuration, MustUnderstand: true})
	if err != nil {
		var zero T
		return zero, err
	}
	if !ok {
		var zero T
		return zero, &UnsupportedExtensionError{Kind: r.kind, Name: name}
	}
	return v, nil
}
