// Package zarrgo is the facade over the Zarr V3 core library: a Group
// type for a minimal node hierarchy (open, create, list immediate
// children), plus top-level Open/Create convenience constructors that
// hand back an *array.Array directly so most callers never need to import
// the array package themselves.
package zarrgo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tuskan/zarrgo/array"
	"github.com/tuskan/zarrgo/metadata"
	"github.com/tuskan/zarrgo/store"
	"github.com/tuskan/zarrgo/storekey"
)

// Group is a handle on one Zarr group node: its metadata plus the store
// and path needed to open or create children. It carries no chunk grid
// of its own — a group is purely a named container.
type Group struct {
	backend store.Readable
	path    string
	meta    *metadata.GroupMetadata
}

// Path returns the group's node path ("" for the root).
func (g *Group) Path() string { return g.path }

// Metadata returns the parsed zarr.json document.
func (g *Group) Metadata() *metadata.GroupMetadata { return g.meta }

// OpenGroup reads path's zarr.json from backend and resolves it into a
// Group.
func OpenGroup(ctx context.Context, backend store.Readable, path string) (*Group, error) {
	raw, ok, err := backend.Get(ctx, storekey.MetadataKeyV3(path))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("zarrgo: no zarr.json at %q: %w", path, metadata.ErrMissingMetadata)
	}
	meta, err := metadata.UnmarshalGroupMetadata(raw)
	if err != nil {
		return nil, err
	}
	return &Group{backend: backend, path: path, meta: meta}, nil
}

// CreateGroup writes meta as path's zarr.json to backend and returns the
// resulting Group handle. A nil meta creates an empty group with no
// attributes.
func CreateGroup(ctx context.Context, backend store.Writable, path string, meta *metadata.GroupMetadata) (*Group, error) {
	if meta == nil {
		meta = &metadata.GroupMetadata{}
	}
	raw, err := metadata.MarshalGroupMetadata(meta)
	if err != nil {
		return nil, err
	}
	if err := backend.Set(ctx, storekey.MetadataKeyV3(path), raw); err != nil {
		return nil, err
	}
	reader, ok := backend.(store.Readable)
	if !ok {
		return nil, fmt.Errorf("zarrgo: backend must also implement store.Readable")
	}
	return &Group{backend: reader, path: path, meta: meta}, nil
}

// childPrefix returns the store prefix under which this group's
// immediate children's zarr.json documents live.
func (g *Group) childPrefix() storekey.Prefix {
	if g.path == "" {
		p, _ := storekey.NewPrefix("")
		return p
	}
	p, _ := storekey.NewPrefix(strings.TrimSuffix(g.path, "/") + "/")
	return p
}

// Children lists the names of this group's immediate child nodes —
// arrays and subgroups alike — by listing the store one path segment
// below this group's prefix and keeping every entry except the group's
// own zarr.json; entries are not checked for a zarr.json of their own. It
// does not walk the hierarchy recursively and does not consult
// consolidated metadata.
func (g *Group) Children(ctx context.Context) ([]string, error) {
	lister, ok := g.backend.(store.Listable)
	if !ok {
		return nil, fmt.Errorf("zarrgo: backend does not support listing")
	}
	entries, err := lister.List(ctx, g.childPrefix())
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		name := strings.TrimSuffix(e, "/")
		if name == "" || name == "zarr.json" {
			continue
		}
		names[name] = struct{}{}
	}
	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// childPath joins this group's path with a child name.
func (g *Group) childPath(name string) string {
	if g.path == "" {
		return name
	}
	return strings.TrimSuffix(g.path, "/") + "/" + name
}

// OpenGroup opens the subgroup named name below g.
func (g *Group) OpenGroup(ctx context.Context, name string) (*Group, error) {
	return OpenGroup(ctx, g.backend, g.childPath(name))
}

// OpenArray opens the array named name below g.
func (g *Group) OpenArray(ctx context.Context, name string) (*array.Array, error) {
	return array.Open(ctx, g.backend, g.childPath(name))
}

// CreateGroup creates a subgroup named name below g.
func (g *Group) CreateGroup(ctx context.Context, backend store.Writable, name string, meta *metadata.GroupMetadata) (*Group, error) {
	return CreateGroup(ctx, backend, g.childPath(name), meta)
}

// CreateArray creates an array named name below g.
func (g *Group) CreateArray(ctx context.Context, backend store.Writable, name string, meta *metadata.ArrayMetadata) (*array.Array, error) {
	return array.Create(ctx, backend, g.childPath(name), meta)
}

// Open opens the array at path from backend, the common case callers
// reach for without needing the array package's own name in scope.
func Open(ctx context.Context, backend store.Readable, path string) (*array.Array, error) {
	return array.Open(ctx, backend, path)
}

// Create writes meta as path's zarr.json to backend and returns the
// resulting array handle.
func Create(ctx context.Context, backend store.Writable, path string, meta *metadata.ArrayMetadata) (*array.Array, error) {
	return array.Create(ctx, backend, path, meta)
}
