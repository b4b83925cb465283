package metadata

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
)

// GroupMetadata is the Zarr V3 zarr.json group metadata document. A group
// has no chunk grid; it is purely a named node with attributes and
// children discovered by listing the store (see the root zarrgo.Group
// type).
type GroupMetadata struct {
	ZarrFormat int            `json:"zarr_format"`
	NodeType   string         `json:"node_type"`
	Attributes jsontext.Value `json:"attributes,omitempty"`
}

// MarshalGroupMetadata serialises metadata as Zarr V3 zarr.json bytes.
func MarshalGroupMetadata(m *GroupMetadata) ([]byte, error) {
	m.ZarrFormat = 3
	m.NodeType = "group"
	return json.Marshal(m)
}

// UnmarshalGroupMetadata parses a Zarr V3 group zarr.json document.
func UnmarshalGroupMetadata(data []byte) (*GroupMetadata, error) {
	var m GroupMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("metadata: decode group metadata: %w", err)
	}
	if m.ZarrFormat != 3 {
		return nil, fmt.Errorf("metadata: unsupported zarr_format %d, expected 3", m.ZarrFormat)
	}
	return &m, nil
}
