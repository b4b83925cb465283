package metadata

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
)

// Extension is one entry of an extension point in array/group metadata
// (a codec, a data type, a chunk grid, a chunk key encoding, ...). It may
// be written in metadata as a bare string (just the name) or as an object
// {name, configuration?, must_understand?}. must_understand defaults to
// true.
type Extension struct {
	Name           string
	Configuration  jsontext.Value
	MustUnderstand bool
}

// UnmarshalJSON accepts either a bare JSON string or the full object form.
func (e *Extension) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		e.Name = bare
		e.Configuration = nil
		e.MustUnderstand = true
		return nil
	}

	var obj struct {
		Name           string        `json:"name"`
		Configuration  jsontext.Value `json:"configuration,omitempty"`
		MustUnderstand *bool         `json:"must_understand,omitempty"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	e.Name = obj.Name
	e.Configuration = obj.Configuration
	e.MustUnderstand = obj.MustUnderstand == nil || *obj.MustUnderstand
	return nil
}

// MarshalJSON writes the bare string form when there is no configuration
// and MustUnderstand is true, otherwise the object form.
func (e Extension) MarshalJSON() ([]byte, error) {
	if len(e.Configuration) == 0 && e.MustUnderstand {
		return json.Marshal(e.Name)
	}
	obj := struct {
		Name           string        `json:"name"`
		Configuration  jsontext.Value `json:"configuration,omitempty"`
		MustUnderstand *bool         `json:"must_understand,omitempty"`
	}{Name: e.Name, Configuration: e.Configuration}
	if !e.MustUnderstand {
		f := false
		obj.MustUnderstand = &f
	}
	return json.Marshal(obj)
}
