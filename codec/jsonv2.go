package codec

import (
	"io"

	"github.com/go-json-experiment/json"
)

// JSONv2 is a JSON codec backed by github.com/go-json-experiment/json, the
// prototype of encoding/json/v2.
//
// Persisted artifacts store the codec name in their header. When opening an
// existing file, advgo selects the codec by name.
//
// Behavioral differences from the v1 codec worth knowing: field name matching
// is case-sensitive and nil slices/maps encode as empty containers.
type JSONv2 struct{}

// Marshal encodes the value to JSON.
func (JSONv2) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSONv2) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("jsonv2").
func (JSONv2) Name() string { return "jsonv2" }

// MarshalWrite encodes the value to JSON and streams it to w.
func (JSONv2) MarshalWrite(w io.Writer, v any) error { return json.MarshalWrite(w, v) }
