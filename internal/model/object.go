package model

import (
	"bytes"
	"encoding/json"
	"maps"
)

// extraFields holds the keys of a JSON object that have no typed field.
type extraFields map[string]json.RawMessage

// field is one typed key written by joinObject. Unset fields are omitted.
type field struct {
	key string
	val any
	set bool
}

// splitObject decodes the keys named in known into their targets and returns
// the rest. A known key whose value does not fit its target stays in the
// returned set so it is written back as received.
func splitObject(data []byte, known map[string]any) (extraFields, error) {
	var all extraFields
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for key, dst := range known {
		raw, ok := all[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		if json.Unmarshal(raw, dst) == nil {
			delete(all, key)
		}
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// joinObject writes extra merged with the set typed fields. Typed fields win
// on a key clash.
func joinObject(extra extraFields, fields ...field) ([]byte, error) {
	out := maps.Clone(extra)
	if out == nil {
		out = extraFields{}
	}
	for _, f := range fields {
		if !f.set {
			continue
		}
		b, err := json.Marshal(f.val)
		if err != nil {
			return nil, err
		}
		out[f.key] = b
	}
	return json.Marshal(map[string]json.RawMessage(out))
}
