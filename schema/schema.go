package schema

import "encoding/json"

// Schema is implemented by the inputs and outputs of agents and tools.
// Embed Base to declare one.
type Schema interface {
	schema()
}

// Stringify returns the text sent to a language model for a schema.
// String schemas are sent verbatim, everything else as JSON.
func Stringify(s Schema) string {
	if s == nil {
		return ""
	}
	switch v := s.(type) {
	case String:
		return string(v)
	case *String:
		return string(*v)
	}
	bs, _ := json.Marshal(s)
	return string(bs)
}
