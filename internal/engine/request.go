package engine

import (
	"encoding/json"
	"strings"
)

const actionKey = "action"

// Request is the object written to an engine's stdin. Unset optional fields
// are omitted, never defaulted.
type Request struct {
	fields map[string]any
}

func NewRequest(action string) Request {
	r := Request{}
	r.SetString(actionKey, action)
	return r
}

func (r Request) Action() string {
	action, _ := r.fields[actionKey].(string)
	return action
}

func (r *Request) SetAction(action string) {
	r.SetString(actionKey, action)
}

// SetString stores value; a blank value removes the field.
func (r *Request) SetString(key, value string) {
	if strings.TrimSpace(value) == "" {
		r.Delete(key)
		return
	}
	r.set(key, value)
}

// SetStrings stores the non-blank entries of values; an empty result removes
// the field.
func (r *Request) SetStrings(key string, values []string) {
	kept := make([]string, 0, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			kept = append(kept, value)
		}
	}
	if len(kept) == 0 {
		r.Delete(key)
		return
	}
	r.set(key, kept)
}

func (r *Request) SetInt(key string, value int) {
	r.set(key, value)
}

func (r *Request) SetBool(key string, value bool) {
	r.set(key, value)
}

func (r *Request) Delete(key string) {
	delete(r.fields, key)
}

func (r Request) Get(key string) (any, bool) {
	value, ok := r.fields[key]
	return value, ok
}

func (r Request) Len() int {
	return len(r.fields)
}

func (r Request) Clone() Request {
	out := Request{fields: make(map[string]any, len(r.fields))}
	for key, value := range r.fields {
		if list, ok := value.([]string); ok {
			value = append([]string(nil), list...)
		}
		out.fields[key] = value
	}
	return out
}

// MarshalJSON encodes the fields as one object. Keys come out sorted, so equal
// requests encode to equal bytes.
func (r Request) MarshalJSON() ([]byte, error) {
	if len(r.fields) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(r.fields)
}

func (r *Request) set(key string, value any) {
	if r.fields == nil {
		r.fields = map[string]any{}
	}
	r.fields[key] = value
}
