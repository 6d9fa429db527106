package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

const (
	okKey         = "ok"
	errorKey      = "error"
	tracebackKey  = "traceback"
	diagnosticKey = "diagnostic"
	kindKey       = "kind"
)

// Response is what an engine printed, or the failure the client synthesized
// in its place. Engine-specific result fields stay in Fields.
type Response struct {
	OK         bool
	Error      string
	Diagnostic string
	// Kind is empty on success and never read from the wire.
	Kind   Kind
	Fields map[string]json.RawMessage
}

// Failed builds a failed response.
func Failed(kind Kind, message, diagnostic string) Response {
	return Response{
		OK:         false,
		Error:      message,
		Diagnostic: diagnostic,
		Kind:       kind,
	}
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("response is not an object")
	}

	okRaw, present := raw[okKey]
	if !present {
		return fmt.Errorf("response is missing %q", okKey)
	}
	var ok bool
	if err := json.Unmarshal(okRaw, &ok); err != nil {
		return fmt.Errorf("response %q must be a boolean", okKey)
	}

	message, err := optionalString(raw, errorKey)
	if err != nil {
		return err
	}
	diagnostic, err := optionalString(raw, tracebackKey)
	if err != nil {
		return err
	}
	if diagnostic == "" {
		if diagnostic, err = optionalString(raw, diagnosticKey); err != nil {
			return err
		}
	}

	fields := make(map[string]json.RawMessage, len(raw))
	for key, value := range raw {
		switch key {
		case okKey, errorKey, tracebackKey, diagnosticKey:
			continue
		}
		fields[key] = value
	}

	*r = Response{
		OK:         ok,
		Error:      message,
		Diagnostic: diagnostic,
		Fields:     fields,
	}
	return nil
}

func (r Response) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+4)
	for key, value := range r.Fields {
		out[key] = value
	}
	out[okKey] = r.OK
	if r.Error != "" {
		out[errorKey] = r.Error
	}
	if r.Diagnostic != "" {
		out[tracebackKey] = r.Diagnostic
	}
	if r.Kind != "" {
		out[kindKey] = r.Kind
	}
	return json.Marshal(out)
}

func (r Response) Has(key string) bool {
	value, ok := r.Fields[key]
	return ok && !isNull(value)
}

// Int reads an integral number field.
func (r Response) Int(key string) (int, bool) {
	value, ok := r.Fields[key]
	if !ok || isNull(value) {
		return 0, false
	}
	var number float64
	if err := json.Unmarshal(value, &number); err != nil {
		return 0, false
	}
	if number != math.Trunc(number) {
		return 0, false
	}
	return int(number), true
}

// IntOr is Int with a fallback for missing fields.
func (r Response) IntOr(key string, fallback int) int {
	if n, ok := r.Int(key); ok {
		return n
	}
	return fallback
}

func (r Response) String(key string) (string, bool) {
	value, ok := r.Fields[key]
	if !ok || isNull(value) {
		return "", false
	}
	var text string
	if err := json.Unmarshal(value, &text); err != nil {
		return "", false
	}
	return text, true
}

func (r Response) Strings(key string) ([]string, bool) {
	value, ok := r.Fields[key]
	if !ok || isNull(value) {
		return nil, false
	}
	var list []string
	if err := json.Unmarshal(value, &list); err != nil {
		return nil, false
	}
	return list, true
}

func (r Response) IntMap(key string) (map[string]int, bool) {
	value, ok := r.Fields[key]
	if !ok || isNull(value) {
		return nil, false
	}
	var counts map[string]int
	if err := json.Unmarshal(value, &counts); err != nil {
		return nil, false
	}
	return counts, true
}

// Err converts a failed response into an *Error. It is nil when OK is true.
func (r Response) Err() error {
	if r.OK {
		return nil
	}
	kind := r.Kind
	if kind == "" {
		kind = KindEngineFailure
	}
	return &Error{Kind: kind, Message: r.Error, Diagnostic: r.Diagnostic}
}

// Message joins the error and diagnostic text the way the CLI shows it.
func (r Response) Message() string {
	message := strings.TrimSpace(r.Error)
	if message == "" && !r.OK {
		message = "unknown engine error"
	}
	if strings.TrimSpace(r.Diagnostic) != "" {
		if message != "" {
			message += "\n\n"
		}
		message += r.Diagnostic
	}
	return message
}

func optionalString(raw map[string]json.RawMessage, key string) (string, error) {
	value, ok := raw[key]
	if !ok || isNull(value) {
		return "", nil
	}
	var text string
	if err := json.Unmarshal(value, &text); err != nil {
		return "", fmt.Errorf("response %q must be a string", key)
	}
	return text, nil
}

func isNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}
