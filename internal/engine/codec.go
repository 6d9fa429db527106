package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	msgEmptyOutput     = "Engine returned no output"
	msgInvalidResponse = "Invalid engine response"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// Encode serializes req for an engine's stdin.
func Encode(req Request) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("could not encode engine request: %w", err)
	}
	return payload, nil
}

// Decode parses one response from raw stdout. Blank output is
// KindEmptyOutput; anything that is not an object with a boolean "ok" is
// KindInvalidResponse.
func Decode(raw []byte) (Response, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(bytes.TrimSpace(raw), utf8BOM))
	if len(trimmed) == 0 {
		return Response{}, &Error{Kind: KindEmptyOutput, Message: msgEmptyOutput}
	}

	var resp Response
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return Response{}, &Error{Kind: KindInvalidResponse, Message: msgInvalidResponse, Err: err}
	}
	return resp, nil
}
