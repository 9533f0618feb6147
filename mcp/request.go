package mcp

import (
	"bytes"
	"encoding/json"
)

var jsonNull = []byte("null")

// ParseRequest decodes one request line. Absent, null and empty-object params
// all yield nil Params. Every error returned is a *ProcessingError of kind
// KindParse.
func ParseRequest(line []byte) (*Request, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, newProcessingError(KindParse, "", "empty request line")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, newProcessingError(KindParse, "", "invalid JSON: %v", err)
	}
	if raw == nil {
		return nil, newProcessingError(KindParse, "", "request must be a JSON object")
	}

	methodRaw, ok := raw["method"]
	if !ok || bytes.Equal(methodRaw, jsonNull) {
		return nil, newProcessingError(KindParse, "", "missing method field")
	}
	var method string
	if err := json.Unmarshal(methodRaw, &method); err != nil {
		return nil, newProcessingError(KindParse, "", "method must be a string")
	}
	if method == "" {
		return nil, newProcessingError(KindParse, "", "missing method field")
	}

	req := &Request{
		ID:     raw["id"],
		Method: method,
	}

	if params := bytes.TrimSpace(raw["params"]); len(params) > 0 && !bytes.Equal(params, jsonNull) {
		if params[0] != '{' {
			return nil, newProcessingError(KindParse, method, "params must be a JSON object")
		}
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(params, &probe); err != nil {
			return nil, newProcessingError(KindParse, method, "invalid params: %v", err)
		}
		if len(probe) > 0 {
			req.Params = params
		}
	}

	return req, nil
}
