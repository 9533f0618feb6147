package mcp

import "encoding/json"

const (
	ProtocolVersion   = "1.0"
	JSONRPCVersion    = "2.0"
	defaultServerName = "spacex-mcp-server"
	serverVersion     = "1.0.0"

	// TypeProcessingError classifies every recoverable per-request failure
	// on the wire.
	TypeProcessingError = "processing_error"
)

// Request is one client line: {"method":..,"params":{..},"id":..}.
type Request struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is a successful reply. A request without an id is answered with
// "id":null.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result"`
}

// ErrorResponse is a failed reply. It carries no id.
type ErrorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Announcement is written once, before the first request is read.
type Announcement struct {
	ProtocolVersion string       `json:"protocolVersion"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	Capabilities    Capabilities `json:"capabilities"`
}

type Capabilities struct {
	Tools []ToolDescriptor `json:"tools"`
}

type ToolDescriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// InputSchema maps each parameter name to its type name. Every declared
// parameter is required.
type InputSchema struct {
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties"`
	Required   []string          `json:"required"`
}
