package mcpsession

import "encoding/json"

// ProtocolVersion is the protocol version this module speaks; it is sent at
// handshake and a mismatch is surfaced but, per spec §4.3.2, does not force a
// close.
const ProtocolVersion = "2024-11-05"

// Implementation identifies the peer's software, sent during handshake.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeParams is the body of the client's "initialize" request.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ClientInfo      Implementation     `json:"clientInfo"`
	Capabilities    ClientCapabilities `json:"capabilities"`
}

// InitializeResult is the body of the server's reply to "initialize".
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	Instructions    string             `json:"instructions,omitempty"`
}

// meta is the shape of params._meta that every request may carry.
type meta struct {
	ProgressToken *json.RawMessage `json:"progressToken,omitempty"`
}

type withMeta struct {
	Meta *meta `json:"_meta,omitempty"`
}

// CancelledParams is the body of a "notifications/cancelled" notification.
type CancelledParams struct {
	RequestID json.RawMessage `json:"requestId"`
	Reason    string          `json:"reason,omitempty"`
}

// ProgressParams is the body of a "notifications/progress" notification.
type ProgressParams struct {
	ProgressToken json.RawMessage `json:"progressToken"`
	Progress      float64         `json:"progress"`
	Total         *float64        `json:"total,omitempty"`
	Message       string          `json:"message,omitempty"`
}

// RootsListResult is the body of a client's reply to "roots/list".
type RootsListResult struct {
	Roots []Root `json:"roots"`
}

// Root is a single filesystem/workspace root the client exposes.
type Root struct {
	URI  string `json:"uri"`
	Name string `json:"name,omitempty"`
}

// SamplingMessage is one entry of a sampling/createMessage request's messages array.
type SamplingMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// CreateMessageParams is the body of a server's "sampling/createMessage" request.
type CreateMessageParams struct {
	Messages    []SamplingMessage `json:"messages"`
	MaxTokens   int               `json:"maxTokens,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
}

// CreateMessageResult is the body of a client's reply to "sampling/createMessage".
type CreateMessageResult struct {
	Model   string          `json:"model"`
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}
