package base

import (
	"github.com/viant/mcp/jsonrpc"
)

// MessageType sniffs the shape of a raw JSON-RPC frame. An error response is
// reported as jsonrpc.MessageTypeResponse, matching the wire protocol: an
// error is simply a Response whose Error field is set.
func MessageType(data []byte) jsonrpc.MessageType {
	messageType, err := jsonrpc.DetectMessageType(data)
	if err != nil {
		return jsonrpc.MessageTypeResponse
	}
	return messageType
}
