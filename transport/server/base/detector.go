package base

import (
	"github.com/viant/mcp/jsonrpc"
)

// MessageType sniffs the shape of a raw JSON-RPC frame arriving at the server.
func MessageType(data []byte) jsonrpc.MessageType {
	messageType, err := jsonrpc.DetectMessageType(data)
	if err != nil {
		return jsonrpc.MessageTypeResponse
	}
	return messageType
}
