package handler

import (
	"encoding/json"
	"fmt"
	"github.com/viant/mcp/jsonrpc"
)

// ToolContent is one element of a tools/call result's content array.
type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ToolCallResult is the result shape of a tools/call request.
type ToolCallResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError"`
}

// ToolCallParams is the params shape of a tools/call request.
type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolFunc implements a single named tool. It receives the raw arguments
// object and returns the text the tool produced.
type ToolFunc func(ctx *Context, arguments json.RawMessage) (string, error)

// NewToolDispatcher builds a single "tools/call" RequestHandler that fans out
// to per-tool-name ToolFuncs, the Go-native stand-in the spec's Design Notes
// call for in place of the original's attribute/reflection-based tool
// registration: callers register (name, fn) pairs explicitly instead of
// annotating methods for reflective discovery.
func NewToolDispatcher(tools map[string]ToolFunc) RequestHandler {
	return func(ctx *Context, params json.RawMessage) (interface{}, *jsonrpc.Error) {
		var call ToolCallParams
		if err := json.Unmarshal(params, &call); err != nil {
			return nil, &jsonrpc.Error{Code: jsonrpc.InvalidParams, Message: err.Error()}
		}
		fn, ok := tools[call.Name]
		if !ok {
			return &ToolCallResult{
				Content: []ToolContent{{Type: "text", Text: fmt.Sprintf("unknown tool: %s", call.Name)}},
				IsError: true,
			}, nil
		}
		text, err := fn(ctx, call.Arguments)
		if err != nil {
			return &ToolCallResult{Content: []ToolContent{{Type: "text", Text: err.Error()}}, IsError: true}, nil
		}
		return &ToolCallResult{Content: []ToolContent{{Type: "text", Text: text}}, IsError: false}, nil
	}
}
