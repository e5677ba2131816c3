package base

import (
	"context"
	"fmt"
	"github.com/viant/mcp/jsonrpc"
)

// Handler represents a default handler
type Handler struct{}

func (h *Handler) Serve(_ context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	anError := jsonrpc.NewMethodNotFound(request.Id, fmt.Errorf("method %v not found", request.Method), nil)
	response.Id = anError.Id
	response.Jsonrpc = anError.Jsonrpc
	response.Error = anError.Error
}

func (h *Handler) OnNotification(_ context.Context, _ *jsonrpc.Notification) {
	//ignore
}
