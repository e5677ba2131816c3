package base

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/viant/mcp/internal/collection"
	"github.com/viant/mcp/jsonrpc"
	"github.com/viant/mcp/transport/base"
	"sync/atomic"
)

// Handler represents a jsonrpc endpoint
type Handler struct {
	Sessions *collection.SyncMap[string, *Session]
	Logger   jsonrpc.Logger // Logger for error messages
}

func (e *Handler) HandleMessage(ctx context.Context, session *Session, data []byte, output *bytes.Buffer) {
	messageType := base.MessageType(data)
	switch messageType {
	case jsonrpc.MessageTypeRequest:
		request := &jsonrpc.Request{}
		if err := json.Unmarshal(data, request); err != nil {
			session.SendError(ctx, jsonrpc.NewParsingError(jsonrpc.RequestId{}, fmt.Errorf("failed to parse: %w", err), data))
			return
		}
		if !request.Id.IsZero() {
			if intId, ok := jsonrpc.AsRequestIntId(request.Id); ok {
				nextSeq := uint64(intId)
				if cur := atomic.LoadUint64(&session.Seq); cur > nextSeq {
					nextSeq = cur
				}
				atomic.StoreUint64(&session.Seq, nextSeq)
			}
		}

		// A one-shot caller (output != nil, e.g. a streamable-HTTP POST that
		// expects the response inline) must get it synchronously; a
		// streaming/session-backed caller (output == nil) can dispatch
		// concurrently with other in-flight requests on the same session,
		// per spec §5.
		if output != nil {
			response := &jsonrpc.Response{Id: request.Id, Jsonrpc: request.Jsonrpc}
			session.Handler.Serve(ctx, request, response)
			if response.Error != nil {
				response.Result = nil
			}
			data, err := json.Marshal(response)
			if err != nil {
				if e.Logger != nil {
					e.Logger.Errorf("failed to encode response: %v", err)
				}
				return
			}
			output.Write(data)
			return
		}
		go func() {
			response := &jsonrpc.Response{Id: request.Id, Jsonrpc: request.Jsonrpc}
			session.Handler.Serve(ctx, request, response)
			if response.Id.IsZero() {
				return
			}
			session.SendResponse(ctx, response)
		}()
	case jsonrpc.MessageTypeResponse:
		response := &jsonrpc.Response{}
		if err := json.Unmarshal(data, response); err != nil {
			if e.Logger != nil {
				e.Logger.Errorf("failed to parse response: %v", err)
			}
			return
		}
		aTrip, err := session.RoundTrips.Match(response.Id)
		if err != nil {
			return
		}
		aTrip.SetResponse(response)
	case jsonrpc.MessageTypeNotification:
		notification := &jsonrpc.Notification{}
		if err := json.Unmarshal(data, notification); err != nil {
			if e.Logger != nil {
				e.Logger.Errorf("failed to parse notification: %v", err)
			}
			return
		}
		session.Handler.OnNotification(ctx, notification)
	}
}

func NewHandler() *Handler {
	return &Handler{
		Sessions: collection.NewSyncMap[string, *Session](),
		Logger:   jsonrpc.DefaultLogger,
	}
}
