package mcpsession

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/viant/mcp/handler"
	"github.com/viant/mcp/jsonrpc"
	"strings"
)

// Serve implements transport.Handler: it is the session's inbound request
// dispatcher (spec §4.3, "inbound dispatcher"). It is invoked synchronously
// by the owning transport for each decoded request frame; concurrency across
// requests is the transport call site's responsibility (it spawns Serve in
// its own goroutine per request, see transport/client/base and
// transport/server/base), so Serve itself may block for as long as the
// resolved handler takes.
//
// A zero-value response.Id on return is a sentinel meaning "send nothing":
// used when the request was cancelled before the handler produced a result,
// per spec §4.3.3 ("the handler's late reply, if any, is dropped on the
// floor").
func (s *Session) Serve(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	response.Jsonrpc = jsonrpc.Version
	response.Id = request.Id

	switch request.Method {
	case "ping":
		response.Result = json.RawMessage(`{}`)
		return
	case "initialize":
		s.handleInitialize(request, response)
		return
	case "roots/list":
		s.handleRoots(ctx, request, response)
		return
	case "sampling/createMessage":
		s.handleSampling(ctx, request, response)
		return
	}

	if s.role == RoleServer {
		switch s.State() {
		case HandshakeInProgress, Created:
			s.reply(response, jsonrpc.NewHandlerError(-32002, "server not initialized", nil))
			return
		case Closing, Closed:
			s.reply(response, jsonrpc.NewHandlerError(jsonrpc.InternalError, ErrConnectionClosed.Error(), nil))
			return
		}
	}

	h, ok := s.config.Registry.Request(request.Method)
	if !ok {
		s.reply(response, jsonrpc.NewHandlerError(jsonrpc.MethodNotFound, fmt.Sprintf("method not found: %s", request.Method), nil))
		return
	}
	if !s.capabilityAllows(request.Method) {
		s.reply(response, jsonrpc.NewHandlerError(jsonrpc.MethodNotFound, fmt.Sprintf("capability not enabled for method: %s", request.Method), nil))
		return
	}

	s.dispatch(ctx, request, response, h)
}

func (s *Session) dispatch(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response, h handler.RequestHandler) {
	reqCtx, cancel := context.WithCancel(ctx)
	reqCtx = context.WithValue(reqCtx, sessionContextKey, s)
	s.registerCancel(request.Id, cancel)
	defer func() {
		s.unregisterCancel(request.Id)
		cancel()
	}()

	var progress *ProgressReporter
	if token := progressTokenOf(request.Params); token != nil {
		progress = newProgressReporter(s, token)
	}
	hctx := handler.NewContext(reqCtx, s, progress)

	result, herr := h(hctx, request.Params)

	if reqCtx.Err() != nil {
		response.Id = jsonrpc.RequestId{} // suppress: cancelled, drop any late result
		return
	}
	if herr != nil {
		s.reply(response, herr)
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		s.reply(response, jsonrpc.NewHandlerError(jsonrpc.InternalError, err.Error(), nil))
		return
	}
	response.Result = data
}

func (s *Session) reply(response *jsonrpc.Response, err *jsonrpc.Error) {
	response.Error = err
	response.Result = nil
}

// capabilityAllows enforces spec §3's invariant: the advertiser of a
// capability-gated namespace (tools/, prompts/, resources/) must have opted
// in, otherwise the method is treated as not found. Methods outside those
// namespaces are ungated at this layer (application-specific).
func (s *Session) capabilityAllows(method string) bool {
	switch {
	case strings.HasPrefix(method, "tools/"):
		return s.config.ServerCapabilities.HasTools()
	case strings.HasPrefix(method, "prompts/"):
		return s.config.ServerCapabilities.HasPrompts()
	case strings.HasPrefix(method, "resources/"):
		return s.config.ServerCapabilities.HasResources()
	default:
		return true
	}
}

func (s *Session) handleInitialize(request *jsonrpc.Request, response *jsonrpc.Response) {
	if s.role != RoleServer {
		s.reply(response, jsonrpc.NewHandlerError(jsonrpc.InvalidRequest, "initialize is not accepted by a client session", nil))
		return
	}
	if s.State() == Ready {
		// REDESIGN FLAGS / spec §9 Open Question: a second initialize after
		// Ready is InvalidRequest.
		s.reply(response, jsonrpc.NewHandlerError(jsonrpc.InvalidRequest, "session already initialized", nil))
		return
	}
	var params InitializeParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		s.reply(response, jsonrpc.NewHandlerError(jsonrpc.InvalidParams, err.Error(), nil))
		return
	}
	s.mu.Lock()
	s.peerClientCaps = &params.Capabilities
	s.peerImplementation = params.ClientInfo
	s.mu.Unlock()
	s.setState(HandshakeInProgress)

	result := InitializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo:      s.config.Implementation,
		Capabilities:    s.config.ServerCapabilities,
	}
	data, err := json.Marshal(result)
	if err != nil {
		s.reply(response, jsonrpc.NewHandlerError(jsonrpc.InternalError, err.Error(), nil))
		return
	}
	response.Result = data
}

func (s *Session) handleRoots(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	if s.role != RoleClient || s.config.Roots == nil {
		s.reply(response, jsonrpc.NewHandlerError(jsonrpc.MethodNotFound, "roots/list handler not registered", nil))
		return
	}
	hctx := handler.NewContext(ctx, s, nil)
	result, herr := s.config.Roots(hctx)
	if herr != nil {
		s.reply(response, herr)
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		s.reply(response, jsonrpc.NewHandlerError(jsonrpc.InternalError, err.Error(), nil))
		return
	}
	response.Result = data
}

func (s *Session) handleSampling(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	if s.role != RoleClient || s.config.Sampling == nil {
		s.reply(response, jsonrpc.NewHandlerError(jsonrpc.MethodNotFound, "sampling/createMessage handler not registered", nil))
		return
	}
	var params CreateMessageParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		s.reply(response, jsonrpc.NewHandlerError(jsonrpc.InvalidParams, err.Error(), nil))
		return
	}
	hctx := handler.NewContext(ctx, s, nil)
	result, herr := s.config.Sampling(hctx, &params)
	if herr != nil {
		s.reply(response, herr)
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		s.reply(response, jsonrpc.NewHandlerError(jsonrpc.InternalError, err.Error(), nil))
		return
	}
	response.Result = data
}

// OnNotification implements transport.Handler: built-in notifications (spec
// §4.3.5) are handled directly; everything else is routed to the C4
// registry, silently ignored if unregistered (per JSON-RPC and spec §4.4).
func (s *Session) OnNotification(ctx context.Context, notification *jsonrpc.Notification) {
	switch notification.Method {
	case "notifications/initialized":
		s.setState(Ready)
		return
	case "notifications/cancelled":
		var p CancelledParams
		if err := json.Unmarshal(notification.Params, &p); err != nil {
			s.logf("mcpsession: malformed notifications/cancelled: %v", err)
			return
		}
		var id jsonrpc.RequestId
		if err := id.UnmarshalJSON(p.RequestID); err != nil {
			s.logf("mcpsession: malformed notifications/cancelled requestId: %v", err)
			return
		}
		s.cancelInbound(id)
		return
	case "notifications/progress":
		s.routeProgress(notification.Params)
		return
	}
	if h, ok := s.config.Registry.Notification(notification.Method); ok {
		h(ctx, notification.Params)
	}
}
