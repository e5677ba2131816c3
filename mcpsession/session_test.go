package mcpsession

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mcp/handler"
	"github.com/viant/mcp/jsonrpc"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// pipeTransport is an in-memory transport.Transport used only by these
// tests: it wires two Sessions together directly (bypassing stdio/HTTP) so
// the session-endpoint state machine can be exercised without a real
// subprocess or socket, matching spec §8's end-to-end scenarios. Send
// invokes the peer's Serve directly instead of going through an encoder.
type pipeTransport struct {
	seq        uint64
	peerServe  func(ctx context.Context, req *jsonrpc.Request, resp *jsonrpc.Response)
	peerNotify func(ctx context.Context, n *jsonrpc.Notification)
}

func (p *pipeTransport) Send(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	req.Id = jsonrpc.NewIntID(int64(atomic.AddUint64(&p.seq, 1)))
	resp := &jsonrpc.Response{}
	done := make(chan struct{})
	go func() {
		p.peerServe(ctx, req, resp)
		close(done)
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-done:
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("pipeTransport: timeout waiting for response")
	}
	return resp, nil
}

func (p *pipeTransport) Notify(ctx context.Context, n *jsonrpc.Notification) error {
	// Synchronous, unlike Send: a real wire write completes before Notify
	// returns, and tests that immediately assert post-handshake state (e.g.
	// srv.State() == Ready right after notifications/initialized) need that
	// ordering guarantee too.
	p.peerNotify(ctx, n)
	return nil
}

// link connects two fresh Sessions back to back via a pair of pipeTransports
// and starts both (the client session drives the handshake).
func link(t *testing.T, serverOpts, clientOpts []Option) (*Session, *Session) {
	t.Helper()
	srv := newSession(RoleServer, serverOpts...)
	cli := newSession(RoleClient, clientOpts...)

	// toServer is srv's outbound transport: when srv calls Send/Notify on it,
	// it must reach the peer, cli.
	toServer := &pipeTransport{peerServe: cli.Serve, peerNotify: cli.OnNotification}
	// toClient is cli's outbound transport, reaching srv.
	toClient := &pipeTransport{peerServe: srv.Serve, peerNotify: srv.OnNotification}

	require.NoError(t, srv.Start(context.Background(), toServer))
	require.NoError(t, cli.Start(context.Background(), toClient))
	return srv, cli
}

func TestHandshakeAndEcho(t *testing.T) {
	echoTool := handler.NewToolDispatcher(map[string]handler.ToolFunc{
		"echo": func(ctx *handler.Context, args json.RawMessage) (string, error) {
			var a struct {
				Message string `json:"message"`
			}
			_ = json.Unmarshal(args, &a)
			return "Echo: " + a.Message, nil
		},
	})
	reg := handler.NewRegistry()
	reg.Register("tools/call", echoTool)

	srv, cli := link(t,
		[]Option{WithRegistry(reg), WithServerCapabilities(ServerCapabilities{Tools: &struct {
			ListChanged bool `json:"listChanged,omitempty"`
		}{}})},
		nil,
	)
	require.Equal(t, Ready, cli.State())
	require.Equal(t, Ready, srv.State())

	var result handler.ToolCallResult
	err := cli.Call(context.Background(), "tools/call", handler.ToolCallParams{Name: "echo", Arguments: mustJSON(t, map[string]string{"message": "Hello MCP!"})}, &result)
	require.NoError(t, err)
	assert.Equal(t, "Echo: Hello MCP!", result.Content[0].Text)
	assert.False(t, result.IsError)
}

func TestMethodNotFound(t *testing.T) {
	_, cli := link(t, nil, nil)
	err := cli.Call(context.Background(), "tools/call", nil, nil)
	require.Error(t, err)
	rpcErr, ok := err.(*jsonrpc.Error)
	require.True(t, ok, "expected a *jsonrpc.Error, got %T", err)
	assert.Equal(t, jsonrpc.MethodNotFound, rpcErr.Code)
}

func TestCapabilityGatesUnadvertisedNamespace(t *testing.T) {
	reg := handler.NewRegistry()
	reg.Register("tools/call", handler.NewToolDispatcher(nil))
	// No WithServerCapabilities: tools capability is not advertised.
	_, cli := link(t, []Option{WithRegistry(reg)}, nil)

	err := cli.Call(context.Background(), "tools/call", handler.ToolCallParams{Name: "missing"}, nil)
	require.Error(t, err)
	rpcErr, ok := err.(*jsonrpc.Error)
	require.True(t, ok)
	assert.Equal(t, jsonrpc.MethodNotFound, rpcErr.Code)
}

func TestConcurrentToolCalls(t *testing.T) {
	echoTool := handler.NewToolDispatcher(map[string]handler.ToolFunc{
		"echo": func(ctx *handler.Context, args json.RawMessage) (string, error) {
			var a struct {
				Message string `json:"message"`
			}
			_ = json.Unmarshal(args, &a)
			return a.Message, nil
		},
	})
	reg := handler.NewRegistry()
	reg.Register("tools/call", echoTool)
	_, cli := link(t, []Option{WithRegistry(reg), WithServerCapabilities(ServerCapabilities{Tools: &struct {
		ListChanged bool `json:"listChanged,omitempty"`
	}{}})}, nil)

	const n = 100
	var wg sync.WaitGroup
	errs := make([]error, n)
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := fmt.Sprintf("msg-%d", i)
			var result handler.ToolCallResult
			errs[i] = cli.Call(context.Background(), "tools/call", handler.ToolCallParams{Name: "echo", Arguments: mustJSON(t, map[string]string{"message": msg})}, &result)
			if len(result.Content) > 0 {
				results[i] = result.Content[0].Text
			}
		}(i)
	}
	wg.Wait()
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprintf("msg-%d", i), results[i])
	}
}

func TestNonHandshakeRequestBeforeInitializedIsRejected(t *testing.T) {
	srv := newSession(RoleServer)
	toServer := &pipeTransport{
		peerServe:  func(ctx context.Context, req *jsonrpc.Request, resp *jsonrpc.Response) {},
		peerNotify: func(ctx context.Context, n *jsonrpc.Notification) {},
	}
	require.NoError(t, srv.Start(context.Background(), toServer))
	require.Equal(t, HandshakeInProgress, srv.State())

	resp := &jsonrpc.Response{}
	srv.Serve(context.Background(), &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Id: jsonrpc.NewIntID(1), Method: "tools/call"}, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32002, resp.Error.Code)
}

func TestDuplicateInitializeAfterReadyIsInvalidRequest(t *testing.T) {
	srv, _ := link(t, nil, nil)
	require.Equal(t, Ready, srv.State())

	resp := &jsonrpc.Response{}
	srv.Serve(context.Background(), &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Id: jsonrpc.NewIntID(99), Method: "initialize", Params: mustJSON(t, InitializeParams{ProtocolVersion: ProtocolVersion})}, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.InvalidRequest, resp.Error.Code)
}

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
