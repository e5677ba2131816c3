package stream

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/viant/mcp/jsonrpc"
	"github.com/viant/mcp/transport"
)

type mockHandler struct {
	serveFunc          func(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response)
	onNotificationFunc func(ctx context.Context, notification *jsonrpc.Notification)
}

func (m *mockHandler) Serve(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	if m.serveFunc != nil {
		m.serveFunc(ctx, request, response)
		return
	}
	response.Result = []byte(`"ok"`)
}

func (m *mockHandler) OnNotification(ctx context.Context, notification *jsonrpc.Notification) {
	if m.onNotificationFunc != nil {
		m.onNotificationFunc(ctx, notification)
	}
}

func TestClient_SendReceivesMatchingResponse(t *testing.T) {
	// The response must only become readable after Send has registered its
	// RoundTrip (otherwise the read loop, started as soon as New returns,
	// could race ahead and Match before Add, dropping the response) - an
	// io.Pipe plus a short delay mirrors how the stdio client's own tests
	// simulate an asynchronous peer reply.
	pr, pw := io.Pipe()
	go func() {
		time.Sleep(50 * time.Millisecond)
		_, _ = pw.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"success"}` + "\n"))
	}()
	var out bytes.Buffer

	c := New(context.Background(), pr, &out, WithRunTimeout(2000))

	resp, err := c.Send(context.Background(), &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Method: "test"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if string(resp.Result) != `"success"` {
		t.Fatalf("got result %q, want %q", resp.Result, `"success"`)
	}
	if !strings.Contains(out.String(), `"method":"test"`) {
		t.Fatalf("expected request to be written to the stream, got %q", out.String())
	}
}

func TestClient_HandleInboundRequest(t *testing.T) {
	handled := make(chan struct{})
	handler := &mockHandler{
		serveFunc: func(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
			response.Result = []byte(`"handled"`)
			close(handled)
		},
	}
	server := strings.NewReader(`{"jsonrpc":"2.0","method":"ping","id":1}` + "\n")
	var out bytes.Buffer

	c := New(context.Background(), server, &out, WithHandler(handler))
	_ = c

	select {
	case <-handled:
	case <-time.After(time.Second):
		t.Fatal("inbound request was never dispatched to the handler")
	}
}

func TestClient_WithTrips(t *testing.T) {
	trips := transport.NewRoundTrips(5)
	c := New(context.Background(), strings.NewReader(""), io.Discard, WithTrips(trips))
	if c.base.RoundTrips != trips {
		t.Fatal("WithTrips did not override the correlation table")
	}
}
