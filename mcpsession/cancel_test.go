package mcpsession

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mcp/handler"
	"github.com/viant/mcp/jsonrpc"
)

func TestCallerCancellationPropagatesToHandler(t *testing.T) {
	handlerCancelled := make(chan struct{})
	reg := handler.NewRegistry()
	reg.Register("work/slow", func(ctx *handler.Context, params json.RawMessage) (interface{}, *jsonrpc.Error) {
		<-ctx.Done()
		close(handlerCancelled)
		return nil, nil
	})

	_, cli := link(t, []Option{WithRegistry(reg)}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := cli.Call(ctx, "work/slow", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCancelled))

	select {
	case <-handlerCancelled:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for server-side handler to observe cancellation")
	}
}
