package stream

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/viant/mcp/jsonrpc"
	transport2 "github.com/viant/mcp/transport"
	"github.com/viant/mcp/transport/client/base"
)

// Client drives the MCP client protocol over an arbitrary duplex byte
// stream - same line-delimited JSON framing as transport/client/stdio, but
// the reader/writer pair is supplied directly rather than attached to a
// spawned subprocess (spec's "stream transport": "same framing as stdio but
// over arbitrary supplied input/output byte streams").
type Client struct {
	base   *base.Client
	reader *bufio.Reader
	ctx    context.Context
}

func (c *Client) start(ctx context.Context) {
	go c.readLoop(ctx)
}

// readLoop reads newline-delimited frames until the peer closes the stream
// or ctx is done, handing each one to base.Client.HandleMessage. A line that
// fails to parse as any JSON-RPC message (e.g. a peer banner) is logged by
// HandleMessage's own detection fallback rather than treated as fatal,
// matching the stdio transport's tolerant posture.
func (c *Client) readLoop(ctx context.Context) {
	for {
		if err := ctx.Err(); err != nil {
			c.base.SetError(err)
			return
		}
		line, err := c.reader.ReadString('\n')
		if len(line) > 0 {
			c.base.HandleMessage(c.ctx, []byte(line))
		}
		if err != nil {
			if err != io.EOF {
				c.base.SetError(err)
			} else {
				c.base.SetError(io.EOF)
			}
			return
		}
	}
}

// Notify sends a notification over the stream.
func (c *Client) Notify(ctx context.Context, request *jsonrpc.Notification) error {
	return c.base.Notify(ctx, request)
}

// Send sends a request over the stream and waits for its matching response.
func (c *Client) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	return c.base.Send(ctx, request)
}

// New creates a client that reads MCP frames from r and writes them to w,
// the two halves of a caller-supplied duplex byte stream (e.g. a net.Conn,
// a named pipe, an in-process pipe).
func New(ctx context.Context, r io.Reader, w io.Writer, options ...Option) *Client {
	if ctx == nil {
		ctx = context.Background()
	}
	c := &Client{
		ctx:    ctx,
		reader: bufio.NewReader(r),
		base: &base.Client{
			RoundTrips: transport2.NewRoundTrips(20),
			RunTimeout: 15 * time.Minute,
			Transport:  &Transport{writer: w},
			Handler:    &base.Handler{},
			Logger:     jsonrpc.DefaultLogger,
		},
	}
	for _, opt := range options {
		opt(c)
	}
	c.start(ctx)
	return c
}
