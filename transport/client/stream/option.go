package stream

import (
	"time"

	"github.com/viant/mcp/jsonrpc"
	"github.com/viant/mcp/transport"
)

// Option configures a Client.
type Option func(c *Client)

// WithTrips overrides the correlation table (e.g. to share sizing with
// another transport, or to inject a pre-populated one for tests).
func WithTrips(trips *transport.RoundTrips) Option {
	return func(c *Client) {
		c.base.RoundTrips = trips
	}
}

// WithListener sets a listener observing every inbound/outbound message.
func WithListener(listener jsonrpc.Listener) Option {
	return func(c *Client) {
		c.base.Listener = listener
	}
}

// WithRunTimeout sets how long Send waits for a matching response.
func WithRunTimeout(timeoutMs int) Option {
	return func(c *Client) {
		c.base.RunTimeout = time.Duration(timeoutMs) * time.Millisecond
	}
}

// WithHandler sets the inbound request/notification handler.
func WithHandler(handler transport.Handler) Option {
	return func(c *Client) {
		c.base.Handler = handler
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger jsonrpc.Logger) Option {
	return func(c *Client) {
		c.base.Logger = logger
	}
}
