package sse

import (
	"github.com/viant/mcp/jsonrpc"
	"github.com/viant/mcp/oauth"
	"github.com/viant/mcp/transport"
	"net/http"
	"time"
)

// Option is a function that configures the Client
type Option func(*Client)

// WithClient sets the HTTP client used for both the outbound message POSTs
// and the long-lived event stream GET.
func WithClient(client *http.Client) Option {
	return func(c *Client) {
		c.transport.messageClient = client
		c.transport.sseClient = client
	}
}

// WithOAuth installs spec §4.5's 401-challenge-driven bearer token flow by
// wrapping the transport's HTTP clients with an oauth.RoundTripper. Must be
// applied after any WithClient call so it wraps the caller's base transport
// rather than being overwritten by it.
func WithOAuth(client *oauth.Client) Option {
	return func(c *Client) {
		wrapped := &http.Client{Transport: oauth.NewRoundTripper(client, c.transport.messageClient.Transport)}
		c.transport.messageClient = wrapped
		c.transport.sseClient = wrapped
	}
}

// WithHandshakeTimeout sets the handshake timeout for the SSE client
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.handshakeTimeout = timeout
	}
}

// WithTrips sets the trips for the SSE client
func WithTrips(trips *transport.RoundTrips) Option {
	return func(c *Client) {
		c.base.RoundTrips = trips
	}
}

// WithListener set listener on http tips
func WithListener(listener jsonrpc.Listener) Option {
	return func(c *Client) {
		c.base.Listener = listener
	}
}

func WithHandler(handler transport.Handler) Option {
	return func(c *Client) {
		c.base.Handler = handler
	}
}
