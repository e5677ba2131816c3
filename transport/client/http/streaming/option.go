package streaming

import (
	"github.com/viant/mcp/oauth"
	"github.com/viant/mcp/transport"
	"net/http"
	"time"
)

// Option mutates Client.
type Option func(*Client)

// WithHTTPClient allows custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithOAuth installs spec §4.5's 401-challenge-driven bearer token flow by
// wrapping the client's http.Client with an oauth.RoundTripper. Apply after
// any WithHTTPClient call so it wraps the caller's base transport rather
// than being overwritten by it.
func WithOAuth(client *oauth.Client) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Jar: c.httpClient.Jar, Transport: oauth.NewRoundTripper(client, c.httpClient.Transport)}
	}
}

// WithHandler sets the handler for the SSE sseClient
func WithHandler(handler transport.Handler) Option {
	return func(c *Client) {
		c.base.Handler = handler
	}
}

// WithHandshakeTimeout overrides default handshake timeout.
func WithHandshakeTimeout(duration time.Duration) Option {
	return func(c *Client) {
		if duration <= 0 {
			return
		}
		c.handshakeTimeout = duration
	}
}
