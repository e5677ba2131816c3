package streaming

import (
	"github.com/viant/mcp/transport/server/base"
	"github.com/viant/mcp/transport/server/http/session"
)

// Options exposes configurable attributes of the handler.
type Options struct {
	// URI of the MCP endpoint (default: /mcp)
	URI string

	// SessionLocation defines where session id is transported (header or query param)
	SessionLocation *session.Location

	// OverflowPolicy controls behavior once the resumability event buffer is full.
	OverflowPolicy base.OverflowPolicy
}

// WithOverflowPolicy sets the event buffer overflow policy.
func WithOverflowPolicy(p base.OverflowPolicy) Option {
	return func(o *Options) { o.OverflowPolicy = p }
}

// Option mutates Options.
type Option func(*Options)

// WithURI sets custom URI.
func WithURI(uri string) Option {
	return func(o *Options) { o.URI = uri }
}

// WithSessionLocation overrides default session location.
func WithSessionLocation(loc *session.Location) Option {
	return func(o *Options) { o.SessionLocation = loc }
}
