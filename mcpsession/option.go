package mcpsession

import (
	"context"
	"github.com/viant/mcp/handler"
	"github.com/viant/mcp/jsonrpc"
	"time"
)

// RootsHandler answers a server-issued "roots/list" request on the client side.
type RootsHandler func(ctx *handler.Context) (*RootsListResult, *jsonrpc.Error)

// SamplingHandler answers a server-issued "sampling/createMessage" request on
// the client side.
type SamplingHandler func(ctx *handler.Context, params *CreateMessageParams) (*CreateMessageResult, *jsonrpc.Error)

// Config carries construction-time configuration for a Session, following
// spec §9's Design Note on replacing global static state with an explicit
// struct passed at construction.
type Config struct {
	Implementation        Implementation
	ServerCapabilities    ServerCapabilities
	ClientCapabilities    ClientCapabilities
	InitializationTimeout time.Duration
	DrainTimeout          time.Duration
	Logger                jsonrpc.Logger
	Registry              *handler.Registry
	Roots                 RootsHandler
	Sampling              SamplingHandler
}

// Option configures a Config.
type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		Implementation:        Implementation{Name: "mcp", Version: "0.1.0"},
		InitializationTimeout: 60 * time.Second,
		DrainTimeout:          5 * time.Second,
		Logger:                jsonrpc.DefaultLogger,
		Registry:              handler.NewRegistry(),
	}
}

// WithImplementation sets the name/version sent at handshake.
func WithImplementation(name, version string) Option {
	return func(c *Config) { c.Implementation = Implementation{Name: name, Version: version} }
}

// WithServerCapabilities sets the capability bits a server session advertises.
func WithServerCapabilities(caps ServerCapabilities) Option {
	return func(c *Config) { c.ServerCapabilities = caps }
}

// WithClientCapabilities sets the capability bits a client session advertises.
func WithClientCapabilities(caps ClientCapabilities) Option {
	return func(c *Config) { c.ClientCapabilities = caps }
}

// WithInitializationTimeout overrides the default 60s handshake timeout.
func WithInitializationTimeout(d time.Duration) Option {
	return func(c *Config) { c.InitializationTimeout = d }
}

// WithDrainTimeout sets how long Close waits after cancelling in-flight
// inbound handlers; the wait is not cut short when they return.
func WithDrainTimeout(d time.Duration) Option {
	return func(c *Config) { c.DrainTimeout = d }
}

// WithLogger overrides the default stderr logger.
func WithLogger(l jsonrpc.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithRegistry supplies a pre-populated handler registry (C4). When omitted
// an empty one is created and callers register into it via Session.Registry().
func WithRegistry(r *handler.Registry) Option {
	return func(c *Config) { c.Registry = r }
}

// WithRoots installs the client-side handler for server-issued "roots/list".
func WithRoots(h RootsHandler) Option {
	return func(c *Config) { c.Roots = h }
}

// WithSampling installs the client-side handler for server-issued
// "sampling/createMessage".
func WithSampling(h SamplingHandler) Option {
	return func(c *Config) { c.Sampling = h }
}

// contextKey avoids collisions with jsonrpc.ContextKey and other packages'
// context keys.
type contextKey string

const sessionContextKey contextKey = "mcpsession.session"

// FromContext returns the Session stashed in ctx by the dispatcher, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(*Session)
	return s, ok
}
