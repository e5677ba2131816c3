package jsonrpc

// ContextKey is the type for keys stored in a context.Context by this package
// and its transports, avoiding collisions with keys from other packages.
type ContextKey string

// SessionKey is the context key under which a transport stores a handle to
// the session (client or server) handling the current request, so that
// handler code invoked by dispatch can reach back to it, e.g. to send
// notifications or look up correlated requests.
const SessionKey ContextKey = "jsonrpc.session"
