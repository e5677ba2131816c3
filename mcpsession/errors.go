package mcpsession

import "errors"

// Sentinel error kinds from spec §7. Wrapped with %w by call sites so
// errors.Is still matches through added context.
var (
	ErrNotInitialized    = errors.New("mcpsession: server not initialized")
	ErrCancelled         = errors.New("mcpsession: request cancelled")
	ErrConnectionClosed  = errors.New("mcpsession: connection closed")
	ErrMethodNotFound    = errors.New("mcpsession: method not found")
	ErrInvalidRequest    = errors.New("mcpsession: invalid request")
	ErrAuthRequired      = errors.New("mcpsession: authentication required")
	ErrAuthFailed        = errors.New("mcpsession: authentication failed")
	ErrHandshakeTimeout  = errors.New("mcpsession: handshake timed out")
	ErrAlreadyStarted    = errors.New("mcpsession: session already started")
)
