package oauth

import "github.com/pkg/errors"

// ErrAuthFailed is the sentinel spec §7's AuthFailed kind maps to. Every
// HandleUnauthorized failure wraps it via errors.Wrap so callers can match it
// with errors.Is/errors.Cause while still seeing the step that failed.
var ErrAuthFailed = errors.New("oauth: failed to handle unauthorized response")

func wrapAuthFailed(err error, step string) error {
	return errors.Wrapf(ErrAuthFailed, "%s: %v", step, err)
}
