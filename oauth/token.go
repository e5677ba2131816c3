// Package oauth implements the C5 component: acquiring and refreshing bearer
// tokens for an HTTP transport in response to a 401 challenge, per spec
// §4.5 — protected-resource metadata discovery, authorization-server
// discovery, optional RFC 7591 dynamic client registration, and a PKCE
// authorization-code flow built on golang.org/x/oauth2.
package oauth

import "time"

// Token mirrors spec §3's OAuth Token record.
type Token struct {
	Access           string    `json:"access"`
	Refresh          string    `json:"refresh,omitempty"`
	ObtainedAt       time.Time `json:"obtainedAt"`
	ExpiresInSeconds int       `json:"expiresInSeconds"`
	Scope            string    `json:"scope,omitempty"`
}

// ExpiresAt is the derived expiry instant: ObtainedAt + ExpiresInSeconds.
func (t *Token) ExpiresAt() time.Time {
	if t == nil || t.ExpiresInSeconds <= 0 {
		return time.Time{}
	}
	return t.ObtainedAt.Add(time.Duration(t.ExpiresInSeconds) * time.Second)
}

// refreshWindow is how far ahead of expiry a token is proactively refreshed
// and how close to expiry it is still considered usable, per spec §3/§4.5
// step 6 ("usable while expiresAt > now + 5 min").
const refreshWindow = 5 * time.Minute

// Usable reports whether t can still be used without refreshing.
func (t *Token) Usable() bool {
	if t == nil || t.Access == "" {
		return false
	}
	if t.ExpiresInSeconds <= 0 {
		return true // no expiry advertised
	}
	return t.ExpiresAt().After(time.Now().Add(refreshWindow))
}

// Refreshable reports whether t has a refresh token to proactively renew with.
func (t *Token) Refreshable() bool { return t != nil && t.Refresh != "" }
