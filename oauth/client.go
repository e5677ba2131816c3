package oauth

import (
	"context"
	"github.com/pkg/errors"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Client implements spec §4.5: it is activated only for HTTP-based
// transports and turns a 401 challenge into a cached bearer token via the
// PKCE authorization-code flow (with optional RFC 7591 dynamic
// registration), refreshing proactively when close to expiry.
type Client struct {
	config *Config

	mu        sync.Mutex
	endpoints map[string]*resourceAuth // normalized resource -> discovered AS + client creds
}

// resourceAuth is what HandleUnauthorized learns about a resource so a later
// proactive refresh doesn't need to rediscover it.
type resourceAuth struct {
	asMeta       *ASMetadata
	clientID     string
	clientSecret string
}

// New constructs a Client. AuthorizeRedirect must be supplied via
// WithAuthorizeRedirect for the authorization-code flow to be able to
// complete; its absence only matters once a 401 is actually observed.
func New(opts ...Option) *Client {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Client{config: cfg, endpoints: make(map[string]*resourceAuth)}
}

var wwwAuthenticateParam = regexp.MustCompile(`([a-zA-Z_]+)="([^"]*)"`)

// parseWWWAuthenticate extracts the named parameters of a
// `WWW-Authenticate: Bearer realm="...", resource_metadata="..."` header.
func parseWWWAuthenticate(header string) map[string]string {
	out := map[string]string{}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(header)), "bearer") {
		return out
	}
	for _, m := range wwwAuthenticateParam.FindAllStringSubmatch(header, -1) {
		out[m[1]] = m[2]
	}
	return out
}

// Token returns a cached, still-usable token for resource if one exists,
// proactively refreshing it when within 5 minutes of expiry and a refresh
// token is available (spec §4.5 step 6). It does not trigger a new
// authorization-code flow; that only happens from HandleUnauthorized.
func (c *Client) Token(ctx context.Context, resource string) (*Token, bool, error) {
	resource = normalizeResourceURL(resource)
	tok, ok, err := c.config.Store.Get(ctx, resource)
	if err != nil || !ok {
		return nil, false, err
	}
	if tok.Usable() {
		return tok, true, nil
	}
	if !tok.Refreshable() {
		return tok, false, nil
	}
	c.mu.Lock()
	ra := c.endpoints[resource]
	c.mu.Unlock()
	if ra == nil {
		// Never discovered this resource's AS ourselves (a token was seeded
		// externally): fall through to a fresh 401 -> HandleUnauthorized
		// round-trip, per spec §4.5 step 6.
		return tok, false, nil
	}
	refreshed, err := c.refresh(ctx, ra, tok)
	if err != nil {
		return tok, false, nil // refresh failed silently; caller retries via 401 path
	}
	if err := c.config.Store.Put(ctx, resource, refreshed); err != nil {
		return refreshed, false, err
	}
	return refreshed, true, nil
}

func (c *Client) refresh(ctx context.Context, ra *resourceAuth, tok *Token) (*Token, error) {
	conf := c.oauth2Config(ra.asMeta, ra.clientID, ra.clientSecret)
	src := conf.TokenSource(ctx, &oauth2.Token{AccessToken: tok.Access, RefreshToken: tok.Refresh, Expiry: tok.ExpiresAt()})
	fresh, err := src.Token()
	if err != nil {
		return nil, errors.Wrap(err, "token refresh failed")
	}
	return fromOAuth2Token(fresh), nil
}

// HandleUnauthorized implements spec §4.5 steps 1-6 in order, returning a
// fresh Token on success. requestURL is the URL the caller actually used to
// reach the protected resource (for the RFC 9728 resource-binding check,
// Testable Property 9).
func (c *Client) HandleUnauthorized(ctx context.Context, resp *http.Response, requestURL string) (*Token, error) {
	params := parseWWWAuthenticate(resp.Header.Get("WWW-Authenticate"))
	metadataURL := params["resource_metadata"]
	if metadataURL == "" {
		return nil, wrapAuthFailed(errors.New("401 response missing WWW-Authenticate resource_metadata parameter"), "parse challenge")
	}

	prm, err := fetchProtectedResourceMetadata(ctx, c.config.HTTPClient, metadataURL, requestURL)
	if err != nil {
		return nil, wrapAuthFailed(err, "fetch protected resource metadata")
	}

	issuer := c.config.SelectAS(prm.AuthorizationServers)
	if issuer == "" {
		return nil, wrapAuthFailed(errors.New("no authorization server selected"), "select authorization server")
	}

	asMeta, err := fetchASMetadata(ctx, c.config.HTTPClient, issuer)
	if err != nil {
		return nil, wrapAuthFailed(err, "discover authorization server metadata")
	}

	clientID := c.config.Registration.ClientID
	clientSecret := c.config.Registration.ClientSecret
	if clientID == "" {
		if asMeta.RegistrationEndpoint == "" {
			return nil, wrapAuthFailed(errors.New("no client_id configured and authorization server advertises no registration_endpoint"), "dynamic client registration")
		}
		reg := c.config.Registration
		if len(reg.RedirectURIs) == 0 && c.config.RedirectURL != "" {
			reg.RedirectURIs = []string{c.config.RedirectURL}
		}
		clientID, clientSecret, err = registerDynamic(ctx, c.config.HTTPClient, asMeta.RegistrationEndpoint, reg)
		if err != nil {
			return nil, wrapAuthFailed(err, "dynamic client registration")
		}
		c.config.Registration.ClientID = clientID
		c.config.Registration.ClientSecret = clientSecret
	}

	token, err := c.runAuthorizationCodeFlow(ctx, asMeta, clientID, clientSecret)
	if err != nil {
		return nil, wrapAuthFailed(err, "authorization code exchange")
	}

	resource := normalizeResourceURL(prm.Resource)
	c.mu.Lock()
	c.endpoints[resource] = &resourceAuth{asMeta: asMeta, clientID: clientID, clientSecret: clientSecret}
	c.mu.Unlock()

	if err := c.config.Store.Put(ctx, resource, token); err != nil {
		return nil, wrapAuthFailed(err, "cache token")
	}
	return token, nil
}

func (c *Client) oauth2Config(asMeta *ASMetadata, clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  c.config.RedirectURL,
		Scopes:       c.config.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  asMeta.AuthorizationEndpoint,
			TokenURL: asMeta.TokenEndpoint,
		},
	}
}

// runAuthorizationCodeFlow implements spec §4.5 step 5: PKCE verifier/
// challenge generation, building the authorization URL, delegating to the
// caller's AuthorizeRedirect for the browser step, then exchanging the code.
func (c *Client) runAuthorizationCodeFlow(ctx context.Context, asMeta *ASMetadata, clientID, clientSecret string) (*Token, error) {
	if c.config.AuthorizeRedirect == nil {
		return nil, errors.New("no AuthorizeRedirect delegate configured")
	}
	p := newPKCE()
	conf := c.oauth2Config(asMeta, clientID, clientSecret)
	authURL := conf.AuthCodeURL("", p.challenge, oauth2.AccessTypeOffline)

	code, err := c.config.AuthorizeRedirect(ctx, authURL)
	if err != nil {
		return nil, errors.Wrap(err, "authorization redirect failed")
	}
	if code == "" {
		return nil, errors.New("authorization redirect returned an empty code")
	}

	tok, err := conf.Exchange(ctx, code, oauth2.VerifierOption(p.verifier))
	if err != nil {
		return nil, errors.Wrap(err, "token exchange failed")
	}
	return fromOAuth2Token(tok), nil
}

func fromOAuth2Token(tok *oauth2.Token) *Token {
	expiresIn := 0
	if !tok.Expiry.IsZero() {
		expiresIn = int(time.Until(tok.Expiry).Seconds())
	}
	scope, _ := tok.Extra("scope").(string)
	return &Token{
		Access:           tok.AccessToken,
		Refresh:          tok.RefreshToken,
		ObtainedAt:       time.Now(),
		ExpiresInSeconds: expiresIn,
		Scope:            scope,
	}
}
