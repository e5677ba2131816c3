package oauth

import (
	"context"
	"net/http"
)

// AuthorizeRedirect is the caller-supplied browser-interaction delegate of
// spec §4.5 step 5: given the built authorization URL, it drives the user
// through the authorization server's login/consent screen (however the host
// application chooses to: opening a system browser, a webview, a device-code
// prompt) and returns the resulting authorization code.
type AuthorizeRedirect func(ctx context.Context, authorizationURL string) (code string, err error)

// Registration carries pre-configured RFC 7591 dynamic client registration
// details. When ClientID is empty, Client.HandleUnauthorized performs
// dynamic registration against the discovered registration_endpoint and
// fills ClientID/ClientSecret in for subsequent calls.
type Registration struct {
	ClientID     string
	ClientSecret string
	ClientName   string
	RedirectURIs []string
}

// Config configures an oauth.Client, an explicit struct per spec §9's
// "Global static state" Design Note rather than package-level singletons.
type Config struct {
	HTTPClient        *http.Client
	Store             TokenStore
	Scopes            []string
	RedirectURL       string
	Registration      Registration
	SelectAS          ASSelector
	AuthorizeRedirect AuthorizeRedirect
}

// Option configures a Config.
type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		HTTPClient: http.DefaultClient,
		Store:      NewMemoryTokenStore(),
		SelectAS:   DefaultASSelector,
	}
}

// WithHTTPClient overrides the default http.DefaultClient used for discovery
// and token requests.
func WithHTTPClient(c *http.Client) Option { return func(cfg *Config) { cfg.HTTPClient = c } }

// WithTokenStore overrides the default in-memory TokenStore.
func WithTokenStore(s TokenStore) Option { return func(cfg *Config) { cfg.Store = s } }

// WithScopes sets the scopes requested during the authorization-code flow.
func WithScopes(scopes ...string) Option { return func(cfg *Config) { cfg.Scopes = scopes } }

// WithRedirectURL sets the OAuth redirect_uri used for the authorization
// code exchange and as the default in dynamic registration.
func WithRedirectURL(url string) Option { return func(cfg *Config) { cfg.RedirectURL = url } }

// WithRegistration pre-configures a client_id/secret, skipping RFC 7591
// dynamic registration.
func WithRegistration(r Registration) Option { return func(cfg *Config) { cfg.Registration = r } }

// WithASSelector overrides which authorization server is picked when more
// than one is advertised.
func WithASSelector(sel ASSelector) Option { return func(cfg *Config) { cfg.SelectAS = sel } }

// WithAuthorizeRedirect installs the browser-interaction delegate.
func WithAuthorizeRedirect(fn AuthorizeRedirect) Option {
	return func(cfg *Config) { cfg.AuthorizeRedirect = fn }
}
