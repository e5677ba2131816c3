package oauth

import (
	"context"
	"encoding/json"
	"github.com/pkg/errors"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ProtectedResourceMetadata is the RFC 9728 document a server advertises at
// /.well-known/oauth-protected-resource, naming which authorization servers
// may authenticate access to it.
type ProtectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	AuthorizationServers    []string `json:"authorization_servers"`
	ScopesSupported         []string `json:"scopes_supported,omitempty"`
	BearerMethodsSupported  []string `json:"bearer_methods_supported,omitempty"`
	ResourceDocumentation   string   `json:"resource_documentation,omitempty"`
}

// ASMetadata is the (OIDC or RFC 8414) authorization-server metadata
// document, with the defaults spec §4.5 step 3 requires already filled in by
// fetchASMetadata.
type ASMetadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	RegistrationEndpoint              string   `json:"registration_endpoint,omitempty"`
	ResponseTypesSupported            []string `json:"response_types_supported,omitempty"`
	GrantTypesSupported               []string `json:"grant_types_supported,omitempty"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported,omitempty"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported,omitempty"`
}

func applyASDefaults(m *ASMetadata) {
	if len(m.ResponseTypesSupported) == 0 {
		m.ResponseTypesSupported = []string{"code"}
	}
	if len(m.GrantTypesSupported) == 0 {
		m.GrantTypesSupported = []string{"authorization_code", "refresh_token"}
	}
	if len(m.TokenEndpointAuthMethodsSupported) == 0 {
		m.TokenEndpointAuthMethodsSupported = []string{"client_secret_post"}
	}
	if len(m.CodeChallengeMethodsSupported) == 0 {
		m.CodeChallengeMethodsSupported = []string{"S256"}
	}
}

func fetchJSON(ctx context.Context, client *http.Client, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to build metadata request for %s", rawURL)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to fetch metadata from %s", rawURL)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Errorf("metadata request to %s returned status %d: %s", rawURL, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode metadata from %s", rawURL)
	}
	return nil
}

// fetchProtectedResourceMetadata fetches and validates the RFC 9728 document
// per spec §4.5 step 1: the metadata's resource field must normalize to the
// same value as requestURL, else it is rejected (Testable Property 9).
func fetchProtectedResourceMetadata(ctx context.Context, client *http.Client, metadataURL, requestURL string) (*ProtectedResourceMetadata, error) {
	var m ProtectedResourceMetadata
	if err := fetchJSON(ctx, client, metadataURL, &m); err != nil {
		return nil, err
	}
	if normalizeResourceURL(m.Resource) != normalizeResourceURL(requestURL) {
		return nil, errors.Errorf("protected resource metadata 'resource' %q does not match request URL %q", m.Resource, requestURL)
	}
	if len(m.AuthorizationServers) == 0 {
		return nil, errors.New("protected resource metadata advertises no authorization servers")
	}
	return &m, nil
}

// normalizeResourceURL drops the port and trims a trailing slash, per spec §3.
func normalizeResourceURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.TrimSuffix(raw, "/")
	}
	host := u.Hostname() // drops port
	u.Host = host
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

// fetchASMetadata implements spec §4.5 step 3: try OIDC discovery first, then
// the RFC 8414 well-known path, filling defaults for any missing fields.
func fetchASMetadata(ctx context.Context, client *http.Client, issuer string) (*ASMetadata, error) {
	issuer = strings.TrimSuffix(issuer, "/")
	var m ASMetadata
	oidcErr := fetchJSON(ctx, client, issuer+"/.well-known/openid-configuration", &m)
	if oidcErr == nil {
		applyASDefaults(&m)
		return &m, nil
	}
	asErr := fetchJSON(ctx, client, issuer+"/.well-known/oauth-authorization-server", &m)
	if asErr == nil {
		applyASDefaults(&m)
		return &m, nil
	}
	return nil, errors.Wrapf(asErr, "failed to discover authorization server metadata for %s (openid-configuration error: %v)", issuer, oidcErr)
}

// ASSelector picks one authorization server issuer from the list advertised
// by protected-resource metadata. The default selects the first.
type ASSelector func(issuers []string) string

// DefaultASSelector selects the first advertised authorization server.
func DefaultASSelector(issuers []string) string {
	if len(issuers) == 0 {
		return ""
	}
	return issuers[0]
}

