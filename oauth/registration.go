package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/pkg/errors"
	"net/http"
)

// registrationRequest is the RFC 7591 dynamic client registration request body.
type registrationRequest struct {
	ClientName              string   `json:"client_name,omitempty"`
	RedirectURIs            []string `json:"redirect_uris,omitempty"`
	GrantTypes              []string `json:"grant_types,omitempty"`
	ResponseTypes           []string `json:"response_types,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty"`
}

// registrationResponse is the subset of the RFC 7591 response this client needs.
type registrationResponse struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// registerDynamic performs spec §4.5 step 4: RFC 7591 dynamic client
// registration against the authorization server's registration_endpoint.
func registerDynamic(ctx context.Context, httpClient *http.Client, endpoint string, reg Registration) (string, string, error) {
	body := registrationRequest{
		ClientName:              reg.ClientName,
		RedirectURIs:            reg.RedirectURIs,
		GrantTypes:              []string{"authorization_code", "refresh_token"},
		ResponseTypes:           []string{"code"},
		TokenEndpointAuthMethod: "client_secret_post",
	}
	if body.ClientName == "" {
		body.ClientName = "mcp-client"
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to marshal dynamic registration request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", "", errors.Wrap(err, "failed to build dynamic registration request")
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", "", errors.Wrap(err, "dynamic registration request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", "", errors.Errorf("dynamic registration returned status %d", resp.StatusCode)
	}
	var out registrationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", errors.Wrap(err, "failed to decode dynamic registration response")
	}
	if out.ClientID == "" {
		return "", "", errors.New("dynamic registration response missing client_id")
	}
	return out.ClientID, out.ClientSecret, nil
}
