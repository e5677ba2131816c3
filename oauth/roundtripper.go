package oauth

import (
	"bytes"
	"io"
	"net/http"

	"github.com/viant/mcp/jsonrpc"
)

// RoundTripper wraps an http.RoundTripper, attaching a cached bearer token
// to every request and running the spec §4.5 401 flow (via Client) at most
// once per request when the peer challenges it, per spec §4.5's "the
// in-flight request is not retried more than once per 401." Install it as an
// *http.Client's Transport and hand that client to any of this module's HTTP
// transports (transport/client/http/sse.WithClient,
// transport/client/http/streamable's equivalent option).
type RoundTripper struct {
	Base   http.RoundTripper
	Client *Client
}

// NewRoundTripper wraps base (http.DefaultTransport if nil) with oauth client.
func NewRoundTripper(client *Client, base http.RoundTripper) *RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RoundTripper{Base: base, Client: client}
}

func (rt *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	resource := requestResourceURL(req)
	if tok, ok, _ := rt.Client.Token(req.Context(), resource); ok {
		req = cloneRequestWithAuth(req, tok.Access)
	}

	resp, err := rt.Base.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	tok, authErr := rt.Client.HandleUnauthorized(req.Context(), resp, resource)
	resp.Body.Close()
	if authErr != nil {
		return nil, authErr
	}

	retry := cloneRequestWithAuth(req, tok.Access)
	retryResp, err := rt.Base.RoundTrip(retry)
	if err != nil {
		return nil, err
	}
	if retryResp.StatusCode == http.StatusUnauthorized {
		// Per spec §4.5, a request is retried at most once per 401: surface a
		// typed error instead of silently handing the caller a second 401 to
		// inspect itself.
		body, _ := io.ReadAll(retryResp.Body)
		retryResp.Body.Close()
		return nil, jsonrpc.NewUnauthorizedError(retryResp.StatusCode, body)
	}
	return retryResp, nil
}

func requestResourceURL(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// cloneRequestWithAuth clones req (rewinding its body if it was buffered) and
// sets the Authorization header; http.RoundTripper implementations must not
// mutate the original request.
func cloneRequestWithAuth(req *http.Request, accessToken string) *http.Request {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			clone.Body = body
		}
	} else if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		if err == nil {
			req.Body = io.NopCloser(bytes.NewReader(data))
			clone.Body = io.NopCloser(bytes.NewReader(data))
		}
	}
	clone.Header.Set("Authorization", "Bearer "+accessToken)
	return clone
}
