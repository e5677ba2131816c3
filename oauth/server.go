package oauth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/viant/mcp/transport/server/http/common"
)

// ResourceURL derives the canonical resource identifier for an incoming
// request, the value a server advertises in its protected-resource metadata
// and that a client must echo back unchanged (spec §4.5 / Testable
// Property 9). It reuses the teacher's reverse-proxy-aware host resolution
// instead of trusting r.Host directly.
func ResourceURL(r *http.Request, scheme string) string {
	host := common.ClientHost(r)
	if host == "" {
		host = r.Host
	}
	if scheme == "" {
		scheme = "https"
		if r.TLS == nil {
			scheme = "http"
		}
	}
	path := r.URL.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, path)
}

// ProtectedResourceHandler serves RFC 9728's
// /.well-known/oauth-protected-resource document. meta.Resource is
// overridden per-request with ResourceURL so the same handler works behind
// whatever host/proxy combination actually received the request.
func ProtectedResourceHandler(meta ProtectedResourceMetadata) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := meta
		out.Resource = ResourceURL(r, "")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})
}

// RequireBearer wraps next with the spec §4.5 step-1 challenge: a request
// with no recognizable bearer token is rejected with 401 and a
// WWW-Authenticate header carrying resource_metadata, rather than ever
// accepting an unauthenticated request. validate inspects the raw bearer
// token and reports whether it is acceptable.
func RequireBearer(next http.Handler, realm, metadataPath string, validate func(token string) bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token != "" && validate(token) {
			next.ServeHTTP(w, r)
			return
		}
		metadataURL := metadataPath
		if !strings.HasPrefix(metadataURL, "http") {
			metadataURL = ResourceURL(r, "") // same-origin: rewritten to carry the full scheme+host
			metadataURL = strings.TrimSuffix(metadataURL, r.URL.Path) + metadataPath
		}
		w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm=%q, resource_metadata=%q`, realm, metadataURL))
		w.WriteHeader(http.StatusUnauthorized)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, prefix))
}
