package oauth

import "golang.org/x/oauth2"

// pkce bundles the verifier/challenge pair for one authorization-code flow,
// per spec §4.5 step 5 (32-byte random verifier, S256 challenge, base64url
// no padding). golang.org/x/oauth2 already generates a verifier of
// sufficient entropy and derives the S256 challenge; this wrapper just names
// the two values the rest of the flow needs.
type pkce struct {
	verifier  string
	challenge oauth2.AuthCodeOption
}

func newPKCE() *pkce {
	verifier := oauth2.GenerateVerifier()
	return &pkce{verifier: verifier, challenge: oauth2.S256ChallengeOption(verifier)}
}
