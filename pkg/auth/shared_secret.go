package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

const (
	BearerPrefix = "Bearer "
	SecretHeader = "X-Depot-Secret"

	// SharedSecretUser is the user reported for secret-authenticated requests.
	SharedSecretUser = "depot"
)

// SharedSecretAuthEngine accepts requests presenting the configured secret
// either as a bearer token or in the X-Depot-Secret header.
type SharedSecretAuthEngine struct {
	Secret string
}

// NewSharedSecretAuthEngine creates a SharedSecretAuthEngine for secret.
func NewSharedSecretAuthEngine(secret string) *SharedSecretAuthEngine {
	return &SharedSecretAuthEngine{Secret: secret}
}

func secretsMatch(given string, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(want)) == 1
}

// AuthenticateRequest checks the Authorization and X-Depot-Secret headers.
func (e *SharedSecretAuthEngine) AuthenticateRequest(ctx context.Context, r *http.Request) (*User, error) {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, BearerPrefix) {
		if secretsMatch(strings.TrimSpace(header[len(BearerPrefix):]), e.Secret) {
			return &User{Name: SharedSecretUser}, nil
		}
	}

	if secretsMatch(r.Header.Get(SecretHeader), e.Secret) {
		return &User{Name: SharedSecretUser}, nil
	}

	return nil, nil
}
