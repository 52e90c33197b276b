package auth

import (
	"context"
	"net/http"
)

// BasicAuthEngine accepts HTTP basic credentials whose password is the
// shared secret. Any user name is accepted and reported back.
type BasicAuthEngine struct {
	Secret string
}

// NewBasicAuthEngine creates a new BasicAuthEngine for secret.
func NewBasicAuthEngine(secret string) *BasicAuthEngine {
	return &BasicAuthEngine{Secret: secret}
}

// AuthenticateRequest checks the Authorization header for valid Basic Auth
// credentials. It returns a User object if the credentials are valid, nil otherwise.
func (e *BasicAuthEngine) AuthenticateRequest(ctx context.Context, r *http.Request) (*User, error) {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return nil, nil
	}

	if !secretsMatch(pass, e.Secret) {
		return nil, nil
	}

	if user == "" {
		user = SharedSecretUser
	}
	return &User{Name: user}, nil
}
