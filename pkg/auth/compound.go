package auth

import (
	"context"
	"net/http"
)

type CompoundAuthEngine struct {
	engines []AuthEngine
}

// NewCompoundAuthEngine creates a new CompoundAuthEngine with the given AuthEngines.
func NewCompoundAuthEngine(engines ...AuthEngine) *CompoundAuthEngine {
	return &CompoundAuthEngine{
		engines: engines,
	}
}

// NewSecretAuthEngine accepts the secret as a bearer token, in the
// X-Depot-Secret header, or as a basic-auth password.
func NewSecretAuthEngine(secret string) *CompoundAuthEngine {
	return NewCompoundAuthEngine(
		NewSharedSecretAuthEngine(secret),
		NewBasicAuthEngine(secret),
	)
}

// AuthenticateRequest returns the user of the first engine that accepts the
// request, or nil if none does.
func (e *CompoundAuthEngine) AuthenticateRequest(ctx context.Context, r *http.Request) (*User, error) {

	for _, engine := range e.engines {
		if user, err := engine.AuthenticateRequest(ctx, r); user != nil && err == nil {
			return user, nil
		}
	}

	return nil, nil
}
