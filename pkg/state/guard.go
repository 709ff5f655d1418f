package state

import (
	"context"
	"fmt"

	"millennium-sync/pkg/backend"
)

// Session is the signed-in identity a screen operates under. It is
// read-only; sign-in and sign-out belong to the auth collaborator.
type Session struct {
	UserID string
	Email  string
}

// Guard resolves the current session before any collection work happens
type Guard struct {
	auth backend.AuthAPI
}

// NewGuard creates a Guard over the given auth collaborator
func NewGuard(auth backend.AuthAPI) *Guard {
	return &Guard{auth: auth}
}

// Resolve issues exactly one identity query and returns the session behind
// it. Any failure — no user or a failed query — comes back as
// ErrUnauthenticated; there are no retries, the user re-enters via sign-in.
func (g *Guard) Resolve(ctx context.Context) (*Session, error) {
	user, err := g.auth.GetCurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if user == nil || user.ID == "" {
		return nil, ErrUnauthenticated
	}
	return &Session{UserID: user.ID, Email: user.Email}, nil
}
