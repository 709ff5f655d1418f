package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"millennium-sync/pkg/backend"
	"millennium-sync/pkg/models"
)

type fakeAuth struct {
	user      *models.User
	userErr   error
	userCalls int
	events    chan backend.AuthEvent
}

func (f *fakeAuth) GetCurrentUser(_ context.Context) (*models.User, error) {
	f.userCalls++
	return f.user, f.userErr
}

func (f *fakeAuth) SignInWithPassword(_ context.Context, _, _ string) (*models.User, error) {
	return f.user, f.userErr
}

func (f *fakeAuth) SignUp(_ context.Context, _, _ string) (*models.User, error) {
	return f.user, f.userErr
}

func (f *fakeAuth) SignOut(_ context.Context) error { return nil }

func (f *fakeAuth) Events() <-chan backend.AuthEvent { return f.events }

func TestGuardResolveSuccess(t *testing.T) {
	fa := &fakeAuth{user: &models.User{ID: "user-1", Email: "dev@example.com"}}
	g := NewGuard(fa)

	session, err := g.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.UserID)
	assert.Equal(t, "dev@example.com", session.Email)
	assert.Equal(t, 1, fa.userCalls, "exactly one identity query")
}

func TestGuardResolveNoSession(t *testing.T) {
	fa := &fakeAuth{userErr: backend.ErrNoSession}
	g := NewGuard(fa)

	session, err := g.Resolve(context.Background())
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, 1, fa.userCalls, "no retries")
}

func TestGuardResolveQueryFailure(t *testing.T) {
	fa := &fakeAuth{userErr: errors.New("connection refused")}
	g := NewGuard(fa)

	_, err := g.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated, "a failed query is indistinguishable from no session")
}

func TestGuardResolveEmptyUser(t *testing.T) {
	fa := &fakeAuth{user: &models.User{}}
	g := NewGuard(fa)

	_, err := g.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
