package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"millennium-sync/pkg/models"
)

func tokenBody(access, refresh string) string {
	b, _ := json.Marshal(models.TokenResponse{
		AccessToken:  access,
		TokenType:    "bearer",
		ExpiresIn:    900,
		RefreshToken: refresh,
		User:         models.User{ID: "user-1", Email: "dev@example.com"},
	})
	return string(b)
}

func TestSignInWithPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))

		var req models.PasswordGrantRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "dev@example.com", req.Email)

		w.Write([]byte(tokenBody("access-1", "refresh-1")))
	}))
	defer srv.Close()

	c := NewRestClient(srv.URL, "anon-key")
	user, err := c.SignInWithPassword(context.Background(), "dev@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	select {
	case ev := <-c.Events():
		assert.Equal(t, SignedIn, ev.Kind)
		assert.Equal(t, "user-1", ev.UserID)
	default:
		t.Fatal("expected a SIGNED_IN event")
	}
}

func TestSignInErrorSurfacesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error_description":"Invalid login credentials"}`))
	}))
	defer srv.Close()

	c := NewRestClient(srv.URL, "anon-key")
	_, err := c.SignInWithPassword(context.Background(), "dev@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid login credentials", err.Error())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestGetCurrentUserWithoutTokenIsNoSession(t *testing.T) {
	c := NewRestClient("http://localhost:1", "anon-key")
	_, err := c.GetCurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRefreshAndReplayOn401(t *testing.T) {
	var sawRefresh bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "refresh_token":
			sawRefresh = true
			w.Write([]byte(tokenBody("access-2", "refresh-2")))
		case r.URL.Path == "/rest/v1/projects":
			if r.Header.Get("Authorization") != "Bearer access-2" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"message":"JWT expired"}`))
				return
			}
			w.Write([]byte(`[{"id":1,"name":"alpha"}]`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewRestClient(srv.URL, "anon-key")
	c.setTokens("stale-access", "refresh-1")

	rows, err := c.SelectAll(context.Background(), "projects", SelectOptions{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.True(t, sawRefresh, "the 401 must trigger one refresh and a replay")

	access, refresh := c.tokens()
	assert.Equal(t, "access-2", access)
	assert.Equal(t, "refresh-2", refresh)
}

func TestSelectAllSendsOrdering(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "created_at.desc", r.URL.Query().Get("order"))
		assert.Equal(t, "*", r.URL.Query().Get("select"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewRestClient(srv.URL, "anon-key")
	c.setTokens("access", "refresh")

	rows, err := c.SelectAll(context.Background(), "projects", SelectOptions{OrderBy: "created_at", Descending: true})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestInsertRequestsRepresentation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Prefer"), "return=representation")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id":9,"name":"new"}]`))
	}))
	defer srv.Close()

	c := NewRestClient(srv.URL, "anon-key")
	c.setTokens("access", "refresh")

	rows, err := c.Insert(context.Background(), "projects", map[string]interface{}{"name": "new"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestUpdateByIDUsesEqFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.7", r.URL.Query().Get("id"))
		w.Write([]byte(`[{"id":7,"name":"renamed"}]`))
	}))
	defer srv.Close()

	c := NewRestClient(srv.URL, "anon-key")
	c.setTokens("access", "refresh")

	rows, err := c.UpdateByID(context.Background(), "projects", 7, map[string]interface{}{"name": "renamed"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestDeleteByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "eq.3", r.URL.Query().Get("id"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewRestClient(srv.URL, "anon-key")
	c.setTokens("access", "refresh")

	require.NoError(t, c.DeleteByID(context.Background(), "tasks", 3))
}

func TestCountParsesContentRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Contains(t, r.Header.Get("Prefer"), "count=exact")
		w.Header().Set("Content-Range", "0-56/57")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewRestClient(srv.URL, "anon-key")
	c.setTokens("access", "refresh")

	n, err := c.Count(context.Background(), "projects")
	require.NoError(t, err)
	assert.Equal(t, 57, n)
}

func TestSignOutDropsTokensAndEmits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/logout", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewRestClient(srv.URL, "anon-key")
	c.setTokens("access", "refresh")

	require.NoError(t, c.SignOut(context.Background()))
	access, refresh := c.tokens()
	assert.Empty(t, access)
	assert.Empty(t, refresh)

	select {
	case ev := <-c.Events():
		assert.Equal(t, SignedOut, ev.Kind)
	default:
		t.Fatal("expected a SIGNED_OUT event")
	}
}
