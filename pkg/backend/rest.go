package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"millennium-sync/pkg/models"
)

// RestClient talks to the remote store over its REST dialect: row CRUD under
// /rest/v1/{table} and the auth service under /auth/v1. One instance holds
// at most one user session (access + refresh token) and implements both
// AuthAPI and TableAPI.
type RestClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string

	events chan AuthEvent
}

// NewRestClient creates a client for the store at url. key is the public
// API key sent with every request.
func NewRestClient(rawURL, key string) *RestClient {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "https://" + rawURL
	}
	rawURL = strings.TrimSuffix(rawURL, "/")

	return &RestClient{
		baseURL: rawURL,
		apiKey:  key,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		events: make(chan AuthEvent, 8),
	}
}

// Events returns the auth state change stream. Events are dropped, not
// queued, when the consumer falls behind.
func (c *RestClient) Events() <-chan AuthEvent {
	return c.events
}

func (c *RestClient) emit(ev AuthEvent) {
	select {
	case c.events <- ev:
	default:
	}
}

func (c *RestClient) tokens() (access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

func (c *RestClient) setTokens(access, refresh string) {
	c.mu.Lock()
	c.accessToken = access
	c.refreshToken = refresh
	c.mu.Unlock()
}

// Session returns the held token pair so a caller can persist it across
// runs. Both strings are empty when signed out.
func (c *RestClient) Session() (accessToken, refreshToken string) {
	return c.tokens()
}

// RestoreSession installs a previously persisted token pair. A stale access
// token is fine; the next authenticated call refreshes it.
func (c *RestClient) RestoreSession(accessToken, refreshToken string) {
	c.setTokens(accessToken, refreshToken)
}

// doRequest sends one request. When authed is true the current access token
// is used as the bearer; otherwise the API key doubles as the bearer, which
// is what the hosted store expects for anonymous auth endpoints.
func (c *RestClient) doRequest(ctx context.Context, method, path string, query url.Values, body interface{}, authed bool, extraHeaders map[string]string) (int, http.Header, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	bearer := c.apiKey
	if authed {
		if access, _ := c.tokens(); access != "" {
			bearer = access
		}
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, resp.Header, respBody, nil
}

// doAuthed performs an authenticated request. On 401 it refreshes the
// session once and replays the request with the new access token.
func (c *RestClient) doAuthed(ctx context.Context, method, path string, query url.Values, body interface{}, extraHeaders map[string]string) (int, http.Header, []byte, error) {
	status, header, respBody, err := c.doRequest(ctx, method, path, query, body, true, extraHeaders)
	if err != nil {
		return status, header, respBody, err
	}

	if status == http.StatusUnauthorized {
		if _, refresh := c.tokens(); refresh != "" {
			if rerr := c.refreshSession(ctx); rerr == nil {
				return c.doRequest(ctx, method, path, query, body, true, extraHeaders)
			}
		}
	}

	return status, header, respBody, nil
}

// parseAPIError extracts the server's message from an error payload. The
// rows endpoint uses {"message":...}, the auth endpoints use
// {"error_description":...} or {"msg":...}.
func parseAPIError(status int, body []byte) *APIError {
	var payload struct {
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		ErrorDescription string `json:"error_description"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			msg = payload.Message
		case payload.ErrorDescription != "":
			msg = payload.ErrorDescription
		case payload.Msg != "":
			msg = payload.Msg
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", status)
	}
	return &APIError{StatusCode: status, Message: msg}
}

// --- AuthAPI ---

// SignInWithPassword exchanges credentials for a session via the password
// grant and emits SIGNED_IN on success
func (c *RestClient) SignInWithPassword(ctx context.Context, email, password string) (*models.User, error) {
	query := url.Values{"grant_type": {"password"}}
	status, _, body, err := c.doRequest(ctx, http.MethodPost, "/auth/v1/token", query,
		&models.PasswordGrantRequest{Email: email, Password: password}, false, nil)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, parseAPIError(status, body)
	}

	var tokens models.TokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	c.setTokens(tokens.AccessToken, tokens.RefreshToken)
	c.emit(AuthEvent{Kind: SignedIn, UserID: tokens.User.ID})
	return &tokens.User, nil
}

// SignUp creates an account. It does not establish a session; the caller
// signs in afterwards.
func (c *RestClient) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	status, _, body, err := c.doRequest(ctx, http.MethodPost, "/auth/v1/signup", nil,
		&models.SignUpRequest{Email: email, Password: password}, false, nil)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, parseAPIError(status, body)
	}

	var user models.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to decode signup response: %w", err)
	}
	return &user, nil
}

// GetCurrentUser queries the auth service for the identity behind the held
// access token. Returns ErrNoSession when no token is held or the server no
// longer accepts it.
func (c *RestClient) GetCurrentUser(ctx context.Context) (*models.User, error) {
	if access, _ := c.tokens(); access == "" {
		return nil, ErrNoSession
	}

	status, _, body, err := c.doAuthed(ctx, http.MethodGet, "/auth/v1/user", nil, nil, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, ErrNoSession
	}
	if status >= 400 {
		return nil, parseAPIError(status, body)
	}

	var user models.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}
	return &user, nil
}

// SignOut revokes the session server-side (best effort), drops the tokens
// and emits SIGNED_OUT
func (c *RestClient) SignOut(ctx context.Context) error {
	access, _ := c.tokens()
	if access != "" {
		// Revocation failure is not fatal; the local session is gone either way
		_, _, _, _ = c.doRequest(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, true, nil)
	}
	c.setTokens("", "")
	c.emit(AuthEvent{Kind: SignedOut})
	return nil
}

// refreshSession trades the refresh token for a new token pair
func (c *RestClient) refreshSession(ctx context.Context) error {
	_, refresh := c.tokens()
	if refresh == "" {
		return ErrNoSession
	}

	query := url.Values{"grant_type": {"refresh_token"}}
	status, _, body, err := c.doRequest(ctx, http.MethodPost, "/auth/v1/token", query,
		&models.PasswordGrantRequest{RefreshToken: refresh}, false, nil)
	if err != nil {
		return err
	}
	if status >= 400 {
		return parseAPIError(status, body)
	}

	var tokens models.TokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refresh
	}
	c.setTokens(tokens.AccessToken, tokens.RefreshToken)
	return nil
}

// --- TableAPI ---

func rowsPath(table string) string {
	return "/rest/v1/" + url.PathEscape(table)
}

func decodeRows(body []byte) ([]json.RawMessage, error) {
	var rows []json.RawMessage
	if len(bytes.TrimSpace(body)) == 0 {
		return rows, nil
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}
	return rows, nil
}

// SelectAll fetches every visible row of a table, optionally ordered
// server-side
func (c *RestClient) SelectAll(ctx context.Context, table string, opts SelectOptions) ([]json.RawMessage, error) {
	query := url.Values{"select": {"*"}}
	if opts.OrderBy != "" {
		direction := "asc"
		if opts.Descending {
			direction = "desc"
		}
		query.Set("order", opts.OrderBy+"."+direction)
	}

	status, _, body, err := c.doAuthed(ctx, http.MethodGet, rowsPath(table), query, nil, nil)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, parseAPIError(status, body)
	}
	return decodeRows(body)
}

// Insert creates one row and returns it as stored, including server-assigned
// columns
func (c *RestClient) Insert(ctx context.Context, table string, row map[string]interface{}) ([]json.RawMessage, error) {
	headers := map[string]string{"Prefer": "return=representation"}
	status, _, body, err := c.doAuthed(ctx, http.MethodPost, rowsPath(table), nil, row, headers)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, parseAPIError(status, body)
	}
	return decodeRows(body)
}

// UpdateByID patches the row with the given id and returns the stored result
func (c *RestClient) UpdateByID(ctx context.Context, table string, id int64, patch map[string]interface{}) ([]json.RawMessage, error) {
	query := url.Values{"id": {"eq." + strconv.FormatInt(id, 10)}}
	headers := map[string]string{"Prefer": "return=representation"}
	status, _, body, err := c.doAuthed(ctx, http.MethodPatch, rowsPath(table), query, patch, headers)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, parseAPIError(status, body)
	}
	return decodeRows(body)
}

// DeleteByID deletes the row with the given id
func (c *RestClient) DeleteByID(ctx context.Context, table string, id int64) error {
	query := url.Values{"id": {"eq." + strconv.FormatInt(id, 10)}}
	status, _, body, err := c.doAuthed(ctx, http.MethodDelete, rowsPath(table), query, nil, nil)
	if err != nil {
		return err
	}
	if status >= 400 {
		return parseAPIError(status, body)
	}
	return nil
}

// Count returns the number of visible rows using the exact-count preference;
// the total arrives in the Content-Range header ("0-24/57")
func (c *RestClient) Count(ctx context.Context, table string) (int, error) {
	headers := map[string]string{"Prefer": "count=exact"}
	query := url.Values{"select": {"id"}}
	status, header, body, err := c.doAuthed(ctx, http.MethodHead, rowsPath(table), query, nil, headers)
	if err != nil {
		return 0, err
	}
	if status >= 400 {
		return 0, parseAPIError(status, body)
	}

	contentRange := header.Get("Content-Range")
	if idx := strings.LastIndex(contentRange, "/"); idx >= 0 {
		if n, perr := strconv.Atoi(contentRange[idx+1:]); perr == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("missing or malformed Content-Range header: %q", contentRange)
}
