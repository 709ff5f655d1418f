package backend

import (
	"context"
	"encoding/json"

	"millennium-sync/pkg/models"
)

// Entity is implemented by row types managed through a TableAPI. The id is
// server-assigned and unique within its table.
type Entity interface {
	RowID() int64
}

// AuthEventKind enumerates auth state change notifications
type AuthEventKind string

const (
	SignedIn  AuthEventKind = "SIGNED_IN"
	SignedOut AuthEventKind = "SIGNED_OUT"
)

// AuthEvent is emitted by an AuthAPI whenever the session state changes
type AuthEvent struct {
	Kind   AuthEventKind `json:"kind"`
	UserID string        `json:"user_id,omitempty"`
}

// AuthAPI is the authentication collaborator: session establishment,
// identity queries and change notifications. GetCurrentUser returns
// ErrNoSession when no valid session exists.
type AuthAPI interface {
	GetCurrentUser(ctx context.Context) (*models.User, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.User, error)
	SignUp(ctx context.Context, email, password string) (*models.User, error)
	SignOut(ctx context.Context) error
	Events() <-chan AuthEvent
}

// SelectOptions controls server-side ordering of a SelectAll
type SelectOptions struct {
	OrderBy    string
	Descending bool
}

// TableAPI is the remote table store collaborator. Rows travel as raw JSON;
// callers decode into their entity type. All calls are scoped to the
// authenticated session by the backing store — ownership filtering is the
// store's responsibility, never the caller's.
type TableAPI interface {
	SelectAll(ctx context.Context, table string, opts SelectOptions) ([]json.RawMessage, error)
	Insert(ctx context.Context, table string, row map[string]interface{}) ([]json.RawMessage, error)
	UpdateByID(ctx context.Context, table string, id int64, patch map[string]interface{}) ([]json.RawMessage, error)
	DeleteByID(ctx context.Context, table string, id int64) error
	Count(ctx context.Context, table string) (int, error)
}
