package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"millennium-sync/pkg/backend"
)

// Spec describes one managed table: where its rows live, which field is
// edited inline, and how the collection is presented
type Spec struct {
	Table       string   // remote table name
	Label       string   // human label for notification messages ("Project")
	EditField   string   // the domain field edited inline ("name", "title")
	OwnerColumn string   // column stamped with the session user id
	Required    []string // field keys that must be non-blank before a call is issued
	OrderBy     string   // server-side ordering column, "" = arrival order
	NewestFirst bool     // descending order; confirmed inserts go to the head
}

// ListStore mirrors one remote table as an ordered in-memory collection.
//
// Every mutation is confirm-then-apply: the local slice changes only after
// the store acknowledged the operation, so the collection is always a subset
// of server-acknowledged rows — never a superset, never holding unconfirmed
// ghosts. A failed call leaves the slice untouched and raises an error
// notification carrying the server's message; nothing is retried.
//
// Mutations on different ids may be in flight concurrently; each one touches
// the slice only at its own completion, under the mutex, exactly once.
type ListStore[E backend.Entity] struct {
	spec     Spec
	api      backend.TableAPI
	session  *Session
	notifier *Notifier

	mu    sync.Mutex
	items []E
	ready bool
}

// NewListStore creates a store for one screen's lifetime. The session and
// table client are injected so the store can run against a fake collaborator
// in tests; a nil session disables Add (and nothing else reaches the wire
// without fields anyway).
func NewListStore[E backend.Entity](spec Spec, api backend.TableAPI, session *Session, notifier *Notifier) *ListStore[E] {
	return &ListStore[E]{
		spec:     spec,
		api:      api,
		session:  session,
		notifier: notifier,
	}
}

func decodeRow[E backend.Entity](raw json.RawMessage) (E, error) {
	var e E
	if err := json.Unmarshal(raw, &e); err != nil {
		return e, fmt.Errorf("failed to decode %T row: %w", e, err)
	}
	return e, nil
}

// blankRequired reports whether any required field is missing or blank
func (s *ListStore[E]) blankRequired(fields map[string]interface{}) bool {
	for _, key := range s.spec.Required {
		v, ok := fields[key]
		if !ok {
			return true
		}
		str, isStr := v.(string)
		if isStr && strings.TrimSpace(str) == "" {
			return true
		}
	}
	return false
}

func (s *ListStore[E]) fail(op Op, err error) error {
	f := &Failure{Op: op, Err: err}
	s.notifier.Set(Error, f.Error())
	return f
}

// Initialize performs the screen's one fetch-all. On failure the collection
// stays empty and an error notification is raised, but the store still
// becomes ready: the screen renders an empty state rather than blocking on a
// failed load.
func (s *ListStore[E]) Initialize(ctx context.Context) error {
	rows, err := s.api.SelectAll(ctx, s.spec.Table, backend.SelectOptions{
		OrderBy:    s.spec.OrderBy,
		Descending: s.spec.NewestFirst,
	})
	if err != nil {
		s.mu.Lock()
		s.ready = true
		s.mu.Unlock()
		return s.fail(OpFetch, err)
	}

	items := make([]E, 0, len(rows))
	for _, raw := range rows {
		e, derr := decodeRow[E](raw)
		if derr != nil {
			s.mu.Lock()
			s.ready = true
			s.mu.Unlock()
			return s.fail(OpFetch, derr)
		}
		items = append(items, e)
	}

	s.mu.Lock()
	s.items = items
	s.ready = true
	s.mu.Unlock()
	return nil
}

// Add inserts a new row stamped with the session owner. Blank required
// fields or a missing session reject locally — a silent no-op, zero remote
// calls, no notification. On success the row appended is exactly what the
// server returned, preserving its assigned id and defaults.
func (s *ListStore[E]) Add(ctx context.Context, fields map[string]interface{}) error {
	if s.session == nil || s.blankRequired(fields) {
		return nil
	}

	row := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		row[k] = v
	}
	row[s.spec.OwnerColumn] = s.session.UserID

	rows, err := s.api.Insert(ctx, s.spec.Table, row)
	if err != nil {
		return s.fail(OpInsert, err)
	}
	if len(rows) == 0 {
		return nil
	}

	e, derr := decodeRow[E](rows[0])
	if derr != nil {
		return s.fail(OpInsert, derr)
	}

	s.mu.Lock()
	// ids stay unique at every observation point; a confirmed insert that
	// collides with a known id replaces the stale row instead of duplicating
	if idx := s.indexOf(e.RowID()); idx >= 0 {
		s.items[idx] = e
	} else if s.spec.NewestFirst {
		s.items = append([]E{e}, s.items...)
	} else {
		s.items = append(s.items, e)
	}
	s.mu.Unlock()

	s.notifier.Set(Success, s.spec.Label+" added!")
	return nil
}

// Update patches one row and replaces the local entry with the server's
// returned row — replaced whole, not merged; the response is the single
// source of truth. A blank required field rejects locally with zero remote
// calls. If the id vanished locally in the meantime the replace is a no-op
// without error.
func (s *ListStore[E]) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	if s.blankRequired(fields) {
		return nil
	}

	rows, err := s.api.UpdateByID(ctx, s.spec.Table, id, fields)
	if err != nil {
		return s.fail(OpUpdate, err)
	}
	if len(rows) == 0 {
		// The server matched nothing (row deleted elsewhere); nothing to
		// reconcile and nothing to report
		return nil
	}

	e, derr := decodeRow[E](rows[0])
	if derr != nil {
		return s.fail(OpUpdate, derr)
	}

	s.mu.Lock()
	if idx := s.indexOf(id); idx >= 0 {
		s.items[idx] = e
	}
	s.mu.Unlock()

	s.notifier.Set(Success, s.spec.Label+" updated!")
	return nil
}

// UpdateField updates the table's inline-edit column; this is the editor's
// save path
func (s *ListStore[E]) UpdateField(ctx context.Context, id int64, value string) error {
	return s.Update(ctx, id, map[string]interface{}{s.spec.EditField: value})
}

// Remove deletes one row remotely and drops it locally only once the server
// confirmed. On failure the entry stays.
func (s *ListStore[E]) Remove(ctx context.Context, id int64) error {
	if err := s.api.DeleteByID(ctx, s.spec.Table, id); err != nil {
		return s.fail(OpDelete, err)
	}

	s.mu.Lock()
	if idx := s.indexOf(id); idx >= 0 {
		s.items = append(s.items[:idx], s.items[idx+1:]...)
	}
	s.mu.Unlock()

	s.notifier.Set(Success, s.spec.Label+" deleted!")
	return nil
}

// indexOf returns the position of id, or -1. Caller holds the mutex.
func (s *ListStore[E]) indexOf(id int64) int {
	for i := range s.items {
		if s.items[i].RowID() == id {
			return i
		}
	}
	return -1
}

// Items returns a snapshot copy of the collection
func (s *ListStore[E]) Items() []E {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]E, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the entity with the given id, if present
func (s *ListStore[E]) Get(id int64) (E, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOf(id); idx >= 0 {
		return s.items[idx], true
	}
	var zero E
	return zero, false
}

// Len returns the local collection size
func (s *ListStore[E]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Ready reports whether the initial fetch has completed (successfully or
// not)
func (s *ListStore[E]) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// RemoteCount asks the store for the authoritative row count, for summary
// displays
func (s *ListStore[E]) RemoteCount(ctx context.Context) (int, error) {
	n, err := s.api.Count(ctx, s.spec.Table)
	if err != nil {
		return 0, &Failure{Op: OpFetch, Err: err}
	}
	return n, nil
}
