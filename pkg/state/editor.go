package state

import (
	"context"
	"strings"
	"sync"
)

// Updater is the slice of the list store the editor saves through
type Updater interface {
	UpdateField(ctx context.Context, id int64, value string) error
}

// Editor tracks which single entity, if any, is in inline-edit mode and its
// pending draft text. Strictly single-slot: beginning an edit while another
// is active discards the first draft without saving it.
type Editor struct {
	mu       sync.Mutex
	active   bool
	targetID int64
	draft    string
}

// NewEditor creates an idle Editor
func NewEditor() *Editor {
	return &Editor{}
}

// Begin enters edit mode for the given entity, seeding the draft with its
// current field value. Any previously active draft is dropped.
func (e *Editor) Begin(id int64, seed string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = true
	e.targetID = id
	e.draft = seed
}

// Cancel leaves edit mode and discards the draft
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = false
	e.targetID = 0
	e.draft = ""
}

// Editing returns the target id and whether an edit is in progress
func (e *Editor) Editing() (int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.targetID, e.active
}

// Draft returns the pending draft text
func (e *Editor) Draft() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// SetDraft replaces the pending draft text
func (e *Editor) SetDraft(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = text
}

// Save pushes the draft through the store. A blank draft is a silent no-op
// and the editor stays open. On store failure the editor stays open with the
// draft intact so the user can retry or cancel; on success it returns to
// idle.
func (e *Editor) Save(ctx context.Context, store Updater) error {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return nil
	}
	id := e.targetID
	draft := e.draft
	e.mu.Unlock()

	if strings.TrimSpace(draft) == "" {
		return nil
	}

	if err := store.UpdateField(ctx, id, draft); err != nil {
		return err
	}

	e.mu.Lock()
	// Only close if this edit is still the active one; a Begin that raced in
	// owns the slot now
	if e.active && e.targetID == id {
		e.active = false
		e.targetID = 0
		e.draft = ""
	}
	e.mu.Unlock()
	return nil
}
