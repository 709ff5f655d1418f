package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpdater struct {
	calls []struct {
		id    int64
		value string
	}
	err error
}

func (f *fakeUpdater) UpdateField(_ context.Context, id int64, value string) error {
	f.calls = append(f.calls, struct {
		id    int64
		value string
	}{id, value})
	return f.err
}

func TestEditorBeginAndDraft(t *testing.T) {
	e := NewEditor()

	_, active := e.Editing()
	assert.False(t, active)

	e.Begin(3, "current name")
	id, active := e.Editing()
	assert.True(t, active)
	assert.Equal(t, int64(3), id)
	assert.Equal(t, "current name", e.Draft())

	e.SetDraft("new name")
	assert.Equal(t, "new name", e.Draft())
}

func TestEditorBeginReplacesActiveDraft(t *testing.T) {
	e := NewEditor()
	e.Begin(1, "first")
	e.SetDraft("unsaved work")
	e.Begin(2, "second")

	id, active := e.Editing()
	assert.True(t, active)
	assert.Equal(t, int64(2), id)
	assert.Equal(t, "second", e.Draft(), "the earlier draft is dropped, not saved")
}

func TestEditorCancelDiscards(t *testing.T) {
	e := NewEditor()
	e.Begin(1, "seed")
	e.SetDraft("changed")
	e.Cancel()

	_, active := e.Editing()
	assert.False(t, active)
	assert.Equal(t, "", e.Draft())
}

func TestEditorSaveClosesOnSuccess(t *testing.T) {
	e := NewEditor()
	upd := &fakeUpdater{}
	e.Begin(4, "seed")
	e.SetDraft("renamed")

	require.NoError(t, e.Save(context.Background(), upd))

	require.Len(t, upd.calls, 1)
	assert.Equal(t, int64(4), upd.calls[0].id)
	assert.Equal(t, "renamed", upd.calls[0].value)

	_, active := e.Editing()
	assert.False(t, active)
}

func TestEditorSaveBlankIsNoOpAndStaysOpen(t *testing.T) {
	e := NewEditor()
	upd := &fakeUpdater{}
	e.Begin(4, "seed")
	e.SetDraft("   ")

	require.NoError(t, e.Save(context.Background(), upd))

	assert.Empty(t, upd.calls, "a blank draft must not reach the store")
	_, active := e.Editing()
	assert.True(t, active, "the user can keep typing")
}

func TestEditorSaveFailureKeepsDraft(t *testing.T) {
	e := NewEditor()
	upd := &fakeUpdater{err: errors.New("row is locked")}
	e.Begin(4, "seed")
	e.SetDraft("renamed")

	err := e.Save(context.Background(), upd)
	require.Error(t, err)

	id, active := e.Editing()
	assert.True(t, active)
	assert.Equal(t, int64(4), id)
	assert.Equal(t, "renamed", e.Draft(), "the draft stays for retry or cancel")
}

func TestEditorSaveWhenIdleIsNoOp(t *testing.T) {
	e := NewEditor()
	upd := &fakeUpdater{}
	require.NoError(t, e.Save(context.Background(), upd))
	assert.Empty(t, upd.calls)
}
