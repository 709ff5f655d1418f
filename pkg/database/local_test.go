package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"millennium-sync/pkg/models"
)

func TestLocalUserLifecycle(t *testing.T) {
	db := NewLocalDatabase()

	user := &models.User{Email: "dev@example.com", Password: "hashed"}
	require.NoError(t, db.CreateUser(user))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	byEmail, err := db.GetUserByEmail("dev@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := db.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", byID.Email)

	err = db.CreateUser(&models.User{Email: "dev@example.com"})
	assert.Error(t, err, "duplicate emails are rejected")

	_, err = db.GetUserByEmail("nobody@example.com")
	assert.Error(t, err)
}

func TestLocalRowLifecycle(t *testing.T) {
	db := NewLocalDatabase()

	row, err := db.InsertRow("projects", Row{"name": "alpha", "user_id": "u1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), row["id"])
	assert.Equal(t, "alpha", row["name"])
	assert.NotEmpty(t, row["created_at"])

	updated, found, err := db.UpdateRow("projects", 1, "u1", Row{"name": "beta"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "beta", updated["name"])

	_, found, err = db.UpdateRow("projects", 99, "u1", Row{"name": "ghost"})
	require.NoError(t, err)
	assert.False(t, found)

	n, err := db.CountRows("projects", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	deleted, err := db.DeleteRow("projects", 1, "u1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = db.DeleteRow("projects", 1, "u1")
	require.NoError(t, err)
	assert.False(t, deleted, "deleting an absent row is not an error")
}

func TestLocalRowsAreOwnerScoped(t *testing.T) {
	db := NewLocalDatabase()

	_, err := db.InsertRow("tasks", Row{"title": "mine", "user_id": "u1"})
	require.NoError(t, err)
	_, err = db.InsertRow("tasks", Row{"title": "theirs", "user_id": "u2"})
	require.NoError(t, err)

	rows, err := db.ListRows("tasks", "u1", "", false)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "mine", rows[0]["title"])

	// a foreign row cannot be updated or deleted
	_, found, err := db.UpdateRow("tasks", 2, "u1", Row{"title": "stolen"})
	require.NoError(t, err)
	assert.False(t, found)

	deleted, err := db.DeleteRow("tasks", 2, "u1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestLocalListOrdering(t *testing.T) {
	db := NewLocalDatabase()

	_, err := db.InsertRow("projects", Row{"name": "a", "user_id": "u1"})
	require.NoError(t, err)
	_, err = db.InsertRow("projects", Row{"name": "b", "user_id": "u1"})
	require.NoError(t, err)
	_, err = db.InsertRow("projects", Row{"name": "c", "user_id": "u1"})
	require.NoError(t, err)

	desc, err := db.ListRows("projects", "u1", "created_at", true)
	require.NoError(t, err)
	require.Len(t, desc, 3)
	// created_at ties fall back to id, so newest insert comes first
	assert.Equal(t, int64(3), desc[0]["id"])

	asc, err := db.ListRows("projects", "u1", "created_at", false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), asc[0]["id"])
}

func TestLocalUnknownTable(t *testing.T) {
	db := NewLocalDatabase()

	_, err := db.InsertRow("secrets", Row{"name": "x", "user_id": "u1"})
	assert.Error(t, err)

	_, err = db.ListRows("secrets", "u1", "", false)
	assert.Error(t, err)

	_, err = db.CountRows("secrets", "u1")
	assert.Error(t, err)
}
