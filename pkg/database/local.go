package database

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"millennium-sync/pkg/models"
)

// LocalDatabase is an in-memory implementation for development and tests.
// It mirrors the PostgreSQL behavior: server-assigned ids, ownership
// scoping, stable ordering.
type LocalDatabase struct {
	mu      sync.RWMutex
	users   map[string]*models.User // keyed by id
	byEmail map[string]string       // email -> id
	rows    map[string][]*localRow  // keyed by table
	nextID  map[string]int64
}

type localRow struct {
	id        int64
	value     string
	userID    string
	createdAt time.Time
}

// NewLocalDatabase creates an empty in-memory database
func NewLocalDatabase() *LocalDatabase {
	return &LocalDatabase{
		users:   make(map[string]*models.User),
		byEmail: make(map[string]string),
		rows:    make(map[string][]*localRow),
		nextID:  make(map[string]int64),
	}
}

// CreateUser creates a user with a generated id
func (db *LocalDatabase) CreateUser(user *models.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.byEmail[user.Email]; exists {
		return fmt.Errorf("user already exists")
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	db.users[user.ID] = &stored
	db.byEmail[user.Email] = user.ID
	return nil
}

// GetUserByEmail fetches a user by email
func (db *LocalDatabase) GetUserByEmail(email string) (*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	id, ok := db.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	user := *db.users[id]
	return &user, nil
}

// GetUserByID fetches a user by id
func (db *LocalDatabase) GetUserByID(id string) (*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	stored, ok := db.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	user := *stored
	return &user, nil
}

func (r *localRow) asRow(col string) Row {
	return Row{
		"id":         r.id,
		col:          r.value,
		"user_id":    r.userID,
		"created_at": r.createdAt.Format(time.RFC3339),
	}
}

// ListRows returns all rows owned by the user, ordered
func (db *LocalDatabase) ListRows(table, userID, orderBy string, descending bool) ([]Row, error) {
	col, err := field(table)
	if err != nil {
		return nil, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	owned := []*localRow{}
	for _, r := range db.rows[table] {
		if r.userID == userID {
			owned = append(owned, r)
		}
	}

	sort.SliceStable(owned, func(i, j int) bool {
		a, b := owned[i], owned[j]
		if orderBy == "created_at" && !a.createdAt.Equal(b.createdAt) {
			if descending {
				return a.createdAt.After(b.createdAt)
			}
			return a.createdAt.Before(b.createdAt)
		}
		if descending {
			return a.id > b.id
		}
		return a.id < b.id
	})

	out := make([]Row, 0, len(owned))
	for _, r := range owned {
		out = append(out, r.asRow(col))
	}
	return out, nil
}

// InsertRow inserts one row and returns it as stored
func (db *LocalDatabase) InsertRow(table string, row Row) (Row, error) {
	col, err := field(table)
	if err != nil {
		return nil, err
	}

	value, _ := row[col].(string)
	owner, _ := row["user_id"].(string)

	db.mu.Lock()
	defer db.mu.Unlock()

	db.nextID[table]++
	stored := &localRow{
		id:        db.nextID[table],
		value:     value,
		userID:    owner,
		createdAt: time.Now(),
	}
	db.rows[table] = append(db.rows[table], stored)
	return stored.asRow(col), nil
}

// UpdateRow patches one owned row and returns the stored result
func (db *LocalDatabase) UpdateRow(table string, id int64, userID string, patch Row) (Row, bool, error) {
	col, err := field(table)
	if err != nil {
		return nil, false, err
	}

	value, ok := patch[col].(string)
	if !ok {
		return nil, false, fmt.Errorf("missing %s in patch", col)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	for _, r := range db.rows[table] {
		if r.id == id && r.userID == userID {
			r.value = value
			return r.asRow(col), true, nil
		}
	}
	return nil, false, nil
}

// DeleteRow removes one owned row
func (db *LocalDatabase) DeleteRow(table string, id int64, userID string) (bool, error) {
	if !KnownTable(table) {
		return false, fmt.Errorf("unknown table: %s", table)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	rows := db.rows[table]
	for i, r := range rows {
		if r.id == id && r.userID == userID {
			db.rows[table] = append(rows[:i], rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// CountRows returns the user's row count in a table
func (db *LocalDatabase) CountRows(table, userID string) (int, error) {
	if !KnownTable(table) {
		return 0, fmt.Errorf("unknown table: %s", table)
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	n := 0
	for _, r := range db.rows[table] {
		if r.userID == userID {
			n++
		}
	}
	return n, nil
}

// HealthCheck always succeeds for the in-memory store
func (db *LocalDatabase) HealthCheck() error {
	return nil
}

// Close is a no-op for the in-memory store
func (db *LocalDatabase) Close() error {
	return nil
}
