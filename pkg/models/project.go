package models

import "time"

// Project represents one row of the projects table. The id is assigned by
// the server on insert; UserID is stamped from the session at creation and
// never changes afterwards.
type Project struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RowID implements backend.Entity
func (p Project) RowID() int64 { return p.ID }
