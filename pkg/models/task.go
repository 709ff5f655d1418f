package models

import "time"

// Task represents one row of the tasks table
type Task struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RowID implements backend.Entity
func (t Task) RowID() int64 { return t.ID }
