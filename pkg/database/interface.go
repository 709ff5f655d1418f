package database

import (
	"fmt"

	"millennium-sync/pkg/models"
)

// Row is one table row in wire form
type Row map[string]interface{}

// DatabaseInterface defines the storage access contract
type DatabaseInterface interface {
	// user management
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)

	// entity rows, always scoped to their owner
	ListRows(table, userID, orderBy string, descending bool) ([]Row, error)
	InsertRow(table string, row Row) (Row, error)
	// UpdateRow reports found=false when no owned row matches the id; the
	// caller returns an empty representation, not an error
	UpdateRow(table string, id int64, userID string, patch Row) (Row, bool, error)
	DeleteRow(table string, id int64, userID string) (bool, error)
	CountRows(table, userID string) (int, error)

	// health check
	HealthCheck() error

	// close the connection
	Close() error
}

// tableSpecs whitelists the managed tables and their writable columns.
// Everything else on a row is server-assigned.
var tableSpecs = map[string][]string{
	"projects": {"name"},
	"tasks":    {"title"},
}

// KnownTable reports whether the table is managed
func KnownTable(table string) bool {
	_, ok := tableSpecs[table]
	return ok
}

// WritableColumns returns the client-writable columns of a managed table
func WritableColumns(table string) []string {
	return tableSpecs[table]
}

// DatabaseConfig selects and configures the storage backend
type DatabaseConfig struct {
	PostgresDSN string
	Debug       bool
}

// NewDatabase picks the storage implementation from the configuration:
// PostgreSQL when a DSN is present, otherwise the in-memory store
func NewDatabase(config DatabaseConfig) DatabaseInterface {
	if config.PostgresDSN != "" {
		fmt.Printf("🗄️  Using PostgreSQL database\n")
		db, err := NewPostgresDatabase(config.PostgresDSN)
		if err != nil {
			panic(fmt.Sprintf("failed to connect to PostgreSQL: %v", err))
		}
		return db
	}

	fmt.Printf("🧰  Using in-memory database (data is lost on restart)\n")
	return NewLocalDatabase()
}
