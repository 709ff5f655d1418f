package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"millennium-sync/pkg/models"
)

// PostgresDatabase is the PostgreSQL implementation
type PostgresDatabase struct {
	db *sql.DB
}

// NewPostgresDatabase creates a PostgreSQL database instance
func NewPostgresDatabase(dsn string) (DatabaseInterface, error) {
	// sanitize the DSN to avoid stray CR/LF from env values
	dsn = strings.TrimSpace(dsn)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// pool limits sized for a small single-instance deployment
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	fmt.Printf("✅ PostgreSQL connection established\n")
	return &PostgresDatabase{db: db}, nil
}

// CreateUser creates a user with a generated id
func (db *PostgresDatabase) CreateUser(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	query := `
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := db.db.QueryRow(query, user.ID, user.Email, user.Password).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail fetches a user by email
func (db *PostgresDatabase) GetUserByEmail(email string) (*models.User, error) {
	query := `
		SELECT id, email, COALESCE(password_hash,''), created_at, updated_at
		FROM users WHERE email = $1
	`
	user := &models.User{}
	err := db.db.QueryRow(query, email).
		Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetUserByID fetches a user by id
func (db *PostgresDatabase) GetUserByID(id string) (*models.User, error) {
	query := `
		SELECT id, email, COALESCE(password_hash,''), created_at, updated_at
		FROM users WHERE id = $1
	`
	user := &models.User{}
	err := db.db.QueryRow(query, id).
		Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

// field returns the single writable column of a managed table
func field(table string) (string, error) {
	cols := WritableColumns(table)
	if len(cols) == 0 {
		return "", fmt.Errorf("unknown table: %s", table)
	}
	return cols[0], nil
}

// ListRows returns all rows owned by the user, ordered server-side
func (db *PostgresDatabase) ListRows(table, userID, orderBy string, descending bool) ([]Row, error) {
	col, err := field(table)
	if err != nil {
		return nil, err
	}

	// orderBy is restricted to known columns; never interpolate raw input
	order := "id"
	if orderBy == "created_at" {
		order = "created_at"
	}
	direction := "ASC"
	if descending {
		direction = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT id, %s, user_id, created_at
		FROM %s WHERE user_id = $1
		ORDER BY %s %s, id %s
	`, col, table, order, direction, direction)

	rows, err := db.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		var (
			id        int64
			value     string
			owner     string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &value, &owner, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		out = append(out, Row{
			"id":         id,
			col:          value,
			"user_id":    owner,
			"created_at": createdAt.Format(time.RFC3339),
		})
	}
	return out, rows.Err()
}

// InsertRow inserts one row and returns it as stored
func (db *PostgresDatabase) InsertRow(table string, row Row) (Row, error) {
	col, err := field(table)
	if err != nil {
		return nil, err
	}

	value, _ := row[col].(string)
	owner, _ := row["user_id"].(string)

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, user_id, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at
	`, table, col)

	var (
		id        int64
		createdAt time.Time
	)
	if err := db.db.QueryRow(query, value, owner).Scan(&id, &createdAt); err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", table, err)
	}

	return Row{
		"id":         id,
		col:          value,
		"user_id":    owner,
		"created_at": createdAt.Format(time.RFC3339),
	}, nil
}

// UpdateRow patches one owned row and returns the stored result
func (db *PostgresDatabase) UpdateRow(table string, id int64, userID string, patch Row) (Row, bool, error) {
	col, err := field(table)
	if err != nil {
		return nil, false, err
	}

	value, ok := patch[col].(string)
	if !ok {
		return nil, false, fmt.Errorf("missing %s in patch", col)
	}

	query := fmt.Sprintf(`
		UPDATE %s SET %s = $1
		WHERE id = $2 AND user_id = $3
		RETURNING id, %s, user_id, created_at
	`, table, col, col)

	var (
		outID     int64
		outValue  string
		owner     string
		createdAt time.Time
	)
	err = db.db.QueryRow(query, value, id, userID).
		Scan(&outID, &outValue, &owner, &createdAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to update %s: %w", table, err)
	}

	return Row{
		"id":         outID,
		col:          outValue,
		"user_id":    owner,
		"created_at": createdAt.Format(time.RFC3339),
	}, true, nil
}

// DeleteRow removes one owned row
func (db *PostgresDatabase) DeleteRow(table string, id int64, userID string) (bool, error) {
	if !KnownTable(table) {
		return false, fmt.Errorf("unknown table: %s", table)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, table)
	result, err := db.db.Exec(query, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", table, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CountRows returns the user's row count in a table
func (db *PostgresDatabase) CountRows(table, userID string) (int, error) {
	if !KnownTable(table) {
		return 0, fmt.Errorf("unknown table: %s", table)
	}

	var n int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE user_id = $1`, table)
	if err := db.db.QueryRow(query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// HealthCheck pings the database
func (db *PostgresDatabase) HealthCheck() error {
	return db.db.Ping()
}

// Close closes the connection
func (db *PostgresDatabase) Close() error {
	return db.db.Close()
}
