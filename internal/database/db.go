package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sqlite connection with pooling configuration.
type DB struct {
	*sql.DB
	pool *ConnectionPool
}

// ConnectionPool manages database connection pooling
type ConnectionPool struct {
	db           *sql.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewConnectionPool creates a new database connection pool
func NewConnectionPool(db *sql.DB, maxOpen, maxIdle int, maxLifetime time.Duration) *ConnectionPool {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	return &ConnectionPool{
		db:           db,
		maxOpenConns: maxOpen,
		maxIdleConns: maxIdle,
		maxLifetime:  maxLifetime,
	}
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.maxOpenConns,
		"max_idle_connections": cp.maxIdleConns,
		"max_lifetime_seconds": cp.maxLifetime.Seconds(),
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}

// NewDB opens (and creates if needed) the platform database under dataDir
// and runs migrations.
func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "yetria.db")
	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pool := NewConnectionPool(db, 25, 5, 5*time.Minute)

	database := &DB{DB: db, pool: pool}

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Database initialized",
		"path", dbPath,
		"max_open_conns", pool.maxOpenConns,
		"max_idle_conns", pool.maxIdleConns)

	return database, nil
}

// NewMemoryDB opens an in-memory database for tests. Pinned to a single
// connection so the shared schema is visible everywhere.
func NewMemoryDB() (*DB, error) {
	db, err := sql.Open("sqlite3", ":memory:?_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	pool := NewConnectionPool(db, 1, 1, 0)

	database := &DB{DB: db, pool: pool}
	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return database, nil
}

// migrate creates the necessary tables
func (db *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			age INTEGER,
			education_level_id INTEGER,
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS competencies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS scenarios (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			competency_id INTEGER NOT NULL,
			FOREIGN KEY (competency_id) REFERENCES competencies(id)
		)`,

		`CREATE TABLE IF NOT EXISTS scenario_options (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scenario_id INTEGER NOT NULL,
			option_text TEXT NOT NULL,
			score REAL NOT NULL,
			FOREIGN KEY (scenario_id) REFERENCES scenarios(id)
		)`,

		`CREATE TABLE IF NOT EXISTS scenario_responses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			scenario_option_id INTEGER NOT NULL,
			response_time DATETIME NOT NULL,
			UNIQUE(user_id, scenario_option_id),
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (scenario_option_id) REFERENCES scenario_options(id)
		)`,

		`CREATE TABLE IF NOT EXISTS assessment_results (
			user_id INTEGER PRIMARY KEY,
			recommended_occupation TEXT NOT NULL,
			compatibility INTEGER NOT NULL,
			competency_scores TEXT NOT NULL,
			strong_competencies TEXT NOT NULL,
			weak_competencies TEXT NOT NULL,
			compatibility_scores TEXT NOT NULL,
			total_responses INTEGER NOT NULL,
			is_final BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,

		`CREATE TABLE IF NOT EXISTS occupations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL UNIQUE
		)`,

		`CREATE TABLE IF NOT EXISTS mentor_profiles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			occupation_id INTEGER NOT NULL,
			bio TEXT NOT NULL DEFAULT '',
			years_experience INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (occupation_id) REFERENCES occupations(id)
		)`,

		`CREATE TABLE IF NOT EXISTS mentorship_requests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mentee_id INTEGER NOT NULL,
			mentor_id INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			message TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			FOREIGN KEY (mentee_id) REFERENCES users(id),
			FOREIGN KEY (mentor_id) REFERENCES mentor_profiles(id)
		)`,

		`CREATE TABLE IF NOT EXISTS courses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			occupation_id INTEGER,
			keywords TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (occupation_id) REFERENCES occupations(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_scenario_options_scenario ON scenario_options(scenario_id)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_user ON scenario_responses(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_option ON scenario_responses(scenario_option_id)`,
		`CREATE INDEX IF NOT EXISTS idx_mentor_profiles_occupation ON mentor_profiles(occupation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_mentorship_requests_mentee ON mentorship_requests(mentee_id)`,
		`CREATE INDEX IF NOT EXISTS idx_mentorship_requests_mentor ON mentorship_requests(mentor_id)`,
		`CREATE INDEX IF NOT EXISTS idx_courses_occupation ON courses(occupation_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// GetPoolStats returns database connection pool statistics
func (db *DB) GetPoolStats() map[string]interface{} {
	return db.pool.GetStats()
}
