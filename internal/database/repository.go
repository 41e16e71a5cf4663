package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when registering an email that already has an
// account.
var ErrDuplicateEmail = errors.New("email already registered")

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts a new account. Emails are unique.
func (r *Repository) CreateUser(name, email, passwordHash string, age *int, educationLevelID *int64) (*User, error) {
	user := &User{
		Name:             name,
		Email:            strings.ToLower(strings.TrimSpace(email)),
		PasswordHash:     passwordHash,
		Age:              age,
		EducationLevelID: educationLevelID,
		CreatedAt:        time.Now().UTC(),
	}

	res, err := r.db.Exec(`
		INSERT INTO users (name, email, password_hash, age, education_level_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, user.Name, user.Email, user.PasswordHash, user.Age, user.EducationLevelID, user.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read new user id: %w", err)
	}
	return user, nil
}

// GetUserByEmail looks a user up by (case-insensitive) email.
func (r *Repository) GetUserByEmail(email string) (*User, error) {
	return r.scanUser(r.db.QueryRow(`
		SELECT id, name, email, password_hash, age, education_level_id, created_at
		FROM users WHERE email = ?
	`, strings.ToLower(strings.TrimSpace(email))))
}

// GetUserByID looks a user up by primary key.
func (r *Repository) GetUserByID(id int64) (*User, error) {
	return r.scanUser(r.db.QueryRow(`
		SELECT id, name, email, password_hash, age, education_level_id, created_at
		FROM users WHERE id = ?
	`, id))
}

// UpdateUser updates the mutable profile fields.
func (r *Repository) UpdateUser(id int64, name string, age *int) (*User, error) {
	res, err := r.db.Exec(`UPDATE users SET name = ?, age = ? WHERE id = ?`, name, age, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return r.GetUserByID(id)
}

// DeleteUser removes an account and its responses and results.
func (r *Repository) DeleteUser(id int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM scenario_responses WHERE user_id = ?`,
		`DELETE FROM assessment_results WHERE user_id = ?`,
		`DELETE FROM mentorship_requests WHERE mentee_id = ?`,
		`DELETE FROM mentorship_requests WHERE mentor_id IN (SELECT id FROM mentor_profiles WHERE user_id = ?)`,
		`DELETE FROM mentor_profiles WHERE user_id = ?`,
		`DELETE FROM users WHERE id = ?`,
	} {
		if _, err := tx.Exec(q, id); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
	}

	return tx.Commit()
}

func (r *Repository) scanUser(row *sql.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.Age, &user.EducationLevelID, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}
