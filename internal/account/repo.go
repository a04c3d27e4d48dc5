package account

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"smartattend/internal/apperr"
	"smartattend/internal/roster"
	"smartattend/internal/store"
)

// Account is a login identity.
type Account struct {
	UserCode     string    `json:"userCode"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Repository persists accounts in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Get returns an account or nil when missing.
func (r *Repository) Get(ctx context.Context, userCode string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_code, password_hash, role, created_at
		FROM accounts WHERE user_code = $1
	`, roster.NormalizeID(userCode))
	var acc Account
	if err := row.Scan(&acc.UserCode, &acc.PasswordHash, &acc.Role, &acc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &acc, nil
}

// List returns all accounts ordered by user code.
func (r *Repository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_code, password_hash, role, created_at FROM accounts ORDER BY user_code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Account
	for rows.Next() {
		var acc Account
		if err := rows.Scan(&acc.UserCode, &acc.PasswordHash, &acc.Role, &acc.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, acc)
	}
	return res, rows.Err()
}

// Create inserts an account; duplicates are a Conflict.
func (r *Repository) Create(ctx context.Context, acc Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (user_code, password_hash, role)
		VALUES ($1, $2, $3)
	`, roster.NormalizeID(acc.UserCode), acc.PasswordHash, acc.Role)
	if store.IsUniqueViolation(err) {
		return apperr.Conflict("account already exists")
	}
	return err
}

// UpdatePassword replaces the stored hash.
func (r *Repository) UpdatePassword(ctx context.Context, userCode, hash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET password_hash = $2, updated_at = NOW() WHERE user_code = $1
	`, roster.NormalizeID(userCode), hash)
	return err
}

// UpdateRole changes an account's role.
func (r *Repository) UpdateRole(ctx context.Context, userCode, role string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET role = $2, updated_at = NOW() WHERE user_code = $1
	`, roster.NormalizeID(userCode), role)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("account not found")
	}
	return nil
}

// DisplayName resolves the profile name for a user code and role.
func (r *Repository) DisplayName(ctx context.Context, userCode, role string) (string, error) {
	var query string
	switch role {
	case "student":
		query = `SELECT full_name FROM students WHERE student_id = $1`
	case "teacher":
		query = `SELECT full_name FROM teachers WHERE teacher_id = $1`
	default:
		return userCode, nil
	}
	var name string
	if err := r.db.QueryRowContext(ctx, query, roster.NormalizeID(userCode)).Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return userCode, nil
		}
		return "", err
	}
	return name, nil
}
