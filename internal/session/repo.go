package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"smartattend/internal/roster"
)

// Session is one attendance window for a class/slot/date.
type Session struct {
	ID        int64     `json:"id"`
	ClassID   string    `json:"classId"`
	SlotID    int       `json:"slotId"`
	Day       time.Time `json:"day"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Code      string    `json:"code"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Closed identifies a session transitioned to closed by the sweep.
type Closed struct {
	ID   int64
	Code string
}

// errCodeCollision signals the generated code collided with another active
// session; the caller regenerates and retries.
var errCodeCollision = errors.New("active code collision")

// errSlotTaken signals an active session already exists for the tuple.
var errSlotTaken = errors.New("active session exists for slot")

// Repository persists attendance sessions in Postgres. Uniqueness of the
// active (class, slot, day) tuple and of active codes is enforced by partial
// unique indexes, not by application checks.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const sessionCols = `id, class_id, slot_id, day, type, status, code, attempts, expires_at, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.ClassID, &s.SlotID, &s.Day, &s.Type, &s.Status, &s.Code, &s.Attempts, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Insert creates an active session. Unique violations are translated per
// constraint so the service can distinguish a slot conflict from a code
// collision.
func (r *Repository) Insert(ctx context.Context, s Session) (Session, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_sessions (class_id, slot_id, day, type, status, code, expires_at)
		VALUES ($1, $2, $3, $4, 'active', $5, $6)
		RETURNING `+sessionCols+`
	`, roster.NormalizeID(s.ClassID), s.SlotID, s.Day, s.Type, s.Code, s.ExpiresAt)
	created, err := scanSession(row)
	if err != nil {
		switch uniqueConstraint(err) {
		case "uniq_active_session_per_slot":
			return Session{}, errSlotTaken
		case "uniq_active_session_code":
			return Session{}, errCodeCollision
		}
		return Session{}, err
	}
	return created, nil
}

// GetByID returns a session or nil when missing.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionCols+` FROM attendance_sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// LatestByCode returns the most recent session holding code regardless of
// status, or nil when the code was never issued. Callers decide how a closed
// or expired session answers.
func (r *Repository) LatestByCode(ctx context.Context, code string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionCols+` FROM attendance_sessions WHERE code = $1
		ORDER BY created_at DESC LIMIT 1
	`, code)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// CloseIfActive transitions active→closed; returns false when the session was
// not active (idempotent for the sweep, a Conflict for teachers).
func (r *Repository) CloseIfActive(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendance_sessions SET status = 'closed', updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CloseStaleForSlot closes an active session for the tuple whose expiry has
// passed, making room for a fresh open.
func (r *Repository) CloseStaleForSlot(ctx context.Context, classID string, slotID int, day time.Time, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE attendance_sessions SET status = 'closed', updated_at = NOW()
		WHERE class_id = $1 AND slot_id = $2 AND day = $3 AND status = 'active' AND expires_at < $4
	`, roster.NormalizeID(classID), slotID, day, now)
	return err
}

// SetCode replaces the code and expiry on a reset. Only active sessions
// update; closed rows stay immutable and the caller sees nil.
func (r *Repository) SetCode(ctx context.Context, id int64, code string, expiresAt time.Time, attempts int) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE attendance_sessions
		SET code = $2, expires_at = $3, attempts = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
		RETURNING `+sessionCols+`
	`, id, code, expiresAt, attempts)
	s, err := scanSession(row)
	if err != nil {
		if uniqueConstraint(err) == "uniq_active_session_code" {
			return nil, errCodeCollision
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ListForClass returns sessions for a class, ordered by slot then creation,
// optionally restricted to one date.
func (r *Repository) ListForClass(ctx context.Context, classID string, day *time.Time) ([]Session, error) {
	query := `SELECT ` + sessionCols + ` FROM attendance_sessions WHERE class_id = $1`
	args := []any{roster.NormalizeID(classID)}
	if day != nil {
		query += ` AND day = $2`
		args = append(args, *day)
	}
	query += ` ORDER BY slot_id, created_at`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// SweepExpired closes every active session past its expiry. Only rows still
// active transition, so the sweep never fights a concurrent teacher close.
func (r *Repository) SweepExpired(ctx context.Context, now time.Time) ([]Closed, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE attendance_sessions SET status = 'closed', updated_at = NOW()
		WHERE status = 'active' AND expires_at < $1
		RETURNING id, code
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Closed
	for rows.Next() {
		var c Closed
		if err := rows.Scan(&c.ID, &c.Code); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func uniqueConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName
	}
	return ""
}
