package record

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"smartattend/internal/roster"
)

// Record is one attendance mark for a (session, student) pair.
type Record struct {
	ID         string    `json:"id"`
	SessionID  int64     `json:"sessionId"`
	StudentID  string    `json:"studentId"`
	Status     string    `json:"status"`
	Note       *string   `json:"note,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Upsert writes a mark keyed by (session_id, student_id). A resubmission
// overwrites the previous status instead of creating a second row.
func (r *Repository) Upsert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	// The returned record must echo the id the row was stored under.
	rec.StudentID = roster.NormalizeID(rec.StudentID)
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, session_id, student_id, status, note, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, student_id) DO UPDATE
		SET status = EXCLUDED.status, note = EXCLUDED.note, recorded_at = EXCLUDED.recorded_at
		RETURNING id, recorded_at
	`, rec.ID, rec.SessionID, rec.StudentID, rec.Status, rec.Note, rec.RecordedAt)
	if err := row.Scan(&rec.ID, &rec.RecordedAt); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ForSession returns all records of a session, ordered by student id.
func (r *Repository) ForSession(ctx context.Context, sessionID int64) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, student_id, status, note, recorded_at
		FROM attendance_records WHERE session_id = $1
		ORDER BY student_id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.StudentID, &rec.Status, &rec.Note, &rec.RecordedAt); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
