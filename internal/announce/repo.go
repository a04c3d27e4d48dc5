package announce

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"smartattend/internal/roster"
)

// Announcement is a notice addressed to a role-wide or class audience.
type Announcement struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"senderId"`
	Audience  string    `json:"audience"`
	ClassID   *string   `json:"classId,omitempty"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repository persists announcements in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes an announcement.
func (r *Repository) Insert(ctx context.Context, a Announcement) (Announcement, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO announcements (id, sender_id, audience, class_id, title, body)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, a.ID, roster.NormalizeID(a.SenderID), a.Audience, a.ClassID, a.Title, a.Body)
	if err := row.Scan(&a.CreatedAt); err != nil {
		return Announcement{}, err
	}
	return a, nil
}

// ListForAudience returns announcements visible to a role, and to a student's
// classes when classIDs is non-empty. Newest first.
func (r *Repository) ListForAudience(ctx context.Context, role string, classIDs []string, limit int) ([]Announcement, error) {
	if limit <= 0 {
		limit = 50
	}
	roleAudience := "students"
	if role == "teacher" {
		roleAudience = "teachers"
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sender_id, audience, class_id, title, body, created_at
		FROM announcements
		WHERE audience = 'all'
		   OR audience = $1
		   OR (audience = 'class' AND class_id = ANY($2))
		ORDER BY created_at DESC
		LIMIT $3
	`, roleAudience, classIDs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Announcement
	for rows.Next() {
		var a Announcement
		if err := rows.Scan(&a.ID, &a.SenderID, &a.Audience, &a.ClassID, &a.Title, &a.Body, &a.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}
