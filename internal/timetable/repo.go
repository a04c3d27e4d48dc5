package timetable

import (
	"context"
	"database/sql"
	"time"

	"smartattend/internal/roster"
)

// Entry is one timetable slot for a class.
type Entry struct {
	ID        int64  `json:"timetableId"`
	ClassID   string `json:"classId"`
	DayOfWeek string `json:"day"`
	SlotID    int    `json:"slotId"`
	Room      string `json:"room"`
	WeekKey   string `json:"weekKey"`
}

var dayKeys = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// DayKey maps a date to the timetable day-of-week key.
func DayKey(t time.Time) string {
	return dayKeys[int(t.Weekday())]
}

// Repository persists timetable entries in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SlotsForClassDay returns entries for a class on a weekday, ordered by slot.
func (r *Repository) SlotsForClassDay(ctx context.Context, classID, dayKey string) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, class_id, day_of_week, slot_id, room, week_key
		FROM timetable
		WHERE class_id = $1 AND day_of_week = $2
		ORDER BY slot_id
	`, roster.NormalizeID(classID), dayKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Entry
	for rows.Next() {
		var e Entry
		var room sql.NullString
		if err := rows.Scan(&e.ID, &e.ClassID, &e.DayOfWeek, &e.SlotID, &room, &e.WeekKey); err != nil {
			return nil, err
		}
		e.Room = room.String
		res = append(res, e)
	}
	return res, rows.Err()
}

// Upsert writes an entry, replacing the room on slot collision. The unique
// constraint keeps a class at one room per slot per day within a week.
func (r *Repository) Upsert(ctx context.Context, e Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO timetable (class_id, day_of_week, slot_id, room, week_key)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (class_id, day_of_week, slot_id, week_key)
		DO UPDATE SET room = EXCLUDED.room
	`, roster.NormalizeID(e.ClassID), e.DayOfWeek, e.SlotID, e.Room, e.WeekKey)
	return err
}

// CountTeacherSlotsForDay counts timetable entries for a teacher's classes on a weekday.
func (r *Repository) CountTeacherSlotsForDay(ctx context.Context, teacherID, dayKey string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM timetable t
		JOIN classes c ON c.class_id = t.class_id
		WHERE c.teacher_id = $1 AND t.day_of_week = $2
	`, roster.NormalizeID(teacherID), dayKey).Scan(&n)
	return n, err
}
