package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"smartattend/internal/roster"
)

// HistoryItem is one enriched row of a student's attendance history.
type HistoryItem struct {
	RecordID    string     `json:"id"`
	StudentID   string     `json:"studentId"`
	ClassID     string     `json:"classId"`
	ClassName   string     `json:"className"`
	SubjectName *string    `json:"subjectName,omitempty"`
	SubjectCode *string    `json:"subjectCode,omitempty"`
	Day         time.Time  `json:"date"`
	SlotID      int        `json:"slot"`
	Code        string     `json:"attendanceCode"`
	Status      string     `json:"status"`
	RecordedAt  time.Time  `json:"recordedAt"`
	TeacherName *string    `json:"teacherName,omitempty"`
}

// HistoryFilters narrow a student-history query.
type HistoryFilters struct {
	Date     *time.Time
	From     *time.Time
	To       *time.Time
	Status   string
	ClassID  string
	Page     int
	PageSize int
}

// ClassAggregate is the raw per-class tally.
type ClassAggregate struct {
	Sessions int
	Records  int
	Present  int
}

// SessionTally is one session's roll-up for class history.
type SessionTally struct {
	SessionID int64     `json:"id"`
	Day       time.Time `json:"day"`
	SlotID    int       `json:"slotId"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Code      string    `json:"code"`
	Present   int       `json:"present"`
	Total     int       `json:"total"`
	CreatedAt time.Time `json:"createdAt"`
}

// TeacherTally is the raw teacher-overview counts.
type TeacherTally struct {
	Classes       int
	Students      int
	Records       int
	Present       int
	Announcements int
}

// StudentTally is the raw per-student counts.
type StudentTally struct {
	Classes int
	Records int
	Present int
}

// AdminTally is the raw institution-wide counts.
type AdminTally struct {
	Accounts      int
	Classes       int
	Students      int
	Teachers      int
	SessionsToday int
	Records       int
	Present       int
}

// Repository runs the reporting joins in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// StudentHistory joins records→sessions→classes with filters and pagination,
// returning the page plus the total match count.
func (r *Repository) StudentHistory(ctx context.Context, studentID string, f HistoryFilters) ([]HistoryItem, int, error) {
	where := `WHERE r.student_id = $1`
	args := []any{roster.NormalizeID(studentID)}

	add := func(clause string, val any) {
		args = append(args, val)
		where += fmt.Sprintf(" AND %s $%d", clause, len(args))
	}
	if f.Date != nil {
		add("s.day =", *f.Date)
	} else {
		if f.From != nil {
			add("s.day >=", *f.From)
		}
		if f.To != nil {
			add("s.day <=", *f.To)
		}
	}
	if f.Status != "" {
		add("r.status =", f.Status)
	}
	if f.ClassID != "" {
		add("s.class_id =", roster.NormalizeID(f.ClassID))
	}

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM attendance_records r
		JOIN attendance_sessions s ON s.id = r.session_id
		` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT r.id, r.student_id, s.class_id, c.class_name, c.subject_name, c.subject_code,
		       s.day, s.slot_id, s.code, r.status, r.recorded_at, t.full_name
		FROM attendance_records r
		JOIN attendance_sessions s ON s.id = r.session_id
		JOIN classes c ON c.class_id = s.class_id
		LEFT JOIN teachers t ON t.teacher_id = c.teacher_id
		` + where + `
		ORDER BY s.day DESC, s.slot_id, r.recorded_at DESC
		` + fmt.Sprintf("LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []HistoryItem
	for rows.Next() {
		var it HistoryItem
		if err := rows.Scan(&it.RecordID, &it.StudentID, &it.ClassID, &it.ClassName, &it.SubjectName,
			&it.SubjectCode, &it.Day, &it.SlotID, &it.Code, &it.Status, &it.RecordedAt, &it.TeacherName); err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

// ClassAggregate tallies sessions and records for one class.
func (r *Repository) ClassAggregate(ctx context.Context, classID string) (ClassAggregate, error) {
	var agg ClassAggregate
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT s.id),
		       COUNT(r.id),
		       COUNT(r.id) FILTER (WHERE r.status = 'present')
		FROM attendance_sessions s
		LEFT JOIN attendance_records r ON r.session_id = s.id
		WHERE s.class_id = $1
	`, roster.NormalizeID(classID)).Scan(&agg.Sessions, &agg.Records, &agg.Present)
	return agg, err
}

// ClassHistory rolls up recent sessions for a class, newest first.
func (r *Repository) ClassHistory(ctx context.Context, classID string, slotID *int, limit int) ([]SessionTally, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT s.id, s.day, s.slot_id, s.type, s.status, s.code, s.created_at,
		       COUNT(r.id) FILTER (WHERE r.status = 'present'), COUNT(r.id)
		FROM attendance_sessions s
		LEFT JOIN attendance_records r ON r.session_id = s.id
		WHERE s.class_id = $1`
	args := []any{roster.NormalizeID(classID)}
	if slotID != nil {
		args = append(args, *slotID)
		query += fmt.Sprintf(" AND s.slot_id = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(`
		GROUP BY s.id
		ORDER BY s.day DESC, s.slot_id
		LIMIT $%d`, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []SessionTally
	for rows.Next() {
		var t SessionTally
		if err := rows.Scan(&t.SessionID, &t.Day, &t.SlotID, &t.Type, &t.Status, &t.Code, &t.CreatedAt, &t.Present, &t.Total); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// TeacherTally gathers the overview counts for a teacher.
func (r *Repository) TeacherTally(ctx context.Context, teacherID string, since time.Time) (TeacherTally, error) {
	id := roster.NormalizeID(teacherID)
	var t TeacherTally
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM classes WHERE teacher_id = $1 AND status = 'active'),
			(SELECT COUNT(DISTINCT cs.student_id)
			   FROM class_students cs JOIN classes c ON c.class_id = cs.class_id
			  WHERE c.teacher_id = $1),
			(SELECT COUNT(r.id)
			   FROM attendance_records r
			   JOIN attendance_sessions s ON s.id = r.session_id
			   JOIN classes c ON c.class_id = s.class_id
			  WHERE c.teacher_id = $1),
			(SELECT COUNT(r.id)
			   FROM attendance_records r
			   JOIN attendance_sessions s ON s.id = r.session_id
			   JOIN classes c ON c.class_id = s.class_id
			  WHERE c.teacher_id = $1 AND r.status = 'present'),
			(SELECT COUNT(*) FROM announcements WHERE sender_id = $1 AND created_at >= $2)
	`, id, since).Scan(&t.Classes, &t.Students, &t.Records, &t.Present, &t.Announcements)
	return t, err
}

// StudentTally gathers the overview counts for a student.
func (r *Repository) StudentTally(ctx context.Context, studentID string) (StudentTally, error) {
	id := roster.NormalizeID(studentID)
	var t StudentTally
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM class_students WHERE student_id = $1),
			(SELECT COUNT(*) FROM attendance_records WHERE student_id = $1),
			(SELECT COUNT(*) FROM attendance_records WHERE student_id = $1 AND status = 'present')
	`, id).Scan(&t.Classes, &t.Records, &t.Present)
	return t, err
}

// AdminTally gathers the institution-wide counts for the admin dashboard.
func (r *Repository) AdminTally(ctx context.Context, day time.Time) (AdminTally, error) {
	var t AdminTally
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM accounts),
			(SELECT COUNT(*) FROM classes WHERE status = 'active'),
			(SELECT COUNT(*) FROM students),
			(SELECT COUNT(*) FROM teachers),
			(SELECT COUNT(*) FROM attendance_sessions WHERE day = $1),
			(SELECT COUNT(*) FROM attendance_records),
			(SELECT COUNT(*) FROM attendance_records WHERE status = 'present')
	`, day).Scan(&t.Accounts, &t.Classes, &t.Students, &t.Teachers, &t.SessionsToday, &t.Records, &t.Present)
	return t, err
}
