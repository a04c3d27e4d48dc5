package roster

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"smartattend/internal/apperr"
	"smartattend/internal/store"
)

// Class is a taught class with its roster size.
type Class struct {
	ClassID      string  `json:"id"`
	ClassName    string  `json:"name"`
	SubjectCode  *string `json:"subjectCode,omitempty"`
	SubjectName  *string `json:"subjectName,omitempty"`
	Cohort       *string `json:"cohort,omitempty"`
	TeacherID    *string `json:"teacherId,omitempty"`
	Status       string  `json:"status"`
	StudentCount int     `json:"studentCount"`
}

// Student is a student profile.
type Student struct {
	StudentID string  `json:"studentId"`
	FullName  string  `json:"fullName"`
	Email     *string `json:"email,omitempty"`
	Course    *string `json:"course,omitempty"`
}

// Teacher is a teacher profile.
type Teacher struct {
	TeacherID  string  `json:"teacherId"`
	FullName   string  `json:"fullName"`
	Email      *string `json:"email,omitempty"`
	Department *string `json:"department,omitempty"`
}

// NormalizeID uppercases and trims a class or user identifier.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Repository persists roster data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ClassByID returns a class or nil when missing.
func (r *Repository) ClassByID(ctx context.Context, classID string) (*Class, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT c.class_id, c.class_name, c.subject_code, c.subject_name, c.cohort, c.teacher_id, c.status,
		       (SELECT COUNT(*) FROM class_students cs WHERE cs.class_id = c.class_id)
		FROM classes c WHERE c.class_id = $1
	`, NormalizeID(classID))
	var cls Class
	if err := row.Scan(&cls.ClassID, &cls.ClassName, &cls.SubjectCode, &cls.SubjectName, &cls.Cohort, &cls.TeacherID, &cls.Status, &cls.StudentCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cls, nil
}

// ClassesByTeacher returns the classes a teacher owns, active first.
func (r *Repository) ClassesByTeacher(ctx context.Context, teacherID string) ([]Class, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.class_id, c.class_name, c.subject_code, c.subject_name, c.cohort, c.teacher_id, c.status,
		       (SELECT COUNT(*) FROM class_students cs WHERE cs.class_id = c.class_id)
		FROM classes c
		WHERE c.teacher_id = $1
		ORDER BY c.status, c.class_id
	`, NormalizeID(teacherID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Class
	for rows.Next() {
		var cls Class
		if err := rows.Scan(&cls.ClassID, &cls.ClassName, &cls.SubjectCode, &cls.SubjectName, &cls.Cohort, &cls.TeacherID, &cls.Status, &cls.StudentCount); err != nil {
			return nil, err
		}
		res = append(res, cls)
	}
	return res, rows.Err()
}

// ListClasses returns all classes.
func (r *Repository) ListClasses(ctx context.Context) ([]Class, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.class_id, c.class_name, c.subject_code, c.subject_name, c.cohort, c.teacher_id, c.status,
		       (SELECT COUNT(*) FROM class_students cs WHERE cs.class_id = c.class_id)
		FROM classes c ORDER BY c.class_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Class
	for rows.Next() {
		var cls Class
		if err := rows.Scan(&cls.ClassID, &cls.ClassName, &cls.SubjectCode, &cls.SubjectName, &cls.Cohort, &cls.TeacherID, &cls.Status, &cls.StudentCount); err != nil {
			return nil, err
		}
		res = append(res, cls)
	}
	return res, rows.Err()
}

// CreateClass inserts a class; a duplicate id is a Conflict.
func (r *Repository) CreateClass(ctx context.Context, cls Class) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO classes (class_id, class_name, subject_code, subject_name, cohort, teacher_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE(NULLIF($7, ''), 'active'))
	`, NormalizeID(cls.ClassID), cls.ClassName, cls.SubjectCode, cls.SubjectName, cls.Cohort, cls.TeacherID, cls.Status)
	if store.IsUniqueViolation(err) {
		return apperr.Conflict("class already exists")
	}
	return err
}

// AddStudent adds a membership row; repeats are a no-op.
func (r *Repository) AddStudent(ctx context.Context, classID, studentID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO class_students (class_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT (class_id, student_id) DO NOTHING
	`, NormalizeID(classID), NormalizeID(studentID))
	return err
}

// IsStudentInClass reports class membership via the m2m table.
func (r *Repository) IsStudentInClass(ctx context.Context, studentID, classID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM class_students WHERE class_id = $1 AND student_id = $2)
	`, NormalizeID(classID), NormalizeID(studentID)).Scan(&exists)
	return exists, err
}

// ClassStudents returns the roster ordered by student id.
func (r *Repository) ClassStudents(ctx context.Context, classID string) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.student_id, s.full_name, s.email, s.course
		FROM class_students cs
		JOIN students s ON s.student_id = cs.student_id
		WHERE cs.class_id = $1
		ORDER BY s.student_id
	`, NormalizeID(classID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Student
	for rows.Next() {
		var st Student
		if err := rows.Scan(&st.StudentID, &st.FullName, &st.Email, &st.Course); err != nil {
			return nil, err
		}
		res = append(res, st)
	}
	return res, rows.Err()
}

// ClassIDsForStudent lists the class ids a student belongs to.
func (r *Repository) ClassIDsForStudent(ctx context.Context, studentID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT class_id FROM class_students WHERE student_id = $1 ORDER BY class_id
	`, NormalizeID(studentID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		res = append(res, id)
	}
	return res, rows.Err()
}

// CreateStudent inserts a student profile.
func (r *Repository) CreateStudent(ctx context.Context, st Student) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO students (student_id, full_name, email, course)
		VALUES ($1, $2, $3, $4)
	`, NormalizeID(st.StudentID), st.FullName, st.Email, st.Course)
	if store.IsUniqueViolation(err) {
		return apperr.Conflict("student already exists")
	}
	return err
}

// CreateTeacher inserts a teacher profile.
func (r *Repository) CreateTeacher(ctx context.Context, t Teacher) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO teachers (teacher_id, full_name, email, department)
		VALUES ($1, $2, $3, $4)
	`, NormalizeID(t.TeacherID), t.FullName, t.Email, t.Department)
	if store.IsUniqueViolation(err) {
		return apperr.Conflict("teacher already exists")
	}
	return err
}

// TeacherName resolves a teacher's display name, empty when unknown.
func (r *Repository) TeacherName(ctx context.Context, teacherID string) (string, error) {
	var name string
	row := r.db.QueryRowContext(ctx, `SELECT full_name FROM teachers WHERE teacher_id = $1`, NormalizeID(teacherID))
	if err := row.Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return name, nil
}
