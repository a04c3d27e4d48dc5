package roster

import (
	"context"

	"smartattend/internal/apperr"
)

// Store is the persistence surface the service needs.
type Store interface {
	ClassByID(ctx context.Context, classID string) (*Class, error)
	ClassesByTeacher(ctx context.Context, teacherID string) ([]Class, error)
	ListClasses(ctx context.Context) ([]Class, error)
	CreateClass(ctx context.Context, cls Class) error
	AddStudent(ctx context.Context, classID, studentID string) error
	IsStudentInClass(ctx context.Context, studentID, classID string) (bool, error)
	ClassIDsForStudent(ctx context.Context, studentID string) ([]string, error)
	ClassStudents(ctx context.Context, classID string) ([]Student, error)
	CreateStudent(ctx context.Context, st Student) error
	CreateTeacher(ctx context.Context, t Teacher) error
	TeacherName(ctx context.Context, teacherID string) (string, error)
}

// Service answers roster questions for the rest of the system.
type Service struct {
	store Store
}

// NewService creates a roster service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// EnsureOwnership verifies that requester may act on classID: the class must
// exist and be owned by the requester unless the requester is an admin.
func (s *Service) EnsureOwnership(ctx context.Context, classID, requesterID, role string) (*Class, error) {
	cls, err := s.store.ClassByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if cls == nil {
		return nil, apperr.NotFound("class not found")
	}
	if role == "admin" {
		return cls, nil
	}
	if cls.TeacherID == nil || NormalizeID(*cls.TeacherID) != NormalizeID(requesterID) {
		return nil, apperr.Role("not your class")
	}
	return cls, nil
}

// ClassesForTeacher lists the classes a teacher owns.
func (s *Service) ClassesForTeacher(ctx context.Context, teacherID string) ([]Class, error) {
	return s.store.ClassesByTeacher(ctx, teacherID)
}

// ListClasses lists every class, for admin views.
func (s *Service) ListClasses(ctx context.Context) ([]Class, error) {
	return s.store.ListClasses(ctx)
}

// CreateClass registers a new class.
func (s *Service) CreateClass(ctx context.Context, cls Class) error {
	if cls.ClassID == "" || cls.ClassName == "" {
		return apperr.Validation("class id and name required")
	}
	return s.store.CreateClass(ctx, cls)
}

// Enroll adds a student to a class roster.
func (s *Service) Enroll(ctx context.Context, classID, studentID string) error {
	if classID == "" || studentID == "" {
		return apperr.Validation("class id and student id required")
	}
	cls, err := s.store.ClassByID(ctx, classID)
	if err != nil {
		return err
	}
	if cls == nil {
		return apperr.NotFound("class not found")
	}
	return s.store.AddStudent(ctx, classID, studentID)
}

// IsMember reports whether the student belongs to the class.
func (s *Service) IsMember(ctx context.Context, studentID, classID string) (bool, error) {
	return s.store.IsStudentInClass(ctx, studentID, classID)
}

// Students returns the class roster.
func (s *Service) Students(ctx context.Context, classID string) ([]Student, error) {
	return s.store.ClassStudents(ctx, classID)
}

// CreateStudentProfile registers a student profile.
func (s *Service) CreateStudentProfile(ctx context.Context, st Student) error {
	if st.StudentID == "" || st.FullName == "" {
		return apperr.Validation("student id and name required")
	}
	return s.store.CreateStudent(ctx, st)
}

// CreateTeacherProfile registers a teacher profile.
func (s *Service) CreateTeacherProfile(ctx context.Context, t Teacher) error {
	if t.TeacherID == "" || t.FullName == "" {
		return apperr.Validation("teacher id and name required")
	}
	return s.store.CreateTeacher(ctx, t)
}

// ClassIDsForStudent lists the classes a student belongs to.
func (s *Service) ClassIDsForStudent(ctx context.Context, studentID string) ([]string, error) {
	return s.store.ClassIDsForStudent(ctx, studentID)
}
