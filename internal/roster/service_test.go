package roster

import (
	"context"
	"testing"

	"smartattend/internal/apperr"
)

// ── mocks ──

type mockStore struct {
	classes  map[string]*Class
	enrolled map[string][]string // classID -> studentIDs
}

func newMockStore() *mockStore {
	return &mockStore{classes: make(map[string]*Class), enrolled: make(map[string][]string)}
}

func (m *mockStore) addClass(classID, teacherID string) {
	m.classes[classID] = &Class{ClassID: classID, ClassName: classID, TeacherID: &teacherID, Status: "active"}
}

func (m *mockStore) ClassByID(_ context.Context, classID string) (*Class, error) {
	if cls, found := m.classes[NormalizeID(classID)]; found {
		copied := *cls
		return &copied, nil
	}
	return nil, nil
}

func (m *mockStore) ClassesByTeacher(_ context.Context, teacherID string) ([]Class, error) {
	var res []Class
	for _, cls := range m.classes {
		if cls.TeacherID != nil && *cls.TeacherID == NormalizeID(teacherID) {
			res = append(res, *cls)
		}
	}
	return res, nil
}

func (m *mockStore) ListClasses(_ context.Context) ([]Class, error) {
	var res []Class
	for _, cls := range m.classes {
		res = append(res, *cls)
	}
	return res, nil
}

func (m *mockStore) CreateClass(_ context.Context, cls Class) error {
	if _, exists := m.classes[cls.ClassID]; exists {
		return apperr.Conflict("class already exists")
	}
	m.classes[cls.ClassID] = &cls
	return nil
}

func (m *mockStore) AddStudent(_ context.Context, classID, studentID string) error {
	classID, studentID = NormalizeID(classID), NormalizeID(studentID)
	for _, id := range m.enrolled[classID] {
		if id == studentID {
			return nil
		}
	}
	m.enrolled[classID] = append(m.enrolled[classID], studentID)
	return nil
}

func (m *mockStore) IsStudentInClass(_ context.Context, studentID, classID string) (bool, error) {
	for _, id := range m.enrolled[NormalizeID(classID)] {
		if id == NormalizeID(studentID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) ClassIDsForStudent(_ context.Context, studentID string) ([]string, error) {
	var res []string
	for classID, students := range m.enrolled {
		for _, id := range students {
			if id == NormalizeID(studentID) {
				res = append(res, classID)
			}
		}
	}
	return res, nil
}

func (m *mockStore) ClassStudents(_ context.Context, classID string) ([]Student, error) {
	var res []Student
	for _, id := range m.enrolled[NormalizeID(classID)] {
		res = append(res, Student{StudentID: id, FullName: id})
	}
	return res, nil
}

func (m *mockStore) CreateStudent(_ context.Context, _ Student) error { return nil }
func (m *mockStore) CreateTeacher(_ context.Context, _ Teacher) error { return nil }

func (m *mockStore) TeacherName(_ context.Context, _ string) (string, error) { return "", nil }

// ── EnsureOwnership ──

func TestEnsureOwnership(t *testing.T) {
	store := newMockStore()
	store.addClass("SE19B3", "GV001")
	svc := NewService(store)
	ctx := context.Background()

	cases := []struct {
		name        string
		classID     string
		requesterID string
		role        string
		want        apperr.Kind
	}{
		{"owner", "SE19B3", "GV001", "teacher", apperr.KindUnexpected},
		{"lowercase ids match", "se19b3", "gv001", "teacher", apperr.KindUnexpected},
		{"admin bypass", "SE19B3", "SOMEONE", "admin", apperr.KindUnexpected},
		{"foreign teacher", "SE19B3", "GV002", "teacher", apperr.KindRole},
		{"missing class", "SE19B9", "GV001", "teacher", apperr.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cls, err := svc.EnsureOwnership(ctx, tc.classID, tc.requesterID, tc.role)
			if tc.want == apperr.KindUnexpected {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if cls == nil || cls.ClassID != "SE19B3" {
					t.Fatalf("class = %+v", cls)
				}
				return
			}
			if apperr.KindOf(err) != tc.want {
				t.Errorf("got %v, want kind %v", err, tc.want)
			}
		})
	}
}

func TestEnsureOwnership_UnownedClass(t *testing.T) {
	store := newMockStore()
	store.classes["SE19B3"] = &Class{ClassID: "SE19B3", ClassName: "SE19B3", Status: "active"}
	svc := NewService(store)

	_, err := svc.EnsureOwnership(context.Background(), "SE19B3", "GV001", "teacher")
	if apperr.KindOf(err) != apperr.KindRole {
		t.Fatalf("got %v, want Role for a class with no teacher", err)
	}
}

// ── Enroll ──

func TestEnroll(t *testing.T) {
	store := newMockStore()
	store.addClass("SE19B3", "GV001")
	svc := NewService(store)
	ctx := context.Background()

	if err := svc.Enroll(ctx, "SE19B3", "sv001"); err != nil {
		t.Fatalf("enroll failed: %v", err)
	}
	member, err := svc.IsMember(ctx, "SV001", "SE19B3")
	if err != nil || !member {
		t.Fatalf("IsMember = %v, %v; want true", member, err)
	}

	// Re-enrolling the same student is a no-op.
	if err := svc.Enroll(ctx, "SE19B3", "SV001"); err != nil {
		t.Fatalf("re-enroll failed: %v", err)
	}
	students, err := svc.Students(ctx, "SE19B3")
	if err != nil || len(students) != 1 {
		t.Fatalf("students = %v, %v; want one entry", students, err)
	}

	if err := svc.Enroll(ctx, "SE19B9", "SV001"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("enroll into missing class: got %v, want NotFound", err)
	}
	if err := svc.Enroll(ctx, "", ""); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("empty ids accepted: %v", err)
	}
}

func TestNormalizeID(t *testing.T) {
	if got := NormalizeID("  se19b3 "); got != "SE19B3" {
		t.Errorf("NormalizeID = %q, want SE19B3", got)
	}
}
