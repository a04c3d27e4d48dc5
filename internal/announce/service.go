package announce

import (
	"context"

	"smartattend/internal/apperr"
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, a Announcement) (Announcement, error)
	ListForAudience(ctx context.Context, role string, classIDs []string, limit int) ([]Announcement, error)
}

// Memberships lists the classes a student belongs to.
type Memberships interface {
	ClassIDsForStudent(ctx context.Context, studentID string) ([]string, error)
}

// Service publishes and lists announcements.
type Service struct {
	store   Store
	members Memberships
}

// NewService creates an announcement service.
func NewService(store Store, members Memberships) *Service {
	return &Service{store: store, members: members}
}

// Publish validates and stores an announcement.
func (s *Service) Publish(ctx context.Context, a Announcement) (Announcement, error) {
	if a.Title == "" || a.Body == "" {
		return Announcement{}, apperr.Validation("title and body required")
	}
	switch a.Audience {
	case "all", "students", "teachers":
	case "class":
		if a.ClassID == nil || *a.ClassID == "" {
			return Announcement{}, apperr.Validation("class audience requires a class id")
		}
	default:
		return Announcement{}, apperr.Validation("invalid audience")
	}
	return s.store.Insert(ctx, a)
}

// ListFor returns announcements visible to the identity.
func (s *Service) ListFor(ctx context.Context, userID, role string, limit int) ([]Announcement, error) {
	var classIDs []string
	if role == "student" {
		ids, err := s.members.ClassIDsForStudent(ctx, userID)
		if err != nil {
			return nil, err
		}
		classIDs = ids
	}
	if classIDs == nil {
		classIDs = []string{}
	}
	return s.store.ListForAudience(ctx, role, classIDs, limit)
}
