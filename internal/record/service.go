package record

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"smartattend/internal/apperr"
	"smartattend/internal/metrics"
	"smartattend/internal/queue"
	"smartattend/internal/roster"
	"smartattend/internal/session"
)

const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusExcused = "excused"
)

// Store is the persistence surface the service needs.
type Store interface {
	Upsert(ctx context.Context, rec Record) (Record, error)
	ForSession(ctx context.Context, sessionID int64) ([]Record, error)
}

// Sessions resolves sessions for marking.
type Sessions interface {
	Get(ctx context.Context, sessionID int64) (*session.Session, error)
	FindByCode(ctx context.Context, code string) (*session.Session, error)
	Expired(sess *session.Session) bool
	Detail(ctx context.Context, sessionID int64, requesterID, role string) (session.Session, *roster.Class, error)
}

// Membership answers whether a student belongs to a class.
type Membership interface {
	IsMember(ctx context.Context, studentID, classID string) (bool, error)
}

// ManualEntry is one row of a teacher's manual roll call.
type ManualEntry struct {
	StudentID string  `json:"studentId" binding:"required"`
	Status    string  `json:"status"`
	Note      *string `json:"note,omitempty"`
}

// Service validates and records attendance marks. Duplicate submissions for a
// (session, student) pair converge to a single row via upsert.
type Service struct {
	store    Store
	sessions Sessions
	members  Membership
	events   queue.Queue
	now      func() time.Time
}

// NewService creates a recorder.
func NewService(store Store, sessions Sessions, members Membership, events queue.Queue) *Service {
	return &Service{store: store, sessions: sessions, members: members, events: events, now: time.Now}
}

// Mark writes a mark for the student, checking in order: session exists,
// session is active, the window has not expired, and the student belongs to
// the session's class. The first failing check wins.
func (s *Service) Mark(ctx context.Context, sessionID int64, studentID, status string) (Record, error) {
	if !validStatus(status) {
		return Record{}, apperr.Validation("invalid attendance status")
	}
	studentID = roster.NormalizeID(studentID)
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return Record{}, err
	}
	if sess == nil {
		return Record{}, apperr.NotFound("session not found")
	}
	if sess.Status != session.StatusActive {
		return Record{}, apperr.Conflict("session is closed")
	}
	if s.sessions.Expired(sess) {
		return Record{}, apperr.Expired("attendance window has passed")
	}
	member, err := s.members.IsMember(ctx, studentID, sess.ClassID)
	if err != nil {
		return Record{}, err
	}
	if !member {
		return Record{}, apperr.Role("student does not belong to this class")
	}

	rec, err := s.store.Upsert(ctx, Record{
		SessionID:  sess.ID,
		StudentID:  studentID,
		Status:     status,
		RecordedAt: s.now().UTC(),
	})
	if err != nil {
		return Record{}, err
	}
	metrics.MarksRecorded.WithLabelValues(status).Inc()
	s.publish(ctx, rec)
	return rec, nil
}

// AttendByCode resolves a submitted code and marks the student present. A
// code nobody ever issued is NotFound; a code whose session has closed or
// expired fails Mark's own checks, so the student can tell "wrong code" apart
// from "too late".
func (s *Service) AttendByCode(ctx context.Context, studentID, code string) (Record, *session.Session, error) {
	sess, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		return Record{}, nil, err
	}
	if sess == nil {
		return Record{}, nil, apperr.NotFound("unknown attendance code")
	}
	rec, err := s.Mark(ctx, sess.ID, studentID, StatusPresent)
	if err != nil {
		return Record{}, nil, err
	}
	return rec, sess, nil
}

// SaveManual bulk-upserts a manual roll call. Only the owning teacher (or an
// admin) may write, and only for manual-type sessions.
func (s *Service) SaveManual(ctx context.Context, sessionID int64, entries []ManualEntry, requesterID, role string) ([]Record, error) {
	if len(entries) == 0 {
		return nil, apperr.Validation("student list is empty")
	}
	sess, _, err := s.sessions.Detail(ctx, sessionID, requesterID, role)
	if err != nil {
		return nil, err
	}
	if sess.Type != session.TypeManual {
		return nil, apperr.Validation("only manual sessions accept a roll call")
	}

	now := s.now().UTC()
	res := make([]Record, 0, len(entries))
	for _, e := range entries {
		status := e.Status
		if !validStatus(status) {
			status = StatusAbsent
		}
		rec, err := s.store.Upsert(ctx, Record{
			SessionID:  sess.ID,
			StudentID:  roster.NormalizeID(e.StudentID),
			Status:     status,
			Note:       e.Note,
			RecordedAt: now,
		})
		if err != nil {
			return nil, err
		}
		metrics.MarksRecorded.WithLabelValues(status).Inc()
		res = append(res, rec)
	}
	return res, nil
}

// ForSession returns a session's records.
func (s *Service) ForSession(ctx context.Context, sessionID int64) ([]Record, error) {
	return s.store.ForSession(ctx, sessionID)
}

func (s *Service) publish(ctx context.Context, rec Record) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := s.events.Publish(ctx, queue.Message{Type: "attendance", Body: body}); err != nil {
		log.Printf("attendance event publish failed: %v", err)
	}
}

func validStatus(status string) bool {
	return status == StatusPresent || status == StatusAbsent || status == StatusExcused
}
