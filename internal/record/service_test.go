package record

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"smartattend/internal/apperr"
	"smartattend/internal/queue"
	"smartattend/internal/roster"
	"smartattend/internal/session"
)

// ── mocks ──

type recordKey struct {
	sessionID int64
	studentID string
}

type mockStore struct {
	records map[recordKey]Record
}

func newMockStore() *mockStore {
	return &mockStore{records: make(map[recordKey]Record)}
}

func (m *mockStore) Upsert(_ context.Context, rec Record) (Record, error) {
	key := recordKey{rec.SessionID, rec.StudentID}
	if existing, found := m.records[key]; found {
		rec.ID = existing.ID
	} else if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	m.records[key] = rec
	return rec, nil
}

func (m *mockStore) ForSession(_ context.Context, sessionID int64) ([]Record, error) {
	var res []Record
	for key, rec := range m.records {
		if key.sessionID == sessionID {
			res = append(res, rec)
		}
	}
	return res, nil
}

type mockSessions struct {
	sessions map[int64]*session.Session
	now      time.Time
}

func (m *mockSessions) Get(_ context.Context, id int64) (*session.Session, error) {
	if s, found := m.sessions[id]; found {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (m *mockSessions) FindByCode(_ context.Context, code string) (*session.Session, error) {
	var latest *session.Session
	for _, s := range m.sessions {
		if s.Code != session.NormalizeCode(code) {
			continue
		}
		if latest == nil || s.ID > latest.ID {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (m *mockSessions) Expired(sess *session.Session) bool {
	return sess.ExpiresAt.Before(m.now)
}

func (m *mockSessions) Detail(_ context.Context, id int64, requesterID, role string) (session.Session, *roster.Class, error) {
	s, found := m.sessions[id]
	if !found {
		return session.Session{}, nil, apperr.NotFound("session not found")
	}
	if role != "admin" && requesterID != "GV001" {
		return session.Session{}, nil, apperr.Role("not your class")
	}
	return *s, &roster.Class{ClassID: s.ClassID, ClassName: s.ClassID}, nil
}

type mockMembers struct {
	enrolled map[string]string // studentID -> classID
}

func (m *mockMembers) IsMember(_ context.Context, studentID, classID string) (bool, error) {
	return m.enrolled[studentID] == classID, nil
}

func newTestService() (*Service, *mockStore, *mockSessions, *queue.InMemory) {
	now := time.Now()
	sessions := &mockSessions{
		now: now,
		sessions: map[int64]*session.Session{
			1: {ID: 1, ClassID: "SE19B3", SlotID: 1, Type: session.TypeQR, Status: session.StatusActive, Code: "ABC234", ExpiresAt: now.Add(time.Minute)},
			2: {ID: 2, ClassID: "SE19B3", SlotID: 2, Type: session.TypeCode, Status: session.StatusClosed, Code: "DEF567", ExpiresAt: now.Add(time.Minute)},
			3: {ID: 3, ClassID: "SE19B3", SlotID: 3, Type: session.TypeCode, Status: session.StatusActive, Code: "GHJ789", ExpiresAt: now.Add(-time.Minute)},
			4: {ID: 4, ClassID: "SE19B3", SlotID: 4, Type: session.TypeManual, Status: session.StatusActive, ExpiresAt: now.Add(time.Minute)},
		},
	}
	members := &mockMembers{enrolled: map[string]string{"SV001": "SE19B3", "SV002": "SE19B3"}}
	store := newMockStore()
	events := queue.NewInMemory(16)
	return NewService(store, sessions, members, events), store, sessions, events
}

// ── Mark ──

func TestMark_ChecksInOrder(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name      string
		sessionID int64
		studentID string
		status    string
		want      apperr.Kind
	}{
		{"bad status", 1, "SV001", "late", apperr.KindValidation},
		{"missing session", 99, "SV001", StatusPresent, apperr.KindNotFound},
		{"closed session", 2, "SV001", StatusPresent, apperr.KindConflict},
		{"expired window", 3, "SV001", StatusPresent, apperr.KindExpired},
		{"not enrolled", 1, "SV999", StatusPresent, apperr.KindRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Mark(ctx, tc.sessionID, tc.studentID, tc.status)
			if apperr.KindOf(err) != tc.want {
				t.Errorf("got %v, want kind %v", err, tc.want)
			}
		})
	}
}

func TestMark_ResubmissionOverwrites(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Mark(ctx, 1, "SV001", StatusPresent)
	if err != nil {
		t.Fatalf("first mark failed: %v", err)
	}
	second, err := svc.Mark(ctx, 1, "SV001", StatusExcused)
	if err != nil {
		t.Fatalf("second mark failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("resubmission created a new record: %s vs %s", second.ID, first.ID)
	}
	if len(store.records) != 1 {
		t.Fatalf("stored %d records, want 1", len(store.records))
	}
	if got := store.records[recordKey{1, "SV001"}].Status; got != StatusExcused {
		t.Errorf("stored status = %s, want excused", got)
	}
}

func TestMark_NormalizesStudentID(t *testing.T) {
	svc, store, _, _ := newTestService()

	rec, err := svc.Mark(context.Background(), 1, " sv001 ", StatusPresent)
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if rec.StudentID != "SV001" {
		t.Errorf("returned student id = %q, want SV001", rec.StudentID)
	}
	if _, found := store.records[recordKey{1, "SV001"}]; !found {
		t.Error("record not stored under the normalized id")
	}
}

func TestMark_PublishesEvent(t *testing.T) {
	svc, _, _, events := newTestService()

	if _, err := svc.Mark(context.Background(), 1, "SV001", StatusPresent); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	msgs, err := events.Consume(context.Background())
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	select {
	case msg := <-msgs:
		if msg.Type != "attendance" {
			t.Errorf("event type = %s, want attendance", msg.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("no attendance event published")
	}
}

// ── AttendByCode ──

func TestAttendByCode_MarksPresent(t *testing.T) {
	svc, _, _, _ := newTestService()

	rec, sess, err := svc.AttendByCode(context.Background(), "SV001", " abc234 ")
	if err != nil {
		t.Fatalf("attend failed: %v", err)
	}
	if sess.ID != 1 {
		t.Errorf("resolved session %d, want 1", sess.ID)
	}
	if rec.Status != StatusPresent {
		t.Errorf("status = %s, want present", rec.Status)
	}
}

func TestAttendByCode_UnknownCode(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, _, err := svc.AttendByCode(context.Background(), "SV001", "ZZZZ99")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("got %v, want NotFound", err)
	}
}

func TestAttendByCode_ClosedSessionIsConflict(t *testing.T) {
	svc, _, _, _ := newTestService()

	// Session 2 was closed by its teacher; resubmitting its code must say so
	// rather than pretend the code never existed.
	_, _, err := svc.AttendByCode(context.Background(), "SV001", "DEF567")
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("got %v, want Conflict", err)
	}
}

func TestAttendByCode_ExpiredWindow(t *testing.T) {
	svc, _, _, _ := newTestService()

	// Session 3 is still active but its window has passed; the sweep has not
	// run yet. The mark must still be rejected.
	_, _, err := svc.AttendByCode(context.Background(), "SV001", "GHJ789")
	if apperr.KindOf(err) != apperr.KindExpired {
		t.Fatalf("got %v, want Expired", err)
	}
}

// ── SaveManual ──

func TestSaveManual_UpsertsRollCall(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	note := "sick"
	recs, err := svc.SaveManual(ctx, 4, []ManualEntry{
		{StudentID: "SV001", Status: StatusPresent},
		{StudentID: "SV002", Status: StatusExcused, Note: &note},
		{StudentID: "SV003", Status: "bogus"},
	}, "GV001", "teacher")
	if err != nil {
		t.Fatalf("SaveManual failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("returned %d records, want 3", len(recs))
	}
	if got := store.records[recordKey{4, "SV003"}].Status; got != StatusAbsent {
		t.Errorf("unknown status should default to absent, got %s", got)
	}
}

func TestSaveManual_RejectsNonManualSession(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.SaveManual(context.Background(), 1, []ManualEntry{{StudentID: "SV001", Status: StatusPresent}}, "GV001", "teacher")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("got %v, want Validation", err)
	}
}

func TestSaveManual_EmptyListRejected(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.SaveManual(context.Background(), 4, nil, "GV001", "teacher")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("got %v, want Validation", err)
	}
}

func TestSaveManual_ForeignTeacherForbidden(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.SaveManual(context.Background(), 4, []ManualEntry{{StudentID: "SV001", Status: StatusPresent}}, "GV999", "teacher")
	if apperr.KindOf(err) != apperr.KindRole {
		t.Fatalf("got %v, want Role", err)
	}
}
