package report

import (
	"context"
	"testing"
	"time"
)

// ── mocks ──

type mockStore struct {
	history      []HistoryItem
	lastFilters  HistoryFilters
	aggregate    ClassAggregate
	teacherTally TeacherTally
	studentTally StudentTally
	adminTally   AdminTally
	sessionTally []SessionTally
}

func (m *mockStore) StudentHistory(_ context.Context, _ string, f HistoryFilters) ([]HistoryItem, int, error) {
	m.lastFilters = f
	total := len(m.history)
	start := (f.Page - 1) * f.PageSize
	if start >= total {
		return nil, total, nil
	}
	end := start + f.PageSize
	if end > total {
		end = total
	}
	return m.history[start:end], total, nil
}

func (m *mockStore) ClassAggregate(_ context.Context, _ string) (ClassAggregate, error) {
	return m.aggregate, nil
}

func (m *mockStore) ClassHistory(_ context.Context, _ string, _ *int, _ int) ([]SessionTally, error) {
	return m.sessionTally, nil
}

func (m *mockStore) TeacherTally(_ context.Context, _ string, _ time.Time) (TeacherTally, error) {
	return m.teacherTally, nil
}

func (m *mockStore) StudentTally(_ context.Context, _ string) (StudentTally, error) {
	return m.studentTally, nil
}

func (m *mockStore) AdminTally(_ context.Context, _ time.Time) (AdminTally, error) {
	return m.adminTally, nil
}

type mockTimetable struct {
	slots int
}

func (m *mockTimetable) CountTeacherSlotsForDay(_ context.Context, _, _ string) (int, error) {
	return m.slots, nil
}

func historyItems(n int) []HistoryItem {
	items := make([]HistoryItem, n)
	for i := range items {
		items[i] = HistoryItem{Status: "present"}
	}
	return items
}

// ── Rate ──

func TestRate(t *testing.T) {
	if got := Rate(3, 0); got != nil {
		t.Errorf("Rate(3, 0) = %v, want nil", *got)
	}
	cases := []struct {
		present, total int
		want           float64
	}{
		{3, 4, 75.0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{0, 5, 0.0},
		{5, 5, 100.0},
	}
	for _, tc := range cases {
		got := Rate(tc.present, tc.total)
		if got == nil || *got != tc.want {
			t.Errorf("Rate(%d, %d) = %v, want %v", tc.present, tc.total, got, tc.want)
		}
	}
}

// ── StudentHistory ──

func TestStudentHistory_Pagination(t *testing.T) {
	store := &mockStore{history: historyItems(15)}
	svc := NewService(store, &mockTimetable{})

	page, err := svc.StudentHistory(context.Background(), "SV001", HistoryFilters{Page: 2, PageSize: 10})
	if err != nil {
		t.Fatalf("StudentHistory failed: %v", err)
	}
	if len(page.Items) != 5 {
		t.Errorf("page 2 of 15 with size 10: got %d items, want 5", len(page.Items))
	}
	if page.Total != 15 {
		t.Errorf("total = %d, want 15", page.Total)
	}
	if page.Page != 2 || page.PageSize != 10 {
		t.Errorf("echoed page=%d size=%d, want 2 and 10", page.Page, page.PageSize)
	}
}

func TestStudentHistory_ClampsPaging(t *testing.T) {
	store := &mockStore{history: historyItems(3)}
	svc := NewService(store, &mockTimetable{})
	ctx := context.Background()

	if _, err := svc.StudentHistory(ctx, "SV001", HistoryFilters{Page: 0, PageSize: 0}); err != nil {
		t.Fatalf("StudentHistory failed: %v", err)
	}
	if store.lastFilters.Page != 1 || store.lastFilters.PageSize != defaultPageSize {
		t.Errorf("defaults not applied: page=%d size=%d", store.lastFilters.Page, store.lastFilters.PageSize)
	}

	if _, err := svc.StudentHistory(ctx, "SV001", HistoryFilters{Page: 1, PageSize: 500}); err != nil {
		t.Fatalf("StudentHistory failed: %v", err)
	}
	if store.lastFilters.PageSize != defaultPageSize {
		t.Errorf("oversized page size not clamped: %d", store.lastFilters.PageSize)
	}
}

func TestStudentHistory_Validation(t *testing.T) {
	svc := NewService(&mockStore{}, &mockTimetable{})
	ctx := context.Background()

	if _, err := svc.StudentHistory(ctx, "", HistoryFilters{}); err == nil {
		t.Error("empty student id accepted")
	}
	if _, err := svc.StudentHistory(ctx, "SV001", HistoryFilters{Status: "late"}); err == nil {
		t.Error("invalid status filter accepted")
	}
}

func TestStudentHistory_EmptyIsNotNil(t *testing.T) {
	svc := NewService(&mockStore{}, &mockTimetable{})

	page, err := svc.StudentHistory(context.Background(), "SV001", HistoryFilters{})
	if err != nil {
		t.Fatalf("StudentHistory failed: %v", err)
	}
	if page.Items == nil {
		t.Error("items should be an empty slice, not nil")
	}
}

// ── summaries ──

func TestClassSummary(t *testing.T) {
	store := &mockStore{aggregate: ClassAggregate{Sessions: 4, Records: 40, Present: 30}}
	svc := NewService(store, &mockTimetable{})

	sum, err := svc.ClassSummary(context.Background(), "SE19B3")
	if err != nil {
		t.Fatalf("ClassSummary failed: %v", err)
	}
	if sum.Rate == nil || *sum.Rate != 75.0 {
		t.Errorf("rate = %v, want 75.0", sum.Rate)
	}
}

func TestClassSummary_NoRecords(t *testing.T) {
	svc := NewService(&mockStore{}, &mockTimetable{})

	sum, err := svc.ClassSummary(context.Background(), "SE19B3")
	if err != nil {
		t.Fatalf("ClassSummary failed: %v", err)
	}
	if sum.Rate != nil {
		t.Errorf("rate = %v, want nil for empty class", *sum.Rate)
	}
}

func TestStudentOverview(t *testing.T) {
	store := &mockStore{studentTally: StudentTally{Classes: 3, Records: 20, Present: 15}}
	svc := NewService(store, &mockTimetable{})

	ov, err := svc.StudentOverview(context.Background(), "SV001")
	if err != nil {
		t.Fatalf("StudentOverview failed: %v", err)
	}
	if ov.Classes != 3 || ov.Records != 20 || ov.Present != 15 {
		t.Errorf("tally mismatch: %+v", ov)
	}
	if ov.Rate == nil || *ov.Rate != 75.0 {
		t.Errorf("rate = %v, want 75.0", ov.Rate)
	}

	if _, err := svc.StudentOverview(context.Background(), ""); err == nil {
		t.Error("empty student id accepted")
	}
}

func TestAdminOverview(t *testing.T) {
	store := &mockStore{adminTally: AdminTally{Accounts: 10, Classes: 4, Students: 8, Teachers: 2, SessionsToday: 3, Records: 50, Present: 45}}
	svc := NewService(store, &mockTimetable{})

	ov, err := svc.AdminOverview(context.Background())
	if err != nil {
		t.Fatalf("AdminOverview failed: %v", err)
	}
	if ov.Accounts != 10 || ov.Teachers != 2 || ov.SessionsToday != 3 {
		t.Errorf("tally mismatch: %+v", ov)
	}
	if ov.Rate == nil || *ov.Rate != 90.0 {
		t.Errorf("rate = %v, want 90.0", ov.Rate)
	}
}

func TestTeacherOverview(t *testing.T) {
	store := &mockStore{teacherTally: TeacherTally{Classes: 2, Students: 50, Records: 100, Present: 90, Announcements: 3}}
	svc := NewService(store, &mockTimetable{slots: 4})

	ov, err := svc.TeacherOverview(context.Background(), "GV001")
	if err != nil {
		t.Fatalf("TeacherOverview failed: %v", err)
	}
	if ov.SessionsToday != 4 {
		t.Errorf("sessionsToday = %d, want 4", ov.SessionsToday)
	}
	if ov.Rate == nil || *ov.Rate != 90.0 {
		t.Errorf("rate = %v, want 90.0", ov.Rate)
	}
	if ov.Classes != 2 || ov.Students != 50 || ov.Announcements != 3 {
		t.Errorf("tally mismatch: %+v", ov)
	}
}
