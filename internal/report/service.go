package report

import (
	"context"
	"math"
	"time"

	"smartattend/internal/apperr"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Store is the persistence surface the service needs.
type Store interface {
	StudentHistory(ctx context.Context, studentID string, f HistoryFilters) ([]HistoryItem, int, error)
	ClassAggregate(ctx context.Context, classID string) (ClassAggregate, error)
	ClassHistory(ctx context.Context, classID string, slotID *int, limit int) ([]SessionTally, error)
	TeacherTally(ctx context.Context, teacherID string, since time.Time) (TeacherTally, error)
	StudentTally(ctx context.Context, studentID string) (StudentTally, error)
	AdminTally(ctx context.Context, day time.Time) (AdminTally, error)
}

// Timetable answers how many slots a teacher has on a weekday.
type Timetable interface {
	CountTeacherSlotsForDay(ctx context.Context, teacherID, dayKey string) (int, error)
}

// HistoryPage is one page of a student's history.
type HistoryPage struct {
	Items    []HistoryItem `json:"items"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	Total    int           `json:"total"`
}

// ClassSummary is the per-class roll-up.
type ClassSummary struct {
	ClassID  string   `json:"classId"`
	Sessions int      `json:"sessions"`
	Records  int      `json:"records"`
	Present  int      `json:"present"`
	Rate     *float64 `json:"rate"`
}

// TeacherOverview is the per-teacher dashboard roll-up.
type TeacherOverview struct {
	Classes       int      `json:"classes"`
	SessionsToday int      `json:"sessionsToday"`
	Students      int      `json:"students"`
	Announcements int      `json:"notifications"`
	Rate          *float64 `json:"rate"`
}

// StudentOverview is the per-student dashboard roll-up.
type StudentOverview struct {
	Classes int      `json:"classes"`
	Records int      `json:"records"`
	Present int      `json:"present"`
	Rate    *float64 `json:"rate"`
}

// AdminOverview is the institution-wide dashboard roll-up.
type AdminOverview struct {
	Accounts      int      `json:"accounts"`
	Classes       int      `json:"classes"`
	Students      int      `json:"students"`
	Teachers      int      `json:"teachers"`
	SessionsToday int      `json:"sessionsToday"`
	Records       int      `json:"records"`
	Rate          *float64 `json:"rate"`
}

// Service computes history pages and attendance-rate summaries.
type Service struct {
	store     Store
	timetable Timetable
	now       func() time.Time
}

// NewService creates a reporting service.
func NewService(store Store, timetable Timetable) *Service {
	return &Service{store: store, timetable: timetable, now: time.Now}
}

// StudentHistory returns a filtered, paginated history for a student.
// Page defaults to 1; page size is clamped to 1..100 with a default of 20.
func (s *Service) StudentHistory(ctx context.Context, studentID string, f HistoryFilters) (HistoryPage, error) {
	if studentID == "" {
		return HistoryPage{}, apperr.Validation("student id required")
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > maxPageSize {
		f.PageSize = defaultPageSize
	}
	if f.Status != "" && f.Status != "present" && f.Status != "absent" && f.Status != "excused" {
		return HistoryPage{}, apperr.Validation("invalid status filter")
	}
	items, total, err := s.store.StudentHistory(ctx, studentID, f)
	if err != nil {
		return HistoryPage{}, err
	}
	if items == nil {
		items = []HistoryItem{}
	}
	return HistoryPage{Items: items, Page: f.Page, PageSize: f.PageSize, Total: total}, nil
}

// ClassSummary rolls up one class. Rate is nil when no records exist.
func (s *Service) ClassSummary(ctx context.Context, classID string) (ClassSummary, error) {
	agg, err := s.store.ClassAggregate(ctx, classID)
	if err != nil {
		return ClassSummary{}, err
	}
	return ClassSummary{
		ClassID:  classID,
		Sessions: agg.Sessions,
		Records:  agg.Records,
		Present:  agg.Present,
		Rate:     Rate(agg.Present, agg.Records),
	}, nil
}

// ClassHistory returns recent session tallies for a class.
func (s *Service) ClassHistory(ctx context.Context, classID string, slotID *int, limit int) ([]SessionTally, error) {
	return s.store.ClassHistory(ctx, classID, slotID, limit)
}

// TeacherOverview computes the teacher dashboard numbers. Sessions-today is
// derived from the timetable weekday when no explicit session date matches.
func (s *Service) TeacherOverview(ctx context.Context, teacherID string) (TeacherOverview, error) {
	now := s.now()
	tally, err := s.store.TeacherTally(ctx, teacherID, now.AddDate(0, 0, -7))
	if err != nil {
		return TeacherOverview{}, err
	}
	today, err := s.timetable.CountTeacherSlotsForDay(ctx, teacherID, dayKey(now))
	if err != nil {
		return TeacherOverview{}, err
	}
	return TeacherOverview{
		Classes:       tally.Classes,
		SessionsToday: today,
		Students:      tally.Students,
		Announcements: tally.Announcements,
		Rate:          Rate(tally.Present, tally.Records),
	}, nil
}

// StudentOverview computes the student dashboard numbers.
func (s *Service) StudentOverview(ctx context.Context, studentID string) (StudentOverview, error) {
	if studentID == "" {
		return StudentOverview{}, apperr.Validation("student id required")
	}
	tally, err := s.store.StudentTally(ctx, studentID)
	if err != nil {
		return StudentOverview{}, err
	}
	return StudentOverview{
		Classes: tally.Classes,
		Records: tally.Records,
		Present: tally.Present,
		Rate:    Rate(tally.Present, tally.Records),
	}, nil
}

// AdminOverview computes the institution-wide dashboard numbers.
func (s *Service) AdminOverview(ctx context.Context) (AdminOverview, error) {
	day := s.now().UTC().Truncate(24 * time.Hour)
	tally, err := s.store.AdminTally(ctx, day)
	if err != nil {
		return AdminOverview{}, err
	}
	return AdminOverview{
		Accounts:      tally.Accounts,
		Classes:       tally.Classes,
		Students:      tally.Students,
		Teachers:      tally.Teachers,
		SessionsToday: tally.SessionsToday,
		Records:       tally.Records,
		Rate:          Rate(tally.Present, tally.Records),
	}, nil
}

// Rate returns present/total as a percentage rounded to one decimal,
// or nil when there are no records.
func Rate(present, total int) *float64 {
	if total == 0 {
		return nil
	}
	rate := math.Round(float64(present)/float64(total)*1000) / 10
	return &rate
}

var dayKeys = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func dayKey(t time.Time) string { return dayKeys[int(t.Weekday())] }
