package timetable

import (
	"context"
	"time"

	"smartattend/internal/apperr"
)

// Store is the persistence surface the service needs.
type Store interface {
	SlotsForClassDay(ctx context.Context, classID, dayKey string) ([]Entry, error)
	Upsert(ctx context.Context, e Entry) error
	CountTeacherSlotsForDay(ctx context.Context, teacherID, dayKey string) (int, error)
}

// Service answers timetable questions.
type Service struct {
	store Store
}

// NewService creates a timetable service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// SlotsForDate lists a class's slots on the weekday of date.
func (s *Service) SlotsForDate(ctx context.Context, classID string, date time.Time) ([]Entry, error) {
	return s.store.SlotsForClassDay(ctx, classID, DayKey(date))
}

// Save validates and upserts a timetable entry.
func (s *Service) Save(ctx context.Context, e Entry) error {
	if e.ClassID == "" || e.WeekKey == "" {
		return apperr.Validation("class id and week key required")
	}
	if e.SlotID <= 0 {
		return apperr.Validation("slot must be positive")
	}
	valid := false
	for _, d := range dayKeys {
		if e.DayOfWeek == d {
			valid = true
			break
		}
	}
	if !valid {
		return apperr.Validation("invalid day of week")
	}
	return s.store.Upsert(ctx, e)
}

// SaveAll upserts a batch of entries, typically from an import.
func (s *Service) SaveAll(ctx context.Context, entries []Entry) (int, error) {
	for i, e := range entries {
		if err := s.Save(ctx, e); err != nil {
			return i, err
		}
	}
	return len(entries), nil
}
