package httpapi

import (
	"time"

	"smartattend/internal/account"
	"smartattend/internal/announce"
	"smartattend/internal/config"
	"smartattend/internal/record"
	"smartattend/internal/report"
	"smartattend/internal/roster"
	"smartattend/internal/session"
	"smartattend/internal/timetable"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	cfg           config.App
	accounts      *account.Service
	roster        *roster.Service
	timetable     *timetable.Service
	sessions      *session.Service
	records       *record.Service
	reports       *report.Service
	announcements *announce.Service
}

// New creates the handler set.
func New(cfg config.App, accounts *account.Service, rosterSvc *roster.Service, timetableSvc *timetable.Service,
	sessions *session.Service, records *record.Service, reports *report.Service, announcements *announce.Service) *Handler {
	return &Handler{
		cfg:           cfg,
		accounts:      accounts,
		roster:        rosterSvc,
		timetable:     timetableSvc,
		sessions:      sessions,
		records:       records,
		reports:       reports,
		announcements: announcements,
	}
}

const dateLayout = "2006-01-02"

// sessionView is the wire shape of an attendance session.
type sessionView struct {
	ID                ID     `json:"id"`
	ClassID           string `json:"classId"`
	SlotID            int    `json:"slotId"`
	Day               string `json:"day"`
	Code              string `json:"code"`
	Type              string `json:"type"`
	Status            string `json:"status"`
	Attempts          int    `json:"attempts"`
	AttemptsRemaining int    `json:"attemptsRemaining"`
	ExpiresAt         string `json:"expiresAt"`
	CreatedAt         string `json:"createdAt"`
	UpdatedAt         string `json:"updatedAt"`
}

func (h *Handler) viewSession(s session.Session) sessionView {
	remaining := h.cfg.MaxCodeResets - s.Attempts
	if remaining < 0 {
		remaining = 0
	}
	return sessionView{
		ID:                ID(s.ID),
		ClassID:           s.ClassID,
		SlotID:            s.SlotID,
		Day:               s.Day.Format(dateLayout),
		Code:              s.Code,
		Type:              s.Type,
		Status:            s.Status,
		Attempts:          s.Attempts,
		AttemptsRemaining: remaining,
		ExpiresAt:         s.ExpiresAt.UTC().Format(time.RFC3339),
		CreatedAt:         s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
