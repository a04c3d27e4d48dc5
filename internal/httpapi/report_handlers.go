package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"smartattend/internal/announce"
	"smartattend/internal/auth"
	"smartattend/internal/report"
	"smartattend/internal/timetable"
)

type historyQuery struct {
	Date     string `form:"date"`
	From     string `form:"from"`
	To       string `form:"to"`
	Status   string `form:"status"`
	ClassID  string `form:"classId"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// StudentHistory returns the caller's paginated attendance history.
func (h *Handler) StudentHistory(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}
	filters := report.HistoryFilters{
		Status:   q.Status,
		ClassID:  q.ClassID,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	for _, d := range []struct {
		raw  string
		dest **time.Time
	}{{q.Date, &filters.Date}, {q.From, &filters.From}, {q.To, &filters.To}} {
		if d.raw == "" {
			continue
		}
		t, okDate := parseDate(d.raw)
		if !okDate {
			badRequest(c, "dates must be YYYY-MM-DD")
			return
		}
		*d.dest = &t
	}
	claims := auth.FromContext(c)
	page, err := h.reports.StudentHistory(c.Request.Context(), claims.Subject, filters)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, page)
}

// StudentOverview returns the caller's dashboard: attendance totals, today's
// schedule across enrolled classes and the latest announcements.
func (h *Handler) StudentOverview(c *gin.Context) {
	claims := auth.FromContext(c)
	ctx := c.Request.Context()
	summary, err := h.reports.StudentOverview(ctx, claims.Subject)
	if err != nil {
		fail(c, err)
		return
	}
	schedule, err := h.scheduleFor(c, claims.Subject, time.Now())
	if err != nil {
		fail(c, err)
		return
	}
	notices, err := h.announcements.ListFor(ctx, claims.Subject, claims.Role, 5)
	if err != nil {
		fail(c, err)
		return
	}
	if notices == nil {
		notices = []announce.Announcement{}
	}
	ok(c, gin.H{
		"summary":       summary,
		"scheduleToday": schedule,
		"announcements": notices,
	})
}

// StudentSchedule lists the caller's timetable slots for a date.
func (h *Handler) StudentSchedule(c *gin.Context) {
	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, okDate := parseDate(raw)
		if !okDate {
			badRequest(c, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}
	claims := auth.FromContext(c)
	schedule, err := h.scheduleFor(c, claims.Subject, date)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"date": date.Format(dateLayout), "slots": schedule})
}

// scheduleFor collects the timetable entries of every class the student
// belongs to on the weekday of date.
func (h *Handler) scheduleFor(c *gin.Context, studentID string, date time.Time) ([]timetable.Entry, error) {
	ctx := c.Request.Context()
	classIDs, err := h.roster.ClassIDsForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	schedule := []timetable.Entry{}
	for _, classID := range classIDs {
		slots, err := h.timetable.SlotsForDate(ctx, classID, date)
		if err != nil {
			return nil, err
		}
		schedule = append(schedule, slots...)
	}
	return schedule, nil
}

// AdminOverview returns the institution-wide dashboard numbers.
func (h *Handler) AdminOverview(c *gin.Context) {
	overview, err := h.reports.AdminOverview(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, overview)
}

// TeacherOverview returns the caller's dashboard numbers.
func (h *Handler) TeacherOverview(c *gin.Context) {
	claims := auth.FromContext(c)
	overview, err := h.reports.TeacherOverview(c.Request.Context(), claims.Subject)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, overview)
}

// ClassSummary returns attendance totals for one class.
func (h *Handler) ClassSummary(c *gin.Context) {
	classID := c.Param("id")
	claims := auth.FromContext(c)
	if _, err := h.roster.EnsureOwnership(c.Request.Context(), classID, claims.Subject, claims.Role); err != nil {
		fail(c, err)
		return
	}
	summary, err := h.reports.ClassSummary(c.Request.Context(), classID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, summary)
}
