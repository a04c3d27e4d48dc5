package httpapi

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"smartattend/internal/auth"
	"smartattend/internal/record"
	"smartattend/internal/session"
	"smartattend/internal/timetable"
)

type openSessionRequest struct {
	ClassID string `json:"classId" binding:"required"`
	SlotID  int    `json:"slotId" binding:"required"`
	Type    string `json:"type" binding:"required"`
	Date    string `json:"date"`
}

// OpenSession opens an attendance session for a class/slot/date.
func (h *Handler) OpenSession(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "classId, slotId and type required")
		return
	}
	var day time.Time
	if req.Date != "" {
		parsed, okDate := parseDate(req.Date)
		if !okDate {
			badRequest(c, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}
	claims := auth.FromContext(c)
	sess, err := h.sessions.Open(c.Request.Context(), session.OpenRequest{
		ClassID:     req.ClassID,
		SlotID:      req.SlotID,
		Day:         day,
		Type:        req.Type,
		RequesterID: claims.Subject,
		Role:        claims.Role,
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, h.viewSession(sess))
}

// CloseSession transitions a session to closed.
func (h *Handler) CloseSession(c *gin.Context) {
	id, err := sessionID(c)
	if err != nil {
		badRequest(c, "invalid session id")
		return
	}
	claims := auth.FromContext(c)
	if err := h.sessions.Close(c.Request.Context(), id, claims.Subject, claims.Role); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"status": session.StatusClosed})
}

// ResetSessionCode issues a fresh code for an active session.
func (h *Handler) ResetSessionCode(c *gin.Context) {
	id, err := sessionID(c)
	if err != nil {
		badRequest(c, "invalid session id")
		return
	}
	claims := auth.FromContext(c)
	sess, err := h.sessions.ResetCode(c.Request.Context(), id, claims.Subject, claims.Role)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, h.viewSession(sess))
}

// SessionDetail returns a session with class info and roster size.
func (h *Handler) SessionDetail(c *gin.Context) {
	id, err := sessionID(c)
	if err != nil {
		badRequest(c, "invalid session id")
		return
	}
	claims := auth.FromContext(c)
	sess, cls, err := h.sessions.Detail(c.Request.Context(), id, claims.Subject, claims.Role)
	if err != nil {
		fail(c, err)
		return
	}
	view := gin.H{
		"session":       h.viewSession(sess),
		"className":     cls.ClassName,
		"subjectName":   cls.SubjectName,
		"totalStudents": cls.StudentCount,
	}
	ok(c, view)
}

// SessionStudents returns the roster with each student's mark, plus a summary.
func (h *Handler) SessionStudents(c *gin.Context) {
	id, err := sessionID(c)
	if err != nil {
		badRequest(c, "invalid session id")
		return
	}
	claims := auth.FromContext(c)
	sess, _, err := h.sessions.Detail(c.Request.Context(), id, claims.Subject, claims.Role)
	if err != nil {
		fail(c, err)
		return
	}
	students, err := h.roster.Students(c.Request.Context(), sess.ClassID)
	if err != nil {
		fail(c, err)
		return
	}
	records, err := h.records.ForSession(c.Request.Context(), sess.ID)
	if err != nil {
		fail(c, err)
		return
	}
	byStudent := make(map[string]record.Record, len(records))
	for _, rec := range records {
		byStudent[rec.StudentID] = rec
	}

	type row struct {
		StudentID string  `json:"studentId"`
		FullName  string  `json:"fullName"`
		Email     *string `json:"email,omitempty"`
		Status    string  `json:"status"`
		MarkedAt  *string `json:"markedAt"`
		Note      *string `json:"note"`
	}
	rows := make([]row, 0, len(students))
	present, excused := 0, 0
	for _, st := range students {
		r := row{StudentID: st.StudentID, FullName: st.FullName, Email: st.Email, Status: record.StatusAbsent}
		if rec, found := byStudent[st.StudentID]; found {
			r.Status = rec.Status
			ts := rec.RecordedAt.UTC().Format(time.RFC3339)
			r.MarkedAt = &ts
			r.Note = rec.Note
		}
		switch r.Status {
		case record.StatusPresent:
			present++
		case record.StatusExcused:
			excused++
		}
		rows = append(rows, r)
	}
	ok(c, gin.H{
		"students": rows,
		"summary": gin.H{
			"total":   len(rows),
			"present": present,
			"excused": excused,
			"absent":  len(rows) - present - excused,
		},
	})
}

type manualSaveRequest struct {
	Students []record.ManualEntry `json:"students" binding:"required"`
}

// SaveManualAttendance bulk-writes a manual roll call.
func (h *Handler) SaveManualAttendance(c *gin.Context) {
	id, err := sessionID(c)
	if err != nil {
		badRequest(c, "invalid session id")
		return
	}
	var req manualSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "students list required")
		return
	}
	claims := auth.FromContext(c)
	saved, err := h.records.SaveManual(c.Request.Context(), id, req.Students, claims.Subject, claims.Role)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"saved": len(saved)})
}

// TeacherClasses lists the caller's classes.
func (h *Handler) TeacherClasses(c *gin.Context) {
	claims := auth.FromContext(c)
	classes, err := h.roster.ClassesForTeacher(c.Request.Context(), claims.Subject)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, classes)
}

// ClassSlots lists the timetable slots available for a class on a date.
func (h *Handler) ClassSlots(c *gin.Context) {
	classID := c.Param("id")
	claims := auth.FromContext(c)
	if _, err := h.roster.EnsureOwnership(c.Request.Context(), classID, claims.Subject, claims.Role); err != nil {
		fail(c, err)
		return
	}
	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, okDate := parseDate(raw)
		if !okDate {
			badRequest(c, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}
	slots, err := h.timetable.SlotsForDate(c.Request.Context(), classID, date)
	if err != nil {
		fail(c, err)
		return
	}
	if slots == nil {
		slots = []timetable.Entry{}
	}
	ok(c, slots)
}

// ClassSessions lists sessions for a class, optionally for one date.
func (h *Handler) ClassSessions(c *gin.Context) {
	classID := c.Param("id")
	claims := auth.FromContext(c)
	var day *time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, okDate := parseDate(raw)
		if !okDate {
			badRequest(c, "date must be YYYY-MM-DD")
			return
		}
		day = &parsed
	}
	sessions, err := h.sessions.ListForClass(c.Request.Context(), classID, day, claims.Subject, claims.Role)
	if err != nil {
		fail(c, err)
		return
	}
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, h.viewSession(s))
	}
	ok(c, views)
}

// ClassHistory rolls up recent sessions with present counts.
func (h *Handler) ClassHistory(c *gin.Context) {
	classID := c.Param("id")
	claims := auth.FromContext(c)
	if _, err := h.roster.EnsureOwnership(c.Request.Context(), classID, claims.Subject, claims.Role); err != nil {
		fail(c, err)
		return
	}
	var slot *int
	if v := c.Query("slot"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			badRequest(c, "invalid slot")
			return
		}
		slot = &parsed
	}
	tallies, err := h.reports.ClassHistory(c.Request.Context(), classID, slot, 50)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, tallies)
}

func sessionID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
