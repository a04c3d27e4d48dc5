package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"smartattend/internal/auth"
)

type attendRequest struct {
	Code string `json:"code" binding:"required"`
}

// Attend lets a student submit an attendance code. The code resolves to an
// active session; membership and expiry are checked before the mark lands.
func (h *Handler) Attend(c *gin.Context) {
	var req attendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code required")
		return
	}
	claims := auth.FromContext(c)
	rec, sess, err := h.records.AttendByCode(c.Request.Context(), claims.Subject, req.Code)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{
		"sessionId": ID(sess.ID),
		"classId":   sess.ClassID,
		"slotId":    sess.SlotID,
		"type":      sess.Type,
		"status":    rec.Status,
		"markedAt":  rec.RecordedAt.UTC().Format(time.RFC3339),
	})
}
