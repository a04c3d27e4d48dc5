package httpapi

import (
	"github.com/gin-gonic/gin"

	"smartattend/internal/announce"
	"smartattend/internal/auth"
)

type createAnnouncementRequest struct {
	Audience string  `json:"audience" binding:"required"`
	ClassID  *string `json:"classId"`
	Title    string  `json:"title" binding:"required"`
	Body     string  `json:"body" binding:"required"`
}

// CreateAnnouncement publishes a notice from the caller.
func (h *Handler) CreateAnnouncement(c *gin.Context) {
	var req createAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "audience, title and body required")
		return
	}
	claims := auth.FromContext(c)
	a, err := h.announcements.Publish(c.Request.Context(), announce.Announcement{
		SenderID: claims.Subject,
		Audience: req.Audience,
		ClassID:  req.ClassID,
		Title:    req.Title,
		Body:     req.Body,
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, a)
}

// ListAnnouncements returns notices visible to the caller.
func (h *Handler) ListAnnouncements(c *gin.Context) {
	claims := auth.FromContext(c)
	items, err := h.announcements.ListFor(c.Request.Context(), claims.Subject, claims.Role, 50)
	if err != nil {
		fail(c, err)
		return
	}
	if items == nil {
		items = []announce.Announcement{}
	}
	ok(c, items)
}
