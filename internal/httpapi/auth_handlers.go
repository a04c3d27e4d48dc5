package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartattend/internal/auth"
)

type loginRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials, sets the access-token cookie and returns the
// token pair alongside the identity.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "userId and password required")
		return
	}
	identity, err := h.accounts.Login(c.Request.Context(), req.UserID, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	tokens, err := auth.Issue(identity.UserCode, identity.Role, identity.FullName,
		h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL, h.cfg.RefreshTTL)
	if err != nil {
		fail(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, tokens.AccessToken, int(h.cfg.AccessTTL.Seconds()), "/", "", h.cfg.CookieSecure, true)
	ok(c, gin.H{
		"userId":       identity.UserCode,
		"role":         identity.Role,
		"fullName":     identity.FullName,
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
		"expiresAt":    tokens.AccessExp.Unix(),
	})
}

// Logout clears the access-token cookie.
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.cfg.CookieSecure, true)
	ok(c, nil)
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// ChangePassword rotates the caller's password.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "oldPassword, newPassword and confirmPassword required")
		return
	}
	claims := auth.FromContext(c)
	if err := h.accounts.ChangePassword(c.Request.Context(), claims.Subject, req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"message": "password changed"})
}
