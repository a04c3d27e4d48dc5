package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smartattend/internal/auth"
	"smartattend/internal/httpmiddleware"
	"smartattend/internal/store"
)

// Router assembles the gin engine: middleware, health, metrics and the /api
// surface with per-role groups.
func (h *Handler) Router(db *store.DB, rds *store.Redis) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(h.cfg.RateLimitPerMin, h.cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := rds.Healthy(c.Request.Context())
		dbHealthy := db.Healthy(c.Request.Context())
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	api := r.Group("/api")

	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)

	authed := api.Group("", auth.RequireAuth(h.cfg.JWTSigningKey, h.cfg.JWTIssuer))
	authed.POST("/auth/change-password", h.ChangePassword)
	authed.GET("/announcements", h.ListAnnouncements)
	authed.POST("/announcements", auth.RequireRole("teacher", "admin"), h.CreateAnnouncement)

	teacher := authed.Group("/attendances", auth.RequireRole("teacher", "admin"))
	teacher.GET("/classes", h.TeacherClasses)
	teacher.GET("/classes/:id/slots", h.ClassSlots)
	teacher.GET("/classes/:id/sessions", h.ClassSessions)
	teacher.GET("/classes/:id/history", h.ClassHistory)
	teacher.POST("/sessions", h.OpenSession)
	teacher.POST("/sessions/:id/close", h.CloseSession)
	teacher.POST("/sessions/:id/reset-code", h.ResetSessionCode)
	teacher.GET("/sessions/:id", h.SessionDetail)
	teacher.GET("/sessions/:id/students", h.SessionStudents)
	teacher.PUT("/sessions/:id/students", h.SaveManualAttendance)

	student := authed.Group("", auth.RequireRole("student"))
	student.POST("/student-attendance/attend", h.Attend)
	student.GET("/lichsu_sv/history", h.StudentHistory)
	student.GET("/student/schedule", h.StudentSchedule)

	overview := authed.Group("/overview")
	overview.GET("/student", auth.RequireRole("student"), h.StudentOverview)
	overview.GET("/teacher", auth.RequireRole("teacher", "admin"), h.TeacherOverview)
	overview.GET("/class/:id", auth.RequireRole("teacher", "admin"), h.ClassSummary)
	overview.GET("/admin", auth.RequireRole("admin"), h.AdminOverview)

	admin := authed.Group("/admin", auth.RequireRole("admin"))
	admin.POST("/accounts", h.CreateAccount)
	admin.GET("/accounts", h.ListAccounts)
	admin.PUT("/accounts/:code", h.UpdateAccount)
	admin.POST("/classes", h.CreateClass)
	admin.GET("/classes", h.ListClasses)
	admin.POST("/classes/:id/students", h.EnrollStudent)
	admin.POST("/timetable/import", h.ImportTimetable)

	return r
}

// corsMiddleware allows browser requests from the dashboard origins.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// securityHeaders sets conservative browser policies.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
