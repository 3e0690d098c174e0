package server

import (
	"net/http"

	"autotrack/internal/config"
	"autotrack/internal/handlers"
	"autotrack/internal/middleware"
	"autotrack/internal/models"
	"autotrack/internal/policy"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func NewRouter(cfg *config.Config, h *handlers.Handlers) *gin.Engine {
	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("autotrack_session", store))

	r.Use(middleware.InjectUser())

	// AUTH
	r.POST("/api/login", h.Login)
	r.POST("/api/logout", h.Logout)

	auth := r.Group("/api")
	auth.Use(middleware.RequireAuth())

	// in open mode every authenticated user may read the full table;
	// writes are always re-checked inside the store so the voice path
	// shares the same policy
	adminOnly := func(c *gin.Context) { c.Next() }
	if h.Store.Policy().Mode() == policy.ModeRBAC {
		adminOnly = middleware.RequireRole(models.RoleAdmin)
	}

	// VEHICLES
	auth.GET("/vehicles", adminOnly, h.ListVehicles)
	auth.POST("/vehicles", h.CreateVehicle)
	auth.PUT("/vehicles/:id", h.UpdateVehicle)
	auth.DELETE("/vehicles/:id", h.DeleteVehicle)

	// LOOKUP
	auth.GET("/search", h.SearchVehicle)
	auth.GET("/verify", h.VerifyVehicle)

	// EXPORT
	auth.GET("/export", adminOnly, h.ExportVehicles)

	// VOICE ASSISTANT
	auth.GET("/voice/stream", h.VoiceStream)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
