package handlers

import (
	"fmt"
	"net/http"
	"time"

	"autotrack/internal/middleware"

	"github.com/gin-gonic/gin"
)

// ExportVehicles serves the full collection as a dated JSON download.
func (h *Handlers) ExportVehicles(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	raw, err := h.Store.Export(user.Role)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	filename := fmt.Sprintf("autotrack_backup_%s.json", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json", raw)
}
