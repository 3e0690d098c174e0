package handlers

import (
	"errors"
	"net/http"

	"autotrack/internal/middleware"
	"autotrack/internal/registry"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) ListVehicles(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	vehicles, err := h.Store.List(user.Role)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

func (h *Handlers) CreateVehicle(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var payload registry.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	v, err := h.Store.Create(c.Request.Context(), user.Role, payload)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handlers) UpdateVehicle(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	id := c.Param("id")

	var payload registry.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	v, err := h.Store.Update(c.Request.Context(), user.Role, id, payload)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handlers) DeleteVehicle(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	id := c.Param("id")

	// deletion needs the explicit confirmation step the UI shows
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deletion requires confirm=true"})
		return
	}

	if err := h.Store.Delete(c.Request.Context(), user.Role, id); err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func writeStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registry.ErrDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, registry.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
