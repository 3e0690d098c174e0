package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SearchVehicle looks a record up by plate. Not-found is a result, not a
// failure, but maps to 404 on the wire.
func (h *Handlers) SearchVehicle(c *gin.Context) {
	plate := c.Query("plate")
	if plate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plate query parameter is required"})
		return
	}

	v, ok := h.Store.FindByPlate(plate)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		return
	}
	c.JSON(http.StatusOK, v)
}

// VerifyVehicle is the restricted single-record flow: the query matches a
// plate or a VIN and at most one record is disclosed. This is the only read
// a viewer gets in rbac mode.
func (h *Handlers) VerifyVehicle(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})
		return
	}

	v, ok := h.Store.Verify(q)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		return
	}
	c.JSON(http.StatusOK, v)
}
