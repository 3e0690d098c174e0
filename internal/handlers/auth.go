package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginForm struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handlers) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, ok, err := h.Sessions.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		h.Log.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	sess := sessions.Default(c)
	sess.Set("username", user.Username)
	sess.Set("role", string(user.Role))
	_ = sess.Save()

	c.JSON(http.StatusOK, gin.H{"username": user.Username, "role": user.Role})
}

func (h *Handlers) Logout(c *gin.Context) {
	if err := h.Sessions.Logout(c.Request.Context()); err != nil {
		h.Log.Warn("session mirror clear failed", zap.Error(err))
	}

	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()

	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}
