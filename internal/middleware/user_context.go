package middleware

import (
	"autotrack/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// InjectUser copies the cookie-session identity into the request context so
// handlers can read it without touching the session store again.
func InjectUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		username, _ := sess.Get("username").(string)
		roleStr, _ := sess.Get("role").(string)
		if username != "" {
			c.Set("CurrentUser", models.Session{
				Username: username,
				Role:     models.UserRole(roleStr),
			})
		}

		c.Next()
	}
}

// CurrentUser extracts the identity placed by InjectUser. ok is false for
// anonymous requests.
func CurrentUser(c *gin.Context) (models.Session, bool) {
	val, ok := c.Get("CurrentUser")
	if !ok {
		return models.Session{}, false
	}
	sess, ok := val.(models.Session)
	return sess, ok
}
