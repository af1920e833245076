package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/spt-web/internal/service"
	"github.com/noah-isme/spt-web/internal/session"
	"github.com/noah-isme/spt-web/pkg/response"
)

// ContextSessionKey is the gin context key storing the session ID.
const ContextSessionKey = "sessionID"

// SessionGate protects the main application routes. A request without
// a valid cookie-backed session is redirected to the auth view
// regardless of any other state.
func SessionGate(sessions *session.Manager, auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, ok := sessions.SessionID(c)
		if !ok || !auth.Active(c.Request.Context(), sid) {
			response.Redirect(c, "/login")
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, sid)
		c.Request = c.Request.WithContext(session.WithSessionID(c.Request.Context(), sid))
		c.Next()
	}
}

// SessionID returns the session ID placed by the gate.
func SessionID(c *gin.Context) string {
	if v, exists := c.Get(ContextSessionKey); exists {
		if sid, ok := v.(string); ok {
			return sid
		}
	}
	return ""
}
