package session

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey struct{}

// WithSessionID attaches the session ID to a request context so the
// upstream token source can resolve the caller's token.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, contextKey{}, sessionID)
}

// IDFromContext extracts the session ID placed by the session gate.
func IDFromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(contextKey{}).(string)
	return sid, ok && sid != ""
}

// Manager issues and verifies the signed session cookie. The cookie
// carries only an opaque session ID; the bearer token never reaches
// the browser.
type Manager struct {
	cookieName string
	secret     []byte
	ttl        time.Duration
	secure     bool
}

// NewManager builds a cookie manager.
func NewManager(cookieName, secret string, ttl time.Duration, secure bool) *Manager {
	if cookieName == "" {
		cookieName = "spt_session"
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{cookieName: cookieName, secret: []byte(secret), ttl: ttl, secure: secure}
}

// Issue creates a fresh session ID and sets the signed cookie.
func (m *Manager) Issue(c *gin.Context) (string, error) {
	sid := uuid.NewString()

	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   sid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}

	c.SetCookie(m.cookieName, signed, int(m.ttl.Seconds()), "/", "", m.secure, true)
	return sid, nil
}

// SessionID verifies the cookie and returns the embedded session ID.
func (m *Manager) SessionID(c *gin.Context) (string, bool) {
	raw, err := c.Cookie(m.cookieName)
	if err != nil || raw == "" {
		return "", false
	}

	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return "", false
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

// Clear expires the session cookie.
func (m *Manager) Clear(c *gin.Context) {
	c.SetCookie(m.cookieName, "", -1, "/", "", m.secure, true)
}
