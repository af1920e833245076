package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/spt-web/internal/models"
	"github.com/noah-isme/spt-web/internal/service"
	"github.com/noah-isme/spt-web/internal/session"
	appErrors "github.com/noah-isme/spt-web/pkg/errors"
	"github.com/noah-isme/spt-web/pkg/response"
)

// AuthHandler serves the authentication screen and session actions.
type AuthHandler struct {
	auth     *service.AuthService
	sessions *session.Manager
	logger   *zap.Logger
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(auth *service.AuthService, sessions *session.Manager, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: auth, sessions: sessions, logger: logger}
}

// ShowLogin renders the auth screen. mode=register switches the tab.
// An already-active session skips straight to the overview.
func (h *AuthHandler) ShowLogin(c *gin.Context) {
	if sid, ok := h.sessions.SessionID(c); ok && h.auth.Active(c.Request.Context(), sid) {
		response.Redirect(c, "/")
		return
	}

	mode := c.Query("mode")
	if mode != "register" {
		mode = "login"
	}
	response.HTML(c, http.StatusOK, "login.tmpl", gin.H{"Mode": mode})
}

// Login processes the login form. Success lands on the overview, which
// triggers the initial roster load; failure re-renders the auth view
// with a notice and leaves any existing session untouched.
func (h *AuthHandler) Login(c *gin.Context) {
	creds := models.Credentials{
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
	}

	sid, ok := h.sessions.SessionID(c)
	if !ok {
		var err error
		sid, err = h.sessions.Issue(c)
		if err != nil {
			h.logger.Error("failed to issue session", zap.Error(err))
			response.SetFlash(c, response.FlashError, "Something went wrong. Please try again.")
			response.Redirect(c, "/login")
			return
		}
	}

	if err := h.auth.Login(c.Request.Context(), sid, creds); err != nil {
		response.SetFlash(c, response.FlashError, appErrors.FromError(err).Message)
		response.Redirect(c, "/login")
		return
	}

	response.Redirect(c, "/")
}

// Register processes the registration form. Success switches the auth
// view to login mode without authenticating.
func (h *AuthHandler) Register(c *gin.Context) {
	reg := models.Registration{
		Name:     c.PostForm("name"),
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
	}

	if err := h.auth.Register(c.Request.Context(), reg); err != nil {
		appErr := appErrors.FromError(err)
		message := appErr.Message
		if appErr.Code != appErrors.ErrValidation.Code {
			message = "Registration failed. Please try again."
		}
		response.SetFlash(c, response.FlashError, message)
		response.Redirect(c, "/login?mode=register")
		return
	}

	response.SetFlash(c, response.FlashSuccess, "Registration successful. Please log in.")
	response.Redirect(c, "/login")
}

// Logout clears the stored token and the roster snapshot, expires the
// cookie, and returns to the auth view.
func (h *AuthHandler) Logout(c *gin.Context) {
	if sid, ok := h.sessions.SessionID(c); ok {
		if err := h.auth.Logout(c.Request.Context(), sid); err != nil {
			h.logger.Warn("logout failed", zap.Error(err))
		}
	}
	h.sessions.Clear(c)
	response.Redirect(c, "/login")
}
