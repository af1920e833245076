package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/spt-web/internal/middleware"
	"github.com/noah-isme/spt-web/internal/models"
	"github.com/noah-isme/spt-web/internal/service"
	appErrors "github.com/noah-isme/spt-web/pkg/errors"
	"github.com/noah-isme/spt-web/pkg/response"
)

// RosterHandler serves the three routed views: performance overview,
// add-student form, and student detail.
type RosterHandler struct {
	roster *service.RosterService
	logger *zap.Logger
}

// NewRosterHandler creates a new handler.
func NewRosterHandler(roster *service.RosterService, logger *zap.Logger) *RosterHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterHandler{roster: roster, logger: logger}
}

// Overview loads the roster and renders the card list.
func (h *RosterHandler) Overview(c *gin.Context) {
	sid := middleware.SessionID(c)
	cards, snap := h.roster.Overview(c.Request.Context(), sid)

	response.HTML(c, http.StatusOK, "overview.tmpl", gin.H{
		"Cards": cards,
		"State": string(snap.State),
	})
}

// NewStudentForm renders the add-student form.
func (h *RosterHandler) NewStudentForm(c *gin.Context) {
	response.HTML(c, http.StatusOK, "student_new.tmpl", gin.H{})
}

// CreateStudent handles the add-student form post. Blank required
// fields surface a blocking notice without any upstream call.
func (h *RosterHandler) CreateStudent(c *gin.Context) {
	sid := middleware.SessionID(c)
	req := models.NewStudent{
		Name:      c.PostForm("name"),
		RollNo:    c.PostForm("rollNo"),
		ClassName: c.PostForm("className"),
	}

	created, err := h.roster.AddStudent(c.Request.Context(), sid, req)
	if err != nil {
		response.SetFlash(c, response.FlashError, appErrors.FromError(err).Message)
		response.Redirect(c, "/students/new")
		return
	}

	if created {
		response.SetFlash(c, response.FlashSuccess, "Student added.")
	}
	response.Redirect(c, "/")
}

// DeleteStudent removes a student and returns to the refreshed list.
func (h *RosterHandler) DeleteStudent(c *gin.Context) {
	sid := middleware.SessionID(c)
	h.roster.DeleteStudent(c.Request.Context(), sid, c.Param("id"))
	response.Redirect(c, "/")
}

// Detail renders one student's full score history with the inline
// add-score form, or the not-found state.
func (h *RosterHandler) Detail(c *gin.Context) {
	sid := middleware.SessionID(c)
	view, ok := h.roster.Detail(c.Request.Context(), sid, c.Param("id"))
	if !ok {
		response.HTML(c, http.StatusNotFound, "not_found.tmpl", gin.H{})
		return
	}

	response.HTML(c, http.StatusOK, "student_detail.tmpl", gin.H{
		"Student": view.Student,
		"Scores":  view.Scores,
	})
}

// AddScore handles the inline add-score form post. Success triggers a
// targeted refresh for this student only.
func (h *RosterHandler) AddScore(c *gin.Context) {
	sid := middleware.SessionID(c)
	id := c.Param("id")

	recorded, err := h.roster.AddScore(c.Request.Context(), sid, id, c.PostForm("subject"), c.PostForm("marks"))
	if err != nil {
		response.SetFlash(c, response.FlashError, appErrors.FromError(err).Message)
	} else if recorded {
		response.SetFlash(c, response.FlashSuccess, "Score recorded.")
	}
	response.Redirect(c, "/students/"+id)
}
