package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/spt-web/internal/middleware"
	"github.com/noah-isme/spt-web/internal/service"
	appErrors "github.com/noah-isme/spt-web/pkg/errors"
	"github.com/noah-isme/spt-web/pkg/response"
)

// ExportHandler serves score-history downloads.
type ExportHandler struct {
	roster  *service.RosterService
	exports *service.ExportService
	logger  *zap.Logger
}

// NewExportHandler creates a new handler.
func NewExportHandler(roster *service.RosterService, exports *service.ExportService, logger *zap.Logger) *ExportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{roster: roster, exports: exports, logger: logger}
}

// ScoreHistory streams one student's history as csv, pdf or xlsx.
func (h *ExportHandler) ScoreHistory(c *gin.Context) {
	sid := middleware.SessionID(c)

	view, ok := h.roster.Detail(c.Request.Context(), sid, c.Param("id"))
	if !ok {
		response.HTML(c, http.StatusNotFound, "not_found.tmpl", gin.H{})
		return
	}

	file, err := h.exports.ScoreHistory(view.Student, view.Scores, c.Query("format"))
	if err != nil {
		h.logger.Warn("export failed", zap.String("student", view.Student.ID), zap.Error(err))
		response.SetFlash(c, response.FlashError, appErrors.FromError(err).Message)
		response.Redirect(c, "/students/"+view.Student.ID)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
