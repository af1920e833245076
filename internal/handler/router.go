package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/spt-web/internal/middleware"
	"github.com/noah-isme/spt-web/internal/service"
	"github.com/noah-isme/spt-web/internal/session"
	"github.com/noah-isme/spt-web/pkg/logger"
	"github.com/noah-isme/spt-web/pkg/middleware/requestid"
	"github.com/noah-isme/spt-web/pkg/response"
)

// RouterDeps groups everything the router needs.
type RouterDeps struct {
	Logger        *zap.Logger
	Metrics       *service.MetricsService
	Sessions      *session.Manager
	Auth          *service.AuthService
	Roster        *service.RosterService
	Exports       *service.ExportService
	ExportEnabled bool
	TemplateGlob  string
}

// NewRouter wires middleware, templates and all routes.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestid.Middleware())
	if deps.Logger != nil {
		r.Use(logger.GinMiddleware(deps.Logger))
	}
	r.Use(middleware.Metrics(deps.Metrics))

	if deps.TemplateGlob != "" {
		r.LoadHTMLGlob(deps.TemplateGlob)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	authHandler := NewAuthHandler(deps.Auth, deps.Sessions, deps.Logger)
	r.GET("/login", authHandler.ShowLogin)
	r.POST("/login", authHandler.Login)
	r.POST("/register", authHandler.Register)
	r.POST("/logout", authHandler.Logout)

	rosterHandler := NewRosterHandler(deps.Roster, deps.Logger)
	app := r.Group("/", middleware.SessionGate(deps.Sessions, deps.Auth))
	app.GET("", rosterHandler.Overview)
	app.GET("/students/new", rosterHandler.NewStudentForm)
	app.POST("/students", rosterHandler.CreateStudent)
	app.GET("/students/:id", rosterHandler.Detail)
	app.POST("/students/:id/delete", rosterHandler.DeleteStudent)
	app.POST("/students/:id/scores", rosterHandler.AddScore)

	if deps.ExportEnabled && deps.Exports != nil {
		exportHandler := NewExportHandler(deps.Roster, deps.Exports, deps.Logger)
		app.GET("/students/:id/export", exportHandler.ScoreHistory)
	}

	// Unknown routes land on the overview; the session gate bounces
	// unauthenticated visitors to the auth view from there.
	r.NoRoute(func(c *gin.Context) {
		response.Redirect(c, "/")
	})

	return r
}
