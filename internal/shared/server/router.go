package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docclassifier-backend/internal/admin"
	googleauth "docclassifier-backend/internal/auth"
	"docclassifier-backend/internal/credits"
	"docclassifier-backend/internal/documents"
	"docclassifier-backend/internal/pipeline"
	"docclassifier-backend/internal/shared/config"
	"docclassifier-backend/internal/shared/metrics"
	"docclassifier-backend/internal/shared/server/middleware"
	"docclassifier-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers wired into the HTTP surface.
type RouterDeps struct {
	Config           config.Config
	CreditsHandler   *credits.Handler
	DocumentsHandler *documents.Handler
	PipelineHandler  *pipeline.Handler
	AdminHandler     *admin.Handler
	GoogleAuth       *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	registerMeRoutes(api)
	if deps.CreditsHandler != nil {
		deps.CreditsHandler.RegisterRoutes(api)
	}
	if deps.DocumentsHandler != nil {
		deps.DocumentsHandler.RegisterRoutes(api)
	}
	if deps.PipelineHandler != nil {
		deps.PipelineHandler.RegisterRoutes(api)
	}
	if deps.AdminHandler != nil {
		deps.AdminHandler.RegisterPublicRoutes(api)
		adminGroup := api.Group("")
		adminGroup.Use(middleware.RequireAdmin())
		deps.AdminHandler.RegisterRoutes(adminGroup)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
