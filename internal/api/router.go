package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/lcraddock/lexdraft/internal/app"
	iauth "github.com/lcraddock/lexdraft/internal/auth"
	"github.com/lcraddock/lexdraft/internal/handlers"
	"github.com/lcraddock/lexdraft/internal/middleware"
	"github.com/lcraddock/lexdraft/internal/models"
	"github.com/lcraddock/lexdraft/internal/realtime"
	"github.com/lcraddock/lexdraft/internal/services"
	"github.com/lcraddock/lexdraft/internal/storage"
	"github.com/lcraddock/lexdraft/pkg/mail"
)

// Dependencies carries the external collaborators the service layer needs.
// Handlers and services themselves are constructed inside NewRouter.
type Dependencies struct {
	Store     storage.BlobStore
	Extractor services.FactExtractor
	Generator services.DraftGenerator
	Mailer    mail.Mailer
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, deps Dependencies) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	auditSvc, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	collabSvc, err := services.NewCollaboratorService(db, auditSvc, deps.Mailer)
	if err != nil {
		return nil, err
	}
	authSvc, err := services.NewAuthService(db, jwt, auditSvc)
	if err != nil {
		return nil, err
	}
	documentSvc, err := services.NewDocumentService(db, collabSvc, auditSvc)
	if err != nil {
		return nil, err
	}
	pdfSvc, err := services.NewPDFService(db, collabSvc, auditSvc, deps.Store)
	if err != nil {
		return nil, err
	}
	factSvc, err := services.NewFactService(db, collabSvc, auditSvc, deps.Extractor)
	if err != nil {
		return nil, err
	}
	draftSvc, err := services.NewDraftService(db, collabSvc, auditSvc, deps.Generator)
	if err != nil {
		return nil, err
	}
	versionSvc, err := services.NewVersionService(db, collabSvc, auditSvc)
	if err != nil {
		return nil, err
	}
	templateSvc, err := services.NewTemplateService(db)
	if err != nil {
		return nil, err
	}
	settingsSvc, err := services.NewFirmSettingsService(db, auditSvc)
	if err != nil {
		return nil, err
	}

	hub := realtime.NewHub(collabSvc)

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	// Basic rate limiting: 100 requests/minute per IP+path
	r.Use(middleware.RateLimit(100, time.Minute))

	// Health endpoint (public)
	r.GET("/health", handlers.Health(db))

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(authSvc)
	documentHandler := handlers.NewDocumentHandler(documentSvc)
	collaboratorHandler := handlers.NewCollaboratorHandler(collabSvc)
	pdfHandler := handlers.NewPDFHandler(pdfSvc)
	factHandler := handlers.NewFactHandler(factSvc)
	draftHandler := handlers.NewDraftHandler(draftSvc)
	versionHandler := handlers.NewVersionHandler(versionSvc)
	templateHandler := handlers.NewTemplateHandler(templateSvc)
	settingsHandler := handlers.NewFirmSettingsHandler(settingsSvc)
	auditHandler := handlers.NewAuditHandler(auditSvc)
	realtimeHandler := handlers.NewRealtimeHandler(hub, jwt)

	// Public auth routes with a tighter limit against credential stuffing
	auth := r.Group("/api/auth")
	auth.Use(middleware.RateLimit(10, time.Minute))
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	requireAuth := middleware.Auth(jwt)

	// The websocket endpoint authenticates via query token inside the handler.
	r.GET("/ws", realtimeHandler.Stream)

	api := r.Group("/api")
	api.Use(requireAuth)

	api.GET("/auth/me", authHandler.Me)

	documents := api.Group("/documents")
	{
		documents.GET("", documentHandler.List)
		documents.POST("", documentHandler.Create)
	}

	// Document-scoped routes share a membership gate; finer permission
	// levels (editor, owner) are enforced by the services.
	document := documents.Group("/:id")
	document.Use(middleware.RequireDocumentAccess(collabSvc, models.PermissionNone))
	{
		document.GET("", documentHandler.Get)
		document.PATCH("", documentHandler.Update)
		document.DELETE("", documentHandler.Delete)

		document.GET("/collaborators", collaboratorHandler.List)
		document.POST("/collaborators", collaboratorHandler.Invite)

		document.GET("/pdfs", pdfHandler.List)
		document.POST("/pdfs", pdfHandler.Upload)

		document.GET("/facts", factHandler.List)
		document.POST("/facts/extract", factHandler.Extract)

		document.POST("/draft", draftHandler.Generate)

		document.GET("/versions", versionHandler.List)
		document.POST("/versions", versionHandler.Snapshot)
		document.GET("/versions/:versionID", versionHandler.Get)
		document.DELETE("/versions/:versionID", versionHandler.Delete)
		document.POST("/versions/:versionID/restore", versionHandler.Restore)

		document.GET("/audit", auditHandler.ListForDocument)
	}

	invitations := api.Group("/invitations")
	{
		invitations.GET("", collaboratorHandler.Pending)
		invitations.POST("/:id/respond", collaboratorHandler.Respond)
	}

	collaborators := api.Group("/collaborators")
	{
		collaborators.PATCH("/:id", collaboratorHandler.UpdatePermission)
		collaborators.DELETE("/:id", collaboratorHandler.Remove)
	}

	pdfs := api.Group("/pdfs")
	{
		pdfs.GET("/:id", pdfHandler.Get)
		pdfs.GET("/:id/download", pdfHandler.Download)
		pdfs.DELETE("/:id", pdfHandler.Delete)
	}

	api.POST("/facts/:id/review", factHandler.Review)
	api.DELETE("/facts/:id", factHandler.Delete)

	templates := api.Group("/templates")
	{
		templates.GET("", templateHandler.List)
		templates.POST("", templateHandler.Create)
		templates.GET("/:id", templateHandler.Get)
		templates.PUT("/:id", templateHandler.Update)
		templates.DELETE("/:id", templateHandler.Delete)
	}

	settings := api.Group("/settings")
	{
		settings.GET("", settingsHandler.Get)
		settings.PATCH("", settingsHandler.Update)
	}

	api.GET("/audit", auditHandler.List)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
