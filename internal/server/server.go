package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/modelhub/internal/auth"
	"github.com/agenthands/modelhub/internal/core/extraction"
	"github.com/agenthands/modelhub/internal/core/model"
	"github.com/agenthands/modelhub/internal/store"
)

type Extractor interface {
	Extract(ctx context.Context, req extraction.Request) (map[string]any, error)
}

type TemplateGenerator interface {
	Generate(ctx context.Context, goal string, details map[string]any) (*model.GeneratedTemplate, error)
}

type healthChecker interface {
	HealthCheck(ctx context.Context, timeout time.Duration) error
}

type Server struct {
	Store     store.Store
	Issuer    *auth.Issuer
	Extractor Extractor
	Generator TemplateGenerator
	Logger    *slog.Logger
}

func NewServer(st store.Store, issuer *auth.Issuer, ex Extractor, gen TemplateGenerator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Store: st, Issuer: issuer, Extractor: ex, Generator: gen, Logger: logger}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	r.Use(Recovery(s.Logger))
	r.Use(RequestLogger(s.Logger))

	r.GET("/health", s.Health)

	api := r.Group("/api")
	jwt := JWTAuth(s.Issuer)
	basic := BasicAuth(s.Store)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", s.Login)
		authGroup.POST("/refresh", s.Refresh)
		authGroup.POST("/logout", jwt, s.Logout)
	}

	clients := api.Group("/admin/clients", jwt)
	{
		clients.POST("", s.CreateClient)
		clients.GET("", s.ListClients)
		clients.GET("/:id", s.GetClient)
		clients.PATCH("/:id/reset-basic", s.ResetClientBasic)
	}

	types := api.Group("/model-types", jwt)
	{
		types.POST("", s.CreateModelType)
		types.GET("", s.ListModelTypes)
	}

	models := api.Group("/models")
	{
		models.POST("", jwt, s.CreateModel)
		models.GET("", jwt, s.ListModels)
		models.GET("/client/models", basic, s.ListClientModels)
		models.GET("/client/models/:id", basic, s.GetClientModel)
		models.POST("/client/extract", basic, s.Extract)
		models.GET("/:id", jwt, s.GetModel)
	}

	logs := api.Group("/extraction-logs")
	{
		logs.GET("/admin", jwt, s.AdminLogs)
		logs.GET("/admin/stats", jwt, s.AdminLogStats)
		logs.GET("/admin/export", jwt, s.ExportLogs)
		logs.GET("/client/logs", basic, s.ClientLogs)
		logs.GET("/client/stats", basic, s.ClientLogStats)
	}

	api.POST("/openai/generate-template", jwt, s.GenerateTemplate)

	return r
}

func (s *Server) Health(c *gin.Context) {
	status, code := "ok", http.StatusOK
	if hc, ok := s.Store.(healthChecker); ok {
		if err := hc.HealthCheck(c.Request.Context(), 2*time.Second); err != nil {
			s.Logger.Warn("health check failed", "error", err)
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// fail maps domain errors onto HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	var xerr *extraction.Error
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "resource already exists"})
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, extraction.ErrNoActiveTemplates):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &xerr):
		c.JSON(http.StatusBadGateway, gin.H{"error": xerr.Error()})
	default:
		s.Logger.Error("request failed",
			"error", err,
			"path", c.Request.URL.Path,
			"request_id", GetRequestID(c),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
