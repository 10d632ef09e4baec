package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/complaint-intake/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.MaxMultipartMemory = 32 << 20
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.CORSOrigins),
		errorHandlingMiddleware(handler.logger),
	)

	router.GET("/healthz", handler.Health)
	router.GET("/metrics", handler.Metrics)

	api := router.Group("/api/v1")
	api.Use(
		authMiddleware(handler.authSvc),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)
	{
		api.GET("/categories", handler.Categories)
		api.POST("/complaints", bodyLimit(cfg.HTTP.MaxUploadBytes), handler.SubmitComplaint)
		api.POST("/complaints/preview", handler.PreviewComplaint)
		api.GET("/complaints", handler.ListComplaints)
		api.GET("/complaints/:id", handler.GetComplaint)
		api.GET("/complaints/:id/answers", handler.ListComplaintAnswers)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
