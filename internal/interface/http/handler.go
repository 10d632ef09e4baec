package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yanqian/complaint-intake/internal/domain/auth"
	"github.com/yanqian/complaint-intake/internal/domain/intake"
	"github.com/yanqian/complaint-intake/pkg/metrics"
)

// IntakeService is the part of the intake domain the transport depends on.
type IntakeService interface {
	Submit(ctx context.Context, req intake.SubmitRequest) (intake.SubmitResponse, error)
	Preview(payload string) (intake.PreviewResponse, error)
	GetSubmission(ctx context.Context, id uuid.UUID) (intake.Submission, error)
	ListSubmissions(ctx context.Context, filter intake.SubmissionFilter) ([]intake.Submission, error)
	ListAnswers(ctx context.Context, id uuid.UUID) ([]intake.Answer, error)
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	intakeSvc IntakeService
	authSvc   auth.Service
	metrics   *metrics.Intake
	logger    *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(intakeSvc IntakeService, authSvc auth.Service, m *metrics.Intake, logger *slog.Logger) *Handler {
	return &Handler{
		intakeSvc: intakeSvc,
		authSvc:   authSvc,
		metrics:   m,
		logger:    logger.With("component", "http.handler"),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Categories lists the keyword table in lookup order.
func (h *Handler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": intake.Categories()})
}

// Metrics serves the Prometheus registry.
func (h *Handler) Metrics(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
