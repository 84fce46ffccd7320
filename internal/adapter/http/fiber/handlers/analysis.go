package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/domain"
	"github.com/seu-repo/utility-advisor/internal/observability/telemetry"
	"github.com/seu-repo/utility-advisor/internal/ports"
)

type AnalysisHandler struct {
	service   ports.AnalysisService
	publisher ports.ReviewPublisher
	log       *zap.Logger
	now       func() time.Time
}

// NewAnalysisHandler wires the orchestrator. publisher may be nil.
func NewAnalysisHandler(service ports.AnalysisService, publisher ports.ReviewPublisher, log *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service:   service,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Create runs one analysis. The generation timestamp is stamped here when the
// caller did not supply one; the orchestrator never reads a clock.
func (h *AnalysisHandler) Create(c *fiber.Ctx) error {
	var req domain.AnalysisRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid body")
	}
	if req.Now == "" {
		req.Now = h.now().UTC().Format(time.RFC3339)
	}

	start := time.Now()
	result, err := h.service.Analyze(c.UserContext(), req)
	telemetry.ObserveAnalysis(result, err, time.Since(start))
	if err != nil {
		return err
	}

	if h.publisher != nil && len(result.ReviewItems) > 0 {
		if err := h.publisher.PublishReviewItems(c.UserContext(), result.ReviewItems); err != nil {
			telemetry.ReviewPublishFailures.Inc()
			h.log.Warn("Failed to publish review items",
				zap.Int("count", len(result.ReviewItems)),
				zap.Error(err),
			)
		}
	}

	return c.JSON(result)
}
