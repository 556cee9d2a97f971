package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"livewall-backend-go/internal/core"
	"livewall-backend-go/internal/models"
)

// GenerationHandler handles AI wallpaper generation.
type GenerationHandler struct {
	generationService core.GenerationService
	logger            *zap.Logger
}

// NewGenerationHandler creates a new GenerationHandler.
func NewGenerationHandler(gs core.GenerationService, logger *zap.Logger) *GenerationHandler {
	return &GenerationHandler{generationService: gs, logger: logger}
}

func (h *GenerationHandler) mapGenerationErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrEmptyPrompt):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Prompt is required"})
	case errors.Is(err, core.ErrNotSubscribed):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "An active subscription is required"})
	case errors.Is(err, core.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
	case errors.Is(err, core.ErrGenerationInProgress):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "A generation is already in progress"})
	case errors.Is(err, core.ErrGenerationFailed):
		h.logger.Error("AI generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate image"})
	default:
		h.logger.Error("AI generation flow failed", zap.Error(err))
		internalError(c)
	}
}

// Generate handles POST /api/v1/ai/generate. Entitlement is decided by the service from the
// stored user record, not from the session, so a missing record is a 404 and a store
// outage a 500.
func (h *GenerationHandler) Generate(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	var req models.GenerateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Prompt == nil || strings.TrimSpace(*req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Prompt is required"})
		return
	}

	result, err := h.generationService.Generate(c.Request.Context(), session.ID, *req.Prompt)
	if err != nil {
		h.mapGenerationErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
