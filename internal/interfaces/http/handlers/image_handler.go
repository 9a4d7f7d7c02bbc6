package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/genguard/internal/application/dto"
	"github.com/turtacn/genguard/internal/application/service"
	"github.com/turtacn/genguard/internal/interfaces/http/middleware"
	"github.com/turtacn/genguard/pkg/errors"
	"github.com/turtacn/genguard/pkg/utils"
)

// ImageHandler serves the image generation and gallery endpoints.
type ImageHandler struct {
	images           service.ImageAppService
	defaultPageLimit int
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(images service.ImageAppService, defaultPageLimit int) *ImageHandler {
	return &ImageHandler{
		images:           images,
		defaultPageLimit: defaultPageLimit,
	}
}

// CreateImage handles POST /api/create-image. Rate limit and usage quota are
// enforced by the middleware in front of it.
func (h *ImageHandler) CreateImage(c *gin.Context) {
	var req dto.CreateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.ErrInvalidRequest("request body must be JSON with a rawPrompt field"))
		return
	}

	resp, err := h.images.CreateImage(c.Request.Context(), middleware.IdentifierFrom(c), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, resp)
}

// ListImages handles GET /api/list-images?page=&limit=. Missing or
// non-positive values fall back to page 1 and the default page size.
func (h *ImageHandler) ListImages(c *gin.Context) {
	page := utils.PositiveIntOr(c.Query("page"), 1)
	limit := utils.PositiveIntOr(c.Query("limit"), h.defaultPageLimit)

	result, err := h.images.ListImages(c.Request.Context(), page, limit)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// GenerateSuggestion handles POST /api/generate-suggestion.
func (h *ImageHandler) GenerateSuggestion(c *gin.Context) {
	resp, err := h.images.GenerateSuggestion(c.Request.Context())
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, resp)
}
