// Package service provides application-level services that orchestrate domain
// services behind the HTTP handlers.
package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/turtacn/genguard/internal/application/dto"
	"github.com/turtacn/genguard/internal/domain/models"
	domainService "github.com/turtacn/genguard/internal/domain/service"
	"github.com/turtacn/genguard/internal/infrastructure/monitoring"
	"github.com/turtacn/genguard/pkg/constants"
	apperrors "github.com/turtacn/genguard/pkg/errors"
	"github.com/turtacn/genguard/pkg/logger"
	"github.com/turtacn/genguard/pkg/utils"
)

// ArtisticStyles is the pool generate-suggestion draws from.
var ArtisticStyles = []string{
	"Anime highly exaggerated",
	"South Park",
	"Simpsons",
	"Studio Ghibli",
	"Hi-res Minecraft",
	"Lego art",
	"3D voxel art",
	"Watercolor",
	"Marionette",
	"Rubber hose animation",
	"Pixar",
	"ASCII",
	"Black and white",
	"Oil painting",
	"Van Gogh",
	"32-bit isometric",
	"Art nouveau",
	"Diagramatic drawing",
	"Crayon drawing",
	"SynthWave",
	"Pop-art cartoon",
	"Stained glass window",
	"Charley Harper",
	"Vintage polaroid",
	"1990s manga",
	"1990s point and click 16-bit adventure game",
}

// ImageAppService defines the image generation use cases.
type ImageAppService interface {
	// CreateImage runs the guarded operation. The caller's usage counter is
	// charged only after the upstream generation succeeded.
	CreateImage(ctx context.Context, identifier string, req *dto.CreateImageRequest) (*dto.CreateImageResponse, error)

	// ListImages returns one page of the gallery.
	ListImages(ctx context.Context, page, limit int) (*models.GalleryPage, error)

	// GenerateSuggestion asks the upstream for a prompt in a random style.
	GenerateSuggestion(ctx context.Context) (*dto.SuggestionResponse, error)
}

// Option customises an ImageAppService.
type Option func(*imageAppServiceImpl)

// WithStylePicker replaces the random style selection.
func WithStylePicker(pick func() string) Option {
	return func(s *imageAppServiceImpl) { s.pickStyle = pick }
}

type imageAppServiceImpl struct {
	upstream  domainService.ImageUpstream
	usage     domainService.UsageService
	catalog   domainService.ImageCatalog
	publisher domainService.UsageEventPublisher
	pickStyle func() string
	logger    logger.Logger
}

// NewImageAppService creates a new instance of ImageAppService
func NewImageAppService(
	upstream domainService.ImageUpstream,
	usage domainService.UsageService,
	catalog domainService.ImageCatalog,
	publisher domainService.UsageEventPublisher,
	log logger.Logger,
	opts ...Option,
) ImageAppService {
	s := &imageAppServiceImpl{
		upstream:  upstream,
		usage:     usage,
		catalog:   catalog,
		publisher: publisher,
		pickStyle: randomStyle,
		logger:    log.WithComponent("ImageAppService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func randomStyle() string {
	return ArtisticStyles[rand.IntN(len(ArtisticStyles))]
}

// CreateImage implements ImageAppService.
func (s *imageAppServiceImpl) CreateImage(ctx context.Context, identifier string, req *dto.CreateImageRequest) (*dto.CreateImageResponse, error) {
	if req == nil {
		return nil, apperrors.ErrInvalidRequest("request body is required")
	}
	if err := utils.ValidateStruct(req); err != nil {
		s.logger.Warn(ctx, "Invalid create image request", logger.String("reason", err.Error()))
		return nil, err
	}

	prompt, err := s.preparePrompt(ctx, req)
	if err != nil {
		return nil, err
	}

	img, err := s.upstream.GenerateImage(ctx, prompt)
	if err != nil {
		s.logger.Error(ctx, "Image generation failed", err, logger.String("identifier", identifier))
		monitoring.RecordError(ctx, err)
		return nil, apperrors.ErrGenerationFailed("generate", err)
	}

	// The generation happened; a disconnecting client must still be charged.
	chargeCtx := context.WithoutCancel(ctx)
	if count := s.usage.Increment(chargeCtx, identifier); count > 0 {
		s.publish(chargeCtx, models.NewUsageEvent(constants.EventUsageRecorded, identifier, count, s.usage.Limit()))
	}

	if err := s.catalog.Invalidate(chargeCtx); err != nil {
		s.logger.Warn(ctx, "Failed to invalidate gallery cache", logger.Error(err))
	}

	s.logger.Info(ctx, "Image generated",
		logger.String("identifier", identifier),
		logger.String("filename", img.Filename),
		logger.Int("sizes", len(img.Sizes)),
	)
	return dto.NewCreateImageResponse(img, prompt), nil
}

// preparePrompt optimises custom prompts. Suggested prompts are used as is.
func (s *imageAppServiceImpl) preparePrompt(ctx context.Context, req *dto.CreateImageRequest) (string, error) {
	raw := strings.TrimSpace(req.RawPrompt)
	if req.Source != constants.PromptSourceCustom {
		return raw, nil
	}

	optimized, err := s.upstream.OptimizePrompt(ctx, raw)
	if err != nil {
		s.logger.Error(ctx, "Prompt optimisation failed", err)
		monitoring.RecordError(ctx, err)
		return "", apperrors.ErrGenerationFailed("optimize", err)
	}

	optimized = strings.TrimSpace(optimized)
	if strings.EqualFold(optimized, constants.InsufficientDetailKey) {
		s.logger.Info(ctx, "Prompt rejected as too vague", logger.String("prompt", raw))
		return "", apperrors.ErrInsufficientDetail(raw)
	}
	if optimized == "" {
		return "", apperrors.ErrGenerationFailed("optimize", errors.New("optimizer returned an empty prompt"))
	}

	s.logger.Debug(ctx, "Prompt optimised", logger.String("prompt", optimized))
	return utils.CapitalizeFirst(optimized), nil
}

// ListImages implements ImageAppService.
func (s *imageAppServiceImpl) ListImages(ctx context.Context, page, limit int) (*models.GalleryPage, error) {
	result, err := s.catalog.Page(ctx, page, limit)
	if err != nil {
		s.logger.Error(ctx, "Failed to list images", err)
		return nil, apperrors.ErrInternal("list images").WithCause(err)
	}
	return result, nil
}

// GenerateSuggestion implements ImageAppService.
func (s *imageAppServiceImpl) GenerateSuggestion(ctx context.Context) (*dto.SuggestionResponse, error) {
	style := s.pickStyle()
	s.logger.Debug(ctx, "Selected artistic style", logger.String("style", style))

	suggestion, err := s.upstream.SuggestPrompt(ctx, style)
	if err != nil {
		s.logger.Error(ctx, "Prompt suggestion failed", err, logger.String("style", style))
		return nil, apperrors.ErrSuggestionFailed(err)
	}

	suggestion = strings.TrimSpace(suggestion)
	if suggestion == "" {
		return nil, apperrors.ErrSuggestionFailed(errors.New("upstream returned an empty suggestion"))
	}
	return &dto.SuggestionResponse{Suggestion: utils.CapitalizeFirst(suggestion)}, nil
}

func (s *imageAppServiceImpl) publish(ctx context.Context, event *models.UsageEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn(ctx, "Failed to publish usage event",
			logger.String("type", string(event.Type)),
			logger.Error(err),
		)
	}
}
