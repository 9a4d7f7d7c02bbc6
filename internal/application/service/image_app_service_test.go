package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/genguard/internal/application/dto"
	"github.com/turtacn/genguard/internal/domain/models"
	"github.com/turtacn/genguard/internal/domain/service/mocks"
	redisstore "github.com/turtacn/genguard/internal/infrastructure/persistence/redis"
	"github.com/turtacn/genguard/internal/infrastructure/usage"
	"github.com/turtacn/genguard/pkg/constants"
	apperrors "github.com/turtacn/genguard/pkg/errors"
	"github.com/turtacn/genguard/pkg/logger"
)

type imageServiceFixture struct {
	mr        *miniredis.Miniredis
	tracker   *usage.Tracker
	upstream  *mocks.MockImageUpstream
	catalog   *mocks.MockImageCatalog
	publisher *mocks.MockUsageEventPublisher
	svc       ImageAppService
}

func newImageServiceFixture(t *testing.T, opts ...Option) *imageServiceFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tracker := usage.NewTracker(redisstore.NewKVStore(client), usage.DefaultConfig(), logger.NewNoopLogger(), nil)
	f := &imageServiceFixture{
		mr:        mr,
		tracker:   tracker,
		upstream:  new(mocks.MockImageUpstream),
		catalog:   new(mocks.MockImageCatalog),
		publisher: new(mocks.MockUsageEventPublisher),
	}
	f.svc = NewImageAppService(f.upstream, tracker, f.catalog, f.publisher, logger.NewNoopLogger(), opts...)
	return f
}

func (f *imageServiceFixture) count(t *testing.T, id string) string {
	t.Helper()
	if !f.mr.Exists(f.tracker.Key(id)) {
		return ""
	}
	v, err := f.mr.Get(f.tracker.Key(id))
	require.NoError(t, err)
	return v
}

func TestCreateImage_CustomPromptIsOptimisedAndCharged(t *testing.T) {
	f := newImageServiceFixture(t)
	ctx := context.Background()

	f.upstream.On("OptimizePrompt", mock.Anything, "a dog in a park").
		Return("golden retriever in a sunny park, detailed", nil)
	f.upstream.On("GenerateImage", mock.Anything, "Golden retriever in a sunny park, detailed").
		Return(&models.GeneratedImage{Filename: "golden_1700000000000.png", Sizes: []string{"golden_1700000000000_small.webp"}}, nil)
	f.catalog.On("Invalidate", mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e *models.UsageEvent) bool {
		return e.Type == constants.EventUsageRecorded && e.Identifier == "fp-1" && e.Count == 1 && e.Limit == 2
	})).Return(nil)

	resp, err := f.svc.CreateImage(ctx, "fp-1", &dto.CreateImageRequest{RawPrompt: "  a dog in a park ", Source: constants.PromptSourceCustom})
	require.NoError(t, err)
	assert.Equal(t, "golden_1700000000000.png", resp.Filename)
	assert.Equal(t, "Golden retriever in a sunny park, detailed", resp.Prompt)
	assert.Equal(t, "1", f.count(t, "fp-1"))
	assert.True(t, f.mr.TTL(f.tracker.Key("fp-1")) > 0)

	f.upstream.AssertExpectations(t)
	f.catalog.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestCreateImage_SuggestedPromptSkipsOptimiser(t *testing.T) {
	f := newImageServiceFixture(t)

	f.upstream.On("GenerateImage", mock.Anything, "Cyberpunk cat in watercolor").
		Return(&models.GeneratedImage{Filename: "cat.png"}, nil)
	f.catalog.On("Invalidate", mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.svc.CreateImage(context.Background(), "fp-2", &dto.CreateImageRequest{RawPrompt: "Cyberpunk cat in watercolor", Source: constants.PromptSourceSuggestion})
	require.NoError(t, err)
	assert.Equal(t, []string{}, resp.Sizes)
	f.upstream.AssertNotCalled(t, "OptimizePrompt", mock.Anything, mock.Anything)
}

func TestCreateImage_InsufficientDetail(t *testing.T) {
	f := newImageServiceFixture(t)
	f.upstream.On("OptimizePrompt", mock.Anything, "car").Return("insufficient_detail", nil)

	_, err := f.svc.CreateImage(context.Background(), "fp-3", &dto.CreateImageRequest{RawPrompt: "car", Source: constants.PromptSourceCustom})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus())
	assert.Equal(t, apperrors.MessageInsufficientDetail, appErr.Message())
	assert.Equal(t, "", f.count(t, "fp-3"))
	f.upstream.AssertNotCalled(t, "GenerateImage", mock.Anything, mock.Anything)
}

func TestCreateImage_FailedGenerationIsNotCharged(t *testing.T) {
	f := newImageServiceFixture(t)
	f.upstream.On("GenerateImage", mock.Anything, mock.Anything).Return(nil, errors.New("upstream 502"))

	_, err := f.svc.CreateImage(context.Background(), "fp-4", &dto.CreateImageRequest{RawPrompt: "A lighthouse at dusk"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeGenerationFailed))

	assert.Equal(t, "", f.count(t, "fp-4"))
	f.catalog.AssertNotCalled(t, "Invalidate", mock.Anything)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCreateImage_ChargedEvenWhenCallerCancels(t *testing.T) {
	f := newImageServiceFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	f.upstream.On("GenerateImage", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(&models.GeneratedImage{Filename: "x.png"}, nil)
	f.catalog.On("Invalidate", mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.CreateImage(ctx, "fp-5", &dto.CreateImageRequest{RawPrompt: "Sunset over dunes"})
	require.NoError(t, err)
	assert.Equal(t, "1", f.count(t, "fp-5"))
}

func TestCreateImage_SideEffectFailuresAreSwallowed(t *testing.T) {
	f := newImageServiceFixture(t)

	f.upstream.On("GenerateImage", mock.Anything, mock.Anything).Return(&models.GeneratedImage{Filename: "y.png"}, nil)
	f.catalog.On("Invalidate", mock.Anything).Return(errors.New("redis down"))
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("kafka down"))

	_, err := f.svc.CreateImage(context.Background(), "fp-6", &dto.CreateImageRequest{RawPrompt: "Mountain lake"})
	require.NoError(t, err)
	assert.Equal(t, "1", f.count(t, "fp-6"))
}

func TestCreateImage_Validation(t *testing.T) {
	f := newImageServiceFixture(t)

	tests := []struct {
		name string
		req  *dto.CreateImageRequest
	}{
		{"nil body", nil},
		{"blank prompt", &dto.CreateImageRequest{RawPrompt: "   "}},
		{"unknown source", &dto.CreateImageRequest{RawPrompt: "ok", Source: "bot"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateImage(context.Background(), "fp-7", tt.req)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidRequest))
		})
	}
	f.upstream.AssertNotCalled(t, "GenerateImage", mock.Anything, mock.Anything)
}

func TestGenerateSuggestion(t *testing.T) {
	f := newImageServiceFixture(t, WithStylePicker(func() string { return "Lego art" }))
	f.upstream.On("SuggestPrompt", mock.Anything, "Lego art").Return("  ancient Roman senator in Lego art style ", nil)

	resp, err := f.svc.GenerateSuggestion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ancient Roman senator in Lego art style", resp.Suggestion)
}

func TestGenerateSuggestion_Failures(t *testing.T) {
	f := newImageServiceFixture(t, WithStylePicker(func() string { return "ASCII" }))
	f.upstream.On("SuggestPrompt", mock.Anything, "ASCII").Return("", errors.New("timeout")).Once()
	f.upstream.On("SuggestPrompt", mock.Anything, "ASCII").Return("   ", nil).Once()

	for i := 0; i < 2; i++ {
		_, err := f.svc.GenerateSuggestion(context.Background())
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.MessageSuggestionFailed, appErr.Message())
	}
}

func TestRandomStyle(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.Contains(t, ArtisticStyles, randomStyle())
	}
}

func TestListImages(t *testing.T) {
	f := newImageServiceFixture(t)
	page := &models.GalleryPage{Pagination: models.Pagination{Page: 2, Limit: 9}}
	f.catalog.On("Page", mock.Anything, 2, 9).Return(page, nil)
	f.catalog.On("Page", mock.Anything, 3, 9).Return(nil, errors.New("upstream down"))

	got, err := f.svc.ListImages(context.Background(), 2, 9)
	require.NoError(t, err)
	assert.Same(t, page, got)

	_, err = f.svc.ListImages(context.Background(), 3, 9)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
}
