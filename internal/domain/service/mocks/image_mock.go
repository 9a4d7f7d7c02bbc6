package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/genguard/internal/domain/models"
)

type MockImageUpstream struct {
	mock.Mock
}

func (m *MockImageUpstream) OptimizePrompt(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockImageUpstream) GenerateImage(ctx context.Context, prompt string) (*models.GeneratedImage, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GeneratedImage), args.Error(1)
}

func (m *MockImageUpstream) SuggestPrompt(ctx context.Context, style string) (string, error) {
	args := m.Called(ctx, style)
	return args.String(0), args.Error(1)
}

func (m *MockImageUpstream) ListImages(ctx context.Context) ([]models.StoredBlob, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StoredBlob), args.Error(1)
}

type MockImageCatalog struct {
	mock.Mock
}

func (m *MockImageCatalog) Page(ctx context.Context, page, limit int) (*models.GalleryPage, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GalleryPage), args.Error(1)
}

func (m *MockImageCatalog) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockUsageEventPublisher struct {
	mock.Mock
}

func (m *MockUsageEventPublisher) Publish(ctx context.Context, event *models.UsageEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockUsageEventPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
