package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/genguard/internal/domain/models"
)

// MockRateLimitService is a mock implementation of RateLimitService
type MockRateLimitService struct {
	mock.Mock
}

func (m *MockRateLimitService) Admit(ctx context.Context, identifier string) (*models.RateLimitResult, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RateLimitResult), args.Error(1)
}

// MockUsageService is a mock implementation of UsageService
type MockUsageService struct {
	mock.Mock
}

func (m *MockUsageService) CheckStatus(ctx context.Context, identifier string) *models.UsageStatus {
	args := m.Called(ctx, identifier)
	return args.Get(0).(*models.UsageStatus)
}

func (m *MockUsageService) Increment(ctx context.Context, identifier string) int64 {
	args := m.Called(ctx, identifier)
	return args.Get(0).(int64)
}

func (m *MockUsageService) Limit() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}
