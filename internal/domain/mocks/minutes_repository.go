// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
)

// MockMinutesRepository implements MinutesRepository for testing
type MockMinutesRepository struct {
	mock.Mock
}

func (m *MockMinutesRepository) ListMinutes(ctx context.Context, workbodyUID string) ([]*models.MeetingMinutes, error) {
	args := m.Called(ctx, workbodyUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MeetingMinutes), args.Error(1)
}

func (m *MockMinutesRepository) GetMinutes(ctx context.Context, minutesUID string) (*models.MeetingMinutes, error) {
	args := m.Called(ctx, minutesUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MeetingMinutes), args.Error(1)
}

func (m *MockMinutesRepository) CreateMinutes(ctx context.Context, minutes *models.MeetingMinutes) error {
	args := m.Called(ctx, minutes)
	return args.Error(0)
}

// MockSessionRepository implements SessionRepository for testing
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) PutSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// MockTokenValidator implements TokenValidator for testing
type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateBearer(ctx context.Context, bearerToken string) (*models.Session, error) {
	args := m.Called(ctx, bearerToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}
