// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/mocks"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
)

var errStore = errors.New("kv down")

func setupSessionService() (*SessionService, *mocks.MockTokenValidator, *mocks.MockSessionRepository) {
	tokens := &mocks.MockTokenValidator{}
	sessions := &mocks.MockSessionRepository{}
	svc := NewSessionService(tokens, sessions, time.Hour)
	svc.now = fixedClock
	return svc, tokens, sessions
}

func TestSessionService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("session capped by service TTL", func(t *testing.T) {
		svc, tokens, sessions := setupSessionService()
		tokens.On("ValidateBearer", mock.Anything, "token").
			Return(&models.Session{UserID: "u1", Role: models.RoleSecretary, ExpiresAt: fixedClock().Add(24 * time.Hour)}, nil).Once()
		sessions.On("PutSession", mock.Anything, mock.MatchedBy(func(s *models.Session) bool {
			return s.ID != "" && s.UserID == "u1"
		})).Return(nil).Once()

		session, err := svc.Login(ctx, "token")
		require.NoError(t, err)
		assert.Equal(t, models.RoleSecretary, session.Role)
		assert.Equal(t, fixedClock(), session.IssuedAt)
		assert.Equal(t, fixedClock().Add(time.Hour), session.ExpiresAt)
		tokens.AssertExpectations(t)
		sessions.AssertExpectations(t)
	})

	t.Run("session capped by token expiry", func(t *testing.T) {
		svc, tokens, sessions := setupSessionService()
		expiry := fixedClock().Add(10 * time.Minute)
		tokens.On("ValidateBearer", mock.Anything, "token").
			Return(&models.Session{UserID: "u1", Role: models.RoleMember, ExpiresAt: expiry}, nil).Once()
		sessions.On("PutSession", mock.Anything, mock.Anything).Return(nil).Once()

		session, err := svc.Login(ctx, "token")
		require.NoError(t, err)
		assert.Equal(t, expiry, session.ExpiresAt)
	})

	t.Run("invalid token", func(t *testing.T) {
		svc, tokens, sessions := setupSessionService()
		tokens.On("ValidateBearer", mock.Anything, "bad").
			Return(nil, domain.NewUnauthorizedError("invalid or expired token")).Once()

		_, err := svc.Login(ctx, "bad")
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeUnauthorized, domain.GetErrorType(err))
		sessions.AssertNotCalled(t, "PutSession", mock.Anything, mock.Anything)
	})

	t.Run("missing token", func(t *testing.T) {
		svc, _, _ := setupSessionService()
		_, err := svc.Login(ctx, "")
		assert.Equal(t, domain.ErrorTypeUnauthorized, domain.GetErrorType(err))
	})

	t.Run("store failure", func(t *testing.T) {
		svc, tokens, sessions := setupSessionService()
		tokens.On("ValidateBearer", mock.Anything, "token").
			Return(&models.Session{UserID: "u1", Role: models.RoleAdmin}, nil).Once()
		sessions.On("PutSession", mock.Anything, mock.Anything).Return(errStore).Once()

		_, err := svc.Login(ctx, "token")
		assert.ErrorIs(t, err, errStore)
	})
}

func TestSessionService_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("active session", func(t *testing.T) {
		svc, _, sessions := setupSessionService()
		active := &models.Session{ID: "s1", Role: models.RoleAdmin, ExpiresAt: fixedClock().Add(time.Minute)}
		sessions.On("GetSession", mock.Anything, "s1").Return(active, nil).Once()

		session, err := svc.Resolve(ctx, "s1")
		require.NoError(t, err)
		assert.Same(t, active, session)
	})

	t.Run("expired session is removed", func(t *testing.T) {
		svc, _, sessions := setupSessionService()
		expired := &models.Session{ID: "s1", Role: models.RoleAdmin, ExpiresAt: fixedClock().Add(-time.Minute)}
		sessions.On("GetSession", mock.Anything, "s1").Return(expired, nil).Once()
		sessions.On("DeleteSession", mock.Anything, "s1").Return(nil).Once()

		_, err := svc.Resolve(ctx, "s1")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		sessions.AssertExpectations(t)
	})

	t.Run("unknown session", func(t *testing.T) {
		svc, _, sessions := setupSessionService()
		sessions.On("GetSession", mock.Anything, "nope").Return(nil, domain.NewNotFoundError("session not found")).Once()

		_, err := svc.Resolve(ctx, "nope")
		assert.Equal(t, domain.ErrorTypeUnauthorized, domain.GetErrorType(err))
	})

	t.Run("store outage passes through", func(t *testing.T) {
		svc, _, sessions := setupSessionService()
		sessions.On("GetSession", mock.Anything, "s1").Return(nil, domain.ErrServiceUnavailable).Once()

		_, err := svc.Resolve(ctx, "s1")
		assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	})

	t.Run("empty id", func(t *testing.T) {
		svc, _, _ := setupSessionService()
		_, err := svc.Resolve(ctx, "")
		assert.Equal(t, domain.ErrorTypeUnauthorized, domain.GetErrorType(err))
	})
}

func TestSessionService_Logout(t *testing.T) {
	ctx := context.Background()
	svc, _, sessions := setupSessionService()

	sessions.On("DeleteSession", mock.Anything, "s1").Return(nil).Once()
	sessions.On("DeleteSession", mock.Anything, "gone").Return(domain.NewNotFoundError("session not found")).Once()
	sessions.On("DeleteSession", mock.Anything, "broken").Return(errStore).Once()

	assert.NoError(t, svc.Logout(ctx, "s1"))
	assert.NoError(t, svc.Logout(ctx, "gone"))
	assert.Error(t, svc.Logout(ctx, "broken"))
}

func TestSessionService_NotReady(t *testing.T) {
	svc := &SessionService{now: fixedClock}

	_, err := svc.Login(context.Background(), "token")
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	_, err = svc.Resolve(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		session  *models.Session
		roles    []models.Role
		wantType domain.ErrorType
		allowed  bool
	}{
		{name: "secretary schedules", session: &models.Session{Role: models.RoleSecretary}, roles: MeetingWriters, allowed: true},
		{name: "coordination schedules", session: &models.Session{Role: models.RoleCoordination}, roles: MeetingWriters, allowed: true},
		{name: "chairman cannot schedule", session: &models.Session{Role: models.RoleChairman}, roles: MeetingWriters, wantType: domain.ErrorTypeForbidden},
		{name: "registrar manages workbodies", session: &models.Session{Role: models.RoleRegistrar}, roles: WorkbodyAdmins, allowed: true},
		{name: "secretary cannot manage workbodies", session: &models.Session{Role: models.RoleSecretary}, roles: WorkbodyAdmins, wantType: domain.ErrorTypeForbidden},
		{name: "no session", session: nil, roles: MeetingWriters, wantType: domain.ErrorTypeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.session, tt.roles...)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantType, domain.GetErrorType(err))
		})
	}
}
