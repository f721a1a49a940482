// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/internal/logging"
)

// DefaultSessionTTL is the longest a session lives when the token does not expire sooner.
const DefaultSessionTTL = 12 * time.Hour

// Role sets gating the write routes. Read routes accept any role.
var (
	MeetingWriters = []models.Role{models.RoleAdmin, models.RoleSecretary, models.RoleCoordination}
	WorkbodyAdmins = []models.Role{models.RoleAdmin, models.RoleRegistrar}
)

// SessionService exchanges bearer tokens for session records and resolves them per request.
type SessionService struct {
	Tokens   domain.TokenValidator
	Sessions domain.SessionRepository
	TTL      time.Duration
	now      func() time.Time
}

// NewSessionService creates a new SessionService.
func NewSessionService(tokens domain.TokenValidator, sessions domain.SessionRepository, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{
		Tokens:   tokens,
		Sessions: sessions,
		TTL:      ttl,
		now:      time.Now,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *SessionService) ServiceReady() bool {
	return s.Tokens != nil && s.Sessions != nil
}

// Login validates the bearer token and stores a new session for its subject.
func (s *SessionService) Login(ctx context.Context, bearerToken string) (*models.Session, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}
	if bearerToken == "" {
		return nil, domain.NewUnauthorizedError("bearer token is required")
	}

	identity, err := s.Tokens.ValidateBearer(ctx, bearerToken)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.TTL)
	if !identity.ExpiresAt.IsZero() && identity.ExpiresAt.Before(expiresAt) {
		expiresAt = identity.ExpiresAt
	}
	session := &models.Session{
		ID:        uuid.New().String(),
		UserID:    identity.UserID,
		Email:     identity.Email,
		Role:      identity.Role,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}

	if err := s.Sessions.PutSession(ctx, session); err != nil {
		slog.ErrorContext(ctx, "error storing session", logging.ErrKey, err)
		return nil, err
	}

	slog.InfoContext(ctx, "session opened", "session_id", session.ID, "user_id", session.UserID, "role", session.Role)
	return session, nil
}

// Resolve returns the active session with the given ID. Unknown and expired
// sessions are unauthorized; expired ones are removed.
func (s *SessionService) Resolve(ctx context.Context, sessionID string) (*models.Session, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}
	if sessionID == "" {
		return nil, domain.NewUnauthorizedError("session is required")
	}

	session, err := s.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	if session.Expired(s.now()) {
		if err := s.Sessions.DeleteSession(ctx, sessionID); err != nil {
			slog.WarnContext(ctx, "error removing expired session", "session_id", sessionID, logging.ErrKey, err)
		}
		return nil, domain.ErrSessionNotFound
	}

	return session, nil
}

// Logout tears down the session. Logging out of an unknown session is not an error.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return domain.ErrServiceUnavailable
	}

	err := s.Sessions.DeleteSession(ctx, sessionID)
	if err != nil && domain.GetErrorType(err) != domain.ErrorTypeNotFound {
		slog.ErrorContext(ctx, "error deleting session", "session_id", sessionID, logging.ErrKey, err)
		return err
	}

	slog.InfoContext(ctx, "session closed", "session_id", sessionID)
	return nil
}

// Authorize checks that the session holds one of the roles.
func Authorize(session *models.Session, roles ...models.Role) error {
	if session == nil {
		return domain.NewUnauthorizedError("authentication required")
	}
	if !session.HasRole(roles...) {
		return domain.ErrInsufficientRole
	}
	return nil
}
