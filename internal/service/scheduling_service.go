// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/internal/logging"
	"github.com/araza-32/pec-pulse-sub000/pkg/constants"
)

// SchedulingService owns one SchedulingController per session, so that a
// user's scheduling form behaves like a single dialog across requests.
type SchedulingService struct {
	deps SchedulingDeps

	mu          sync.Mutex
	controllers map[string]*sessionController
	now         func() time.Time
}

type sessionController struct {
	ctrl      *SchedulingController
	expiresAt time.Time
}

// NewSchedulingService creates a SchedulingService. When deps.Attempts is nil
// the attempts counter is registered on the global meter provider.
func NewSchedulingService(deps SchedulingDeps) *SchedulingService {
	if deps.Attempts == nil {
		counter, err := otel.Meter(constants.ServiceName).Int64Counter(
			"pulse.scheduling.attempts",
			metric.WithDescription("Scheduling attempts by outcome"),
			metric.WithUnit("{attempt}"),
		)
		if err != nil {
			slog.Warn("error creating scheduling attempts counter", logging.ErrKey, err)
			counter = noop.Int64Counter{}
		}
		deps.Attempts = counter
	}

	return &SchedulingService{
		deps:        deps,
		controllers: make(map[string]*sessionController),
		now:         time.Now,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *SchedulingService) ServiceReady() bool {
	return s.deps.Validator != nil &&
		s.deps.Meetings != nil &&
		s.deps.ListCache != nil &&
		s.deps.Workbodies != nil
}

// Controller returns the controller of a session, creating it on first use.
// Controllers of sessions past their expiry are dropped on the way.
func (s *SchedulingService) Controller(session *models.Session) *SchedulingController {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(s.now())

	entry, ok := s.controllers[session.ID]
	if !ok {
		entry = &sessionController{ctrl: NewSchedulingController(s.deps)}
		s.controllers[session.ID] = entry
	}
	entry.expiresAt = session.ExpiresAt
	return entry.ctrl
}

// Sweep cancels and drops the controllers of sessions expired at now. It
// returns how many were dropped.
func (s *SchedulingService) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now)
}

func (s *SchedulingService) sweepLocked(now time.Time) int {
	dropped := 0
	for id, entry := range s.controllers {
		if entry.expiresAt.IsZero() || now.Before(entry.expiresAt) {
			continue
		}
		delete(s.controllers, id)
		entry.ctrl.Cancel()
		dropped++
	}
	if dropped > 0 {
		slog.Debug("dropped expired scheduling sessions", "count", dropped)
	}
	return dropped
}

// Schedule loads a complete candidate into the session's form and submits it.
func (s *SchedulingService) Schedule(
	ctx context.Context,
	session *models.Session,
	candidate *models.CandidateMeeting,
	notification, agenda *models.AttachmentUpload,
) (*models.ScheduledMeeting, *SchedulingSnapshot, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, nil, domain.ErrServiceUnavailable
	}
	if session == nil {
		return nil, nil, domain.ErrSessionNotFound
	}

	ctrl := s.Controller(session)
	meeting, err := ctrl.SubmitCandidate(ctx, session.UserID, candidate, notification, agenda)
	snapshot := ctrl.Snapshot()
	return meeting, &snapshot, err
}

// Status returns the scheduling state of a session, if it has one.
func (s *SchedulingService) Status(sessionID string) (SchedulingSnapshot, bool) {
	s.mu.Lock()
	entry, ok := s.controllers[sessionID]
	s.mu.Unlock()

	if !ok {
		return SchedulingSnapshot{}, false
	}
	return entry.ctrl.Snapshot(), true
}

// Cancel aborts the session's attempt in flight. It reports whether one was running.
func (s *SchedulingService) Cancel(sessionID string) bool {
	s.mu.Lock()
	entry, ok := s.controllers[sessionID]
	s.mu.Unlock()

	return ok && entry.ctrl.Cancel()
}

// Forget cancels and drops the controller of a session, e.g. at logout.
func (s *SchedulingService) Forget(sessionID string) {
	s.mu.Lock()
	entry, ok := s.controllers[sessionID]
	delete(s.controllers, sessionID)
	s.mu.Unlock()

	if ok {
		entry.ctrl.Cancel()
	}
}
