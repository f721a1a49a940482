// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/internal/logging"
)

// counterUpdateAttempts bounds the optimistic-concurrency retries on workbody counters.
const counterUpdateAttempts = 3

// WorkbodyFilter narrows a workbody listing.
type WorkbodyFilter struct {
	Type            models.WorkbodyType
	Search          string
	IncludeArchived bool
}

// WorkbodyService manages workbodies, their members and their counters.
type WorkbodyService struct {
	WorkbodyRepository domain.WorkbodyRepository
	MemberRepository   domain.MemberRepository
	Config             ServiceConfig
	now                func() time.Time
}

// NewWorkbodyService creates a new WorkbodyService.
func NewWorkbodyService(
	workbodyRepository domain.WorkbodyRepository,
	memberRepository domain.MemberRepository,
	config ServiceConfig,
) *WorkbodyService {
	return &WorkbodyService{
		WorkbodyRepository: workbodyRepository,
		MemberRepository:   memberRepository,
		Config:             config,
		now:                time.Now,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *WorkbodyService) ServiceReady() bool {
	return s.WorkbodyRepository != nil && s.MemberRepository != nil
}

// ListWorkbodies returns the workbodies matching the filter, sorted by name.
func (s *WorkbodyService) ListWorkbodies(ctx context.Context, filter WorkbodyFilter) ([]*models.Workbody, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}

	all, err := s.WorkbodyRepository.ListWorkbodies(ctx)
	if err != nil {
		return nil, err
	}

	workbodies := make([]*models.Workbody, 0, len(all))
	for _, w := range all {
		if w == nil {
			continue
		}
		if w.IsArchived() && !filter.IncludeArchived {
			continue
		}
		if filter.Type != "" && w.Type != filter.Type {
			continue
		}
		if !w.Matches(filter.Search) {
			continue
		}
		workbodies = append(workbodies, w)
	}

	sort.SliceStable(workbodies, func(i, j int) bool {
		return strings.ToLower(workbodies[i].Name) < strings.ToLower(workbodies[j].Name)
	})

	return workbodies, nil
}

// KnownWorkbodies maps every active workbody UID to its name. Archived
// workbodies cannot receive new meetings.
func (s *WorkbodyService) KnownWorkbodies(ctx context.Context) (map[string]string, error) {
	workbodies, err := s.ListWorkbodies(ctx, WorkbodyFilter{})
	if err != nil {
		return nil, err
	}

	known := make(map[string]string, len(workbodies))
	for _, w := range workbodies {
		known[w.UID] = w.Name
	}
	return known, nil
}

// GetWorkbody returns a single workbody.
func (s *WorkbodyService) GetWorkbody(ctx context.Context, uid string) (*models.Workbody, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}

	return s.WorkbodyRepository.GetWorkbody(ctx, uid)
}

func validateWorkbody(w *models.Workbody) error {
	if strings.TrimSpace(w.Name) == "" {
		return domain.NewValidationError("Workbody name is required.")
	}
	if !w.Type.IsValid() {
		return domain.NewValidationError("Workbody type must be committee, working_group or task_force.")
	}
	if w.EndDate != nil {
		if w.Type != models.WorkbodyTypeTaskForce {
			return domain.NewValidationError("Only task forces can have an end date.")
		}
		if _, ok := models.ParseMeetingDate(*w.EndDate); !ok {
			return domain.NewValidationError("End date must be a valid calendar date (YYYY-MM-DD).")
		}
	}
	return nil
}

// CreateWorkbody creates a new workbody with zeroed counters.
func (s *WorkbodyService) CreateWorkbody(ctx context.Context, req *models.Workbody) (*models.Workbody, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}
	if req == nil {
		return nil, domain.NewValidationError("workbody payload is required")
	}

	now := s.now().UTC()
	workbody := &models.Workbody{
		UID:              uuid.New().String(),
		Name:             strings.TrimSpace(req.Name),
		Type:             req.Type,
		Description:      req.Description,
		TermsOfReference: req.TermsOfReference,
		EndDate:          req.EndDate,
		CreatedAt:        &now,
		UpdatedAt:        &now,
	}
	if err := validateWorkbody(workbody); err != nil {
		return nil, err
	}

	if err := s.WorkbodyRepository.CreateWorkbody(ctx, workbody); err != nil {
		slog.ErrorContext(ctx, "error creating workbody", logging.ErrKey, err)
		return nil, err
	}

	slog.InfoContext(ctx, "created workbody", "workbody_uid", workbody.UID, "type", workbody.Type)
	return workbody, nil
}

// UpdateWorkbody applies a partial update to a workbody.
func (s *WorkbodyService) UpdateWorkbody(ctx context.Context, uid string, patch *models.WorkbodyPatch) (*models.Workbody, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}

	return s.mutate(ctx, uid, func(w *models.Workbody) error {
		patch.Apply(w)
		return validateWorkbody(w)
	})
}

// ArchiveWorkbody hides a workbody from default listings. Workbodies are never hard-deleted.
func (s *WorkbodyService) ArchiveWorkbody(ctx context.Context, uid string) (*models.Workbody, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}

	return s.mutate(ctx, uid, func(w *models.Workbody) error {
		if w.IsArchived() {
			return domain.NewConflictError("workbody is already archived")
		}
		now := s.now().UTC()
		w.ArchivedAt = &now
		return nil
	})
}

// RecordMeetingScheduled bumps the meeting counters of a workbody.
func (s *WorkbodyService) RecordMeetingScheduled(ctx context.Context, workbodyUID, date string) error {
	_, err := s.mutate(ctx, workbodyUID, func(w *models.Workbody) error {
		w.TotalMeetings++
		if d, ok := models.ParseMeetingDate(date); ok && d.Year() == s.now().Year() {
			w.MeetingsThisYear++
		}
		return nil
	})
	return err
}

// RecordActions adds agreed and completed action counts to a workbody.
func (s *WorkbodyService) RecordActions(ctx context.Context, workbodyUID string, agreed, completed int) error {
	if agreed == 0 && completed == 0 {
		return nil
	}
	_, err := s.mutate(ctx, workbodyUID, func(w *models.Workbody) error {
		w.ActionsAgreed += agreed
		w.ActionsCompleted += completed
		return nil
	})
	return err
}

// mutate reads the workbody with its revision, applies fn and writes it back,
// retrying when another writer got there first.
func (s *WorkbodyService) mutate(ctx context.Context, uid string, fn func(*models.Workbody) error) (*models.Workbody, error) {
	var lastErr error
	for attempt := 0; attempt < counterUpdateAttempts; attempt++ {
		workbody, revision, err := s.WorkbodyRepository.GetWorkbodyWithRevision(ctx, uid)
		if err != nil {
			return nil, err
		}

		if err := fn(workbody); err != nil {
			return nil, err
		}
		now := s.now().UTC()
		workbody.UpdatedAt = &now

		err = s.WorkbodyRepository.UpdateWorkbody(ctx, workbody, revision)
		if err == nil {
			return workbody, nil
		}
		if !errors.Is(err, domain.ErrRevisionMismatch) && domain.GetErrorType(err) != domain.ErrorTypeConflict {
			slog.ErrorContext(ctx, "error updating workbody", "workbody_uid", uid, logging.ErrKey, err)
			return nil, err
		}

		slog.WarnContext(ctx, "workbody modified concurrently, retrying", "workbody_uid", uid, "attempt", attempt+1)
		lastErr = err
	}

	return nil, lastErr
}

// AddMember adds a member to an existing workbody.
func (s *WorkbodyService) AddMember(ctx context.Context, workbodyUID string, req *models.WorkbodyMember) (*models.WorkbodyMember, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}
	if req == nil || strings.TrimSpace(req.Name) == "" {
		return nil, domain.NewValidationError("Member name is required.")
	}
	if strings.TrimSpace(req.Role) == "" {
		return nil, domain.NewValidationError("Member role is required.")
	}

	if _, err := s.WorkbodyRepository.GetWorkbody(ctx, workbodyUID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	member := &models.WorkbodyMember{
		UID:         uuid.New().String(),
		WorkbodyUID: workbodyUID,
		Name:        strings.TrimSpace(req.Name),
		Role:        strings.TrimSpace(req.Role),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		HasCV:       req.HasCV,
		CreatedAt:   &now,
	}

	if err := s.MemberRepository.CreateMember(ctx, member); err != nil {
		slog.ErrorContext(ctx, "error creating member", "workbody_uid", workbodyUID, logging.ErrKey, err)
		return nil, err
	}

	return member, nil
}

// ListMembers lists the members of a workbody, sorted by name.
func (s *WorkbodyService) ListMembers(ctx context.Context, workbodyUID string) ([]*models.WorkbodyMember, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}

	members, err := s.MemberRepository.ListMembers(ctx, workbodyUID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(members, func(i, j int) bool {
		return strings.ToLower(members[i].Name) < strings.ToLower(members[j].Name)
	})
	return members, nil
}

// RemoveMember removes a member from a workbody.
func (s *WorkbodyService) RemoveMember(ctx context.Context, workbodyUID, memberUID string) error {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return domain.ErrServiceUnavailable
	}

	return s.MemberRepository.DeleteMember(ctx, workbodyUID, memberUID)
}
