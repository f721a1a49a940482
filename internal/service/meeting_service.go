// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/internal/logging"
)

// MeetingFilter narrows a scheduled meeting listing. Dates are inclusive YYYY-MM-DD bounds.
type MeetingFilter struct {
	WorkbodyUID string
	From        string
	To          string
	Search      string
}

// Matches reports whether the meeting passes the filter.
func (f MeetingFilter) Matches(m *models.ScheduledMeeting) bool {
	if m == nil {
		return false
	}
	if f.WorkbodyUID != "" && m.WorkbodyUID != f.WorkbodyUID {
		return false
	}
	// YYYY-MM-DD compares chronologically as a string
	if f.From != "" && m.Date < f.From {
		return false
	}
	if f.To != "" && m.Date > f.To {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		haystack := strings.ToLower(strings.Join(append([]string{m.WorkbodyName, m.Location}, m.AgendaItems...), "\n"))
		if !strings.Contains(haystack, q) {
			return false
		}
	}
	return true
}

// Validate checks the date bounds of the filter.
func (f MeetingFilter) Validate() error {
	for _, bound := range []string{f.From, f.To} {
		if bound == "" {
			continue
		}
		if _, ok := models.ParseMeetingDate(bound); !ok {
			return domain.NewValidationError(MsgDateInvalid)
		}
	}
	return nil
}

// MeetingService implements the scheduled meeting operations outside the
// scheduling form: listing, editing, deleting and downloading attachments.
type MeetingService struct {
	MeetingRepository domain.MeetingRepository
	ListCache         *MeetingListCache
	Validator         *MeetingValidator
	Workbodies        WorkbodyDirectory
	Events            domain.MeetingEventSender
	Config            ServiceConfig
}

// NewMeetingService creates a new MeetingService.
func NewMeetingService(
	meetingRepository domain.MeetingRepository,
	listCache *MeetingListCache,
	validator *MeetingValidator,
	workbodies WorkbodyDirectory,
	events domain.MeetingEventSender,
	config ServiceConfig,
) *MeetingService {
	return &MeetingService{
		MeetingRepository: meetingRepository,
		ListCache:         listCache,
		Validator:         validator,
		Workbodies:        workbodies,
		Events:            events,
		Config:            config,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *MeetingService) ServiceReady() bool {
	return s.MeetingRepository != nil &&
		s.ListCache != nil &&
		s.Validator != nil &&
		s.Workbodies != nil &&
		s.Events != nil
}

// ListMeetings returns the meetings matching the filter, ordered by date and time.
func (s *MeetingService) ListMeetings(ctx context.Context, filter MeetingFilter) ([]*models.ScheduledMeeting, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	all, err := s.ListCache.List(ctx)
	if err != nil {
		return nil, err
	}

	meetings := make([]*models.ScheduledMeeting, 0, len(all))
	for _, m := range all {
		if filter.Matches(m) {
			meetings = append(meetings, m)
		}
	}
	SortMeetings(meetings)

	slog.DebugContext(ctx, "returning meetings", "count", len(meetings))
	return meetings, nil
}

// SortMeetings orders meetings by date, then time, then UID.
func SortMeetings(meetings []*models.ScheduledMeeting) {
	sort.SliceStable(meetings, func(i, j int) bool {
		a, b := meetings[i], meetings[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.UID < b.UID
	})
}

// GetMeeting returns a single meeting.
func (s *MeetingService) GetMeeting(ctx context.Context, uid string) (*models.ScheduledMeeting, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}

	return s.MeetingRepository.Get(ctx, uid)
}

// ValidateCandidate runs the validator without persisting anything, for live form feedback.
func (s *MeetingService) ValidateCandidate(ctx context.Context, candidate *models.CandidateMeeting) (*models.ValidationResult, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}

	existing, err := s.ListCache.List(ctx)
	if err != nil {
		return nil, err
	}
	workbodies, err := s.Workbodies.KnownWorkbodies(ctx)
	if err != nil {
		return nil, err
	}

	result := s.Validator.Validate(candidate, existing, workbodies)
	return &result, nil
}

// UpdateMeeting applies a partial update after re-validating the edited
// meeting against every other meeting.
func (s *MeetingService) UpdateMeeting(ctx context.Context, uid string, patch *models.ScheduledMeetingPatch) (*models.ScheduledMeeting, *models.ValidationResult, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, nil, domain.ErrServiceUnavailable
	}
	if patch == nil {
		return nil, nil, domain.NewValidationError("Nothing to update.")
	}
	// the workbody name always comes from the directory
	accepted := *patch
	accepted.WorkbodyName = nil
	patch = &accepted
	if patch.IsEmpty() {
		return nil, nil, domain.NewValidationError("Nothing to update.")
	}
	if kinds := patch.ForeignFiles(); len(kinds) > 0 {
		return nil, nil, domain.NewValidationError(foreignFileMessage(kinds[0]))
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", uid))

	current, err := s.MeetingRepository.Get(ctx, uid)
	if err != nil {
		return nil, nil, err
	}

	edited := *current
	patch.Apply(&edited)

	existing, err := s.ListCache.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	workbodies, err := s.Workbodies.KnownWorkbodies(ctx)
	if err != nil {
		return nil, nil, err
	}

	result := s.Validator.Validate(models.CandidateFromMeeting(&edited), existing, workbodies)
	if !result.IsValid {
		slog.DebugContext(ctx, "meeting update rejected", "errors", result.Errors)
		return nil, &result, domain.NewValidationError(result.FirstError())
	}

	if patch.WorkbodyUID != nil {
		name := workbodies[edited.WorkbodyUID]
		patch.WorkbodyName = &name
	}

	updated, err := s.MeetingRepository.Update(ctx, uid, patch)
	if err != nil {
		slog.ErrorContext(ctx, "error updating meeting", logging.ErrKey, err)
		return nil, &result, err
	}
	s.ListCache.Invalidate()

	if err := s.Events.SendMeetingEvent(ctx, models.ActionUpdated, *updated); err != nil {
		slog.ErrorContext(ctx, "error publishing meeting updated event", logging.ErrKey, err)
	}

	return updated, &result, nil
}

// DeleteMeeting removes a meeting. Deleting an unknown meeting is a not found error.
func (s *MeetingService) DeleteMeeting(ctx context.Context, uid string) error {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return domain.ErrServiceUnavailable
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", uid))

	meeting, err := s.MeetingRepository.Get(ctx, uid)
	if err != nil {
		return err
	}

	if err := s.MeetingRepository.Delete(ctx, uid); err != nil {
		slog.ErrorContext(ctx, "error deleting meeting", logging.ErrKey, err)
		return err
	}
	s.ListCache.Invalidate()

	err = s.Events.SendMeetingDeleted(ctx, models.MeetingDeletedMessage{
		MeetingUID:  uid,
		WorkbodyUID: meeting.WorkbodyUID,
	})
	if err != nil {
		slog.ErrorContext(ctx, "error publishing meeting deleted event", logging.ErrKey, err)
	}

	slog.InfoContext(ctx, "meeting deleted")
	return nil
}

// DownloadAttachment returns a meeting document by kind.
func (s *MeetingService) DownloadAttachment(ctx context.Context, uid string, kind models.AttachmentKind) (*models.FileRef, []byte, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, nil, domain.ErrServiceUnavailable
	}

	meeting, err := s.MeetingRepository.Get(ctx, uid)
	if err != nil {
		return nil, nil, err
	}

	var ref *models.FileRef
	switch kind {
	case models.AttachmentKindNotification:
		ref = meeting.NotificationFile
	case models.AttachmentKindAgenda:
		ref = meeting.AgendaFile
	default:
		return nil, nil, domain.NewValidationError("attachment kind must be notification or agenda")
	}
	if ref == nil || ref.Path == "" {
		return nil, nil, domain.NewNotFoundError("meeting has no " + string(kind) + " file")
	}
	if !kind.Owns(ref.Path) {
		slog.WarnContext(ctx, "meeting references a file outside its kind", "meeting_uid", uid, "kind", kind, "path", ref.Path)
		return nil, nil, domain.NewNotFoundError("meeting has no " + string(kind) + " file")
	}

	return s.MeetingRepository.OpenAttachment(ctx, ref.Path)
}
