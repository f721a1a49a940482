// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/internal/logging"
)

// MinutesService records the minutes of meetings that have taken place.
type MinutesService struct {
	MinutesRepository domain.MinutesRepository
	Attachments       domain.AttachmentStore
	Workbodies        WorkbodyDirectory
	Counters          ActionCounter
	Events            domain.MinutesEventSender
	now               func() time.Time
}

// NewMinutesService creates a new MinutesService.
func NewMinutesService(
	minutesRepository domain.MinutesRepository,
	attachments domain.AttachmentStore,
	workbodies WorkbodyDirectory,
	counters ActionCounter,
	events domain.MinutesEventSender,
) *MinutesService {
	return &MinutesService{
		MinutesRepository: minutesRepository,
		Attachments:       attachments,
		Workbodies:        workbodies,
		Counters:          counters,
		Events:            events,
		now:               time.Now,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *MinutesService) ServiceReady() bool {
	return s.MinutesRepository != nil &&
		s.Attachments != nil &&
		s.Workbodies != nil &&
		s.Counters != nil &&
		s.Events != nil
}

func (s *MinutesService) validate(ctx context.Context, req *models.MeetingMinutes) error {
	if req == nil {
		return domain.NewValidationError("minutes payload is required")
	}

	workbodies, err := s.Workbodies.KnownWorkbodies(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.WorkbodyUID) == "" {
		return domain.NewValidationError(MsgWorkbodyRequired)
	}
	if _, ok := workbodies[req.WorkbodyUID]; !ok {
		return domain.NewValidationError(MsgWorkbodyUnknown)
	}
	if strings.TrimSpace(req.Date) == "" {
		return domain.NewValidationError(MsgDateRequired)
	}
	if _, ok := models.ParseMeetingDate(req.Date); !ok {
		return domain.NewValidationError(MsgDateInvalid)
	}
	for _, item := range req.ActionItems {
		if strings.TrimSpace(item.Description) == "" {
			return domain.NewValidationError("Every action item needs a description.")
		}
		switch item.Status {
		case "", models.ActionItemStatusPending, models.ActionItemStatusInProgress, models.ActionItemStatusCompleted:
		default:
			return domain.NewValidationError("Action item status must be pending, in_progress or completed.")
		}
	}
	return nil
}

// RecordMinutes stores the minutes with an optional minutes document and
// adds the agreed and completed actions to the workbody counters.
func (s *MinutesService) RecordMinutes(ctx context.Context, req *models.MeetingMinutes, document *models.AttachmentUpload, createdBy string) (*models.MeetingMinutes, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	minutes := &models.MeetingMinutes{
		UID:         uuid.New().String(),
		WorkbodyUID: req.WorkbodyUID,
		MeetingUID:  req.MeetingUID,
		Date:        strings.TrimSpace(req.Date),
		Location:    strings.TrimSpace(req.Location),
		Attendees:   req.Attendees,
		Decisions:   req.Decisions,
		CreatedBy:   createdBy,
		CreatedAt:   &now,
	}
	for _, item := range req.ActionItems {
		item.UID = uuid.New().String()
		item.Description = strings.TrimSpace(item.Description)
		if item.Status == "" {
			item.Status = models.ActionItemStatusPending
		}
		minutes.ActionItems = append(minutes.ActionItems, item)
	}

	ctx = logging.AppendCtx(ctx, slog.String("minutes_uid", minutes.UID))

	if document != nil {
		ref, err := s.Attachments.UploadAttachment(ctx, document, models.AttachmentKindMinutes)
		if err != nil {
			slog.ErrorContext(ctx, "error uploading minutes document", logging.ErrKey, err)
			return nil, err
		}
		ref.URL = models.MinutesDocumentURL(minutes.UID)
		minutes.File = ref
	}

	if err := s.MinutesRepository.CreateMinutes(ctx, minutes); err != nil {
		slog.ErrorContext(ctx, "error storing minutes", logging.ErrKey, err)
		return nil, err
	}

	agreed, completed := minutes.ActionCounts()
	if err := s.Counters.RecordActions(ctx, minutes.WorkbodyUID, agreed, completed); err != nil {
		slog.ErrorContext(ctx, "error updating workbody action counters", "workbody_uid", minutes.WorkbodyUID, logging.ErrKey, err)
	}

	if err := s.Events.SendMinutesRecorded(ctx, *minutes); err != nil {
		slog.ErrorContext(ctx, "error publishing minutes recorded event", logging.ErrKey, err)
	}

	slog.InfoContext(ctx, "minutes recorded", "workbody_uid", minutes.WorkbodyUID, "actions", agreed)
	return minutes, nil
}

// ListMinutes returns the minutes of a workbody, most recent first.
func (s *MinutesService) ListMinutes(ctx context.Context, workbodyUID string) ([]*models.MeetingMinutes, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}

	minutes, err := s.MinutesRepository.ListMinutes(ctx, workbodyUID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(minutes, func(i, j int) bool {
		return minutes[i].Date > minutes[j].Date
	})
	return minutes, nil
}

// GetMinutes returns a single minutes record.
func (s *MinutesService) GetMinutes(ctx context.Context, uid string) (*models.MeetingMinutes, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}

	return s.MinutesRepository.GetMinutes(ctx, uid)
}

// DownloadMinutesDocument returns the uploaded minutes document.
func (s *MinutesService) DownloadMinutesDocument(ctx context.Context, uid string) (*models.FileRef, []byte, error) {
	minutes, err := s.GetMinutes(ctx, uid)
	if err != nil {
		return nil, nil, err
	}
	if minutes.File == nil || minutes.File.Path == "" {
		return nil, nil, domain.NewNotFoundError("minutes have no document")
	}
	return s.Attachments.OpenAttachment(ctx, minutes.File.Path)
}
