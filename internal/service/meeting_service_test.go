// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/mocks"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
)

func setupMeetingService(existing ...*models.ScheduledMeeting) (*MeetingService, *mocks.MockMeetingRepository, *mocks.MockEventSender) {
	repo := &mocks.MockMeetingRepository{}
	events := &mocks.MockEventSender{}
	repo.On("List", mock.Anything).Return(existing, nil).Maybe()

	svc := NewMeetingService(
		repo,
		NewMeetingListCache(repo, time.Minute),
		NewMeetingValidator(0, fixedClock),
		staticDirectory(testWorkbodies),
		events,
		ServiceConfig{},
	)
	return svc, repo, events
}

func TestMeetingService_ServiceReady(t *testing.T) {
	svc, _, _ := setupMeetingService()
	assert.True(t, svc.ServiceReady())

	svc.Events = nil
	assert.False(t, svc.ServiceReady())

	_, err := svc.ListMeetings(context.Background(), MeetingFilter{})
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}

func TestMeetingService_ListMeetings(t *testing.T) {
	existing := []*models.ScheduledMeeting{
		{UID: "m-3", WorkbodyUID: educationUID, WorkbodyName: "Education Committee", Date: "2025-06-01", Time: "09:00", Location: "PEC HQ", AgendaItems: []string{"Budget"}},
		{UID: "m-1", WorkbodyUID: educationUID, WorkbodyName: "Education Committee", Date: "2025-05-10", Time: "14:00", Location: "Board Room", AgendaItems: []string{"Curriculum review"}},
		{UID: "m-2", WorkbodyUID: registrationUID, WorkbodyName: "Registration Committee", Date: "2025-05-10", Time: "09:30", Location: "PEC HQ", AgendaItems: []string{"Renewals"}},
	}

	tests := []struct {
		name    string
		filter  MeetingFilter
		wantIDs []string
		invalid bool
	}{
		{name: "all ordered by date and time", wantIDs: []string{"m-2", "m-1", "m-3"}},
		{name: "by workbody", filter: MeetingFilter{WorkbodyUID: educationUID}, wantIDs: []string{"m-1", "m-3"}},
		{name: "date range inclusive", filter: MeetingFilter{From: "2025-05-10", To: "2025-05-10"}, wantIDs: []string{"m-2", "m-1"}},
		{name: "search agenda", filter: MeetingFilter{Search: "CURRICULUM"}, wantIDs: []string{"m-1"}},
		{name: "search location", filter: MeetingFilter{Search: "pec hq"}, wantIDs: []string{"m-2", "m-3"}},
		{name: "invalid bound", filter: MeetingFilter{From: "10/05/2025"}, invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := setupMeetingService(existing...)

			meetings, err := svc.ListMeetings(context.Background(), tt.filter)
			if tt.invalid {
				require.Error(t, err)
				assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
				return
			}
			require.NoError(t, err)

			ids := make([]string, 0, len(meetings))
			for _, m := range meetings {
				ids = append(ids, m.UID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestMeetingService_UpdateMeeting(t *testing.T) {
	ctx := context.Background()
	current := &models.ScheduledMeeting{UID: "m-1", WorkbodyUID: educationUID, Date: "2025-05-10", Time: "10:00", Location: "PEC HQ", AgendaItems: []string{"A"}}
	other := &models.ScheduledMeeting{UID: "m-2", WorkbodyUID: educationUID, Date: "2025-05-10", Time: "14:00", Location: "PEC HQ", AgendaItems: []string{"B"}}

	t.Run("keeping its own slot is not a conflict", func(t *testing.T) {
		svc, repo, events := setupMeetingService(current, other)
		location := "Board Room"
		patch := &models.ScheduledMeetingPatch{Location: &location}
		updated := *current
		updated.Location = location

		repo.On("Get", mock.Anything, "m-1").Return(current, nil).Once()
		repo.On("Update", mock.Anything, "m-1", patch).Return(&updated, nil).Once()
		events.On("SendMeetingEvent", mock.Anything, models.ActionUpdated, updated).Return(nil).Once()

		got, result, err := svc.UpdateMeeting(ctx, "m-1", patch)
		require.NoError(t, err)
		assert.True(t, result.IsValid)
		assert.Equal(t, "Board Room", got.Location)
		repo.AssertExpectations(t)
		events.AssertExpectations(t)
	})

	t.Run("moving onto another meeting of the workbody is rejected", func(t *testing.T) {
		svc, repo, events := setupMeetingService(current, other)
		clock := "14:00"
		patch := &models.ScheduledMeetingPatch{Time: &clock}

		repo.On("Get", mock.Anything, "m-1").Return(current, nil).Once()

		_, result, err := svc.UpdateMeeting(ctx, "m-1", patch)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
		assert.Equal(t, []string{MsgWorkbodyDoubleBooked}, result.Errors)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		events.AssertNotCalled(t, "SendMeetingEvent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("changing workbody resolves its name", func(t *testing.T) {
		svc, repo, events := setupMeetingService(current, other)
		workbody := registrationUID
		patch := &models.ScheduledMeetingPatch{WorkbodyUID: &workbody}

		repo.On("Get", mock.Anything, "m-1").Return(current, nil).Once()
		repo.On("Update", mock.Anything, "m-1", mock.MatchedBy(func(p *models.ScheduledMeetingPatch) bool {
			return p.WorkbodyName != nil && *p.WorkbodyName == "Registration Committee"
		})).Return(&models.ScheduledMeeting{UID: "m-1", WorkbodyUID: registrationUID}, nil).Once()
		events.On("SendMeetingEvent", mock.Anything, models.ActionUpdated, mock.Anything).Return(nil).Once()

		_, _, err := svc.UpdateMeeting(ctx, "m-1", patch)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("client workbody name is ignored", func(t *testing.T) {
		svc, repo, events := setupMeetingService(current, other)
		location := "Board Room"
		spoofed := "Somebody Else"
		patch := &models.ScheduledMeetingPatch{Location: &location, WorkbodyName: &spoofed}

		repo.On("Get", mock.Anything, "m-1").Return(current, nil).Once()
		repo.On("Update", mock.Anything, "m-1", mock.MatchedBy(func(p *models.ScheduledMeetingPatch) bool {
			return p.WorkbodyName == nil && p.Location != nil && *p.Location == location
		})).Return(&models.ScheduledMeeting{UID: "m-1", Location: location}, nil).Once()
		events.On("SendMeetingEvent", mock.Anything, models.ActionUpdated, mock.Anything).Return(nil).Once()

		_, _, err := svc.UpdateMeeting(ctx, "m-1", patch)
		require.NoError(t, err)
		assert.Equal(t, "Somebody Else", *patch.WorkbodyName, "caller's patch is left alone")
		repo.AssertExpectations(t)
	})

	t.Run("workbody name alone is nothing to update", func(t *testing.T) {
		svc, repo, _ := setupMeetingService()
		spoofed := "Somebody Else"

		_, _, err := svc.UpdateMeeting(ctx, "m-1", &models.ScheduledMeetingPatch{WorkbodyName: &spoofed})
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
		repo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("file reference outside its kind is rejected", func(t *testing.T) {
		svc, repo, _ := setupMeetingService(current, other)
		patch := &models.ScheduledMeetingPatch{
			AgendaFile: &models.FileRef{Name: "minutes.pdf", Path: "meeting-minutes/other/minutes.pdf"},
		}

		_, _, err := svc.UpdateMeeting(ctx, "m-1", patch)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
		assert.Equal(t, "The agenda file reference is not valid.", domain.GetErrorMessage(err))
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty patch", func(t *testing.T) {
		svc, _, _ := setupMeetingService()
		_, _, err := svc.UpdateMeeting(ctx, "m-1", &models.ScheduledMeetingPatch{})
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
	})

	t.Run("unknown meeting", func(t *testing.T) {
		svc, repo, _ := setupMeetingService()
		location := "X"
		repo.On("Get", mock.Anything, "missing").Return(nil, domain.NewNotFoundError("meeting not found")).Once()

		_, _, err := svc.UpdateMeeting(ctx, "missing", &models.ScheduledMeetingPatch{Location: &location})
		assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))
	})
}

func TestMeetingService_DeleteMeeting(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes and publishes", func(t *testing.T) {
		svc, repo, events := setupMeetingService()
		repo.On("Get", mock.Anything, "m-1").Return(&models.ScheduledMeeting{UID: "m-1", WorkbodyUID: educationUID}, nil).Once()
		repo.On("Delete", mock.Anything, "m-1").Return(nil).Once()
		events.On("SendMeetingDeleted", mock.Anything, models.MeetingDeletedMessage{MeetingUID: "m-1", WorkbodyUID: educationUID}).Return(nil).Once()

		require.NoError(t, svc.DeleteMeeting(ctx, "m-1"))
		repo.AssertExpectations(t)
		events.AssertExpectations(t)
	})

	t.Run("unknown meeting is not found", func(t *testing.T) {
		svc, repo, events := setupMeetingService()
		repo.On("Get", mock.Anything, "ghost").Return(nil, domain.NewNotFoundError("meeting not found")).Once()

		err := svc.DeleteMeeting(ctx, "ghost")
		assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		events.AssertNotCalled(t, "SendMeetingDeleted", mock.Anything, mock.Anything)
	})
}

func TestMeetingService_DownloadAttachment(t *testing.T) {
	ctx := context.Background()
	meeting := &models.ScheduledMeeting{
		UID:        "m-1",
		AgendaFile: &models.FileRef{Name: "agenda.pdf", Path: "meeting-agendas/abc/agenda.pdf"},
	}

	svc, repo, _ := setupMeetingService()
	repo.On("Get", mock.Anything, "m-1").Return(meeting, nil)
	repo.On("OpenAttachment", mock.Anything, "meeting-agendas/abc/agenda.pdf").
		Return(meeting.AgendaFile, []byte("%PDF"), nil).Once()

	ref, data, err := svc.DownloadAttachment(ctx, "m-1", models.AttachmentKindAgenda)
	require.NoError(t, err)
	assert.Equal(t, "agenda.pdf", ref.Name)
	assert.Equal(t, []byte("%PDF"), data)

	_, _, err = svc.DownloadAttachment(ctx, "m-1", models.AttachmentKindNotification)
	assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))

	_, _, err = svc.DownloadAttachment(ctx, "m-1", models.AttachmentKindMinutes)
	assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
}

func TestMeetingService_DownloadAttachmentOutsideKind(t *testing.T) {
	ctx := context.Background()
	meeting := &models.ScheduledMeeting{
		UID:              "m-1",
		NotificationFile: &models.FileRef{Name: "minutes.pdf", Path: "meeting-minutes/other/minutes.pdf"},
		AgendaFile:       &models.FileRef{Name: "agenda.pdf", Path: "meeting-agendas/../meeting-minutes/other/minutes.pdf"},
	}

	svc, repo, _ := setupMeetingService()
	repo.On("Get", mock.Anything, "m-1").Return(meeting, nil)

	for _, kind := range []models.AttachmentKind{models.AttachmentKindNotification, models.AttachmentKindAgenda} {
		_, _, err := svc.DownloadAttachment(ctx, "m-1", kind)
		assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err), kind)
	}
	repo.AssertNotCalled(t, "OpenAttachment", mock.Anything, mock.Anything)
}
