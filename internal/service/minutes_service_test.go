// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/mocks"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
)

type recordingActions struct {
	mu     sync.Mutex
	totals map[string][2]int
}

func (r *recordingActions) RecordActions(_ context.Context, workbodyUID string, agreed, completed int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.totals == nil {
		r.totals = map[string][2]int{}
	}
	t := r.totals[workbodyUID]
	r.totals[workbodyUID] = [2]int{t[0] + agreed, t[1] + completed}
	return nil
}

func setupMinutesService() (*MinutesService, *mocks.MockMinutesRepository, *mocks.MockMeetingRepository, *mocks.MockEventSender, *recordingActions) {
	repo := &mocks.MockMinutesRepository{}
	files := &mocks.MockMeetingRepository{}
	events := &mocks.MockEventSender{}
	actions := &recordingActions{}
	svc := NewMinutesService(repo, files, staticDirectory(testWorkbodies), actions, events)
	svc.now = fixedClock
	return svc, repo, files, events, actions
}

func TestMinutesService_RecordMinutes(t *testing.T) {
	ctx := context.Background()
	svc, repo, files, events, actions := setupMinutesService()

	doc := &models.AttachmentUpload{FileName: "minutes.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}
	ref := &models.FileRef{Name: "minutes.pdf", Path: "meeting-minutes/xyz/minutes.pdf"}
	files.On("UploadAttachment", mock.Anything, doc, models.AttachmentKindMinutes).Return(ref, nil).Once()
	repo.On("CreateMinutes", mock.Anything, mock.MatchedBy(func(m *models.MeetingMinutes) bool {
		return m.UID != "" && m.File == ref && len(m.ActionItems) == 2 &&
			m.ActionItems[0].Status == models.ActionItemStatusPending &&
			m.ActionItems[0].UID != ""
	})).Return(nil).Once()
	events.On("SendMinutesRecorded", mock.Anything, mock.Anything).Return(nil).Once()

	minutes, err := svc.RecordMinutes(ctx, &models.MeetingMinutes{
		WorkbodyUID: educationUID,
		Date:        "2025-04-20",
		ActionItems: []models.ActionItem{
			{Description: " Draft syllabus "},
			{Description: "Circulate notes", Status: models.ActionItemStatusCompleted},
		},
	}, doc, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Draft syllabus", minutes.ActionItems[0].Description)
	assert.Equal(t, "user-1", minutes.CreatedBy)
	assert.Equal(t, [2]int{2, 1}, actions.totals[educationUID])
	require.NotNil(t, minutes.File)
	assert.Equal(t, "/minutes/"+minutes.UID+"/document", minutes.File.URL)

	repo.AssertExpectations(t)
	files.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestMinutesService_RecordMinutesValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     *models.MeetingMinutes
		wantMsg string
	}{
		{"nil", nil, "minutes payload is required"},
		{"no workbody", &models.MeetingMinutes{Date: "2025-04-20"}, MsgWorkbodyRequired},
		{"unknown workbody", &models.MeetingMinutes{WorkbodyUID: "ghost", Date: "2025-04-20"}, MsgWorkbodyUnknown},
		{"no date", &models.MeetingMinutes{WorkbodyUID: educationUID}, MsgDateRequired},
		{"bad date", &models.MeetingMinutes{WorkbodyUID: educationUID, Date: "20-04-2025"}, MsgDateInvalid},
		{"blank action", &models.MeetingMinutes{WorkbodyUID: educationUID, Date: "2025-04-20", ActionItems: []models.ActionItem{{Description: " "}}}, "Every action item needs a description."},
		{"bad status", &models.MeetingMinutes{WorkbodyUID: educationUID, Date: "2025-04-20", ActionItems: []models.ActionItem{{Description: "x", Status: "done"}}}, "Action item status must be pending, in_progress or completed."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _, _, _ := setupMinutesService()

			_, err := svc.RecordMinutes(context.Background(), tt.req, nil, "user-1")
			require.Error(t, err)
			assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
			assert.Equal(t, tt.wantMsg, domain.GetErrorMessage(err))
			repo.AssertNotCalled(t, "CreateMinutes", mock.Anything, mock.Anything)
		})
	}
}

func TestMinutesService_UploadFailureStoresNothing(t *testing.T) {
	svc, repo, files, _, actions := setupMinutesService()
	files.On("UploadAttachment", mock.Anything, mock.Anything, models.AttachmentKindMinutes).
		Return(nil, domain.NewUploadError("file type not allowed")).Once()

	_, err := svc.RecordMinutes(context.Background(), &models.MeetingMinutes{WorkbodyUID: educationUID, Date: "2025-04-20"},
		&models.AttachmentUpload{FileName: "x.exe", ContentType: "application/octet-stream", Data: []byte{1}}, "user-1")
	assert.Equal(t, domain.ErrorTypeUpload, domain.GetErrorType(err))
	repo.AssertNotCalled(t, "CreateMinutes", mock.Anything, mock.Anything)
	assert.Empty(t, actions.totals)
}

func TestMinutesService_ListMinutesMostRecentFirst(t *testing.T) {
	svc, repo, _, _, _ := setupMinutesService()
	repo.On("ListMinutes", mock.Anything, educationUID).Return([]*models.MeetingMinutes{
		{UID: "a", Date: "2025-01-10"},
		{UID: "b", Date: "2025-03-02"},
		{UID: "c", Date: "2024-12-31"},
	}, nil).Once()

	minutes, err := svc.ListMinutes(context.Background(), educationUID)
	require.NoError(t, err)
	require.Len(t, minutes, 3)
	assert.Equal(t, "b", minutes[0].UID)
	assert.Equal(t, "c", minutes[2].UID)
}

func TestMinutesService_DownloadMinutesDocument(t *testing.T) {
	svc, repo, files, _, _ := setupMinutesService()
	ref := &models.FileRef{Name: "minutes.pdf", Path: "meeting-minutes/xyz/minutes.pdf"}
	repo.On("GetMinutes", mock.Anything, "with-file").Return(&models.MeetingMinutes{UID: "with-file", File: ref}, nil)
	repo.On("GetMinutes", mock.Anything, "without-file").Return(&models.MeetingMinutes{UID: "without-file"}, nil)
	repo.On("GetMinutes", mock.Anything, "ghost").Return(nil, errors.New("boom"))
	files.On("OpenAttachment", mock.Anything, ref.Path).Return(ref, []byte("%PDF"), nil).Once()

	gotRef, data, err := svc.DownloadMinutesDocument(context.Background(), "with-file")
	require.NoError(t, err)
	assert.Equal(t, ref, gotRef)
	assert.Equal(t, []byte("%PDF"), data)

	_, _, err = svc.DownloadMinutesDocument(context.Background(), "without-file")
	assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))

	_, _, err = svc.DownloadMinutesDocument(context.Background(), "ghost")
	assert.Error(t, err)
}
