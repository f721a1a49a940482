// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
)

// MockMeetingRepository implements MeetingRepository for testing
type MockMeetingRepository struct {
	mock.Mock
}

func (m *MockMeetingRepository) List(ctx context.Context) ([]*models.ScheduledMeeting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScheduledMeeting), args.Error(1)
}

func (m *MockMeetingRepository) Get(ctx context.Context, meetingUID string) (*models.ScheduledMeeting, error) {
	args := m.Called(ctx, meetingUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScheduledMeeting), args.Error(1)
}

func (m *MockMeetingRepository) Create(ctx context.Context, meeting *models.ScheduledMeeting) (*models.ScheduledMeeting, error) {
	args := m.Called(ctx, meeting)
	if fn, ok := args.Get(0).(func(context.Context, *models.ScheduledMeeting) *models.ScheduledMeeting); ok {
		return fn(ctx, meeting), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScheduledMeeting), args.Error(1)
}

func (m *MockMeetingRepository) Update(ctx context.Context, meetingUID string, patch *models.ScheduledMeetingPatch) (*models.ScheduledMeeting, error) {
	args := m.Called(ctx, meetingUID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScheduledMeeting), args.Error(1)
}

func (m *MockMeetingRepository) Delete(ctx context.Context, meetingUID string) error {
	args := m.Called(ctx, meetingUID)
	return args.Error(0)
}

func (m *MockMeetingRepository) UploadAttachment(ctx context.Context, upload *models.AttachmentUpload, kind models.AttachmentKind) (*models.FileRef, error) {
	args := m.Called(ctx, upload, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FileRef), args.Error(1)
}

func (m *MockMeetingRepository) OpenAttachment(ctx context.Context, path string) (*models.FileRef, []byte, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.FileRef), args.Get(1).([]byte), args.Error(2)
}
