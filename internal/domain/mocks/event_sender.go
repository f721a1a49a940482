// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
)

// MockEventSender implements EventSender for testing
type MockEventSender struct {
	mock.Mock
}

func (m *MockEventSender) SendMeetingEvent(ctx context.Context, action models.MessageAction, data models.ScheduledMeeting) error {
	args := m.Called(ctx, action, data)
	return args.Error(0)
}

func (m *MockEventSender) SendMeetingDeleted(ctx context.Context, data models.MeetingDeletedMessage) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *MockEventSender) SendMinutesRecorded(ctx context.Context, data models.MeetingMinutes) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}
