// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
)

// Message represents a domain message interface
type Message interface {
	Subject() string
	Data() []byte
	Respond(data []byte) error
	HasReply() bool
}

// MessageHandler defines how the service handles incoming messages
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg Message)
	HandlerReady() bool
}

// MeetingEventSender publishes scheduled meeting lifecycle events.
type MeetingEventSender interface {
	SendMeetingEvent(ctx context.Context, action models.MessageAction, data models.ScheduledMeeting) error
	SendMeetingDeleted(ctx context.Context, data models.MeetingDeletedMessage) error
}

// MinutesEventSender publishes meeting minutes events.
type MinutesEventSender interface {
	SendMinutesRecorded(ctx context.Context, data models.MeetingMinutes) error
}

// EventSender is the union of all event senders used by the services.
type EventSender interface {
	MeetingEventSender
	MinutesEventSender
}
