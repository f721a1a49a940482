// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

// NATS subjects that the pulse service sends messages about.
const (
	// MeetingScheduledSubject is published after a meeting has been scheduled.
	// The subject is of the form: pulse.meeting.scheduled
	MeetingScheduledSubject = "pulse.meeting.scheduled"

	// MeetingUpdatedSubject is published after a scheduled meeting has been edited.
	// The subject is of the form: pulse.meeting.updated
	MeetingUpdatedSubject = "pulse.meeting.updated"

	// MeetingDeletedSubject is published after a scheduled meeting has been deleted.
	// The subject is of the form: pulse.meeting.deleted
	MeetingDeletedSubject = "pulse.meeting.deleted"

	// MinutesRecordedSubject is published after meeting minutes have been recorded.
	// The subject is of the form: pulse.minutes.recorded
	MinutesRecordedSubject = "pulse.minutes.recorded"
)

// NATS wildcard subjects that the pulse service handles messages about.
const (
	// PulseAPIQueue is the queue group for the pulse API subscribers.
	// The subject is of the form: pulse.api.queue
	PulseAPIQueue = "pulse.api.queue"
)

// NATS specific subjects that the pulse service handles messages about.
const (
	// MeetingsListSubject replies with the scheduled meetings as JSON.
	// The subject is of the form: pulse.meetings.list
	MeetingsListSubject = "pulse.meetings.list"

	// MeetingsValidateSubject replies with the validation result for a candidate meeting.
	// The subject is of the form: pulse.meetings.validate
	MeetingsValidateSubject = "pulse.meetings.validate"
)

// MessageAction is a type for the action of a meeting message.
type MessageAction string

// MessageAction constants for the action of a meeting message.
const (
	// ActionCreated is the action for a resource creation message.
	ActionCreated MessageAction = "created"
	// ActionUpdated is the action for a resource update message.
	ActionUpdated MessageAction = "updated"
	// ActionDeleted is the action for a resource deletion message.
	ActionDeleted MessageAction = "deleted"
)

// PulseEventMessage is the NATS message schema for resource lifecycle events.
type PulseEventMessage struct {
	Action  MessageAction     `json:"action"`
	Headers map[string]string `json:"headers"`
	Data    any               `json:"data"`
	// Tags is a list of tags that subscribers can use to route or filter events.
	Tags []string `json:"tags"`
}

// MeetingDeletedMessage is the payload sent when a scheduled meeting is deleted.
type MeetingDeletedMessage struct {
	MeetingUID  string `json:"meeting_uid"`
	WorkbodyUID string `json:"workbody_uid"`
}
