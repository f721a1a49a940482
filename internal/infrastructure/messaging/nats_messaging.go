// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-viper/mapstructure/v2"

	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/internal/logging"
	"github.com/araza-32/pec-pulse-sub000/pkg/constants"
)

// Event headers attached to every published event.
const (
	headerRequestID = "request_id"
	headerActor     = "actor"
	headerActorRole = "actor_role"
	// systemActor is used for events raised without an authenticated session.
	systemActor = "pulse-api"
)

// INatsConn is a NATS connection interface needed for the [MessageBuilder].
type INatsConn interface {
	IsConnected() bool
	Publish(subj string, data []byte) error
}

// MessageBuilder is the builder for the message and sends it to the NATS server.
type MessageBuilder struct {
	NatsConn INatsConn
}

// NewMessageBuilder creates a new MessageBuilder.
func NewMessageBuilder(natsConn INatsConn) *MessageBuilder {
	return &MessageBuilder{
		NatsConn: natsConn,
	}
}

// publish sends the message to the NATS server.
func (m *MessageBuilder) publish(ctx context.Context, subject string, data []byte) error {
	err := m.NatsConn.Publish(subject, data)
	if err != nil {
		slog.ErrorContext(ctx, "error sending message to NATS", logging.ErrKey, err, "subject", subject)
		return err
	}
	slog.DebugContext(ctx, "sent message to NATS", "subject", subject)
	return nil
}

// eventHeaders collects the request id and the acting user from the context.
func eventHeaders(ctx context.Context) map[string]string {
	headers := map[string]string{headerActor: systemActor}
	if requestID, ok := ctx.Value(constants.RequestIDContextID).(string); ok && requestID != "" {
		headers[headerRequestID] = requestID
	}
	if session, ok := ctx.Value(constants.SessionContextID).(*models.Session); ok && session != nil {
		headers[headerActor] = session.UserID
		headers[headerActorRole] = string(session.Role)
	}
	return headers
}

// toPayload turns a value into the generic map form subscribers decode.
func toPayload(data any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("error marshalling data into JSON: %w", err)
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err != nil {
		return nil, fmt.Errorf("error unmarshalling data into JSON: %w", err)
	}

	var payload map[string]any
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &payload,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating decoder: %w", err)
	}
	if err := decoder.Decode(jsonData); err != nil {
		return nil, fmt.Errorf("error decoding data: %w", err)
	}
	return payload, nil
}

// sendEvent wraps data into a [models.PulseEventMessage] and publishes it.
func (m *MessageBuilder) sendEvent(ctx context.Context, subject string, action models.MessageAction, data any, tags []string) error {
	payload, err := toPayload(data)
	if err != nil {
		slog.ErrorContext(ctx, "error building event payload", logging.ErrKey, err, "subject", subject)
		return err
	}

	message := models.PulseEventMessage{
		Action:  action,
		Headers: eventHeaders(ctx),
		Data:    payload,
		Tags:    tags,
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling message into JSON", logging.ErrKey, err, "subject", subject)
		return err
	}

	slog.DebugContext(ctx, "constructed event message",
		"subject", subject,
		"action", action,
		"tags_count", len(tags),
	)

	return m.publish(ctx, subject, messageBytes)
}

// meetingSubject maps a lifecycle action to the subject it is published on.
func meetingSubject(action models.MessageAction) (string, error) {
	switch action {
	case models.ActionCreated:
		return models.MeetingScheduledSubject, nil
	case models.ActionUpdated:
		return models.MeetingUpdatedSubject, nil
	case models.ActionDeleted:
		return models.MeetingDeletedSubject, nil
	}
	return "", fmt.Errorf("unsupported meeting action %q", action)
}

// SendMeetingEvent publishes a scheduled or updated meeting.
func (m *MessageBuilder) SendMeetingEvent(ctx context.Context, action models.MessageAction, data models.ScheduledMeeting) error {
	subject, err := meetingSubject(action)
	if err != nil {
		slog.ErrorContext(ctx, "error resolving subject", logging.ErrKey, err)
		return err
	}
	return m.sendEvent(ctx, subject, action, data, data.Tags())
}

// SendMeetingDeleted publishes the removal of a scheduled meeting.
func (m *MessageBuilder) SendMeetingDeleted(ctx context.Context, data models.MeetingDeletedMessage) error {
	tags := []string{data.MeetingUID, fmt.Sprintf("meeting_uid:%s", data.MeetingUID)}
	if data.WorkbodyUID != "" {
		tags = append(tags, fmt.Sprintf("workbody_uid:%s", data.WorkbodyUID))
	}
	return m.sendEvent(ctx, models.MeetingDeletedSubject, models.ActionDeleted, data, tags)
}

// SendMinutesRecorded publishes newly recorded meeting minutes.
func (m *MessageBuilder) SendMinutesRecorded(ctx context.Context, data models.MeetingMinutes) error {
	tags := []string{data.UID, fmt.Sprintf("minutes_uid:%s", data.UID), fmt.Sprintf("workbody_uid:%s", data.WorkbodyUID)}
	if data.MeetingUID != "" {
		tags = append(tags, fmt.Sprintf("meeting_uid:%s", data.MeetingUID))
	}
	return m.sendEvent(ctx, models.MinutesRecordedSubject, models.ActionCreated, data, tags)
}
