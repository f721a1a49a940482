// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/internal/logging"
)

// MeetingsListRequest is the optional JSON body of a pulse.meetings.list request.
type MeetingsListRequest struct {
	WorkbodyUID string `json:"workbody_uid,omitempty"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	Search      string `json:"search,omitempty"`
}

// HandlerReady reports whether the message handler can serve requests.
func (s *MeetingService) HandlerReady() bool {
	return s.ServiceReady()
}

// HandleMessage implements domain.MessageHandler interface
func (s *MeetingService) HandleMessage(ctx context.Context, msg domain.Message) {
	subject := msg.Subject()
	ctx = logging.AppendCtx(ctx, slog.String("subject", subject))
	slog.DebugContext(ctx, "handling NATS message")

	handlers := map[string]func(ctx context.Context, msg domain.Message) ([]byte, error){
		models.MeetingsListSubject:     s.HandleMeetingsList,
		models.MeetingsValidateSubject: s.HandleMeetingsValidate,
	}

	handler, ok := handlers[subject]
	if !ok {
		slog.WarnContext(ctx, "unknown subject")
		if err := msg.Respond(nil); err != nil {
			slog.ErrorContext(ctx, "error responding to NATS message", logging.ErrKey, err)
		}
		return
	}

	response, err := handler(ctx, msg)
	if err != nil {
		slog.ErrorContext(ctx, "error handling message", logging.ErrKey, err)
		response = errorReply(err)
	}

	if err := msg.Respond(response); err != nil {
		slog.ErrorContext(ctx, "error responding to NATS message", logging.ErrKey, err)
		return
	}

	slog.DebugContext(ctx, "responded to NATS message", "bytes", len(response))
}

// errorReply encodes an error the way HTTP clients see it.
func errorReply(err error) []byte {
	body, _ := json.Marshal(map[string]string{
		"code":    domain.GetErrorType(err).String(),
		"message": domain.GetErrorMessage(err),
	})
	return body
}

// HandleMeetingsList replies with the scheduled meetings matching the optional filter.
func (s *MeetingService) HandleMeetingsList(ctx context.Context, msg domain.Message) ([]byte, error) {
	var req MeetingsListRequest
	if len(msg.Data()) > 0 {
		if err := json.Unmarshal(msg.Data(), &req); err != nil {
			return nil, domain.NewValidationError("invalid list request", err)
		}
	}

	meetings, err := s.ListMeetings(ctx, MeetingFilter(req))
	if err != nil {
		return nil, err
	}

	return json.Marshal(meetings)
}

// HandleMeetingsValidate replies with the validation result for a candidate meeting.
func (s *MeetingService) HandleMeetingsValidate(ctx context.Context, msg domain.Message) ([]byte, error) {
	var candidate models.CandidateMeeting
	if err := json.Unmarshal(msg.Data(), &candidate); err != nil {
		return nil, domain.NewValidationError("invalid candidate meeting", err)
	}

	result, err := s.ValidateCandidate(ctx, &candidate)
	if err != nil {
		return nil, err
	}

	return json.Marshal(result)
}
