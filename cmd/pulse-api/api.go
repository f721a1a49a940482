// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	goahttp "goa.design/goa/v3/http"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/internal/infrastructure/calendar"
	"github.com/araza-32/pec-pulse-sub000/internal/logging"
	"github.com/araza-32/pec-pulse-sub000/internal/middleware"
	"github.com/araza-32/pec-pulse-sub000/internal/service"
)

// PulseAPI serves the HTTP API of the pulse service.
type PulseAPI struct {
	sessions   *service.SessionService
	meetings   *service.MeetingService
	scheduling *service.SchedulingService
	workbodies *service.WorkbodyService
	minutes    *service.MinutesService
	reports    *service.ReportService
	calendar   *calendar.Generator

	// maxUploadBytes bounds a multipart request body.
	maxUploadBytes int64
	mux            goahttp.Muxer
}

// NewPulseAPI creates a new PulseAPI.
func NewPulseAPI(
	sessions *service.SessionService,
	meetings *service.MeetingService,
	scheduling *service.SchedulingService,
	workbodies *service.WorkbodyService,
	minutes *service.MinutesService,
	reports *service.ReportService,
	calendar *calendar.Generator,
	maxAttachmentBytes int64,
) *PulseAPI {
	return &PulseAPI{
		sessions:   sessions,
		meetings:   meetings,
		scheduling: scheduling,
		workbodies: workbodies,
		minutes:    minutes,
		reports:    reports,
		calendar:   calendar,
		// two documents plus the form fields
		maxUploadBytes: 2*maxAttachmentBytes + 1<<20,
	}
}

// services lists every service for readiness checks.
func (s *PulseAPI) services() []service.Service {
	return []service.Service{s.sessions, s.meetings, s.scheduling, s.workbodies, s.minutes, s.reports}
}

// Mount registers every route on the muxer.
func (s *PulseAPI) Mount(mux goahttp.Muxer) {
	s.mux = mux

	mux.Handle(http.MethodGet, "/livez", s.Livez)
	mux.Handle(http.MethodGet, "/readyz", s.Readyz)

	mux.Handle(http.MethodPost, "/sessions", s.CreateSession)
	mux.Handle(http.MethodGet, "/sessions/current", s.GetCurrentSession)
	mux.Handle(http.MethodDelete, "/sessions", s.DeleteSession)

	mux.Handle(http.MethodGet, "/meetings", s.ListMeetings)
	mux.Handle(http.MethodPost, "/meetings", s.ScheduleMeeting)
	mux.Handle(http.MethodPost, "/meetings/validate", s.ValidateMeeting)
	mux.Handle(http.MethodGet, "/meetings/schedule/status", s.GetSchedulingStatus)
	mux.Handle(http.MethodDelete, "/meetings/schedule", s.CancelScheduling)
	mux.Handle(http.MethodGet, "/meetings/{uid}", s.GetMeeting)
	mux.Handle(http.MethodPatch, "/meetings/{uid}", s.UpdateMeeting)
	mux.Handle(http.MethodDelete, "/meetings/{uid}", s.DeleteMeeting)
	mux.Handle(http.MethodGet, "/meetings/{uid}/attachments/{kind}", s.DownloadMeetingAttachment)
	mux.Handle(http.MethodGet, "/meetings/{uid}/calendar.ics", s.DownloadMeetingCalendar)

	mux.Handle(http.MethodGet, "/workbodies", s.ListWorkbodies)
	mux.Handle(http.MethodPost, "/workbodies", s.CreateWorkbody)
	mux.Handle(http.MethodGet, "/workbodies/{uid}", s.GetWorkbody)
	mux.Handle(http.MethodPatch, "/workbodies/{uid}", s.UpdateWorkbody)
	mux.Handle(http.MethodPost, "/workbodies/{uid}/archive", s.ArchiveWorkbody)
	mux.Handle(http.MethodGet, "/workbodies/{uid}/members", s.ListMembers)
	mux.Handle(http.MethodPost, "/workbodies/{uid}/members", s.AddMember)
	mux.Handle(http.MethodDelete, "/workbodies/{uid}/members/{member_uid}", s.RemoveMember)

	mux.Handle(http.MethodGet, "/minutes", s.ListMinutes)
	mux.Handle(http.MethodPost, "/minutes", s.RecordMinutes)
	mux.Handle(http.MethodGet, "/minutes/{uid}", s.GetMinutes)
	mux.Handle(http.MethodGet, "/minutes/{uid}/document", s.DownloadMinutesDocument)

	mux.Handle(http.MethodGet, "/reports/meetings.csv", s.ExportMeetingsCSV)
	mux.Handle(http.MethodGet, "/dashboard", s.GetDashboard)
}

// pathParam returns a path parameter of the matched route.
func (s *PulseAPI) pathParam(r *http.Request, name string) string {
	if s.mux == nil {
		return ""
	}
	return s.mux.Vars(r)[name]
}

// Readyz checks if the service is able to take inbound requests.
func (s *PulseAPI) Readyz(w http.ResponseWriter, r *http.Request) {
	for _, svc := range s.services() {
		if !svc.ServiceReady() {
			s.handleError(w, r, domain.ErrServiceUnavailable)
			return
		}
	}
	writeText(w, http.StatusOK, "OK\n")
}

// Livez checks if the service is alive.
func (s *PulseAPI) Livez(w http.ResponseWriter, _ *http.Request) {
	// This always returns as long as the service is still running. As this
	// endpoint is expected to be used as a Kubernetes liveness check, this
	// service must likewise self-detect non-recoverable errors and
	// self-terminate.
	writeText(w, http.StatusOK, "OK\n")
}

// errorBody is the JSON body of every error response.
type errorBody struct {
	Code       string                   `json:"code"`
	Message    string                   `json:"message"`
	Validation *models.ValidationResult `json:"validation,omitempty"`
}

// statusFor maps a domain error to its HTTP status code.
func statusFor(err error) int {
	switch domain.GetErrorType(err) {
	case domain.ErrorTypeValidation:
		return http.StatusBadRequest
	case domain.ErrorTypeUpload:
		return http.StatusUnprocessableEntity
	case domain.ErrorTypeNotFound:
		return http.StatusNotFound
	case domain.ErrorTypeConflict:
		return http.StatusConflict
	case domain.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrorTypeForbidden:
		return http.StatusForbidden
	case domain.ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handleError writes the error response for err.
func (s *PulseAPI) handleError(w http.ResponseWriter, r *http.Request, err error) {
	s.handleValidationError(w, r, err, nil)
}

// handleValidationError writes the error response, including the validation
// result that caused it when there is one.
func (s *PulseAPI) handleValidationError(w http.ResponseWriter, r *http.Request, err error, validation *models.ValidationResult) {
	ctx := r.Context()
	status := statusFor(err)

	message := domain.GetErrorMessage(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(ctx, "internal error", logging.ErrKey, err)
		message = "internal error"
	} else {
		slog.DebugContext(ctx, "request failed", logging.ErrKey, err, "status", status)
	}

	s.writeJSON(ctx, w, status, errorBody{
		Code:       domain.GetErrorType(err).String(),
		Message:    message,
		Validation: validation,
	})
}

// writeJSON encodes the response with goa's response encoder.
func (s *PulseAPI) writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	enc := goahttp.ResponseEncoder(ctx, w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := enc.Encode(body); err != nil {
		slog.ErrorContext(ctx, "error encoding response", logging.ErrKey, err)
	}
}

// decodeJSON decodes the request body with goa's request decoder.
func decodeJSON(r *http.Request, v any) error {
	if err := goahttp.RequestDecoder(r).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("request body is required")
		}
		return domain.NewValidationError("invalid request body", err)
	}
	return nil
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// requireSession returns the request's session if its role is one of roles.
// No roles means any authenticated user.
func requireSession(r *http.Request, roles ...models.Role) (*models.Session, error) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		return nil, domain.NewUnauthorizedError("a session is required")
	}
	if len(roles) == 0 {
		return session, nil
	}
	if err := service.Authorize(session, roles...); err != nil {
		return nil, err
	}
	return session, nil
}
