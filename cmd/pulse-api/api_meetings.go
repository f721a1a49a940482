// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/internal/infrastructure/calendar"
	"github.com/araza-32/pec-pulse-sub000/internal/service"
)

// multipartMemory is the part of a multipart form kept in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

// Form fields of the multipart scheduling request.
const (
	fieldWorkbodyUID      = "workbody_uid"
	fieldWorkbodyName     = "workbody_name"
	fieldDate             = "date"
	fieldTime             = "time"
	fieldDurationMinutes  = "duration_minutes"
	fieldLocation         = "location"
	fieldAgendaItems      = "agenda_items"
	fieldNotificationFile = "notification_file"
	fieldAgendaFile       = "agenda_file"
)

// ListMeetings returns the meetings matching the query filter.
func (s *PulseAPI) ListMeetings(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(r); err != nil {
		s.handleError(w, r, err)
		return
	}

	meetings, err := s.meetings.ListMeetings(r.Context(), meetingFilter(r))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, meetings)
}

// meetingFilter reads a MeetingFilter from the query string.
func meetingFilter(r *http.Request) service.MeetingFilter {
	q := r.URL.Query()
	return service.MeetingFilter{
		WorkbodyUID: q.Get("workbody_uid"),
		From:        q.Get("from"),
		To:          q.Get("to"),
		Search:      q.Get("search"),
	}
}

// ScheduleMeeting submits the scheduling form of the caller's session. The
// request is either multipart, carrying the documents, or a JSON candidate.
func (s *PulseAPI) ScheduleMeeting(w http.ResponseWriter, r *http.Request) {
	session, err := requireSession(r, service.MeetingWriters...)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	var (
		candidate            *models.CandidateMeeting
		notification, agenda *models.AttachmentUpload
	)
	if isMultipart(r) {
		candidate, notification, agenda, err = s.readScheduleForm(w, r)
	} else {
		candidate = &models.CandidateMeeting{}
		err = decodeJSON(r, candidate)
	}
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	meeting, snapshot, err := s.scheduling.Schedule(r.Context(), session, candidate, notification, agenda)
	if err != nil {
		var validation *models.ValidationResult
		if snapshot != nil {
			validation = snapshot.Validation
		}
		s.handleValidationError(w, r, err, validation)
		return
	}

	w.Header().Set("Location", "/meetings/"+meeting.UID)
	s.writeJSON(r.Context(), w, http.StatusCreated, meeting)
}

// readScheduleForm reads the candidate and its documents out of a multipart request.
func (s *PulseAPI) readScheduleForm(w http.ResponseWriter, r *http.Request) (*models.CandidateMeeting, *models.AttachmentUpload, *models.AttachmentUpload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, nil, domain.NewUploadError("request is too large", err)
		}
		return nil, nil, nil, domain.NewValidationError("invalid multipart form", err)
	}

	candidate := &models.CandidateMeeting{
		WorkbodyUID:  r.FormValue(fieldWorkbodyUID),
		WorkbodyName: r.FormValue(fieldWorkbodyName),
		Date:         r.FormValue(fieldDate),
		Time:         r.FormValue(fieldTime),
		Location:     r.FormValue(fieldLocation),
		AgendaItems:  r.MultipartForm.Value[fieldAgendaItems],
	}
	if raw := strings.TrimSpace(r.FormValue(fieldDurationMinutes)); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil {
			return nil, nil, nil, domain.NewValidationError("duration_minutes must be a whole number", err)
		}
		candidate.DurationMinutes = &minutes
	}

	notification, err := readUpload(r, fieldNotificationFile)
	if err != nil {
		return nil, nil, nil, err
	}
	agenda, err := readUpload(r, fieldAgendaFile)
	if err != nil {
		return nil, nil, nil, err
	}
	return candidate, notification, agenda, nil
}

// readUpload reads one file part of a parsed multipart form. A missing part is nil.
func readUpload(r *http.Request, field string) (*models.AttachmentUpload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewUploadError(fmt.Sprintf("unable to read %s", field), err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, domain.NewUploadError(fmt.Sprintf("unable to read %s", field), err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return &models.AttachmentUpload{
		FileName:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// ValidateMeeting checks a candidate without saving it.
func (s *PulseAPI) ValidateMeeting(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(r); err != nil {
		s.handleError(w, r, err)
		return
	}

	candidate := &models.CandidateMeeting{}
	if err := decodeJSON(r, candidate); err != nil {
		s.handleError(w, r, err)
		return
	}

	result, err := s.meetings.ValidateCandidate(r.Context(), candidate)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, result)
}

// GetSchedulingStatus reports the state of the session's scheduling form.
func (s *PulseAPI) GetSchedulingStatus(w http.ResponseWriter, r *http.Request) {
	session, err := requireSession(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	snapshot, ok := s.scheduling.Status(session.ID)
	if !ok {
		snapshot = service.SchedulingSnapshot{State: service.StateEditing, Form: &models.CandidateMeeting{}}
	}
	s.writeJSON(r.Context(), w, http.StatusOK, snapshot)
}

// CancelScheduling aborts the session's scheduling attempt in flight.
func (s *PulseAPI) CancelScheduling(w http.ResponseWriter, r *http.Request) {
	session, err := requireSession(r, service.MeetingWriters...)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if !s.scheduling.Cancel(session.ID) {
		s.handleError(w, r, domain.NewConflictError("no scheduling attempt is in progress"))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// GetMeeting returns one meeting.
func (s *PulseAPI) GetMeeting(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(r); err != nil {
		s.handleError(w, r, err)
		return
	}

	meeting, err := s.meetings.GetMeeting(r.Context(), s.pathParam(r, "uid"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, meeting)
}

// UpdateMeeting applies a partial update to a meeting.
func (s *PulseAPI) UpdateMeeting(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(r, service.MeetingWriters...); err != nil {
		s.handleError(w, r, err)
		return
	}

	patch := &models.ScheduledMeetingPatch{}
	if err := decodeJSON(r, patch); err != nil {
		s.handleError(w, r, err)
		return
	}

	meeting, result, err := s.meetings.UpdateMeeting(r.Context(), s.pathParam(r, "uid"), patch)
	if err != nil {
		s.handleValidationError(w, r, err, result)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, meeting)
}

// DeleteMeeting removes a meeting.
func (s *PulseAPI) DeleteMeeting(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(r, service.MeetingWriters...); err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := s.meetings.DeleteMeeting(r.Context(), s.pathParam(r, "uid")); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DownloadMeetingAttachment streams the notification or agenda document of a meeting.
func (s *PulseAPI) DownloadMeetingAttachment(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(r); err != nil {
		s.handleError(w, r, err)
		return
	}

	kind := models.AttachmentKind(s.pathParam(r, "kind"))
	ref, data, err := s.meetings.DownloadAttachment(r.Context(), s.pathParam(r, "uid"), kind)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeFile(w, ref, data)
}

// DownloadMeetingCalendar returns the meeting as an iCalendar file.
func (s *PulseAPI) DownloadMeetingCalendar(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(r); err != nil {
		s.handleError(w, r, err)
		return
	}
	if s.calendar == nil {
		s.handleError(w, r, domain.ErrServiceUnavailable)
		return
	}

	meeting, err := s.meetings.GetMeeting(r.Context(), s.pathParam(r, "uid"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	ics, err := s.calendar.MeetingICS(meeting, time.Now())
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": calendar.FileName(meeting)}))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, ics)
}

// writeFile writes a stored document as an attachment download.
func writeFile(w http.ResponseWriter, ref *models.FileRef, data []byte) {
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": ref.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
