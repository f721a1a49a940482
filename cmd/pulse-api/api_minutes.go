// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/internal/service"
)

// Parts of the multipart minutes request.
const (
	fieldMinutes  = "minutes"
	fieldDocument = "document"
)

// ListMinutes returns the minutes of a workbody, or all minutes without a filter.
func (s *PulseAPI) ListMinutes(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(r); err != nil {
		s.handleError(w, r, err)
		return
	}

	minutes, err := s.minutes.ListMinutes(r.Context(), r.URL.Query().Get("workbody_uid"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, minutes)
}

// RecordMinutes records the minutes of a meeting. The request is either
// multipart, with the minutes as JSON and an optional document, or JSON.
func (s *PulseAPI) RecordMinutes(w http.ResponseWriter, r *http.Request) {
	session, err := requireSession(r, service.MeetingWriters...)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	req := &models.MeetingMinutes{}
	var document *models.AttachmentUpload
	if isMultipart(r) {
		document, err = s.readMinutesForm(w, r, req)
	} else {
		err = decodeJSON(r, req)
	}
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	minutes, err := s.minutes.RecordMinutes(r.Context(), req, document, session.UserID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	w.Header().Set("Location", "/minutes/"+minutes.UID)
	s.writeJSON(r.Context(), w, http.StatusCreated, minutes)
}

// readMinutesForm decodes the minutes part into req and returns the document part.
func (s *PulseAPI) readMinutesForm(w http.ResponseWriter, r *http.Request, req *models.MeetingMinutes) (*models.AttachmentUpload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.NewUploadError("request is too large", err)
		}
		return nil, domain.NewValidationError("invalid multipart form", err)
	}

	raw := r.FormValue(fieldMinutes)
	if raw == "" {
		return nil, domain.NewValidationError("minutes are required")
	}
	if err := json.Unmarshal([]byte(raw), req); err != nil {
		return nil, domain.NewValidationError("invalid minutes", err)
	}

	return readUpload(r, fieldDocument)
}

// GetMinutes returns one set of minutes.
func (s *PulseAPI) GetMinutes(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(r); err != nil {
		s.handleError(w, r, err)
		return
	}

	minutes, err := s.minutes.GetMinutes(r.Context(), s.pathParam(r, "uid"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, minutes)
}

// DownloadMinutesDocument streams the document attached to the minutes.
func (s *PulseAPI) DownloadMinutesDocument(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(r); err != nil {
		s.handleError(w, r, err)
		return
	}

	ref, data, err := s.minutes.DownloadMinutesDocument(r.Context(), s.pathParam(r, "uid"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeFile(w, ref, data)
}
