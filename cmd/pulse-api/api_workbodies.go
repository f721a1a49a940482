// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"net/http"
	"strconv"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/internal/service"
)

// ListWorkbodies returns the workbodies matching the query filter.
func (s *PulseAPI) ListWorkbodies(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(r); err != nil {
		s.handleError(w, r, err)
		return
	}

	q := r.URL.Query()
	filter := service.WorkbodyFilter{
		Type:   models.WorkbodyType(q.Get("type")),
		Search: q.Get("search"),
	}
	if raw := q.Get("include_archived"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			s.handleError(w, r, domain.NewValidationError("include_archived must be true or false", err))
			return
		}
		filter.IncludeArchived = include
	}

	workbodies, err := s.workbodies.ListWorkbodies(r.Context(), filter)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, workbodies)
}

// CreateWorkbody registers a new workbody.
func (s *PulseAPI) CreateWorkbody(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(r, service.WorkbodyAdmins...); err != nil {
		s.handleError(w, r, err)
		return
	}

	req := &models.Workbody{}
	if err := decodeJSON(r, req); err != nil {
		s.handleError(w, r, err)
		return
	}

	workbody, err := s.workbodies.CreateWorkbody(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	w.Header().Set("Location", "/workbodies/"+workbody.UID)
	s.writeJSON(r.Context(), w, http.StatusCreated, workbody)
}

// GetWorkbody returns one workbody.
func (s *PulseAPI) GetWorkbody(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(r); err != nil {
		s.handleError(w, r, err)
		return
	}

	workbody, err := s.workbodies.GetWorkbody(r.Context(), s.pathParam(r, "uid"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, workbody)
}

// UpdateWorkbody applies a partial update to a workbody.
func (s *PulseAPI) UpdateWorkbody(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(r, service.WorkbodyAdmins...); err != nil {
		s.handleError(w, r, err)
		return
	}

	patch := &models.WorkbodyPatch{}
	if err := decodeJSON(r, patch); err != nil {
		s.handleError(w, r, err)
		return
	}

	workbody, err := s.workbodies.UpdateWorkbody(r.Context(), s.pathParam(r, "uid"), patch)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, workbody)
}

// ArchiveWorkbody archives a workbody. Its meetings and minutes are kept.
func (s *PulseAPI) ArchiveWorkbody(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(r, service.WorkbodyAdmins...); err != nil {
		s.handleError(w, r, err)
		return
	}

	workbody, err := s.workbodies.ArchiveWorkbody(r.Context(), s.pathParam(r, "uid"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, workbody)
}

// ListMembers returns the members of a workbody.
func (s *PulseAPI) ListMembers(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(r); err != nil {
		s.handleError(w, r, err)
		return
	}

	members, err := s.workbodies.ListMembers(r.Context(), s.pathParam(r, "uid"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, members)
}

// AddMember adds a member to a workbody.
func (s *PulseAPI) AddMember(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(r, service.WorkbodyAdmins...); err != nil {
		s.handleError(w, r, err)
		return
	}

	req := &models.WorkbodyMember{}
	if err := decodeJSON(r, req); err != nil {
		s.handleError(w, r, err)
		return
	}

	member, err := s.workbodies.AddMember(r.Context(), s.pathParam(r, "uid"), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusCreated, member)
}

// RemoveMember removes a member from a workbody.
func (s *PulseAPI) RemoveMember(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(r, service.WorkbodyAdmins...); err != nil {
		s.handleError(w, r, err)
		return
	}

	err := s.workbodies.RemoveMember(r.Context(), s.pathParam(r, "uid"), s.pathParam(r, "member_uid"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
