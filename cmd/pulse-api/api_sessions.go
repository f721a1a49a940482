// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"net/http"
	"time"

	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/internal/middleware"
	"github.com/araza-32/pec-pulse-sub000/pkg/constants"
)

// sessionCookie is the browser cookie carrying the session id.
func sessionCookie(session *models.Session) *http.Cookie {
	return &http.Cookie{
		Name:     constants.SessionCookie,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// CreateSession exchanges the bearer token for a session.
func (s *PulseAPI) CreateSession(w http.ResponseWriter, r *http.Request) {
	token := constants.BearerToken(r.Header.Get(constants.AuthorizationHeader))

	session, err := s.sessions.Login(r.Context(), token)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	http.SetCookie(w, sessionCookie(session))
	w.Header().Set(constants.SessionHeader, session.ID)
	s.writeJSON(r.Context(), w, http.StatusCreated, session)
}

// GetCurrentSession returns the session of the request.
func (s *PulseAPI) GetCurrentSession(w http.ResponseWriter, r *http.Request) {
	session, err := requireSession(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, session)
}

// DeleteSession logs out, cancelling any scheduling attempt of the session.
func (s *PulseAPI) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r)
	if sessionID == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.scheduling.Forget(sessionID)
	if err := s.sessions.Logout(r.Context(), sessionID); err != nil {
		s.handleError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
	})
	w.WriteHeader(http.StatusNoContent)
}
