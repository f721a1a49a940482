// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"fmt"
	"net/http"
	"time"
)

// ExportMeetingsCSV downloads the filtered meeting list as CSV.
func (s *PulseAPI) ExportMeetingsCSV(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(r); err != nil {
		s.handleError(w, r, err)
		return
	}

	// buffered so a failure can still be reported as an error response
	var buf bytes.Buffer
	if err := s.reports.WriteMeetingsCSV(r.Context(), &buf, meetingFilter(r)); err != nil {
		s.handleError(w, r, err)
		return
	}

	name := fmt.Sprintf("meetings-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// GetDashboard returns the activity summary across workbodies.
func (s *PulseAPI) GetDashboard(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(r); err != nil {
		s.handleError(w, r, err)
		return
	}

	dashboard, err := s.reports.Dashboard(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, dashboard)
}
