// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/internal/logging"
	"github.com/araza-32/pec-pulse-sub000/pkg/concurrent"
)

// MeetingsCSVHeader is the header row of the meetings report.
var MeetingsCSVHeader = []string{"workbody", "date", "time", "location", "agenda_items"}

// MeetingLister lists scheduled meetings.
type MeetingLister interface {
	ListMeetings(ctx context.Context, filter MeetingFilter) ([]*models.ScheduledMeeting, error)
}

// WorkbodyLister lists workbodies.
type WorkbodyLister interface {
	ListWorkbodies(ctx context.Context, filter WorkbodyFilter) ([]*models.Workbody, error)
}

// WorkbodySummary is one row of the dashboard.
type WorkbodySummary struct {
	WorkbodyUID      string              `json:"workbody_uid"`
	Name             string              `json:"name"`
	Type             models.WorkbodyType `json:"type"`
	TotalMeetings    int                 `json:"total_meetings"`
	MeetingsThisYear int                 `json:"meetings_this_year"`
	UpcomingMeetings int                 `json:"upcoming_meetings"`
	MinutesRecorded  int                 `json:"minutes_recorded"`
	LastMinutesDate  string              `json:"last_minutes_date,omitempty"`
	ActionsAgreed    int                 `json:"actions_agreed"`
	ActionsCompleted int                 `json:"actions_completed"`
	ActionCompletion float64             `json:"action_completion"`
}

// Dashboard aggregates activity across all active workbodies.
type Dashboard struct {
	GeneratedAt      time.Time          `json:"generated_at"`
	TotalWorkbodies  int                `json:"total_workbodies"`
	UpcomingMeetings int                `json:"upcoming_meetings"`
	ActionsAgreed    int                `json:"actions_agreed"`
	ActionsCompleted int                `json:"actions_completed"`
	ActionCompletion float64            `json:"action_completion"`
	Workbodies       []*WorkbodySummary `json:"workbodies"`
}

// ReportService builds the meeting report export and the dashboard.
type ReportService struct {
	Meetings   MeetingLister
	Workbodies WorkbodyLister
	Minutes    domain.MinutesRepository
	Pool       *concurrent.WorkerPool
	now        func() time.Time
}

// NewReportService creates a new ReportService.
func NewReportService(meetings MeetingLister, workbodies WorkbodyLister, minutes domain.MinutesRepository, config ServiceConfig) *ReportService {
	return &ReportService{
		Meetings:   meetings,
		Workbodies: workbodies,
		Minutes:    minutes,
		Pool:       concurrent.NewWorkerPool(config.DashboardWorkers),
		now:        time.Now,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *ReportService) ServiceReady() bool {
	return s.Meetings != nil && s.Workbodies != nil && s.Minutes != nil && s.Pool != nil
}

// WriteMeetingsCSV writes the meetings matching the filter as CSV, agenda
// items joined with "; ".
func (s *ReportService) WriteMeetingsCSV(ctx context.Context, w io.Writer, filter MeetingFilter) error {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return domain.ErrServiceUnavailable
	}

	meetings, err := s.Meetings.ListMeetings(ctx, filter)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(MeetingsCSVHeader); err != nil {
		return domain.NewInternalError("failed to write report", err)
	}
	for _, m := range meetings {
		row := []string{m.WorkbodyName, m.Date, m.Time, m.Location, strings.Join(m.AgendaItems, "; ")}
		if err := cw.Write(row); err != nil {
			return domain.NewInternalError("failed to write report", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return domain.NewInternalError("failed to write report", err)
	}

	slog.DebugContext(ctx, "meetings report written", "rows", len(meetings))
	return nil
}

// Dashboard aggregates every active workbody. Minutes are fetched per
// workbody on the worker pool.
func (s *ReportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}

	workbodies, err := s.Workbodies.ListWorkbodies(ctx, WorkbodyFilter{})
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := now.Format(models.MeetingDateLayout)
	upcoming, err := s.Meetings.ListMeetings(ctx, MeetingFilter{From: today})
	if err != nil {
		return nil, err
	}
	upcomingByWorkbody := make(map[string]int)
	for _, m := range upcoming {
		upcomingByWorkbody[m.WorkbodyUID]++
	}

	summaries := make([]*WorkbodySummary, len(workbodies))
	var mu sync.Mutex
	jobs := make([]func() error, 0, len(workbodies))
	for i, w := range workbodies {
		summaries[i] = &WorkbodySummary{
			WorkbodyUID:      w.UID,
			Name:             w.Name,
			Type:             w.Type,
			TotalMeetings:    w.TotalMeetings,
			MeetingsThisYear: w.MeetingsThisYear,
			UpcomingMeetings: upcomingByWorkbody[w.UID],
			ActionsAgreed:    w.ActionsAgreed,
			ActionsCompleted: w.ActionsCompleted,
			ActionCompletion: completionRate(w.ActionsAgreed, w.ActionsCompleted),
		}

		summary := summaries[i]
		jobs = append(jobs, func() error {
			minutes, err := s.Minutes.ListMinutes(ctx, summary.WorkbodyUID)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			summary.MinutesRecorded = len(minutes)
			for _, m := range minutes {
				if m.Date > summary.LastMinutesDate {
					summary.LastMinutesDate = m.Date
				}
			}
			return nil
		})
	}

	if err := s.Pool.Run(ctx, jobs...); err != nil {
		slog.ErrorContext(ctx, "error aggregating dashboard", logging.ErrKey, err)
		return nil, err
	}

	dashboard := &Dashboard{
		GeneratedAt:     now.UTC(),
		TotalWorkbodies: len(summaries),
		Workbodies:      summaries,
	}
	for _, summary := range summaries {
		dashboard.UpcomingMeetings += summary.UpcomingMeetings
		dashboard.ActionsAgreed += summary.ActionsAgreed
		dashboard.ActionsCompleted += summary.ActionsCompleted
	}
	dashboard.ActionCompletion = completionRate(dashboard.ActionsAgreed, dashboard.ActionsCompleted)

	return dashboard, nil
}

// completionRate is the completed share of agreed actions as a percentage rounded to one decimal.
func completionRate(agreed, completed int) float64 {
	if agreed <= 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(agreed)*1000) / 10
}
