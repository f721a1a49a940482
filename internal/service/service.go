// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"time"
)

type Service interface {
	ServiceReady() bool
}

// ServiceConfig is the configuration for the Services.
type ServiceConfig struct {
	// ConflictWindow is how close two start times of the same workbody may be.
	// Zero only rejects identical start times.
	ConflictWindow time.Duration
	// MeetingListRefresh bounds the staleness of the cached meeting list.
	MeetingListRefresh time.Duration
	// DashboardWorkers is the number of workers used to aggregate the dashboard.
	DashboardWorkers int
}

// WorkbodyDirectory resolves the workbodies a meeting may be scheduled for.
type WorkbodyDirectory interface {
	KnownWorkbodies(ctx context.Context) (map[string]string, error)
}

// MeetingCounter keeps workbody meeting counters in step with scheduled meetings.
type MeetingCounter interface {
	RecordMeetingScheduled(ctx context.Context, workbodyUID, date string) error
}

// ActionCounter keeps workbody action counters in step with recorded minutes.
type ActionCounter interface {
	RecordActions(ctx context.Context, workbodyUID string, agreed, completed int) error
}
