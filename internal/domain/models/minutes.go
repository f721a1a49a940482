// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// ActionItemStatus is the progress of an action agreed in a meeting.
type ActionItemStatus string

// ActionItemStatus constants.
const (
	ActionItemStatusPending    ActionItemStatus = "pending"
	ActionItemStatusInProgress ActionItemStatus = "in_progress"
	ActionItemStatusCompleted  ActionItemStatus = "completed"
)

// ActionItem is an action agreed during a meeting.
type ActionItem struct {
	UID         string           `json:"uid"`
	Description string           `json:"description"`
	Assignee    string           `json:"assignee,omitempty"`
	DueDate     string           `json:"due_date,omitempty"`
	Status      ActionItemStatus `json:"status"`
}

// MeetingMinutes is the documented record of a meeting that has already taken place.
type MeetingMinutes struct {
	UID         string       `json:"uid"`
	WorkbodyUID string       `json:"workbody_uid"`
	MeetingUID  string       `json:"meeting_uid,omitempty"`
	Date        string       `json:"date"`
	Location    string       `json:"location,omitempty"`
	Attendees   []string     `json:"attendees,omitempty"`
	Decisions   []string     `json:"decisions,omitempty"`
	ActionItems []ActionItem `json:"action_items,omitempty"`
	File        *FileRef     `json:"file,omitempty"`
	CreatedBy   string       `json:"created_by,omitempty"`
	CreatedAt   *time.Time   `json:"created_at,omitempty"`
}

// ActionCounts returns how many actions were agreed and how many are completed.
func (m *MeetingMinutes) ActionCounts() (agreed, completed int) {
	if m == nil {
		return 0, 0
	}
	for _, item := range m.ActionItems {
		agreed++
		if item.Status == ActionItemStatusCompleted {
			completed++
		}
	}
	return agreed, completed
}
