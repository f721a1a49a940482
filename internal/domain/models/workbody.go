// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"strings"
	"time"
)

// WorkbodyType is the kind of organizational unit.
type WorkbodyType string

// WorkbodyType constants.
const (
	WorkbodyTypeCommittee    WorkbodyType = "committee"
	WorkbodyTypeWorkingGroup WorkbodyType = "working_group"
	WorkbodyTypeTaskForce    WorkbodyType = "task_force"
)

// IsValid reports whether the type is a known workbody type.
func (t WorkbodyType) IsValid() bool {
	switch t {
	case WorkbodyTypeCommittee, WorkbodyTypeWorkingGroup, WorkbodyTypeTaskForce:
		return true
	}
	return false
}

// Workbody is a committee, working group or task force.
type Workbody struct {
	UID              string       `json:"uid"`
	Name             string       `json:"name"`
	Type             WorkbodyType `json:"type"`
	Description      string       `json:"description,omitempty"`
	TermsOfReference string       `json:"terms_of_reference,omitempty"`
	TotalMeetings    int          `json:"total_meetings"`
	MeetingsThisYear int          `json:"meetings_this_year"`
	ActionsAgreed    int          `json:"actions_agreed"`
	ActionsCompleted int          `json:"actions_completed"`
	CreatedAt        *time.Time   `json:"created_at,omitempty"`
	UpdatedAt        *time.Time   `json:"updated_at,omitempty"`
	// EndDate is only set for task forces.
	EndDate *string `json:"end_date,omitempty"`
	// ArchivedAt hides the workbody from default listings; it is never hard-deleted.
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
}

// IsArchived reports whether the workbody has been archived.
func (w *Workbody) IsArchived() bool {
	return w != nil && w.ArchivedAt != nil
}

// Matches reports whether the workbody name or description contains the search query (case-insensitive).
func (w *Workbody) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(w.Name), query) ||
		strings.Contains(strings.ToLower(w.Description), query)
}

// Tags generates a consistent set of tags for the workbody, used in published events.
func (w *Workbody) Tags() []string {
	if w == nil {
		return nil
	}

	tags := []string{}
	if w.UID != "" {
		tags = append(tags, w.UID, fmt.Sprintf("workbody_uid:%s", w.UID))
	}
	if w.Type != "" {
		tags = append(tags, fmt.Sprintf("workbody_type:%s", w.Type))
	}
	return tags
}

// WorkbodyPatch is a partial update of a workbody.
type WorkbodyPatch struct {
	Name             *string       `json:"name,omitempty"`
	Type             *WorkbodyType `json:"type,omitempty"`
	Description      *string       `json:"description,omitempty"`
	TermsOfReference *string       `json:"terms_of_reference,omitempty"`
	EndDate          *string       `json:"end_date,omitempty"`
}

// Apply copies the set fields of the patch onto the workbody.
func (p *WorkbodyPatch) Apply(w *Workbody) {
	if p == nil || w == nil {
		return
	}
	if p.Name != nil {
		w.Name = strings.TrimSpace(*p.Name)
	}
	if p.Type != nil {
		w.Type = *p.Type
	}
	if p.Description != nil {
		w.Description = *p.Description
	}
	if p.TermsOfReference != nil {
		w.TermsOfReference = *p.TermsOfReference
	}
	if p.EndDate != nil {
		if *p.EndDate == "" {
			w.EndDate = nil
		} else {
			end := *p.EndDate
			w.EndDate = &end
		}
	}
}

// WorkbodyMember is a person associated with a workbody.
type WorkbodyMember struct {
	UID         string     `json:"uid"`
	WorkbodyUID string     `json:"workbody_uid"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	HasCV       bool       `json:"has_cv"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}
