// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// Layouts used for the calendar date and the 24-hour local time of a meeting.
// Meetings carry no time zone: they are compared as wall-clock values.
const (
	MeetingDateLayout = "2006-01-02"
	MeetingTimeLayout = "15:04"
)

// Bounds of the optional meeting duration, in minutes.
const (
	MinDurationMinutes = 1
	MaxDurationMinutes = 24 * 60
)

// ValidDuration reports whether minutes is a usable meeting duration.
func ValidDuration(minutes *int) bool {
	return minutes != nil && *minutes >= MinDurationMinutes && *minutes <= MaxDurationMinutes
}

// AttachmentKind identifies which logical bucket prefix an uploaded document belongs to.
type AttachmentKind string

// AttachmentKind constants.
const (
	AttachmentKindNotification AttachmentKind = "notification"
	AttachmentKindAgenda       AttachmentKind = "agenda"
	AttachmentKindMinutes      AttachmentKind = "minutes"
)

// Prefix returns the storage prefix for files of this kind.
func (k AttachmentKind) Prefix() string {
	switch k {
	case AttachmentKindNotification:
		return "meeting-notifications"
	case AttachmentKindAgenda:
		return "meeting-agendas"
	case AttachmentKindMinutes:
		return "meeting-minutes"
	default:
		return ""
	}
}

// IsValid reports whether the kind is one of the known attachment kinds.
func (k AttachmentKind) IsValid() bool {
	return k.Prefix() != ""
}

// Owns reports whether an object path lies under the storage prefix of this kind.
func (k AttachmentKind) Owns(name string) bool {
	if !k.IsValid() || path.Clean(name) != name {
		return false
	}
	return strings.HasPrefix(name, k.Prefix()+"/")
}

// FileRef is a stable reference to a stored attachment. URL is the API route
// the document is downloaded from.
type FileRef struct {
	Name string `json:"name"`
	Path string `json:"path"`
	URL  string `json:"url,omitempty"`
}

// MeetingAttachmentURL is the download route of a meeting document.
func MeetingAttachmentURL(meetingUID string, kind AttachmentKind) string {
	return fmt.Sprintf("/meetings/%s/attachments/%s", meetingUID, kind)
}

// MinutesDocumentURL is the download route of a minutes document.
func MinutesDocumentURL(minutesUID string) string {
	return fmt.Sprintf("/minutes/%s/document", minutesUID)
}

// withURL returns a copy of ref pointing at url, or nil for a nil ref.
func withURL(ref *FileRef, url string) *FileRef {
	if ref == nil {
		return nil
	}
	linked := *ref
	linked.URL = url
	return &linked
}

// AttachmentUpload is a file selected by the user for upload.
type AttachmentUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ScheduledMeeting is a planned meeting of a workbody.
type ScheduledMeeting struct {
	UID              string     `json:"uid"`
	WorkbodyUID      string     `json:"workbody_uid"`
	WorkbodyName     string     `json:"workbody_name"`
	Date             string     `json:"date"`
	Time             string     `json:"time"`
	DurationMinutes  *int       `json:"duration_minutes,omitempty"`
	Location         string     `json:"location"`
	AgendaItems      []string   `json:"agenda_items"`
	NotificationFile *FileRef   `json:"notification_file,omitempty"`
	AgendaFile       *FileRef   `json:"agenda_file,omitempty"`
	CreatedBy        string     `json:"created_by,omitempty"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// StartsAt returns the wall-clock start of the meeting, or false if the
// stored date or time cannot be parsed.
func (m *ScheduledMeeting) StartsAt() (time.Time, bool) {
	if m == nil {
		return time.Time{}, false
	}
	return ParseMeetingStart(m.Date, m.Time)
}

// Tags generates a consistent set of tags for the meeting, used in published events.
func (m *ScheduledMeeting) Tags() []string {
	if m == nil {
		return nil
	}

	tags := []string{}
	if m.UID != "" {
		tags = append(tags, m.UID, fmt.Sprintf("meeting_uid:%s", m.UID))
	}
	if m.WorkbodyUID != "" {
		tags = append(tags, fmt.Sprintf("workbody_uid:%s", m.WorkbodyUID))
	}
	if m.Date != "" {
		tags = append(tags, fmt.Sprintf("date:%s", m.Date))
	}
	return tags
}

// CandidateMeeting is the payload shared by the scheduling form, the validator
// and the repository. It is validated once before anything is persisted.
type CandidateMeeting struct {
	// ExcludeUID names an already persisted meeting that must not be treated
	// as a conflict, i.e. the meeting being edited.
	ExcludeUID       string   `json:"exclude_uid,omitempty"`
	WorkbodyUID      string   `json:"workbody_uid"`
	WorkbodyName     string   `json:"workbody_name,omitempty"`
	Date             string   `json:"date"`
	Time             string   `json:"time"`
	DurationMinutes  *int     `json:"duration_minutes,omitempty"`
	Location         string   `json:"location"`
	AgendaItems      []string `json:"agenda_items"`
	NotificationFile *FileRef `json:"notification_file,omitempty"`
	AgendaFile       *FileRef `json:"agenda_file,omitempty"`
}

// CleanAgendaItems returns the agenda items trimmed, with blank entries removed.
func (c *CandidateMeeting) CleanAgendaItems() []string {
	items := make([]string, 0, len(c.AgendaItems))
	for _, item := range c.AgendaItems {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// Clone returns a deep copy of the candidate so callers can hand out snapshots.
func (c *CandidateMeeting) Clone() *CandidateMeeting {
	if c == nil {
		return nil
	}
	clone := *c
	clone.AgendaItems = append([]string(nil), c.AgendaItems...)
	if c.DurationMinutes != nil {
		d := *c.DurationMinutes
		clone.DurationMinutes = &d
	}
	if c.NotificationFile != nil {
		f := *c.NotificationFile
		clone.NotificationFile = &f
	}
	if c.AgendaFile != nil {
		f := *c.AgendaFile
		clone.AgendaFile = &f
	}
	return &clone
}

// ToScheduledMeeting builds the record to persist from a validated candidate.
func (c *CandidateMeeting) ToScheduledMeeting(uid, createdBy string, now time.Time) *ScheduledMeeting {
	return &ScheduledMeeting{
		UID:              uid,
		WorkbodyUID:      c.WorkbodyUID,
		WorkbodyName:     c.WorkbodyName,
		Date:             strings.TrimSpace(c.Date),
		Time:             strings.TrimSpace(c.Time),
		DurationMinutes:  c.DurationMinutes,
		Location:         strings.TrimSpace(c.Location),
		AgendaItems:      c.CleanAgendaItems(),
		NotificationFile: withURL(c.NotificationFile, MeetingAttachmentURL(uid, AttachmentKindNotification)),
		AgendaFile:       withURL(c.AgendaFile, MeetingAttachmentURL(uid, AttachmentKindAgenda)),
		CreatedBy:        createdBy,
		CreatedAt:        &now,
		UpdatedAt:        &now,
	}
}

// CandidateFromMeeting converts a persisted meeting back into a candidate,
// excluding the meeting itself from conflict checks.
func CandidateFromMeeting(m *ScheduledMeeting) *CandidateMeeting {
	return &CandidateMeeting{
		ExcludeUID:       m.UID,
		WorkbodyUID:      m.WorkbodyUID,
		WorkbodyName:     m.WorkbodyName,
		Date:             m.Date,
		Time:             m.Time,
		DurationMinutes:  m.DurationMinutes,
		Location:         m.Location,
		AgendaItems:      append([]string(nil), m.AgendaItems...),
		NotificationFile: m.NotificationFile,
		AgendaFile:       m.AgendaFile,
	}
}

// ScheduledMeetingPatch is a partial update of a scheduled meeting. Nil fields
// are left untouched. WorkbodyName is derived from WorkbodyUID by the service.
type ScheduledMeetingPatch struct {
	WorkbodyUID      *string   `json:"workbody_uid,omitempty"`
	WorkbodyName     *string   `json:"workbody_name,omitempty"`
	Date             *string   `json:"date,omitempty"`
	Time             *string   `json:"time,omitempty"`
	DurationMinutes  *int      `json:"duration_minutes,omitempty"`
	Location         *string   `json:"location,omitempty"`
	AgendaItems      *[]string `json:"agenda_items,omitempty"`
	NotificationFile *FileRef  `json:"notification_file,omitempty"`
	AgendaFile       *FileRef  `json:"agenda_file,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p *ScheduledMeetingPatch) IsEmpty() bool {
	return p == nil || (p.WorkbodyUID == nil && p.WorkbodyName == nil && p.Date == nil &&
		p.Time == nil && p.DurationMinutes == nil && p.Location == nil && p.AgendaItems == nil &&
		p.NotificationFile == nil && p.AgendaFile == nil)
}

// Apply copies the set fields of the patch onto the meeting.
func (p *ScheduledMeetingPatch) Apply(m *ScheduledMeeting) {
	if p == nil || m == nil {
		return
	}
	if p.WorkbodyUID != nil {
		m.WorkbodyUID = *p.WorkbodyUID
	}
	if p.WorkbodyName != nil {
		m.WorkbodyName = *p.WorkbodyName
	}
	if p.Date != nil {
		m.Date = strings.TrimSpace(*p.Date)
	}
	if p.Time != nil {
		m.Time = strings.TrimSpace(*p.Time)
	}
	if p.DurationMinutes != nil {
		d := *p.DurationMinutes
		m.DurationMinutes = &d
	}
	if p.Location != nil {
		m.Location = strings.TrimSpace(*p.Location)
	}
	if p.AgendaItems != nil {
		candidate := CandidateMeeting{AgendaItems: *p.AgendaItems}
		m.AgendaItems = candidate.CleanAgendaItems()
	}
	if p.NotificationFile != nil {
		m.NotificationFile = withURL(p.NotificationFile, MeetingAttachmentURL(m.UID, AttachmentKindNotification))
	}
	if p.AgendaFile != nil {
		m.AgendaFile = withURL(p.AgendaFile, MeetingAttachmentURL(m.UID, AttachmentKindAgenda))
	}
}

// ForeignFiles returns the kinds whose file references in the patch point
// outside the storage prefix of that kind.
func (p *ScheduledMeetingPatch) ForeignFiles() []AttachmentKind {
	if p == nil {
		return nil
	}
	return foreignFiles(p.NotificationFile, p.AgendaFile)
}

// ForeignFiles returns the kinds whose file references in the candidate point
// outside the storage prefix of that kind.
func (c *CandidateMeeting) ForeignFiles() []AttachmentKind {
	if c == nil {
		return nil
	}
	return foreignFiles(c.NotificationFile, c.AgendaFile)
}

func foreignFiles(notification, agenda *FileRef) []AttachmentKind {
	var kinds []AttachmentKind
	if notification != nil && !AttachmentKindNotification.Owns(notification.Path) {
		kinds = append(kinds, AttachmentKindNotification)
	}
	if agenda != nil && !AttachmentKindAgenda.Owns(agenda.Path) {
		kinds = append(kinds, AttachmentKindAgenda)
	}
	return kinds
}

// ParseMeetingDate parses a strict YYYY-MM-DD calendar date.
func ParseMeetingDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if len(value) != len(MeetingDateLayout) {
		return time.Time{}, false
	}
	d, err := time.Parse(MeetingDateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// ParseMeetingTime parses a strict HH:MM 24-hour time and returns the offset from midnight.
func ParseMeetingTime(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if len(value) != len(MeetingTimeLayout) {
		return 0, false
	}
	t, err := time.Parse(MeetingTimeLayout, value)
	if err != nil {
		return 0, false
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
}

// ParseMeetingStart combines a date and a time into a single wall-clock instant (UTC based).
func ParseMeetingStart(date, clock string) (time.Time, bool) {
	d, ok := ParseMeetingDate(date)
	if !ok {
		return time.Time{}, false
	}
	offset, ok := ParseMeetingTime(clock)
	if !ok {
		return time.Time{}, false
	}
	return d.Add(offset), true
}
