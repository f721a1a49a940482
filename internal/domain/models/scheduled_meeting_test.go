// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMeetingDate(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"valid date", "2025-05-10", true},
		{"leap day", "2024-02-29", true},
		{"not a leap year", "2025-02-29", false},
		{"month out of range", "2025-13-01", false},
		{"missing zero padding", "2025-5-10", false},
		{"empty", "", false},
		{"garbage", "next tuesday", false},
		{"surrounding whitespace", " 2025-05-10 ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ParseMeetingDate(tt.value)
			assert.Equal(t, tt.valid, ok)
		})
	}
}

func TestParseMeetingTime(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		valid    bool
		expected time.Duration
	}{
		{"morning", "10:00", true, 10 * time.Hour},
		{"midnight", "00:00", true, 0},
		{"last minute", "23:59", true, 23*time.Hour + 59*time.Minute},
		{"hour out of range", "24:00", false, 0},
		{"minute out of range", "10:60", false, 0},
		{"missing padding", "9:00", false, 0},
		{"twelve hour format", "10:00 AM", false, 0},
		{"empty", "", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, ok := ParseMeetingTime(tt.value)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, tt.expected, offset)
			}
		})
	}
}

func TestCandidateMeeting_CleanAgendaItems(t *testing.T) {
	c := &CandidateMeeting{AgendaItems: []string{"", "  Item A ", "   ", "Item B"}}
	assert.Equal(t, []string{"Item A", "Item B"}, c.CleanAgendaItems())

	empty := &CandidateMeeting{AgendaItems: []string{"", "   "}}
	assert.Empty(t, empty.CleanAgendaItems())
}

func TestCandidateMeeting_ToScheduledMeeting(t *testing.T) {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	c := &CandidateMeeting{
		WorkbodyUID:  "wb-1",
		WorkbodyName: "Education Committee",
		Date:         "2025-05-10",
		Time:         "10:00",
		Location:     "  PEC HQ ",
		AgendaItems:  []string{"Item A", " "},
		AgendaFile:   &FileRef{Name: "agenda.pdf", Path: "meeting-agendas/x/agenda.pdf"},
	}

	m := c.ToScheduledMeeting("m-1", "user-1", now)

	assert.Equal(t, "m-1", m.UID)
	assert.Equal(t, "PEC HQ", m.Location)
	assert.Equal(t, []string{"Item A"}, m.AgendaItems)
	assert.Equal(t, &FileRef{Name: "agenda.pdf", Path: "meeting-agendas/x/agenda.pdf", URL: "/meetings/m-1/attachments/agenda"}, m.AgendaFile)
	assert.Empty(t, c.AgendaFile.URL, "candidate ref is not modified")
	assert.Nil(t, m.NotificationFile)
	require.NotNil(t, m.CreatedAt)
	assert.Equal(t, now, *m.CreatedAt)
}

func TestCandidateMeeting_Clone(t *testing.T) {
	d := 60
	c := &CandidateMeeting{AgendaItems: []string{"A"}, DurationMinutes: &d}
	clone := c.Clone()

	clone.AgendaItems[0] = "changed"
	*clone.DurationMinutes = 90

	assert.Equal(t, "A", c.AgendaItems[0])
	assert.Equal(t, 60, *c.DurationMinutes)
	assert.Nil(t, (*CandidateMeeting)(nil).Clone())
}

func TestScheduledMeetingPatch_Apply(t *testing.T) {
	m := &ScheduledMeeting{
		UID:         "m-1",
		WorkbodyUID: "wb-1",
		Date:        "2025-05-10",
		Time:        "10:00",
		Location:    "PEC HQ",
		AgendaItems: []string{"Item A"},
	}

	newTime := "11:30"
	items := []string{"Item B", "  "}
	patch := &ScheduledMeetingPatch{Time: &newTime, AgendaItems: &items}
	assert.False(t, patch.IsEmpty())

	patch.Apply(m)

	assert.Equal(t, "11:30", m.Time)
	assert.Equal(t, "2025-05-10", m.Date)
	assert.Equal(t, []string{"Item B"}, m.AgendaItems)
	assert.True(t, (&ScheduledMeetingPatch{}).IsEmpty())

	(&ScheduledMeetingPatch{NotificationFile: &FileRef{Name: "n.pdf", Path: "meeting-notifications/x/n.pdf"}}).Apply(m)
	require.NotNil(t, m.NotificationFile)
	assert.Equal(t, "/meetings/m-1/attachments/notification", m.NotificationFile.URL)
}

func TestAttachmentKind_Owns(t *testing.T) {
	tests := []struct {
		name string
		kind AttachmentKind
		path string
		want bool
	}{
		{"own prefix", AttachmentKindAgenda, "meeting-agendas/abc/agenda.pdf", true},
		{"dots inside a name", AttachmentKindAgenda, "meeting-agendas/abc/a..b.pdf", true},
		{"other kind", AttachmentKindAgenda, "meeting-minutes/abc/minutes.pdf", false},
		{"prefix only as a name start", AttachmentKindAgenda, "meeting-agendas-extra/a.pdf", false},
		{"parent traversal", AttachmentKindAgenda, "meeting-agendas/../meeting-minutes/m.pdf", false},
		{"bare prefix", AttachmentKindNotification, "meeting-notifications", false},
		{"empty", AttachmentKindNotification, "", false},
		{"unknown kind", AttachmentKind("other"), "other/a.pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Owns(tt.path))
		})
	}
}

func TestForeignFiles(t *testing.T) {
	own := &FileRef{Name: "n.pdf", Path: "meeting-notifications/x/n.pdf"}
	foreign := &FileRef{Name: "m.pdf", Path: "meeting-minutes/x/m.pdf"}

	assert.Empty(t, (&CandidateMeeting{NotificationFile: own}).ForeignFiles())
	assert.Equal(t, []AttachmentKind{AttachmentKindAgenda}, (&CandidateMeeting{NotificationFile: own, AgendaFile: foreign}).ForeignFiles())
	assert.Equal(t, []AttachmentKind{AttachmentKindNotification, AttachmentKindAgenda},
		(&ScheduledMeetingPatch{NotificationFile: foreign, AgendaFile: foreign}).ForeignFiles())
	assert.Empty(t, (*ScheduledMeetingPatch)(nil).ForeignFiles())
}

func TestValidDuration(t *testing.T) {
	for _, minutes := range []int{MinDurationMinutes, 90, MaxDurationMinutes} {
		assert.True(t, ValidDuration(&minutes), minutes)
	}
	for _, minutes := range []int{0, -1, MaxDurationMinutes + 1, 200000000} {
		assert.False(t, ValidDuration(&minutes), minutes)
	}
	assert.False(t, ValidDuration(nil))
}

func TestScheduledMeeting_StartsAt(t *testing.T) {
	m := &ScheduledMeeting{Date: "2025-05-10", Time: "10:30"}
	start, ok := m.StartsAt()
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 5, 10, 10, 30, 0, 0, time.UTC), start)

	_, ok = (&ScheduledMeeting{Date: "2025-05-10", Time: "bad"}).StartsAt()
	assert.False(t, ok)
}

func TestAttachmentKind_Prefix(t *testing.T) {
	assert.Equal(t, "meeting-notifications", AttachmentKindNotification.Prefix())
	assert.Equal(t, "meeting-agendas", AttachmentKindAgenda.Prefix())
	assert.Equal(t, "meeting-minutes", AttachmentKindMinutes.Prefix())
	assert.False(t, AttachmentKind("other").IsValid())
}

func TestScheduledMeeting_Tags(t *testing.T) {
	m := &ScheduledMeeting{UID: "m-1", WorkbodyUID: "wb-1", Date: "2025-05-10"}
	assert.Equal(t, []string{"m-1", "meeting_uid:m-1", "workbody_uid:wb-1", "date:2025-05-10"}, m.Tags())
	assert.Nil(t, (*ScheduledMeeting)(nil).Tags())
}
