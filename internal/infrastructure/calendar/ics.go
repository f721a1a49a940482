// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package calendar renders scheduled meetings as iCalendar (RFC 5545) files.
package calendar

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
)

// ICS constants for consistent values across all generated ICS files
const (
	ICSProdID         = "-//Pakistan Engineering Council//PEC Pulse//EN"
	ICALVersion       = "2.0"
	ICALScale         = "GREGORIAN"
	ICALMaxLineLength = 75

	// DefaultTimezone is the wall clock meeting dates and times are entered in.
	DefaultTimezone = "Asia/Karachi"

	// DefaultDurationMinutes is the event length of a meeting without a duration.
	DefaultDurationMinutes = 60

	icsDateTime = "20060102T150405"
	uidDomain   = "pulse.pec.org.pk"
)

// UTF-8 byte masks for line folding safety
const (
	UTF8TwoBitMask         = 0xC0 // Mask to isolate first two bits (11000000)
	UTF8ContinuationPrefix = 0x80 // UTF-8 continuation byte prefix (10000000)
)

// Generator renders meeting invitations for one timezone.
type Generator struct {
	tzid string
	loc  *time.Location
}

// NewGenerator creates a Generator for the IANA timezone tzid. An empty tzid
// uses DefaultTimezone.
func NewGenerator(tzid string) (*Generator, error) {
	if tzid == "" {
		tzid = DefaultTimezone
	}
	loc, err := time.LoadLocation(tzid)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tzid, err)
	}
	return &Generator{tzid: tzid, loc: loc}, nil
}

// Timezone returns the IANA name of the generator's timezone.
func (g *Generator) Timezone() string {
	return g.tzid
}

// FileName is the download name of a meeting's calendar file.
func FileName(m *models.ScheduledMeeting) string {
	return fmt.Sprintf("meeting-%s.ics", m.Date)
}

// MeetingICS renders a single-event calendar for the meeting. now stamps the event.
func (g *Generator) MeetingICS(m *models.ScheduledMeeting, now time.Time) (string, error) {
	start, ok := m.StartsAt()
	if !ok {
		return "", domain.NewValidationError("meeting has no valid date and time")
	}

	minutes := DefaultDurationMinutes
	if models.ValidDuration(m.DurationMinutes) {
		minutes = *m.DurationMinutes
	}
	// date and time are wall clock values in the generator's timezone
	startLocal := time.Date(start.Year(), start.Month(), start.Day(), start.Hour(), start.Minute(), 0, 0, g.loc)
	endLocal := startLocal.Add(time.Duration(minutes) * time.Minute)

	title := "Meeting"
	if m.WorkbodyName != "" {
		title = m.WorkbodyName + " meeting"
	}

	var ics strings.Builder

	// Calendar header
	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString(fmt.Sprintf("VERSION:%s\r\n", ICALVersion))
	ics.WriteString(fmt.Sprintf("PRODID:%s\r\n", ICSProdID))
	ics.WriteString(fmt.Sprintf("CALSCALE:%s\r\n", ICALScale))
	ics.WriteString("METHOD:PUBLISH\r\n")

	ics.WriteString(g.timezoneDefinition(startLocal))

	// Event
	ics.WriteString("BEGIN:VEVENT\r\n")
	ics.WriteString(fmt.Sprintf("UID:%s@%s\r\n", m.UID, uidDomain))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", now.UTC().Format(icsDateTime+"Z")))
	ics.WriteString(fmt.Sprintf("DTSTART;TZID=%s:%s\r\n", g.tzid, startLocal.Format(icsDateTime)))
	ics.WriteString(fmt.Sprintf("DTEND;TZID=%s:%s\r\n", g.tzid, endLocal.Format(icsDateTime)))
	ics.WriteString(foldICSLine("SUMMARY:"+escapeICSText(title), ICALMaxLineLength) + "\r\n")
	if m.Location != "" {
		ics.WriteString(foldICSLine("LOCATION:"+escapeICSText(m.Location), ICALMaxLineLength) + "\r\n")
	}
	if description := buildDescription(m); description != "" {
		ics.WriteString(foldICSLine("DESCRIPTION:"+escapeICSText(description), ICALMaxLineLength) + "\r\n")
	}
	if m.UpdatedAt != nil {
		ics.WriteString(fmt.Sprintf("LAST-MODIFIED:%s\r\n", m.UpdatedAt.UTC().Format(icsDateTime+"Z")))
	}

	// Meeting properties
	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")
	ics.WriteString("CLASS:PUBLIC\r\n")

	// Alarm
	ics.WriteString("BEGIN:VALARM\r\n")
	ics.WriteString("TRIGGER:-PT30M\r\n")
	ics.WriteString("ACTION:DISPLAY\r\n")
	ics.WriteString(foldICSLine("DESCRIPTION:Reminder: "+escapeICSText(title), ICALMaxLineLength) + "\r\n")
	ics.WriteString("END:VALARM\r\n")

	ics.WriteString("END:VEVENT\r\n")
	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String(), nil
}

// timezoneDefinition generates the VTIMEZONE component with the offset in
// effect at the event start.
func (g *Generator) timezoneDefinition(at time.Time) string {
	name, offset := at.Zone()

	var tz strings.Builder
	tz.WriteString("BEGIN:VTIMEZONE\r\n")
	tz.WriteString(fmt.Sprintf("TZID:%s\r\n", g.tzid))
	tz.WriteString(fmt.Sprintf("X-LIC-LOCATION:%s\r\n", g.tzid))
	tz.WriteString("BEGIN:STANDARD\r\n")
	tz.WriteString("DTSTART:19700101T000000\r\n")
	tz.WriteString(fmt.Sprintf("TZOFFSETFROM:%s\r\n", formatOffset(offset)))
	tz.WriteString(fmt.Sprintf("TZOFFSETTO:%s\r\n", formatOffset(offset)))
	tz.WriteString(fmt.Sprintf("TZNAME:%s\r\n", name))
	tz.WriteString("END:STANDARD\r\n")
	tz.WriteString("END:VTIMEZONE\r\n")
	return tz.String()
}

// formatOffset formats a UTC offset in seconds as +hhmm.
func formatOffset(seconds int) string {
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%02d%02d", sign, seconds/3600, (seconds%3600)/60)
}

// buildDescription lists the agenda and the attached documents.
func buildDescription(m *models.ScheduledMeeting) string {
	var desc strings.Builder

	if len(m.AgendaItems) > 0 {
		desc.WriteString("Agenda:\n")
		for i, item := range m.AgendaItems {
			desc.WriteString(fmt.Sprintf("%d. %s\n", i+1, item))
		}
	}

	var files []string
	for _, ref := range []*models.FileRef{m.NotificationFile, m.AgendaFile} {
		if ref != nil && ref.Name != "" {
			files = append(files, ref.Name)
		}
	}
	if len(files) > 0 {
		if desc.Len() > 0 {
			desc.WriteString("\n")
		}
		desc.WriteString("Documents:\n")
		for _, name := range files {
			desc.WriteString("- " + name + "\n")
		}
	}

	return strings.TrimRight(desc.String(), "\n")
}

// escapeICSText escapes special characters in ICS text fields
func escapeICSText(text string) string {
	// Escape special characters according to RFC5545
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\n", "\\n")
	text = strings.ReplaceAll(text, ",", "\\,")
	text = strings.ReplaceAll(text, ";", "\\;")
	return text
}

// foldICSLine folds long lines according to RFC5545 (75 octets max)
func foldICSLine(line string, maxLength int) string {
	if len(line) <= maxLength {
		return line
	}

	var folded strings.Builder
	remaining := line
	first := true

	for len(remaining) > 0 {
		cutLength := maxLength
		if !first {
			cutLength = maxLength - 1 // Account for leading space on continued lines
		}

		if len(remaining) <= cutLength {
			if !first {
				folded.WriteString("\r\n ")
			}
			folded.WriteString(remaining)
			break
		}

		// Find a safe place to break (not in the middle of a UTF-8 sequence)
		breakPoint := cutLength
		for breakPoint > 0 && remaining[breakPoint]&UTF8TwoBitMask == UTF8ContinuationPrefix {
			breakPoint--
		}

		if !first {
			folded.WriteString("\r\n ")
		}
		folded.WriteString(remaining[:breakPoint])
		remaining = remaining[breakPoint:]
		first = false
	}

	return folded.String()
}
