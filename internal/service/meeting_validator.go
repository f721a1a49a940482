// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
)

// Validation messages. They are part of the API surface: clients match on them
// to highlight form fields.
const (
	MsgWorkbodyRequired     = "Workbody is required."
	MsgWorkbodyUnknown      = "Selected workbody does not exist."
	MsgDateRequired         = "Date is required."
	MsgDateInvalid          = "Date must be a valid calendar date (YYYY-MM-DD)."
	MsgTimeRequired         = "Time is required."
	MsgTimeInvalid          = "Time must be a valid 24-hour time (HH:MM)."
	MsgDurationInvalid      = "Duration must be between 1 and 1440 minutes."
	MsgLocationRequired     = "Location is required."
	MsgAgendaRequired       = "At least one agenda item is required."
	MsgWorkbodyDoubleBooked = "A meeting for this workbody already exists at this date and time."
	MsgScheduledInPast      = "This meeting is scheduled in the past."
)

// LocationBookedWarning is the warning raised when another workbody holds the same location.
func LocationBookedWarning(location string) string {
	return fmt.Sprintf("Location '%s' is already booked for another workbody at this time.", location)
}

// MeetingValidator checks a candidate meeting against field rules and the
// existing meeting set. It performs no I/O and never mutates its inputs.
type MeetingValidator struct {
	// ConflictWindow is how close two start times may be before they clash.
	// Zero means only identical start times clash.
	ConflictWindow time.Duration
	// Now is the clock used for the past-date warning.
	Now func() time.Time
}

// NewMeetingValidator creates a validator. A nil clock defaults to time.Now.
func NewMeetingValidator(window time.Duration, now func() time.Time) *MeetingValidator {
	if now == nil {
		now = time.Now
	}
	if window < 0 {
		window = 0
	}
	return &MeetingValidator{ConflictWindow: window, Now: now}
}

// Validate returns the blocking errors and non-blocking warnings for the
// candidate. workbodies maps every known workbody UID to its name.
func (v *MeetingValidator) Validate(
	candidate *models.CandidateMeeting,
	existing []*models.ScheduledMeeting,
	workbodies map[string]string,
) models.ValidationResult {
	result := models.ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
	}
	if candidate == nil {
		candidate = &models.CandidateMeeting{}
	}

	workbodyUID := strings.TrimSpace(candidate.WorkbodyUID)
	workbodyOK := false
	switch {
	case workbodyUID == "":
		result.Errors = append(result.Errors, MsgWorkbodyRequired)
	default:
		if _, known := workbodies[workbodyUID]; !known {
			result.Errors = append(result.Errors, MsgWorkbodyUnknown)
		} else {
			workbodyOK = true
		}
	}

	date, dateOK := checkField(&result, candidate.Date, MsgDateRequired, MsgDateInvalid, models.ParseMeetingDate)
	offset, timeOK := checkField(&result, candidate.Time, MsgTimeRequired, MsgTimeInvalid, models.ParseMeetingTime)

	if candidate.DurationMinutes != nil && !models.ValidDuration(candidate.DurationMinutes) {
		result.Errors = append(result.Errors, MsgDurationInvalid)
	}

	location := strings.TrimSpace(candidate.Location)
	if location == "" {
		result.Errors = append(result.Errors, MsgLocationRequired)
	}

	if len(candidate.CleanAgendaItems()) == 0 {
		result.Errors = append(result.Errors, MsgAgendaRequired)
	}

	if workbodyOK && dateOK && timeOK {
		start := date.Add(offset)
		doubleBooked, locationTaken := v.scan(candidate, workbodyUID, location, start, existing)
		if doubleBooked {
			result.Errors = append(result.Errors, MsgWorkbodyDoubleBooked)
		}
		if locationTaken {
			result.Warnings = append(result.Warnings, LocationBookedWarning(location))
		}
	}

	if dateOK && date.Before(v.today()) {
		result.Warnings = append(result.Warnings, MsgScheduledInPast)
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// scan walks the existing meetings once and reports whether the candidate's
// workbody is already booked and whether its location is held by another workbody.
func (v *MeetingValidator) scan(
	candidate *models.CandidateMeeting,
	workbodyUID, location string,
	start time.Time,
	existing []*models.ScheduledMeeting,
) (doubleBooked, locationTaken bool) {
	for _, other := range existing {
		if other == nil {
			continue
		}
		if candidate.ExcludeUID != "" && other.UID == candidate.ExcludeUID {
			continue
		}
		otherStart, ok := other.StartsAt()
		if !ok || !sameDay(start, otherStart) {
			continue
		}
		if !v.overlaps(start, candidate.DurationMinutes, otherStart, other.DurationMinutes) {
			continue
		}

		if other.WorkbodyUID == workbodyUID {
			doubleBooked = true
		} else if location != "" && strings.EqualFold(strings.TrimSpace(other.Location), location) {
			locationTaken = true
		}

		if doubleBooked && locationTaken {
			return
		}
	}
	return
}

// overlaps compares two meetings. Identical starts always clash. When both
// carry a valid duration their intervals are compared, otherwise the start
// times must lie within the conflict window.
func (v *MeetingValidator) overlaps(aStart time.Time, aMinutes *int, bStart time.Time, bMinutes *int) bool {
	if aStart.Equal(bStart) {
		return true
	}
	if models.ValidDuration(aMinutes) && models.ValidDuration(bMinutes) {
		aEnd := aStart.Add(time.Duration(*aMinutes) * time.Minute)
		bEnd := bStart.Add(time.Duration(*bMinutes) * time.Minute)
		return aStart.Before(bEnd) && bStart.Before(aEnd)
	}

	diff := aStart.Sub(bStart)
	if diff < 0 {
		diff = -diff
	}
	return diff <= v.ConflictWindow
}

func (v *MeetingValidator) today() time.Time {
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	y, m, d := now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func checkField[T any](result *models.ValidationResult, value, missing, invalid string, parse func(string) (T, bool)) (T, bool) {
	var zero T
	if strings.TrimSpace(value) == "" {
		result.Errors = append(result.Errors, missing)
		return zero, false
	}
	parsed, ok := parse(value)
	if !ok {
		result.Errors = append(result.Errors, invalid)
		return zero, false
	}
	return parsed, true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
