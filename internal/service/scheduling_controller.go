// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/internal/logging"
)

// SchedulingState is the state of a scheduling attempt.
type SchedulingState string

// SchedulingState constants.
const (
	StateEditing    SchedulingState = "editing"
	StateValidating SchedulingState = "validating"
	StateUploading  SchedulingState = "uploading"
	StatePersisting SchedulingState = "persisting"
	StateSucceeded  SchedulingState = "succeeded"
	StateFailed     SchedulingState = "failed"
)

// InFlight reports whether an attempt in this state is still running.
func (s SchedulingState) InFlight() bool {
	return s == StateValidating || s == StateUploading || s == StatePersisting
}

// Progress checkpoints reported while an attempt runs.
const (
	ProgressValidated          = 10
	ProgressNotificationStored = 40
	ProgressAgendaStored       = 70
	ProgressPersisted          = 90
	ProgressDone               = 100
)

// Outcome labels of the pulse.scheduling.attempts counter.
const (
	outcomeSucceeded     = "succeeded"
	outcomeInvalid       = "invalid"
	outcomeRejected      = "rejected"
	outcomeUnavailable   = "unavailable"
	outcomeUploadFailed  = "upload_failed"
	outcomePersistFailed = "persist_failed"
	outcomeCancelled     = "cancelled"
)

// SchedulingDeps are the collaborators of a SchedulingController.
type SchedulingDeps struct {
	Validator  *MeetingValidator
	Meetings   domain.MeetingRepository
	ListCache  *MeetingListCache
	Workbodies WorkbodyDirectory
	Counters   MeetingCounter
	Events     domain.MeetingEventSender
	Attempts   metric.Int64Counter
	Now        func() time.Time
}

// SchedulingSnapshot is a copy of the controller state safe to hand to callers.
type SchedulingSnapshot struct {
	State      SchedulingState          `json:"state"`
	Progress   int                      `json:"progress"`
	Form       *models.CandidateMeeting `json:"form"`
	Validation *models.ValidationResult `json:"validation,omitempty"`
	Error      string                   `json:"error,omitempty"`
	Meeting    *models.ScheduledMeeting `json:"meeting,omitempty"`
}

// SchedulingController drives one "schedule a meeting" form through
// validation, sequential uploads and persistence. Only one attempt runs at a
// time; a second Submit while one is in flight is rejected, not queued.
type SchedulingController struct {
	deps SchedulingDeps

	mu               sync.Mutex
	state            SchedulingState
	form             *models.CandidateMeeting
	notificationFile *models.AttachmentUpload
	agendaFile       *models.AttachmentUpload
	validation       *models.ValidationResult
	progress         int
	lastErr          error
	meeting          *models.ScheduledMeeting
	cancel           context.CancelFunc
}

// NewSchedulingController creates a controller in the editing state with an empty form.
func NewSchedulingController(deps SchedulingDeps) *SchedulingController {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Attempts == nil {
		deps.Attempts = noop.Int64Counter{}
	}
	return &SchedulingController{
		deps:  deps,
		state: StateEditing,
		form:  &models.CandidateMeeting{},
	}
}

// edit applies a field change. Any change discards the previous validation result.
func (c *SchedulingController) edit(fn func(form *models.CandidateMeeting)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.InFlight() {
		return domain.ErrSubmissionInFlight
	}

	fn(c.form)
	c.validation = nil
	c.lastErr = nil
	if c.state != StateEditing {
		c.state = StateEditing
		c.progress = 0
	}
	return nil
}

// SetWorkbody selects the workbody the meeting belongs to.
func (c *SchedulingController) SetWorkbody(uid, name string) error {
	return c.edit(func(form *models.CandidateMeeting) {
		form.WorkbodyUID = uid
		form.WorkbodyName = name
	})
}

// SetDate sets the calendar date (YYYY-MM-DD).
func (c *SchedulingController) SetDate(date string) error {
	return c.edit(func(form *models.CandidateMeeting) { form.Date = date })
}

// SetTime sets the 24-hour start time (HH:MM).
func (c *SchedulingController) SetTime(clock string) error {
	return c.edit(func(form *models.CandidateMeeting) { form.Time = clock })
}

// SetDuration sets or clears the optional meeting duration in minutes.
func (c *SchedulingController) SetDuration(minutes *int) error {
	return c.edit(func(form *models.CandidateMeeting) { form.DurationMinutes = minutes })
}

// SetLocation sets the free-text location.
func (c *SchedulingController) SetLocation(location string) error {
	return c.edit(func(form *models.CandidateMeeting) { form.Location = location })
}

// SetAgendaItems replaces the agenda items.
func (c *SchedulingController) SetAgendaItems(items []string) error {
	return c.edit(func(form *models.CandidateMeeting) {
		form.AgendaItems = append([]string(nil), items...)
	})
}

// AttachNotification selects the notification document. A nil upload clears it.
func (c *SchedulingController) AttachNotification(upload *models.AttachmentUpload) error {
	return c.edit(func(*models.CandidateMeeting) { c.notificationFile = upload })
}

// AttachAgenda selects the agenda document. A nil upload clears it.
func (c *SchedulingController) AttachAgenda(upload *models.AttachmentUpload) error {
	return c.edit(func(*models.CandidateMeeting) { c.agendaFile = upload })
}

// Load replaces the whole form, as when a client posts a complete candidate.
func (c *SchedulingController) Load(candidate *models.CandidateMeeting, notification, agenda *models.AttachmentUpload) error {
	return c.edit(func(form *models.CandidateMeeting) {
		if candidate == nil {
			*form = models.CandidateMeeting{}
		} else {
			*form = *candidate.Clone()
		}
		c.notificationFile = notification
		c.agendaFile = agenda
	})
}

// Reset returns the form to its defaults.
func (c *SchedulingController) Reset() error {
	return c.edit(func(form *models.CandidateMeeting) {
		*form = models.CandidateMeeting{}
		c.notificationFile = nil
		c.agendaFile = nil
	})
}

// Cancel aborts the attempt in flight, if any. It reports whether there was one.
func (c *SchedulingController) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.InFlight() || c.cancel == nil {
		return false
	}
	c.cancel()
	return true
}

// Snapshot returns a copy of the current state.
func (c *SchedulingController) Snapshot() SchedulingSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := SchedulingSnapshot{
		State:    c.state,
		Progress: c.progress,
		Form:     c.form.Clone(),
		Meeting:  c.meeting,
	}
	if c.validation != nil {
		v := *c.validation
		snapshot.Validation = &v
	}
	if c.lastErr != nil {
		snapshot.Error = domain.GetErrorMessage(c.lastErr)
	}
	return snapshot
}

// Submit runs one scheduling attempt for the current form on behalf of createdBy.
//
// An invalid form returns to editing with a validation error carrying the
// first blocking message. Upload and persistence failures leave the
// controller failed with the form intact. The notification file is always
// stored before the agenda file, and nothing is persisted unless every
// upload succeeded.
func (c *SchedulingController) Submit(ctx context.Context, createdBy string) (*models.ScheduledMeeting, error) {
	return c.submit(ctx, createdBy, nil)
}

// SubmitCandidate replaces the form and submits it without letting another
// request change the form in between.
func (c *SchedulingController) SubmitCandidate(
	ctx context.Context,
	createdBy string,
	candidate *models.CandidateMeeting,
	notification, agenda *models.AttachmentUpload,
) (*models.ScheduledMeeting, error) {
	return c.submit(ctx, createdBy, func() {
		c.form = &models.CandidateMeeting{}
		if candidate != nil {
			c.form = candidate.Clone()
		}
		c.notificationFile = notification
		c.agendaFile = agenda
	})
}

// submit starts an attempt. load, when set, runs under the same lock that
// marks the attempt in flight.
func (c *SchedulingController) submit(ctx context.Context, createdBy string, load func()) (*models.ScheduledMeeting, error) {
	c.mu.Lock()
	if c.state.InFlight() {
		c.mu.Unlock()
		c.record(ctx, outcomeRejected)
		return nil, domain.ErrSubmissionInFlight
	}
	if load != nil {
		load()
	}

	attemptCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = StateValidating
	c.progress = 0
	c.validation = nil
	c.lastErr = nil
	c.meeting = nil
	candidate := c.form.Clone()
	notification, agenda := c.notificationFile, c.agendaFile
	c.mu.Unlock()

	defer cancel()

	meeting, outcome, err := c.run(attemptCtx, candidate, notification, agenda, createdBy)
	c.record(ctx, outcome)
	return meeting, err
}

func (c *SchedulingController) run(
	ctx context.Context,
	candidate *models.CandidateMeeting,
	notification, agenda *models.AttachmentUpload,
	createdBy string,
) (*models.ScheduledMeeting, string, error) {
	if kinds := candidate.ForeignFiles(); len(kinds) > 0 {
		c.mu.Lock()
		c.state = StateEditing
		c.progress = 0
		c.mu.Unlock()

		slog.WarnContext(ctx, "candidate meeting references files outside their kind", "kinds", kinds)
		return nil, outcomeInvalid, domain.NewValidationError(foreignFileMessage(kinds[0]))
	}

	existing, err := c.deps.ListCache.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "error listing meetings for validation", logging.ErrKey, err)
		return c.failOrCancel(ctx, outcomeUnavailable, err)
	}
	workbodies, err := c.deps.Workbodies.KnownWorkbodies(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "error listing workbodies for validation", logging.ErrKey, err)
		return c.failOrCancel(ctx, outcomeUnavailable, err)
	}

	result := c.deps.Validator.Validate(candidate, existing, workbodies)
	if !result.IsValid {
		c.mu.Lock()
		c.state = StateEditing
		c.progress = 0
		c.validation = &result
		c.mu.Unlock()

		slog.DebugContext(ctx, "candidate meeting rejected", "errors", result.Errors, "warnings", result.Warnings)
		return nil, outcomeInvalid, domain.NewValidationError(result.FirstError())
	}

	c.mu.Lock()
	c.validation = &result
	c.mu.Unlock()
	c.advance(StateValidating, ProgressValidated)

	candidate.WorkbodyName = workbodies[candidate.WorkbodyUID]

	steps := []struct {
		upload   *models.AttachmentUpload
		kind     models.AttachmentKind
		ref      **models.FileRef
		progress int
	}{
		{notification, models.AttachmentKindNotification, &candidate.NotificationFile, ProgressNotificationStored},
		{agenda, models.AttachmentKindAgenda, &candidate.AgendaFile, ProgressAgendaStored},
	}
	for _, step := range steps {
		if step.upload != nil {
			c.advance(StateUploading, -1)
			if err := ctx.Err(); err != nil {
				return c.failOrCancel(ctx, outcomeCancelled, err)
			}

			ref, err := c.deps.Meetings.UploadAttachment(ctx, step.upload, step.kind)
			if err != nil {
				slog.ErrorContext(ctx, "error uploading meeting attachment",
					"kind", step.kind,
					"file_name", step.upload.FileName,
					logging.ErrKey, err,
				)
				if domain.GetErrorType(err) != domain.ErrorTypeUpload {
					err = domain.NewUploadError("Failed to upload the "+string(step.kind)+" file.", err)
				}
				return c.failOrCancel(ctx, outcomeUploadFailed, err)
			}
			*step.ref = ref
		}
		c.advance("", step.progress)
	}

	c.advance(StatePersisting, -1)
	if err := ctx.Err(); err != nil {
		return c.failOrCancel(ctx, outcomeCancelled, err)
	}

	meeting := candidate.ToScheduledMeeting(uuid.New().String(), createdBy, c.deps.Now().UTC())
	created, err := c.deps.Meetings.Create(ctx, meeting)
	if err != nil {
		slog.ErrorContext(ctx, "error persisting scheduled meeting", logging.ErrKey, err)
		return c.failOrCancel(ctx, outcomePersistFailed, err)
	}
	c.advance("", ProgressPersisted)

	// the meeting exists now, so bookkeeping must outlive a late cancellation
	c.afterCreate(context.WithoutCancel(ctx), created)

	c.mu.Lock()
	c.state = StateSucceeded
	c.progress = ProgressDone
	c.form = &models.CandidateMeeting{}
	c.notificationFile = nil
	c.agendaFile = nil
	c.validation = nil
	c.meeting = created
	c.mu.Unlock()

	slog.InfoContext(ctx, "meeting scheduled",
		"meeting_uid", created.UID,
		"workbody_uid", created.WorkbodyUID,
		"warnings", result.Warnings,
	)
	return created, outcomeSucceeded, nil
}

func (c *SchedulingController) afterCreate(ctx context.Context, created *models.ScheduledMeeting) {
	if c.deps.ListCache != nil {
		c.deps.ListCache.Invalidate()
	}

	if c.deps.Events != nil {
		if err := c.deps.Events.SendMeetingEvent(ctx, models.ActionCreated, *created); err != nil {
			slog.ErrorContext(ctx, "error publishing meeting scheduled event", "meeting_uid", created.UID, logging.ErrKey, err)
		}
	}

	if c.deps.Counters != nil {
		if err := c.deps.Counters.RecordMeetingScheduled(ctx, created.WorkbodyUID, created.Date); err != nil {
			slog.ErrorContext(ctx, "error updating workbody meeting counters", "workbody_uid", created.WorkbodyUID, logging.ErrKey, err)
		}
	}
}

// advance moves to state (unless empty) and raises progress (unless negative).
// Progress never decreases within an attempt.
func (c *SchedulingController) advance(state SchedulingState, progress int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if state != "" {
		c.state = state
	}
	if progress > c.progress {
		c.progress = progress
	}
}

// failOrCancel moves the attempt to failed and returns the error to surface.
// A cancelled context always yields ErrAttemptCancelled.
func (c *SchedulingController) failOrCancel(ctx context.Context, outcome string, err error) (*models.ScheduledMeeting, string, error) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		outcome = outcomeCancelled
		err = domain.ErrAttemptCancelled
	}

	c.mu.Lock()
	c.state = StateFailed
	c.lastErr = err
	c.mu.Unlock()

	return nil, outcome, err
}

func (c *SchedulingController) record(ctx context.Context, outcome string) {
	c.deps.Attempts.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func foreignFileMessage(kind models.AttachmentKind) string {
	return "The " + string(kind) + " file reference is not valid."
}
