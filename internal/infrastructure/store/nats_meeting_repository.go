// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
)

// updateAttempts bounds the optimistic-concurrency retries of read-modify-write updates.
const updateAttempts = 3

// NatsMeetingRepository is the NATS KV store repository for scheduled meetings.
// Attachments go to the Object Store.
type NatsMeetingRepository struct {
	*ObjectAttachmentStore
	base *NatsBaseRepository[models.ScheduledMeeting]
	keys *KeyBuilder
	now  func() time.Time
}

// NewNatsMeetingRepository creates a new NATS KV store repository for scheduled meetings.
func NewNatsMeetingRepository(meetings INatsKeyValue, attachments *ObjectAttachmentStore) *NatsMeetingRepository {
	return &NatsMeetingRepository{
		ObjectAttachmentStore: attachments,
		base:                  NewNatsBaseRepository[models.ScheduledMeeting](meetings, "meeting"),
		keys:                  NewKeyBuilder(""),
		now:                   time.Now,
	}
}

// IsReady checks if the meeting bucket is configured.
func (r *NatsMeetingRepository) IsReady() bool {
	return r.base.IsReady()
}

func (r *NatsMeetingRepository) key(uid string) (string, error) {
	key, err := r.keys.EntityKey(uid)
	if err != nil {
		return "", domain.NewNotFoundError("meeting not found", err)
	}
	return key, nil
}

// List returns every stored meeting.
func (r *NatsMeetingRepository) List(ctx context.Context) ([]*models.ScheduledMeeting, error) {
	return r.base.ListEntities(ctx, "")
}

// Get returns a single meeting.
func (r *NatsMeetingRepository) Get(ctx context.Context, meetingUID string) (*models.ScheduledMeeting, error) {
	key, err := r.key(meetingUID)
	if err != nil {
		return nil, err
	}
	return r.base.Get(ctx, key)
}

// Create stores a new meeting, assigning a UID when the caller did not. A UID
// that is already taken is a persistence error; the stored meeting is kept.
func (r *NatsMeetingRepository) Create(ctx context.Context, meeting *models.ScheduledMeeting) (*models.ScheduledMeeting, error) {
	if meeting == nil {
		return nil, domain.NewValidationError("meeting is required")
	}

	stored := *meeting
	if stored.UID == "" {
		stored.UID = uuid.New().String()
	}
	if stored.CreatedAt == nil {
		now := r.now().UTC()
		stored.CreatedAt = &now
		stored.UpdatedAt = &now
	}

	key, err := r.keys.EntityKey(stored.UID)
	if err != nil {
		return nil, domain.NewValidationError("invalid meeting UID", err)
	}
	if _, err := r.base.Create(ctx, key, &stored); err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeUnavailable {
			return nil, err
		}
		return nil, domain.NewPersistenceError("failed to save the meeting", err)
	}

	slog.DebugContext(ctx, "stored meeting", "meeting_uid", stored.UID)
	return &stored, nil
}

// Update applies the patch to the current meeting, retrying if it is modified concurrently.
func (r *NatsMeetingRepository) Update(ctx context.Context, meetingUID string, patch *models.ScheduledMeetingPatch) (*models.ScheduledMeeting, error) {
	key, err := r.key(meetingUID)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		meeting, revision, err := r.base.GetWithRevision(ctx, key)
		if err != nil {
			return nil, err
		}

		patch.Apply(meeting)
		now := r.now().UTC()
		meeting.UpdatedAt = &now

		err = r.base.Update(ctx, key, meeting, revision)
		if err == nil {
			return meeting, nil
		}
		if !errors.Is(err, domain.ErrRevisionMismatch) || attempt == updateAttempts {
			return nil, err
		}
	}
}

// Delete removes a meeting. Deleting a meeting that does not exist is a not found error.
func (r *NatsMeetingRepository) Delete(ctx context.Context, meetingUID string) error {
	key, err := r.key(meetingUID)
	if err != nil {
		return err
	}

	_, revision, err := r.base.GetWithRevision(ctx, key)
	if err != nil {
		return err
	}
	return r.base.Delete(ctx, key, revision)
}
