// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
)

// NatsMinutesRepository is the NATS KV store repository for meeting minutes.
type NatsMinutesRepository struct {
	base *NatsBaseRepository[models.MeetingMinutes]
	keys *KeyBuilder
}

// NewNatsMinutesRepository creates a new NATS KV store repository for meeting minutes.
func NewNatsMinutesRepository(minutes INatsKeyValue) *NatsMinutesRepository {
	return &NatsMinutesRepository{
		base: NewNatsBaseRepository[models.MeetingMinutes](minutes, "minutes"),
		keys: NewKeyBuilder(""),
	}
}

// ListMinutes returns the minutes of a workbody, or all minutes when workbodyUID is empty.
func (r *NatsMinutesRepository) ListMinutes(ctx context.Context, workbodyUID string) ([]*models.MeetingMinutes, error) {
	all, err := r.base.ListEntities(ctx, "")
	if err != nil {
		return nil, err
	}
	if workbodyUID == "" {
		return all, nil
	}

	minutes := make([]*models.MeetingMinutes, 0, len(all))
	for _, m := range all {
		if m.WorkbodyUID == workbodyUID {
			minutes = append(minutes, m)
		}
	}
	return minutes, nil
}

// GetMinutes returns a single minutes record.
func (r *NatsMinutesRepository) GetMinutes(ctx context.Context, minutesUID string) (*models.MeetingMinutes, error) {
	key, err := r.keys.EntityKey(minutesUID)
	if err != nil {
		return nil, domain.NewNotFoundError("minutes not found", err)
	}
	return r.base.Get(ctx, key)
}

// CreateMinutes stores a new minutes record.
func (r *NatsMinutesRepository) CreateMinutes(ctx context.Context, minutes *models.MeetingMinutes) error {
	key, err := r.keys.EntityKey(minutes.UID)
	if err != nil {
		return domain.NewValidationError("invalid minutes UID", err)
	}
	_, err = r.base.Put(ctx, key, minutes)
	return err
}
