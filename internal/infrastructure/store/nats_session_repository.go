// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
)

// NatsSessionRepository keeps msgpack encoded sessions in the NATS KV store.
type NatsSessionRepository struct {
	base *NatsBaseRepository[models.Session]
	keys *KeyBuilder
}

// NewNatsSessionRepository creates a new NATS KV store repository for sessions.
func NewNatsSessionRepository(sessions INatsKeyValue) *NatsSessionRepository {
	return &NatsSessionRepository{
		base: NewNatsBaseRepository[models.Session](sessions, "session").WithCodec(MsgpackCodec),
		keys: NewKeyBuilder(""),
	}
}

// PutSession stores a session.
func (r *NatsSessionRepository) PutSession(ctx context.Context, session *models.Session) error {
	key, err := r.keys.EntityKey(session.ID)
	if err != nil {
		return domain.NewValidationError("invalid session id", err)
	}
	_, err = r.base.Put(ctx, key, session)
	return err
}

// GetSession returns a stored session.
func (r *NatsSessionRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	key, err := r.keys.EntityKey(sessionID)
	if err != nil {
		return nil, domain.NewNotFoundError("session not found", err)
	}
	return r.base.Get(ctx, key)
}

// DeleteSession removes a stored session.
func (r *NatsSessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	key, err := r.keys.EntityKey(sessionID)
	if err != nil {
		return domain.NewNotFoundError("session not found", err)
	}
	exists, err := r.base.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return domain.NewNotFoundError("session not found")
	}
	return r.base.Delete(ctx, key, 0)
}
