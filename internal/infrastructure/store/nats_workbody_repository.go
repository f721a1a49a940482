// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
)

// NatsWorkbodyRepository is the NATS KV store repository for workbodies.
type NatsWorkbodyRepository struct {
	base *NatsBaseRepository[models.Workbody]
	keys *KeyBuilder
}

// NewNatsWorkbodyRepository creates a new NATS KV store repository for workbodies.
func NewNatsWorkbodyRepository(workbodies INatsKeyValue) *NatsWorkbodyRepository {
	return &NatsWorkbodyRepository{
		base: NewNatsBaseRepository[models.Workbody](workbodies, "workbody"),
		keys: NewKeyBuilder(""),
	}
}

func (r *NatsWorkbodyRepository) key(uid string) (string, error) {
	key, err := r.keys.EntityKey(uid)
	if err != nil {
		return "", domain.NewNotFoundError("workbody not found", err)
	}
	return key, nil
}

// ListWorkbodies returns every stored workbody, archived ones included.
func (r *NatsWorkbodyRepository) ListWorkbodies(ctx context.Context) ([]*models.Workbody, error) {
	return r.base.ListEntities(ctx, "")
}

// GetWorkbody returns a single workbody.
func (r *NatsWorkbodyRepository) GetWorkbody(ctx context.Context, workbodyUID string) (*models.Workbody, error) {
	workbody, _, err := r.GetWorkbodyWithRevision(ctx, workbodyUID)
	return workbody, err
}

// GetWorkbodyWithRevision returns a workbody with the revision needed to update it.
func (r *NatsWorkbodyRepository) GetWorkbodyWithRevision(ctx context.Context, workbodyUID string) (*models.Workbody, uint64, error) {
	key, err := r.key(workbodyUID)
	if err != nil {
		return nil, 0, err
	}
	return r.base.GetWithRevision(ctx, key)
}

// CreateWorkbody stores a new workbody.
func (r *NatsWorkbodyRepository) CreateWorkbody(ctx context.Context, workbody *models.Workbody) error {
	key, err := r.keys.EntityKey(workbody.UID)
	if err != nil {
		return domain.NewValidationError("invalid workbody UID", err)
	}
	_, err = r.base.Put(ctx, key, workbody)
	return err
}

// UpdateWorkbody writes the workbody if it was not modified since revision.
func (r *NatsWorkbodyRepository) UpdateWorkbody(ctx context.Context, workbody *models.Workbody, revision uint64) error {
	key, err := r.key(workbody.UID)
	if err != nil {
		return err
	}
	return r.base.Update(ctx, key, workbody, revision)
}

// NatsMemberRepository is the NATS KV store repository for workbody members,
// keyed by "<workbody uid>.<member uid>".
type NatsMemberRepository struct {
	base *NatsBaseRepository[models.WorkbodyMember]
	keys *KeyBuilder
}

// NewNatsMemberRepository creates a new NATS KV store repository for workbody members.
func NewNatsMemberRepository(members INatsKeyValue) *NatsMemberRepository {
	return &NatsMemberRepository{
		base: NewNatsBaseRepository[models.WorkbodyMember](members, "member"),
		keys: NewKeyBuilder(""),
	}
}

// ListMembers returns the members of a workbody.
func (r *NatsMemberRepository) ListMembers(ctx context.Context, workbodyUID string) ([]*models.WorkbodyMember, error) {
	if _, err := r.keys.EntityKey(workbodyUID); err != nil {
		return []*models.WorkbodyMember{}, nil
	}
	return r.base.ListEntities(ctx, r.keys.ScopePrefix(workbodyUID))
}

// CreateMember stores a new member.
func (r *NatsMemberRepository) CreateMember(ctx context.Context, member *models.WorkbodyMember) error {
	key, err := r.keys.ScopedKey(member.WorkbodyUID, member.UID)
	if err != nil {
		return domain.NewValidationError("invalid member UID", err)
	}
	_, err = r.base.Put(ctx, key, member)
	return err
}

// DeleteMember removes a member from a workbody.
func (r *NatsMemberRepository) DeleteMember(ctx context.Context, workbodyUID, memberUID string) error {
	key, err := r.keys.ScopedKey(workbodyUID, memberUID)
	if err != nil {
		return domain.NewNotFoundError("member not found", err)
	}

	_, revision, err := r.base.GetWithRevision(ctx, key)
	if err != nil {
		return err
	}
	return r.base.Delete(ctx, key, revision)
}
