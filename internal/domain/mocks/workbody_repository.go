// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
)

// MockWorkbodyRepository implements WorkbodyRepository for testing
type MockWorkbodyRepository struct {
	mock.Mock
}

func (m *MockWorkbodyRepository) ListWorkbodies(ctx context.Context) ([]*models.Workbody, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Workbody), args.Error(1)
}

func (m *MockWorkbodyRepository) GetWorkbody(ctx context.Context, workbodyUID string) (*models.Workbody, error) {
	args := m.Called(ctx, workbodyUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workbody), args.Error(1)
}

func (m *MockWorkbodyRepository) GetWorkbodyWithRevision(ctx context.Context, workbodyUID string) (*models.Workbody, uint64, error) {
	args := m.Called(ctx, workbodyUID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(uint64), args.Error(2)
	}
	return args.Get(0).(*models.Workbody), args.Get(1).(uint64), args.Error(2)
}

func (m *MockWorkbodyRepository) CreateWorkbody(ctx context.Context, workbody *models.Workbody) error {
	args := m.Called(ctx, workbody)
	return args.Error(0)
}

func (m *MockWorkbodyRepository) UpdateWorkbody(ctx context.Context, workbody *models.Workbody, revision uint64) error {
	args := m.Called(ctx, workbody, revision)
	return args.Error(0)
}

// MockMemberRepository implements MemberRepository for testing
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) ListMembers(ctx context.Context, workbodyUID string) ([]*models.WorkbodyMember, error) {
	args := m.Called(ctx, workbodyUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WorkbodyMember), args.Error(1)
}

func (m *MockMemberRepository) CreateMember(ctx context.Context, member *models.WorkbodyMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) DeleteMember(ctx context.Context, workbodyUID, memberUID string) error {
	args := m.Called(ctx, workbodyUID, memberUID)
	return args.Error(0)
}
