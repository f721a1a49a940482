// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
)

// MeetingRepository defines the interface for scheduled meeting storage operations.
// This interface can be implemented by different storage backends (NATS, PostgreSQL, etc.)
type MeetingRepository interface {
	// List returns every scheduled meeting currently stored.
	List(ctx context.Context) ([]*models.ScheduledMeeting, error)
	Get(ctx context.Context, meetingUID string) (*models.ScheduledMeeting, error)
	// Create persists a new meeting. It performs no conflict validation.
	Create(ctx context.Context, meeting *models.ScheduledMeeting) (*models.ScheduledMeeting, error)
	// Update applies a partial update and fails with a not found error if the meeting does not exist.
	Update(ctx context.Context, meetingUID string, patch *models.ScheduledMeetingPatch) (*models.ScheduledMeeting, error)
	// Delete removes a meeting. Deleting an unknown meeting fails with a not found error.
	Delete(ctx context.Context, meetingUID string) error

	AttachmentStore
}

// AttachmentStore stores binary meeting documents and resolves them by path.
type AttachmentStore interface {
	UploadAttachment(ctx context.Context, upload *models.AttachmentUpload, kind models.AttachmentKind) (*models.FileRef, error)
	OpenAttachment(ctx context.Context, path string) (*models.FileRef, []byte, error)
}

// WorkbodyRepository defines the interface for workbody storage operations.
type WorkbodyRepository interface {
	ListWorkbodies(ctx context.Context) ([]*models.Workbody, error)
	GetWorkbody(ctx context.Context, workbodyUID string) (*models.Workbody, error)
	GetWorkbodyWithRevision(ctx context.Context, workbodyUID string) (*models.Workbody, uint64, error)
	CreateWorkbody(ctx context.Context, workbody *models.Workbody) error
	UpdateWorkbody(ctx context.Context, workbody *models.Workbody, revision uint64) error
}

// MemberRepository defines the interface for workbody member storage operations.
type MemberRepository interface {
	ListMembers(ctx context.Context, workbodyUID string) ([]*models.WorkbodyMember, error)
	CreateMember(ctx context.Context, member *models.WorkbodyMember) error
	DeleteMember(ctx context.Context, workbodyUID, memberUID string) error
}

// MinutesRepository defines the interface for meeting minutes storage operations.
type MinutesRepository interface {
	ListMinutes(ctx context.Context, workbodyUID string) ([]*models.MeetingMinutes, error)
	GetMinutes(ctx context.Context, minutesUID string) (*models.MeetingMinutes, error)
	CreateMinutes(ctx context.Context, minutes *models.MeetingMinutes) error
}

// SessionRepository stores active sessions between login and logout.
type SessionRepository interface {
	PutSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}
