// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/internal/logging"
)

//go:embed schema.sql
var postgresSchema string

const meetingColumns = `uid, workbody_uid, workbody_name, meeting_date, meeting_time, duration_minutes,
	location, agenda_items, notification_file, agenda_file, created_by, created_at, updated_at`

const (
	queryListMeetings = `SELECT ` + meetingColumns + ` FROM scheduled_meetings ORDER BY meeting_date, meeting_time, uid`
	queryGetMeeting   = `SELECT ` + meetingColumns + ` FROM scheduled_meetings WHERE uid = $1`
	queryLockMeeting  = `SELECT ` + meetingColumns + ` FROM scheduled_meetings WHERE uid = $1 FOR UPDATE`

	queryInsertMeeting = `INSERT INTO scheduled_meetings (` + meetingColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	queryUpdateMeeting = `UPDATE scheduled_meetings SET workbody_uid = $2, workbody_name = $3, meeting_date = $4,
	meeting_time = $5, duration_minutes = $6, location = $7, agenda_items = $8, notification_file = $9,
	agenda_file = $10, updated_at = $11 WHERE uid = $1`

	queryDeleteMeeting = `DELETE FROM scheduled_meetings WHERE uid = $1`
)

// OpenPostgres opens a pgx backed database handle and checks the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// PostgresMeetingRepository stores scheduled meetings in Postgres. Attachments
// still go to the Object Store.
type PostgresMeetingRepository struct {
	*ObjectAttachmentStore
	db  *sql.DB
	now func() time.Time
}

// NewPostgresMeetingRepository creates a new Postgres repository for scheduled meetings.
func NewPostgresMeetingRepository(db *sql.DB, attachments *ObjectAttachmentStore) *PostgresMeetingRepository {
	return &PostgresMeetingRepository{
		ObjectAttachmentStore: attachments,
		db:                    db,
		now:                   time.Now,
	}
}

// IsReady checks if the database handle is configured.
func (r *PostgresMeetingRepository) IsReady() bool {
	return r.db != nil
}

// EnsureSchema creates the meetings table if it does not exist.
func (r *PostgresMeetingRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (r *PostgresMeetingRepository) startSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "postgres."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", operation),
			attribute.String("db.sql.table", "scheduled_meetings"),
		),
	)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row rowScanner) (*models.ScheduledMeeting, error) {
	var (
		m                        models.ScheduledMeeting
		duration                 sql.NullInt64
		agenda, notif, agendaDoc []byte
		createdAt, updatedAt     time.Time
	)
	err := row.Scan(&m.UID, &m.WorkbodyUID, &m.WorkbodyName, &m.Date, &m.Time, &duration,
		&m.Location, &agenda, &notif, &agendaDoc, &m.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if duration.Valid {
		d := int(duration.Int64)
		m.DurationMinutes = &d
	}
	m.AgendaItems = []string{}
	if len(agenda) > 0 {
		if err := json.Unmarshal(agenda, &m.AgendaItems); err != nil {
			return nil, fmt.Errorf("agenda_items: %w", err)
		}
	}
	if m.NotificationFile, err = decodeFileRef(notif); err != nil {
		return nil, fmt.Errorf("notification_file: %w", err)
	}
	if m.AgendaFile, err = decodeFileRef(agendaDoc); err != nil {
		return nil, fmt.Errorf("agenda_file: %w", err)
	}
	createdAt, updatedAt = createdAt.UTC(), updatedAt.UTC()
	m.CreatedAt, m.UpdatedAt = &createdAt, &updatedAt
	return &m, nil
}

func decodeFileRef(data []byte) (*models.FileRef, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var ref models.FileRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

func encodeFileRef(ref *models.FileRef) (any, error) {
	if ref == nil {
		return nil, nil
	}
	data, err := json.Marshal(ref)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func nullableDuration(d *int) any {
	if d == nil {
		return nil
	}
	return int64(*d)
}

// meetingArgs returns the column values of m in meetingColumns order, without the timestamps.
func meetingArgs(m *models.ScheduledMeeting) ([]any, error) {
	items := m.AgendaItems
	if items == nil {
		items = []string{}
	}
	agenda, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	notif, err := encodeFileRef(m.NotificationFile)
	if err != nil {
		return nil, err
	}
	agendaDoc, err := encodeFileRef(m.AgendaFile)
	if err != nil {
		return nil, err
	}
	return []any{m.UID, m.WorkbodyUID, m.WorkbodyName, m.Date, m.Time, nullableDuration(m.DurationMinutes),
		m.Location, string(agenda), notif, agendaDoc}, nil
}

func (r *PostgresMeetingRepository) failure(ctx context.Context, span trace.Span, message string, err error) error {
	slog.ErrorContext(ctx, message, logging.ErrKey, err)
	return fail(span, domain.NewPersistenceError(message, err), "")
}

// List returns every stored meeting ordered by date and time.
func (r *PostgresMeetingRepository) List(ctx context.Context) ([]*models.ScheduledMeeting, error) {
	ctx, span := r.startSpan(ctx, "select")
	defer span.End()

	if !r.IsReady() {
		return nil, fail(span, domain.NewUnavailableError("meeting repository is not available"), "")
	}

	rows, err := r.db.QueryContext(ctx, queryListMeetings)
	if err != nil {
		return nil, r.failure(ctx, span, "failed to list meetings", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.DebugContext(ctx, "error closing rows", logging.ErrKey, closeErr)
		}
	}()

	meetings := []*models.ScheduledMeeting{}
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, r.failure(ctx, span, "failed to read meeting row", err)
		}
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, r.failure(ctx, span, "failed to list meetings", err)
	}

	span.SetAttributes(attribute.Int("db.rows", len(meetings)))
	span.SetStatus(codes.Ok, "")
	return meetings, nil
}

// Get returns a single meeting.
func (r *PostgresMeetingRepository) Get(ctx context.Context, meetingUID string) (*models.ScheduledMeeting, error) {
	ctx, span := r.startSpan(ctx, "select")
	defer span.End()

	if !r.IsReady() {
		return nil, fail(span, domain.NewUnavailableError("meeting repository is not available"), "")
	}

	m, err := scanMeeting(r.db.QueryRowContext(ctx, queryGetMeeting, meetingUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fail(span, domain.NewNotFoundError("meeting not found", err), "not found")
		}
		return nil, r.failure(ctx, span, "failed to get meeting", err)
	}

	span.SetStatus(codes.Ok, "")
	return m, nil
}

// Create inserts a new meeting, assigning a UID when the caller did not.
func (r *PostgresMeetingRepository) Create(ctx context.Context, meeting *models.ScheduledMeeting) (*models.ScheduledMeeting, error) {
	ctx, span := r.startSpan(ctx, "insert")
	defer span.End()

	if !r.IsReady() {
		return nil, fail(span, domain.NewUnavailableError("meeting repository is not available"), "")
	}
	if meeting == nil {
		return nil, fail(span, domain.NewValidationError("meeting is required"), "")
	}

	stored := *meeting
	if stored.UID == "" {
		stored.UID = uuid.New().String()
	}
	now := r.now().UTC()
	if stored.CreatedAt == nil {
		stored.CreatedAt = &now
	}
	if stored.UpdatedAt == nil {
		stored.UpdatedAt = stored.CreatedAt
	}

	args, err := meetingArgs(&stored)
	if err != nil {
		return nil, r.failure(ctx, span, "failed to encode meeting", err)
	}
	args = append(args, stored.CreatedBy, *stored.CreatedAt, *stored.UpdatedAt)

	if _, err := r.db.ExecContext(ctx, queryInsertMeeting, args...); err != nil {
		return nil, r.failure(ctx, span, "failed to save the meeting", err)
	}

	span.SetStatus(codes.Ok, "")
	return &stored, nil
}

// Update applies the patch inside a transaction holding the row lock.
func (r *PostgresMeetingRepository) Update(ctx context.Context, meetingUID string, patch *models.ScheduledMeetingPatch) (*models.ScheduledMeeting, error) {
	ctx, span := r.startSpan(ctx, "update")
	defer span.End()

	if !r.IsReady() {
		return nil, fail(span, domain.NewUnavailableError("meeting repository is not available"), "")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, r.failure(ctx, span, "failed to begin transaction", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.WarnContext(ctx, "error rolling back transaction", logging.ErrKey, rbErr)
		}
	}()

	meeting, err := scanMeeting(tx.QueryRowContext(ctx, queryLockMeeting, meetingUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fail(span, domain.NewNotFoundError("meeting not found", err), "not found")
		}
		return nil, r.failure(ctx, span, "failed to get meeting", err)
	}

	patch.Apply(meeting)
	now := r.now().UTC()
	meeting.UpdatedAt = &now

	args, err := meetingArgs(meeting)
	if err != nil {
		return nil, r.failure(ctx, span, "failed to encode meeting", err)
	}
	args = append(args, now)

	if _, err := tx.ExecContext(ctx, queryUpdateMeeting, args...); err != nil {
		return nil, r.failure(ctx, span, "failed to update the meeting", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, r.failure(ctx, span, "failed to update the meeting", err)
	}

	span.SetStatus(codes.Ok, "")
	return meeting, nil
}

// Delete removes a meeting. Deleting a meeting that does not exist is a not found error.
func (r *PostgresMeetingRepository) Delete(ctx context.Context, meetingUID string) error {
	ctx, span := r.startSpan(ctx, "delete")
	defer span.End()

	if !r.IsReady() {
		return fail(span, domain.NewUnavailableError("meeting repository is not available"), "")
	}

	res, err := r.db.ExecContext(ctx, queryDeleteMeeting, meetingUID)
	if err != nil {
		return r.failure(ctx, span, "failed to delete the meeting", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return r.failure(ctx, span, "failed to delete the meeting", err)
	}
	if affected == 0 {
		return fail(span, domain.NewNotFoundError("meeting not found"), "not found")
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
