// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/akamensky/base58"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/internal/logging"
	"github.com/araza-32/pec-pulse-sub000/pkg/constants"
)

// Object metadata keys.
const (
	objectMetaFileName    = "file-name"
	objectMetaContentType = "content-type"
)

// INatsObjectStore is a NATS Object Store interface for file storage
// This interface matches jetstream.ObjectStore and allows for mocking in tests.
type INatsObjectStore interface {
	Put(ctx context.Context, obj jetstream.ObjectMeta, reader io.Reader) (*jetstream.ObjectInfo, error)
	Get(ctx context.Context, name string, opts ...jetstream.GetObjectOpt) (jetstream.ObjectResult, error)
	GetInfo(ctx context.Context, name string, opts ...jetstream.GetObjectInfoOpt) (*jetstream.ObjectInfo, error)
	Delete(ctx context.Context, name string) error
}

// ObjectAttachmentStore keeps meeting documents in the NATS Object Store under
// content-addressed names: <kind prefix>/<base58(sha256(data))>/<file name>.
type ObjectAttachmentStore struct {
	objects  INatsObjectStore
	maxBytes int64
	allowed  map[string]struct{}
}

// NewObjectAttachmentStore creates a new attachment store. A non-positive
// maxBytes uses the default limit.
func NewObjectAttachmentStore(objects INatsObjectStore, maxBytes int64) *ObjectAttachmentStore {
	if maxBytes <= 0 {
		maxBytes = constants.DefaultMaxAttachmentBytes
	}
	allowed := make(map[string]struct{}, len(constants.AllowedAttachmentContentTypes))
	for _, ct := range constants.AllowedAttachmentContentTypes {
		allowed[ct] = struct{}{}
	}
	return &ObjectAttachmentStore{
		objects:  objects,
		maxBytes: maxBytes,
		allowed:  allowed,
	}
}

// IsReady checks if the object store is configured.
func (s *ObjectAttachmentStore) IsReady() bool {
	return s != nil && s.objects != nil
}

// ObjectName returns the content-addressed name of an upload.
func ObjectName(kind models.AttachmentKind, fileName string, data []byte) string {
	sum := sha256.Sum256(data)
	return path.Join(kind.Prefix(), base58.Encode(sum[:]), fileName)
}

// cleanFileName strips any directory components sent by the client.
func cleanFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// contentType resolves the media type of an upload, falling back to its extension.
func contentType(upload *models.AttachmentUpload, fileName string) string {
	ct := upload.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName)))
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return mediaType
}

func humanSize(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%d MB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}

func (s *ObjectAttachmentStore) checkUpload(upload *models.AttachmentUpload, kind models.AttachmentKind) (string, string, error) {
	if !kind.IsValid() {
		return "", "", domain.NewValidationError(fmt.Sprintf("unknown attachment kind %q", kind))
	}
	if upload == nil {
		return "", "", domain.NewUploadError("No file was provided.")
	}
	fileName := cleanFileName(upload.FileName)
	if fileName == "" {
		return "", "", domain.NewUploadError("The file must have a name.")
	}
	if len(upload.Data) == 0 {
		return "", "", domain.NewUploadError(fmt.Sprintf("The file '%s' is empty.", fileName))
	}
	if int64(len(upload.Data)) > s.maxBytes {
		return "", "", domain.NewUploadError(fmt.Sprintf("The file '%s' is larger than %s.", fileName, humanSize(s.maxBytes)))
	}
	ct := contentType(upload, fileName)
	if _, ok := s.allowed[ct]; !ok {
		return "", "", domain.NewUploadError(fmt.Sprintf("The file type of '%s' is not allowed.", fileName))
	}
	return fileName, ct, nil
}

// UploadAttachment stores the upload and returns a reference to it. Uploading
// identical content twice yields the same reference.
func (s *ObjectAttachmentStore) UploadAttachment(ctx context.Context, upload *models.AttachmentUpload, kind models.AttachmentKind) (*models.FileRef, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "nats.object.put",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "nats"),
			attribute.String("db.operation", "put"),
			attribute.String("pulse.attachment.kind", string(kind)),
		),
	)
	defer span.End()

	if !s.IsReady() {
		return nil, fail(span, domain.NewUploadError("File storage is not available."), "")
	}
	fileName, ct, err := s.checkUpload(upload, kind)
	if err != nil {
		return nil, fail(span, err, "rejected")
	}

	name := ObjectName(kind, fileName, upload.Data)
	span.SetAttributes(attribute.String("db.nats.object", name), attribute.Int("db.nats.object_size", len(upload.Data)))
	ref := &models.FileRef{Name: fileName, Path: name}

	if _, err := s.objects.GetInfo(ctx, name); err == nil {
		slog.DebugContext(ctx, "attachment already stored", "path", name)
		span.SetStatus(codes.Ok, "")
		return ref, nil
	} else if !errors.Is(err, jetstream.ErrObjectNotFound) {
		slog.WarnContext(ctx, "error checking for existing attachment", "path", name, logging.ErrKey, err)
	}

	meta := jetstream.ObjectMeta{
		Name:        name,
		Description: fmt.Sprintf("%s document %s", kind, fileName),
		Metadata: map[string]string{
			objectMetaFileName:    fileName,
			objectMetaContentType: ct,
		},
	}
	if _, err := s.objects.Put(ctx, meta, bytes.NewReader(upload.Data)); err != nil {
		slog.ErrorContext(ctx, "error putting file to Object Store", logging.ErrKey, err, "path", name)
		return nil, fail(span, domain.NewUploadError(fmt.Sprintf("The file '%s' could not be stored.", fileName), err), "")
	}

	slog.InfoContext(ctx, "stored attachment", "path", name, "kind", kind, "size", len(upload.Data))
	span.SetStatus(codes.Ok, "")
	return ref, nil
}

// OpenAttachment reads a stored document.
func (s *ObjectAttachmentStore) OpenAttachment(ctx context.Context, name string) (*models.FileRef, []byte, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "nats.object.get",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "nats"),
			attribute.String("db.operation", "get"),
			attribute.String("db.nats.object", name),
		),
	)
	defer span.End()

	if !s.IsReady() {
		return nil, nil, fail(span, domain.NewUnavailableError("file storage is not available"), "")
	}
	if name == "" {
		return nil, nil, fail(span, domain.NewValidationError("attachment path is required"), "")
	}

	result, err := s.objects.Get(ctx, name)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, nil, fail(span, domain.NewNotFoundError("attachment not found", err), "not found")
		}
		slog.ErrorContext(ctx, "error getting file from Object Store", logging.ErrKey, err, "path", name)
		return nil, nil, fail(span, domain.NewInternalError("failed to read attachment", err), "")
	}
	defer func() {
		if closeErr := result.Close(); closeErr != nil {
			slog.ErrorContext(ctx, "error closing object result", logging.ErrKey, closeErr, "path", name)
		}
	}()

	data, err := io.ReadAll(result)
	if err != nil {
		slog.ErrorContext(ctx, "error reading file data", logging.ErrKey, err, "path", name)
		return nil, nil, fail(span, domain.NewInternalError("failed to read attachment", err), "")
	}

	ref := &models.FileRef{Name: path.Base(name), Path: name}
	if info, err := result.Info(); err == nil && info != nil && info.Metadata[objectMetaFileName] != "" {
		ref.Name = info.Metadata[objectMetaFileName]
	}

	span.SetStatus(codes.Ok, "")
	return ref, data, nil
}
