// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

// ServiceName is used for the OpenTelemetry resource, tracer and meter names.
const ServiceName = "pulse-api"

// NATS JetStream buckets used by the service.
const (
	// KVBucketNameScheduledMeetings holds scheduled meetings keyed by UID.
	KVBucketNameScheduledMeetings = "scheduled-meetings"

	// KVBucketNameWorkbodies holds workbodies keyed by UID.
	KVBucketNameWorkbodies = "workbodies"

	// KVBucketNameWorkbodyMembers holds members keyed by "<workbody uid>.<member uid>".
	KVBucketNameWorkbodyMembers = "workbody-members"

	// KVBucketNameMeetingMinutes holds meeting minutes keyed by UID.
	KVBucketNameMeetingMinutes = "meeting-minutes"

	// KVBucketNameSessions holds active sessions keyed by session id.
	KVBucketNameSessions = "sessions"

	// ObjectStoreNamePulseFiles holds uploaded meeting documents.
	ObjectStoreNamePulseFiles = "pulse-files"
)

// Attachment limits.
const (
	// DefaultMaxAttachmentBytes is the default upload size limit (20 MiB).
	DefaultMaxAttachmentBytes int64 = 20 << 20
)

// AllowedAttachmentContentTypes lists the document types accepted for meeting files.
var AllowedAttachmentContentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"text/plain",
	"text/csv",
	"image/png",
	"image/jpeg",
}
