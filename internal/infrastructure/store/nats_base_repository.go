// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package store implements the pulse repositories on NATS JetStream and Postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/logging"
	"github.com/araza-32/pec-pulse-sub000/pkg/concurrent"
)

// tracerName is the instrumentation name for the store package.
const tracerName = "github.com/araza-32/pec-pulse-sub000/internal/infrastructure/store"

// defaultListWorkers bounds the concurrent gets issued while listing a bucket.
const defaultListWorkers = 8

// INatsKeyValue is the subset of jetstream.KeyValue used by the repositories.
type INatsKeyValue interface {
	ListKeys(context.Context, ...jetstream.WatchOpt) (jetstream.KeyLister, error)
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(context.Context, string, []byte) (uint64, error)
	Create(context.Context, string, []byte, ...jetstream.KVCreateOpt) (uint64, error)
	Update(context.Context, string, []byte, uint64) (uint64, error)
	Delete(context.Context, string, ...jetstream.KVDeleteOpt) error
}

// NatsBaseRepository provides common NATS KV operations that can be reused across all repositories
type NatsBaseRepository[T any] struct {
	kvStore    INatsKeyValue
	entityName string // Used in error messages (e.g., "meeting", "session")
	codec      Codec
	pool       *concurrent.WorkerPool
}

// NewNatsBaseRepository creates a new base repository storing JSON encoded entities.
func NewNatsBaseRepository[T any](kvStore INatsKeyValue, entityName string) *NatsBaseRepository[T] {
	return &NatsBaseRepository[T]{
		kvStore:    kvStore,
		entityName: entityName,
		codec:      JSONCodec,
		pool:       concurrent.NewWorkerPool(defaultListWorkers),
	}
}

// WithCodec switches the value encoding of the repository.
func (r *NatsBaseRepository[T]) WithCodec(codec Codec) *NatsBaseRepository[T] {
	r.codec = codec
	return r
}

// IsReady checks if the repository is ready for use
func (r *NatsBaseRepository[T]) IsReady() bool {
	return r.kvStore != nil
}

func (r *NatsBaseRepository[T]) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{
		attribute.String("db.system", "nats"),
		attribute.String("db.operation", operation),
		attribute.String("db.nats.entity", r.entityName),
	}, attrs...)
	return otel.Tracer(tracerName).Start(ctx, "nats.kv."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// fail records err on the span and returns it.
func fail(span trace.Span, err error, status string) error {
	if status == "" {
		status = err.Error()
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	return err
}

func (r *NatsBaseRepository[T]) unavailable() error {
	return domain.NewUnavailableError(fmt.Sprintf("%s repository is not available", r.entityName))
}

// isRevisionMismatch reports whether the KV rejected a write because the revision moved on.
func isRevisionMismatch(err error) bool {
	return errors.Is(err, jetstream.ErrKeyExists) || strings.Contains(err.Error(), "wrong last sequence")
}

// GetRaw retrieves a raw entry from the NATS KV store
func (r *NatsBaseRepository[T]) GetRaw(ctx context.Context, key string) (jetstream.KeyValueEntry, error) {
	ctx, span := r.startSpan(ctx, "get", attribute.String("db.nats.key", key))
	defer span.End()

	if !r.IsReady() {
		return nil, fail(span, r.unavailable(), "")
	}

	entry, err := r.kvStore.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, fail(span, domain.NewNotFoundError(fmt.Sprintf("%s not found", r.entityName), err), "not found")
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error getting %s from NATS KV", r.entityName),
			logging.ErrKey, err, "key", key)
		return nil, fail(span, domain.NewInternalError(fmt.Sprintf("failed to retrieve %s from store", r.entityName), err), "")
	}

	span.SetStatus(codes.Ok, "")
	return entry, nil
}

// Get retrieves and decodes an entity from the NATS KV store
func (r *NatsBaseRepository[T]) Get(ctx context.Context, key string) (*T, error) {
	entity, _, err := r.GetWithRevision(ctx, key)
	return entity, err
}

// GetWithRevision retrieves an entity with its revision from the NATS KV store
func (r *NatsBaseRepository[T]) GetWithRevision(ctx context.Context, key string) (*T, uint64, error) {
	entry, err := r.GetRaw(ctx, key)
	if err != nil {
		return nil, 0, err
	}

	entity, err := r.Unmarshal(ctx, entry.Value())
	if err != nil {
		return nil, 0, domain.NewInternalError(fmt.Sprintf("failed to decode %s data", r.entityName), err)
	}

	return entity, entry.Revision(), nil
}

// Unmarshal decodes a stored value into the entity type
func (r *NatsBaseRepository[T]) Unmarshal(ctx context.Context, data []byte) (*T, error) {
	var entity T
	if err := r.codec.Unmarshal(data, &entity); err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("error decoding %s", r.entityName),
			logging.ErrKey, err, "codec", r.codec.Name())
		return nil, err
	}
	return &entity, nil
}

// Marshal encodes an entity with the repository codec
func (r *NatsBaseRepository[T]) Marshal(ctx context.Context, entity *T) ([]byte, error) {
	data, err := r.codec.Marshal(entity)
	if err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("error encoding %s", r.entityName),
			logging.ErrKey, err, "codec", r.codec.Name())
		return nil, err
	}
	return data, nil
}

// Exists checks if an entity exists in the store
func (r *NatsBaseRepository[T]) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.GetRaw(ctx, key)
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Put writes an entity unconditionally and returns the new revision.
func (r *NatsBaseRepository[T]) Put(ctx context.Context, key string, entity *T) (uint64, error) {
	ctx, span := r.startSpan(ctx, "put", attribute.String("db.nats.key", key))
	defer span.End()

	if !r.IsReady() {
		return 0, fail(span, r.unavailable(), "")
	}

	data, err := r.Marshal(ctx, entity)
	if err != nil {
		return 0, fail(span, domain.NewInternalError(fmt.Sprintf("failed to encode %s", r.entityName), err), "")
	}

	revision, err := r.kvStore.Put(ctx, key, data)
	if err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("error putting %s in NATS KV", r.entityName),
			logging.ErrKey, err, "key", key)
		return 0, fail(span, domain.NewInternalError(fmt.Sprintf("failed to store %s", r.entityName), err), "")
	}

	span.SetAttributes(attribute.Int64("db.nats.revision", int64(revision)))
	span.SetStatus(codes.Ok, "")
	return revision, nil
}

// Create writes an entity only if the key is not already taken.
func (r *NatsBaseRepository[T]) Create(ctx context.Context, key string, entity *T) (uint64, error) {
	ctx, span := r.startSpan(ctx, "create", attribute.String("db.nats.key", key))
	defer span.End()

	if !r.IsReady() {
		return 0, fail(span, r.unavailable(), "")
	}

	data, err := r.Marshal(ctx, entity)
	if err != nil {
		return 0, fail(span, domain.NewInternalError(fmt.Sprintf("failed to encode %s", r.entityName), err), "")
	}

	revision, err := r.kvStore.Create(ctx, key, data)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			slog.WarnContext(ctx, fmt.Sprintf("%s already exists", r.entityName), "key", key)
			return 0, fail(span, domain.NewPersistenceError(fmt.Sprintf("%s already exists", r.entityName), err), "key exists")
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error creating %s in NATS KV", r.entityName),
			logging.ErrKey, err, "key", key)
		return 0, fail(span, domain.NewPersistenceError(fmt.Sprintf("failed to store %s", r.entityName), err), "")
	}

	span.SetAttributes(attribute.Int64("db.nats.revision", int64(revision)))
	span.SetStatus(codes.Ok, "")
	return revision, nil
}

// Update writes an entity only if its revision is still current.
func (r *NatsBaseRepository[T]) Update(ctx context.Context, key string, entity *T, revision uint64) error {
	ctx, span := r.startSpan(ctx, "update",
		attribute.String("db.nats.key", key),
		attribute.Int64("db.nats.revision", int64(revision)),
	)
	defer span.End()

	if !r.IsReady() {
		return fail(span, r.unavailable(), "")
	}

	data, err := r.Marshal(ctx, entity)
	if err != nil {
		return fail(span, domain.NewInternalError(fmt.Sprintf("failed to encode %s", r.entityName), err), "")
	}

	if _, err = r.kvStore.Update(ctx, key, data, revision); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return fail(span, domain.NewNotFoundError(fmt.Sprintf("%s not found", r.entityName), err), "not found")
		}
		if isRevisionMismatch(err) {
			slog.WarnContext(ctx, "revision mismatch", "entity", r.entityName, "key", key, logging.ErrKey, err)
			return fail(span, domain.ErrRevisionMismatch, "conflict")
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error updating %s in NATS KV", r.entityName),
			logging.ErrKey, err, "key", key, "revision", revision)
		return fail(span, domain.NewInternalError(fmt.Sprintf("failed to update %s in store", r.entityName), err), "")
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Delete removes an entity, failing if it changed since revision. A zero
// revision deletes regardless of the current revision.
func (r *NatsBaseRepository[T]) Delete(ctx context.Context, key string, revision uint64) error {
	ctx, span := r.startSpan(ctx, "delete",
		attribute.String("db.nats.key", key),
		attribute.Int64("db.nats.revision", int64(revision)),
	)
	defer span.End()

	if !r.IsReady() {
		return fail(span, r.unavailable(), "")
	}

	var opts []jetstream.KVDeleteOpt
	if revision > 0 {
		opts = append(opts, jetstream.LastRevision(revision))
	}

	if err := r.kvStore.Delete(ctx, key, opts...); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return fail(span, domain.NewNotFoundError(fmt.Sprintf("%s not found", r.entityName), err), "not found")
		}
		if isRevisionMismatch(err) {
			return fail(span, domain.ErrRevisionMismatch, "conflict")
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error deleting %s from NATS KV", r.entityName),
			logging.ErrKey, err, "key", key, "revision", revision)
		return fail(span, domain.NewInternalError(fmt.Sprintf("failed to delete %s from store", r.entityName), err), "")
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ListKeys lists all keys in the bucket.
func (r *NatsBaseRepository[T]) ListKeys(ctx context.Context) ([]string, error) {
	ctx, span := r.startSpan(ctx, "list_keys")
	defer span.End()

	if !r.IsReady() {
		return nil, fail(span, r.unavailable(), "")
	}

	lister, err := r.kvStore.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			span.SetStatus(codes.Ok, "")
			return []string{}, nil
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error listing %s keys from NATS KV", r.entityName),
			logging.ErrKey, err)
		return nil, fail(span, domain.NewInternalError(fmt.Sprintf("failed to list %s keys from store", r.entityName), err), "")
	}
	defer func() {
		if stopErr := lister.Stop(); stopErr != nil {
			slog.DebugContext(ctx, "error stopping key lister", logging.ErrKey, stopErr)
		}
	}()

	keys := []string{}
	for key := range lister.Keys() {
		keys = append(keys, key)
	}

	span.SetAttributes(attribute.Int("db.nats.keys_count", len(keys)))
	span.SetStatus(codes.Ok, "")
	return keys, nil
}

// ListEntities fetches every entity whose key starts with prefix. Keys deleted
// between listing and fetching are skipped; any other failure fails the whole
// list so callers never see a partial result.
func (r *NatsBaseRepository[T]) ListEntities(ctx context.Context, prefix string) ([]*T, error) {
	keys, err := r.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	matched := keys[:0]
	for _, key := range keys {
		if strings.HasPrefix(key, prefix) {
			matched = append(matched, key)
		}
	}

	fetched, err := concurrent.Collect(ctx, r.pool, len(matched), func(ctx context.Context, i int) (*T, error) {
		entity, err := r.Get(ctx, matched[i])
		if err != nil {
			if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
				slog.DebugContext(ctx, fmt.Sprintf("%s deleted while listing, skipping", r.entityName), "key", matched[i])
				return nil, nil
			}
			return nil, err
		}
		return entity, nil
	})
	if err != nil {
		return nil, err
	}

	entities := make([]*T, 0, len(fetched))
	for _, entity := range fetched {
		if entity != nil {
			entities = append(entities, entity)
		}
	}
	return entities, nil
}
