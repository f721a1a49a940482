// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/internal/infrastructure/auth"
	"github.com/araza-32/pec-pulse-sub000/internal/infrastructure/messaging"
	"github.com/araza-32/pec-pulse-sub000/internal/infrastructure/store"
	"github.com/araza-32/pec-pulse-sub000/internal/logging"
	"github.com/araza-32/pec-pulse-sub000/pkg/constants"
)

const (
	// gracefulShutdownSeconds should be higher than NATS client
	// request timeout, and lower than the pod or liveness probe's
	// terminationGracePeriodSeconds.
	gracefulShutdownSeconds = 25
)

// stores are the repositories the services are built on.
type stores struct {
	Meetings   domain.MeetingRepository
	Workbodies domain.WorkbodyRepository
	Members    domain.MemberRepository
	Minutes    domain.MinutesRepository
	Sessions   domain.SessionRepository
	Files      *store.ObjectAttachmentStore

	db *sql.DB
}

// setupJWTAuth configures JWT authentication for the service
func setupJWTAuth(env environment) (*auth.JWTAuth, error) {
	return auth.NewJWTAuth(auth.JWTAuthConfig{
		JWKSURL:       env.JWKSURL,
		SigningSecret: env.JWTSigningSecret,
		Issuer:        env.JWTIssuer,
		Audience:      env.JWTAudience,
		MockLocalRole: env.MockLocalRole,
	})
}

// setupNATS connects to NATS. The connection's closed handler releases the
// graceful close wait group, or signals shutdown if the connection is lost
// while the service is still running.
func setupNATS(ctx context.Context, env environment, gracefulCloseWG *sync.WaitGroup, done chan os.Signal) (*nats.Conn, error) {
	gracefulCloseWG.Add(1)
	natsConn, err := nats.Connect(
		env.NatsURL,
		nats.Name(constants.ServiceName),
		nats.Timeout(env.NatsTimeout),
		nats.MaxReconnects(env.NatsMaxReconnect),
		nats.ReconnectWait(env.NatsReconnectWait),
		nats.DrainTimeout(gracefulShutdownSeconds*time.Second),
		nats.ConnectHandler(func(_ *nats.Conn) {
			slog.With("nats_url", env.NatsURL).Info("NATS connection established")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.With(logging.ErrKey, err).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			slog.With("nats_url", conn.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				slog.With(logging.ErrKey, err, "subject", s.Subject, "queue", s.Queue).Error("async NATS error")
			} else {
				slog.With(logging.ErrKey, err).Error("async NATS error outside subscription")
			}
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if ctx.Err() != nil {
				// Expected during shutdown.
				gracefulCloseWG.Done()
				return
			}
			slog.Error("NATS connection closed unexpectedly, shutting down")
			gracefulCloseWG.Done()
			done <- os.Interrupt
		}),
	)
	if err != nil {
		gracefulCloseWG.Done()
		return nil, fmt.Errorf("error creating NATS client: %w", err)
	}
	return natsConn, nil
}

// keyValue opens a KV bucket, creating it when it does not exist yet.
func keyValue(ctx context.Context, js jetstream.JetStream, cfg jetstream.KeyValueConfig) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, cfg.Bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		slog.InfoContext(ctx, "creating NATS key-value bucket", "bucket", cfg.Bucket)
		kv, err = js.CreateKeyValue(ctx, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("error opening NATS key-value bucket %q: %w", cfg.Bucket, err)
	}
	return kv, nil
}

// objectStore opens an object store bucket, creating it when it does not exist yet.
func objectStore(ctx context.Context, js jetstream.JetStream, bucket string) (jetstream.ObjectStore, error) {
	obj, err := js.ObjectStore(ctx, bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		slog.InfoContext(ctx, "creating NATS object store", "bucket", bucket)
		obj, err = js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{Bucket: bucket})
	}
	if err != nil {
		return nil, fmt.Errorf("error opening NATS object store %q: %w", bucket, err)
	}
	return obj, nil
}

// getStores opens every bucket the service needs and builds the repositories.
func getStores(ctx context.Context, env environment, natsConn *nats.Conn) (*stores, error) {
	js, err := jetstream.New(natsConn)
	if err != nil {
		return nil, fmt.Errorf("error creating JetStream context: %w", err)
	}

	buckets := map[string]jetstream.KeyValueConfig{
		constants.KVBucketNameScheduledMeetings: {Bucket: constants.KVBucketNameScheduledMeetings, History: 5},
		constants.KVBucketNameWorkbodies:        {Bucket: constants.KVBucketNameWorkbodies, History: 5},
		constants.KVBucketNameWorkbodyMembers:   {Bucket: constants.KVBucketNameWorkbodyMembers},
		constants.KVBucketNameMeetingMinutes:    {Bucket: constants.KVBucketNameMeetingMinutes, History: 5},
		constants.KVBucketNameSessions:          {Bucket: constants.KVBucketNameSessions, TTL: env.SessionTTL},
	}
	kv := make(map[string]jetstream.KeyValue, len(buckets))
	for name, cfg := range buckets {
		bucket, err := keyValue(ctx, js, cfg)
		if err != nil {
			return nil, err
		}
		kv[name] = bucket
	}

	objects, err := objectStore(ctx, js, constants.ObjectStoreNamePulseFiles)
	if err != nil {
		return nil, err
	}
	files := store.NewObjectAttachmentStore(objects, env.MaxAttachmentBytes)

	s := &stores{
		Workbodies: store.NewNatsWorkbodyRepository(kv[constants.KVBucketNameWorkbodies]),
		Members:    store.NewNatsMemberRepository(kv[constants.KVBucketNameWorkbodyMembers]),
		Minutes:    store.NewNatsMinutesRepository(kv[constants.KVBucketNameMeetingMinutes]),
		Sessions:   store.NewNatsSessionRepository(kv[constants.KVBucketNameSessions]),
		Files:      files,
	}

	switch env.StoreBackend {
	case storeBackendPostgres:
		if env.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres store backend")
		}
		db, err := store.OpenPostgres(ctx, env.DatabaseURL)
		if err != nil {
			return nil, err
		}
		repo := store.NewPostgresMeetingRepository(db, files)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		s.Meetings = repo
		s.db = db
	default:
		s.Meetings = store.NewNatsMeetingRepository(kv[constants.KVBucketNameScheduledMeetings], files)
	}

	slog.InfoContext(ctx, "stores ready", "meeting_backend", env.StoreBackend)
	return s, nil
}

// createNatsSubscriptions subscribes the message handler to the request/reply subjects.
func createNatsSubscriptions(ctx context.Context, handler domain.MessageHandler, natsConn *nats.Conn) error {
	slog.InfoContext(ctx, "subscribing to NATS subjects", "queue", models.PulseAPIQueue)

	subjects := []string{
		models.MeetingsListSubject,
		models.MeetingsValidateSubject,
	}
	for _, subject := range subjects {
		_, err := natsConn.QueueSubscribe(subject, models.PulseAPIQueue, func(msg *nats.Msg) {
			handler.HandleMessage(ctx, messaging.NewNatsMessage(msg))
		})
		if err != nil {
			return fmt.Errorf("error subscribing to %s: %w", subject, err)
		}
	}

	return nil
}

// gracefulShutdown stops the HTTP server, drains NATS and releases the stores.
func gracefulShutdown(httpServer *http.Server, natsConn *nats.Conn, s *stores, gracefulCloseWG *sync.WaitGroup, cancel context.CancelFunc) {
	slog.Info("graceful shutdown in progress")

	// Cancel the background context.
	cancel()

	go func() {
		// Run the HTTP shutdown in a goroutine so the NATS draining can also start.
		ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownSeconds*time.Second)
		defer cancel()

		slog.With("addr", httpServer.Addr).Info("shutting down http server")
		if err := httpServer.Shutdown(ctx); err != nil {
			slog.With(logging.ErrKey, err).Error("http shutdown error")
		}
		// Decrement the wait group.
		gracefulCloseWG.Done()
	}()

	// Drain the NATS connection, which will drain all subscriptions, then close the
	// connection when complete.
	if !natsConn.IsClosed() && !natsConn.IsDraining() {
		slog.Info("draining NATS connections")
		if err := natsConn.Drain(); err != nil {
			slog.With(logging.ErrKey, err).Error("error draining NATS connection")
			// Skip waiting or checking error channel.
			return
		}
	}

	// Wait for the HTTP graceful shutdown and for the NATS connection to be closed.
	gracefulCloseWG.Wait()

	if s != nil && s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.With(logging.ErrKey, err).Error("error closing database")
		}
	}

	slog.Info("graceful shutdown complete")
}
