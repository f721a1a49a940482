// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package main is the pulse API that serves meeting scheduling, workbodies,
// minutes and reports over HTTP, and answers meeting requests over NATS.
package main

import (
	"context"
	_ "expvar"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/internal/infrastructure/auth"
	"github.com/araza-32/pec-pulse-sub000/internal/infrastructure/calendar"
	"github.com/araza-32/pec-pulse-sub000/internal/infrastructure/messaging"
	"github.com/araza-32/pec-pulse-sub000/internal/logging"
	"github.com/araza-32/pec-pulse-sub000/internal/service"
	"github.com/araza-32/pec-pulse-sub000/pkg/utils"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCommand builds the pulse-api command tree.
func newRootCommand() *cobra.Command {
	v := newViper()
	var envFile string

	root := &cobra.Command{
		Use:           "pulse-api",
		Short:         "Meeting scheduling service for PEC workbodies",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadDotEnv(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment variables from this file")

	root.AddCommand(newServeCommand(v), newTokenCommand(v))
	return root
}

// newServeCommand runs the service until it receives SIGINT or SIGTERM.
func newServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and NATS handlers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(parseEnv(v))
		},
	}

	cmd.Flags().BoolP("debug", "d", false, "enable debug logging")
	cmd.Flags().StringP("port", "p", "8080", "listen port")
	cmd.Flags().String("bind", "*", "interface to bind on")
	for _, name := range []string{"debug", "port", "bind"} {
		_ = v.BindPFlag(name, cmd.Flags().Lookup(name))
	}

	return cmd
}

// newTokenCommand mints a development token for the HS256 signing secret.
func newTokenCommand(v *viper.Viper) *cobra.Command {
	var (
		req    auth.TokenRequest
		role   string
		secret string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed development token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				secret = v.GetString("jwt_signing_secret")
			}
			if req.Issuer == "" {
				req.Issuer = v.GetString("jwt_issuer")
			}
			if req.Audience == "" {
				req.Audience = v.GetString("jwt_audience")
			}
			req.Role = models.Role(role)

			token, err := auth.MintToken(secret, req, time.Now())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&req.Subject, "subject", "", "user id of the token")
	cmd.Flags().StringVar(&req.Email, "email", "", "email of the token")
	cmd.Flags().StringVar(&role, "role", string(models.RoleSecretary), "role of the token")
	cmd.Flags().DurationVar(&req.TTL, "ttl", time.Hour, "lifetime of the token")
	cmd.Flags().StringVar(&secret, "secret", "", "HS256 signing secret (defaults to JWT_SIGNING_SECRET)")
	cmd.Flags().StringVar(&req.Issuer, "issuer", "", "issuer claim (defaults to JWT_ISSUER)")
	cmd.Flags().StringVar(&req.Audience, "audience", "", "audience claim (defaults to JWT_AUDIENCE)")

	return cmd
}

// serve wires the stores and services and blocks until shutdown.
func serve(env environment) error {
	// Based on the debug flag, set the log level environment variable used by [logging.InitStructureLogConfig]
	if env.Debug {
		if err := os.Setenv("LOG_LEVEL", "debug"); err != nil {
			return fmt.Errorf("error setting log level: %w", err)
		}
	}
	logging.InitStructureLogConfig()

	otelShutdown, err := utils.SetupOTelSDK(context.Background())
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up OpenTelemetry")
		return err
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.With(logging.ErrKey, err).Error("error shutting down OpenTelemetry")
		}
	}()

	// Set up the token validator used to open sessions.
	jwtAuth, err := setupJWTAuth(env)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up JWT authentication")
		return err
	}

	calendarGenerator, err := calendar.NewGenerator(env.CalendarTimezone)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up calendar export")
		return err
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	gracefulCloseWG := sync.WaitGroup{}

	// Setup NATS connection
	natsConn, err := setupNATS(ctx, env, &gracefulCloseWG, done)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up NATS")
		return err
	}

	// Open the buckets and build the repositories.
	repos, err := getStores(ctx, env, natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error getting stores")
		natsConn.Close()
		return err
	}

	// Initialize services
	serviceConfig := env.serviceConfig()
	messageBuilder := messaging.NewMessageBuilder(natsConn)
	listCache := service.NewMeetingListCache(repos.Meetings, serviceConfig.MeetingListRefresh)
	validator := service.NewMeetingValidator(serviceConfig.ConflictWindow, time.Now)

	workbodyService := service.NewWorkbodyService(repos.Workbodies, repos.Members, serviceConfig)
	meetingService := service.NewMeetingService(
		repos.Meetings,
		listCache,
		validator,
		workbodyService,
		messageBuilder,
		serviceConfig,
	)
	schedulingService := service.NewSchedulingService(service.SchedulingDeps{
		Validator:  validator,
		Meetings:   repos.Meetings,
		ListCache:  listCache,
		Workbodies: workbodyService,
		Counters:   workbodyService,
		Events:     messageBuilder,
		Now:        time.Now,
	})
	minutesService := service.NewMinutesService(
		repos.Minutes,
		repos.Files,
		workbodyService,
		workbodyService,
		messageBuilder,
	)
	reportService := service.NewReportService(meetingService, workbodyService, repos.Minutes, serviceConfig)
	sessionService := service.NewSessionService(jwtAuth, repos.Sessions, env.SessionTTL)

	api := NewPulseAPI(
		sessionService,
		meetingService,
		schedulingService,
		workbodyService,
		minutesService,
		reportService,
		calendarGenerator,
		env.MaxAttachmentBytes,
	)

	httpServer := setupHTTPServer(env, api, sessionService, &gracefulCloseWG)

	// Create NATS subscriptions for the service.
	if err := createNatsSubscriptions(ctx, meetingService, natsConn); err != nil {
		slog.With(logging.ErrKey, err).Error("error creating NATS subscriptions")
		gracefulShutdown(httpServer, natsConn, repos, &gracefulCloseWG, cancel)
		return err
	}

	// This next line blocks until SIGINT or SIGTERM is received.
	<-done

	gracefulShutdown(httpServer, natsConn, repos, &gracefulCloseWG, cancel)
	return nil
}
