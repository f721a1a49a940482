// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/araza-32/pec-pulse-sub000/internal/infrastructure/calendar"
	"github.com/araza-32/pec-pulse-sub000/internal/logging"
	"github.com/araza-32/pec-pulse-sub000/internal/service"
	"github.com/araza-32/pec-pulse-sub000/pkg/constants"
)

// Store backends for scheduled meetings.
const (
	storeBackendNATS     = "nats"
	storeBackendPostgres = "postgres"
)

// environment is the runtime configuration of the pulse service, read from
// the environment (and an optional .env file) with flags taking precedence.
type environment struct {
	Port  string
	Bind  string
	Debug bool

	NatsURL           string
	NatsTimeout       time.Duration
	NatsMaxReconnect  int
	NatsReconnectWait time.Duration

	StoreBackend string
	DatabaseURL  string

	JWKSURL          string
	JWTSigningSecret string
	JWTIssuer        string
	JWTAudience      string
	MockLocalRole    string
	SessionTTL       time.Duration

	ConflictWindow     time.Duration
	MeetingListRefresh time.Duration
	DashboardWorkers   int
	MaxAttachmentBytes int64
	CalendarTimezone   string

	CORSAllowedOrigins []string
}

// newViper returns a viper instance with every setting's default.
func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("bind", "*")
	v.SetDefault("debug", false)

	v.SetDefault("nats_url", "nats://localhost:4222")
	v.SetDefault("nats_timeout", 10*time.Second)
	v.SetDefault("nats_max_reconnect", 3)
	v.SetDefault("nats_reconnect_wait", 2*time.Second)

	v.SetDefault("store_backend", storeBackendNATS)
	v.SetDefault("database_url", "")

	v.SetDefault("jwks_url", "")
	v.SetDefault("jwt_signing_secret", "")
	v.SetDefault("jwt_issuer", "")
	v.SetDefault("jwt_audience", "")
	v.SetDefault("jwt_auth_disabled_mock_local_role", "")
	v.SetDefault("session_ttl", service.DefaultSessionTTL)

	v.SetDefault("conflict_window", time.Duration(0))
	v.SetDefault("meeting_list_refresh", time.Minute)
	v.SetDefault("dashboard_workers", 4)
	v.SetDefault("max_attachment_bytes", constants.DefaultMaxAttachmentBytes)
	v.SetDefault("calendar_timezone", calendar.DefaultTimezone)

	v.SetDefault("cors_allowed_origins", "")
	return v
}

// loadDotEnv loads a .env file into the process environment. A missing
// default file is not an error.
func loadDotEnv(path string) error {
	if path != "" {
		return godotenv.Load(path)
	}
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", logging.ErrKey, err)
	}
	return nil
}

// parseEnv reads the configuration out of viper.
func parseEnv(v *viper.Viper) environment {
	env := environment{
		Port:  v.GetString("port"),
		Bind:  v.GetString("bind"),
		Debug: v.GetBool("debug"),

		NatsURL:           v.GetString("nats_url"),
		NatsTimeout:       v.GetDuration("nats_timeout"),
		NatsMaxReconnect:  v.GetInt("nats_max_reconnect"),
		NatsReconnectWait: v.GetDuration("nats_reconnect_wait"),

		StoreBackend: strings.ToLower(strings.TrimSpace(v.GetString("store_backend"))),
		DatabaseURL:  v.GetString("database_url"),

		JWKSURL:          v.GetString("jwks_url"),
		JWTSigningSecret: v.GetString("jwt_signing_secret"),
		JWTIssuer:        v.GetString("jwt_issuer"),
		JWTAudience:      v.GetString("jwt_audience"),
		MockLocalRole:    v.GetString("jwt_auth_disabled_mock_local_role"),
		SessionTTL:       v.GetDuration("session_ttl"),

		ConflictWindow:     v.GetDuration("conflict_window"),
		MeetingListRefresh: v.GetDuration("meeting_list_refresh"),
		DashboardWorkers:   v.GetInt("dashboard_workers"),
		MaxAttachmentBytes: v.GetInt64("max_attachment_bytes"),
		CalendarTimezone:   v.GetString("calendar_timezone"),

		CORSAllowedOrigins: splitList(v.GetString("cors_allowed_origins")),
	}

	if env.StoreBackend != storeBackendPostgres {
		env.StoreBackend = storeBackendNATS
	}
	if env.SessionTTL <= 0 {
		env.SessionTTL = service.DefaultSessionTTL
	}
	if env.MaxAttachmentBytes <= 0 {
		env.MaxAttachmentBytes = constants.DefaultMaxAttachmentBytes
	}

	return env
}

// addr returns the listen address for the bind interface and port.
func (e environment) addr() string {
	if e.Bind == "*" || e.Bind == "" {
		return ":" + e.Port
	}
	return e.Bind + ":" + e.Port
}

// serviceConfig maps the environment onto the service layer configuration.
func (e environment) serviceConfig() service.ServiceConfig {
	return service.ServiceConfig{
		ConflictWindow:     e.ConflictWindow,
		MeetingListRefresh: e.MeetingListRefresh,
		DashboardWorkers:   e.DashboardWorkers,
	}
}

// splitList splits a comma separated setting, dropping blank entries.
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
