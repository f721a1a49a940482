// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araza-32/pec-pulse-sub000/internal/service"
	"github.com/araza-32/pec-pulse-sub000/pkg/constants"
)

func TestParseEnv_Defaults(t *testing.T) {
	env := parseEnv(newViper())

	assert.Equal(t, "8080", env.Port)
	assert.Equal(t, ":8080", env.addr())
	assert.Equal(t, "nats://localhost:4222", env.NatsURL)
	assert.Equal(t, 10*time.Second, env.NatsTimeout)
	assert.Equal(t, storeBackendNATS, env.StoreBackend)
	assert.Equal(t, service.DefaultSessionTTL, env.SessionTTL)
	assert.Equal(t, time.Duration(0), env.ConflictWindow)
	assert.Equal(t, time.Minute, env.MeetingListRefresh)
	assert.Equal(t, 4, env.DashboardWorkers)
	assert.Equal(t, constants.DefaultMaxAttachmentBytes, env.MaxAttachmentBytes)
	assert.Empty(t, env.CORSAllowedOrigins)
}

func TestParseEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BIND", "127.0.0.1")
	t.Setenv("STORE_BACKEND", " Postgres ")
	t.Setenv("DATABASE_URL", "postgres://pulse@localhost/pulse")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("CONFLICT_WINDOW", "1h")
	t.Setenv("DASHBOARD_WORKERS", "8")
	t.Setenv("MAX_ATTACHMENT_BYTES", "1048576")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://pulse.pec.org.pk, https://admin.pec.org.pk,")

	env := parseEnv(newViper())

	assert.Equal(t, "127.0.0.1:9090", env.addr())
	assert.Equal(t, storeBackendPostgres, env.StoreBackend)
	assert.Equal(t, "postgres://pulse@localhost/pulse", env.DatabaseURL)
	assert.Equal(t, 30*time.Minute, env.SessionTTL)
	assert.Equal(t, int64(1<<20), env.MaxAttachmentBytes)
	assert.Equal(t, []string{"https://pulse.pec.org.pk", "https://admin.pec.org.pk"}, env.CORSAllowedOrigins)

	config := env.serviceConfig()
	assert.Equal(t, time.Hour, config.ConflictWindow)
	assert.Equal(t, 8, config.DashboardWorkers)
}

func TestParseEnv_FallsBackOnInvalidValues(t *testing.T) {
	t.Setenv("STORE_BACKEND", "mongo")
	t.Setenv("SESSION_TTL", "-5m")
	t.Setenv("MAX_ATTACHMENT_BYTES", "0")

	env := parseEnv(newViper())

	assert.Equal(t, storeBackendNATS, env.StoreBackend)
	assert.Equal(t, service.DefaultSessionTTL, env.SessionTTL)
	assert.Equal(t, constants.DefaultMaxAttachmentBytes, env.MaxAttachmentBytes)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList(" , "))
	assert.Equal(t, []string{"a", "b"}, splitList("a, b"))
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pulse.env")
	require.NoError(t, os.WriteFile(path, []byte("PULSE_TEST_DOTENV=loaded\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("PULSE_TEST_DOTENV") })

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("PULSE_TEST_DOTENV"))

	assert.Error(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestTokenCommand(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"token", "--subject", "u-1", "--role", "secretary", "--secret", "dev-secret"})

	require.NoError(t, root.Execute())

	token := strings.TrimSpace(out.String())
	assert.Len(t, strings.Split(token, "."), 3)
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SIGNING_SECRET", "")
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"token", "--subject", "u-1"})

	assert.Error(t, root.Execute())
}
