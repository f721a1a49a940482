// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/pkg/constants"
)

type resolverFunc func(ctx context.Context, sessionID string) (*models.Session, error)

func (f resolverFunc) Resolve(ctx context.Context, sessionID string) (*models.Session, error) {
	return f(ctx, sessionID)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	t.Run("generates an id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/meetings", nil))

		require.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(constants.RequestIDHeader))
	})

	t.Run("keeps the caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/meetings", nil)
		req.Header.Set(constants.RequestIDHeader, "req-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "req-123", seen)
		assert.Equal(t, "req-123", rec.Header().Get(constants.RequestIDHeader))
	})

	t.Run("replaces an oversized id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/meetings", nil)
		req.Header.Set(constants.RequestIDHeader, strings.Repeat("x", maxRequestIDLength+1))
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Len(t, seen, 36)
	})
}

func TestRequestLoggerMiddleware(t *testing.T) {
	handler := RequestLoggerMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))

	for _, path := range []string{"/meetings", "/livez"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	}
}

func TestResponseWriter_CapturesFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	ww := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	_, _ = ww.Write([]byte("body"))
	assert.Equal(t, http.StatusOK, ww.statusCode)
	assert.Equal(t, 4, ww.written)
	assert.Equal(t, rec, ww.Unwrap())
}

func TestSessionID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, SessionID(req))

	req.AddCookie(&http.Cookie{Name: constants.SessionCookie, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", SessionID(req))

	req.Header.Set(constants.SessionHeader, "from-header")
	assert.Equal(t, "from-header", SessionID(req))
}

func TestSessionMiddleware(t *testing.T) {
	session := &models.Session{ID: "s-1", UserID: "u-1", Role: models.RoleSecretary}
	resolver := resolverFunc(func(ctx context.Context, sessionID string) (*models.Session, error) {
		switch sessionID {
		case "s-1":
			return session, nil
		case "down":
			return nil, domain.ErrServiceUnavailable
		}
		return nil, domain.ErrSessionNotFound
	})

	var got *models.Session
	called := false
	handler := SessionMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		got = SessionFromContext(r.Context())
	}))

	tests := []struct {
		name        string
		path        string
		sessionID   string
		wantCalled  bool
		wantSession *models.Session
		wantStatus  int
	}{
		{name: "anonymous", path: "/meetings", wantCalled: true, wantStatus: http.StatusOK},
		{name: "active session", path: "/meetings", sessionID: "s-1", wantCalled: true, wantSession: session, wantStatus: http.StatusOK},
		{name: "unknown session", path: "/meetings", sessionID: "gone", wantStatus: http.StatusUnauthorized},
		{name: "store outage", path: "/meetings", sessionID: "down", wantStatus: http.StatusServiceUnavailable},
		{name: "health check ignores session", path: "/livez", sessionID: "gone", wantCalled: true, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called, got = false, nil
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.sessionID != "" {
				req.Header.Set(constants.SessionHeader, tt.sessionID)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCalled, called)
			assert.Equal(t, tt.wantSession, got)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if !tt.wantCalled {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.NotEmpty(t, body["message"])
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	preflight := func(handler http.Handler, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/meetings", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("configured origin", func(t *testing.T) {
		handler := CORSMiddleware([]string{"https://pulse.pec.org.pk"})(next)

		rec := preflight(handler, "https://pulse.pec.org.pk")
		assert.Equal(t, "https://pulse.pec.org.pk", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

		rec = preflight(handler, "https://elsewhere.example")
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("any origin", func(t *testing.T) {
		rec := preflight(CORSMiddleware(nil)(next), "https://elsewhere.example")
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
	})
}
