// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/internal/logging"
	"github.com/araza-32/pec-pulse-sub000/pkg/constants"
)

// SessionResolver looks up an active session by id.
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (*models.Session, error)
}

// SessionID extracts the session id from the session header, falling back to the session cookie.
func SessionID(r *http.Request) string {
	if id := r.Header.Get(constants.SessionHeader); id != "" {
		return id
	}
	if cookie, err := r.Cookie(constants.SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// SessionMiddleware resolves the session named by the request and places it
// on the context. Requests without a session id pass through anonymously;
// routes that need a session enforce it themselves.
func SessionMiddleware(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := SessionID(r)
			if sessionID == "" || isHealthCheck(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			session, err := resolver.Resolve(ctx, sessionID)
			if err != nil {
				slog.DebugContext(ctx, "rejecting request with unusable session", logging.ErrKey, err)
				writeError(w, err)
				return
			}

			ctx = context.WithValue(ctx, constants.SessionContextID, session)
			ctx = logging.AppendCtx(ctx, slog.String("user_id", session.UserID))
			ctx = logging.AppendCtx(ctx, slog.String("role", string(session.Role)))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session placed on the context by SessionMiddleware.
func SessionFromContext(ctx context.Context) *models.Session {
	session, _ := ctx.Value(constants.SessionContextID).(*models.Session)
	return session
}

// writeError writes the JSON error body used by every API response.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusUnauthorized
	switch domain.GetErrorType(err) {
	case domain.ErrorTypeUnavailable:
		status = http.StatusServiceUnavailable
	case domain.ErrorTypeInternal:
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    domain.GetErrorType(err).String(),
		"message": domain.GetErrorMessage(err),
	})
}
