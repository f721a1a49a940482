// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import "strings"

// Constants for the HTTP request headers
const (
	// AuthorizationHeader is the header name for the authorization
	AuthorizationHeader string = "authorization"

	// RequestIDHeader is the header name for the request ID
	RequestIDHeader string = "X-REQUEST-ID"

	// SessionHeader carries the session id returned by POST /sessions
	SessionHeader string = "X-PULSE-SESSION"

	// SessionCookie is the cookie alternative to SessionHeader for browser clients
	SessionCookie string = "pulse_session"
)

// contextRequestID is the type for the request ID context key
type contextRequestID string

// RequestIDContextID is the context ID for the request ID
const RequestIDContextID contextRequestID = "X-REQUEST-ID"

// contextSession is the type for the session context key
type contextSession string

// SessionContextID is the context ID for the resolved session
const SessionContextID contextSession = "pulse-session"

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
// It returns an empty string when the header is not a bearer credential.
func BearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
