// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/araza-32/pec-pulse-sub000/pkg/constants"
)

// CORSMiddleware allows the browser client to call the API from the given
// origins. An empty list or "*" allows any origin without credentials.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			constants.RequestIDHeader,
			constants.SessionHeader,
		},
		ExposedHeaders: []string{
			constants.RequestIDHeader,
			"Content-Disposition",
		},
		AllowCredentials: true,
		MaxAge:           300,
	}

	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		options.AllowedOrigins = []string{"*"}
		// browsers refuse credentials with a wildcard origin
		options.AllowCredentials = false
	}

	return cors.Handler(options)
}
