// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	goahttp "goa.design/goa/v3/http"

	"github.com/araza-32/pec-pulse-sub000/internal/logging"
	"github.com/araza-32/pec-pulse-sub000/internal/middleware"
	"github.com/araza-32/pec-pulse-sub000/pkg/constants"
)

// newHandler mounts the API on a goa muxer and wraps it in the middleware chain.
func newHandler(env environment, api *PulseAPI, sessions middleware.SessionResolver) http.Handler {
	mux := goahttp.NewMuxer()
	api.Mount(mux)

	var handler http.Handler = mux

	// Add HTTP middleware
	// Note: Order matters - the last middleware added runs first. CORS answers
	// preflights before anything else, and the request ID must be set before
	// the session is resolved and the request is logged.
	handler = middleware.RequestLoggerMiddleware()(handler)
	handler = middleware.SessionMiddleware(sessions)(handler)
	handler = middleware.RequestIDMiddleware()(handler)
	handler = middleware.CORSMiddleware(env.CORSAllowedOrigins)(handler)

	return otelhttp.NewHandler(handler, constants.ServiceName)
}

// setupHTTPServer configures and starts the HTTP server
func setupHTTPServer(env environment, api *PulseAPI, sessions middleware.SessionResolver, gracefulCloseWG *sync.WaitGroup) *http.Server {
	addr := env.addr()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           newHandler(env, api, sessions),
		ReadHeaderTimeout: 3 * time.Second,
	}

	gracefulCloseWG.Add(1)
	go func() {
		slog.With("addr", addr).Debug("starting http server, listening on port " + env.Port)
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.With(logging.ErrKey, err).Error("http listener error")
			os.Exit(1)
		}
		// Because ErrServerClosed is *immediately* returned when Shutdown is
		// called, not when when Shutdown completes, this must not yet decrement
		// the wait group.
	}()

	return httpServer
}
