// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

/*
Package middleware provides HTTP middleware for the relay's API surface.

Key Components:

  - RequestID: honors or generates X-Request-ID and seeds the logging context
  - PrometheusMetrics: request count, latency and in-flight instrumentation
  - RequestLogger: one structured log line per request, slow requests at warn

All three wrap the ResponseWriter with chi's WrapResponseWriter, which keeps
http.Hijacker available so the /ws upgrade can pass through them.

Middleware Stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(time.Second))
	r.Use(middleware.PrometheusMetrics)

Metrics are labeled with the chi route pattern ("/api/v1/rooms/{room}"),
not the raw path, so room names never become label values.
*/
package middleware
