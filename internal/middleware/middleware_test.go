// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package middleware

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/campus-relay/internal/logging"
	"github.com/tomtom215/campus-relay/internal/metrics"
)

func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

func TestRequestID_Generates(t *testing.T) {
	var seen, chiSeen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		chiSeen = chimiddleware.GetReqID(r.Context())
		if logging.CorrelationIDFromContext(r.Context()) == "" {
			t.Error("correlation id missing from context")
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("request id missing from context")
	}
	if chiSeen != seen {
		t.Errorf("chi request id = %q, want %q", chiSeen, seen)
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("response header = %q, want %q", got, seen)
	}
}

func TestRequestID_HonorsUpstream(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantSame bool
	}{
		{"upstream id kept", "upstream-123", true},
		{"overlong id replaced", strings.Repeat("a", maxRequestIDLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(RequestIDHeader, tt.header)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if (seen == tt.header) != tt.wantSame {
				t.Errorf("request id = %q, header %q, wantSame %v", seen, tt.header, tt.wantSame)
			}
			if seen == "" {
				t.Error("request id empty")
			}
		})
	}
}

func TestRequestID_SanitizesControlCharacters(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc\tdef")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "abc?def" {
		t.Errorf("request id = %q, want %q", seen, "abc?def")
	}
}

func newInstrumentedRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/api/v1/rooms/{room}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Post("/api/v1/events", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func TestPrometheusMetrics_LabelsByRoutePattern(t *testing.T) {
	router := newInstrumentedRouter()
	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/rooms/{room}", "404")
	before := testutil.ToFloat64(counter)

	for _, room := range []string{"group_1", "group_2", "campaign_9"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rooms/"+room, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	}

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("requests recorded under pattern = %v, want 3", got)
	}
}

func TestPrometheusMetrics_ImplicitOK(t *testing.T) {
	router := newInstrumentedRouter()
	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodPost, "/api/v1/events", "200")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events", nil))

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("requests recorded = %v, want 1", got)
	}
}

func TestPrometheusMetrics_Unmatched(t *testing.T) {
	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "418")
	before := testutil.ToFloat64(counter)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("unmatched requests recorded = %v, want 1", got)
	}
}

func TestPrometheusMetrics_ActiveRequestsBalanced(t *testing.T) {
	before := testutil.ToFloat64(metrics.APIActiveRequests)
	var during float64
	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(metrics.APIActiveRequests)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if during < before+1 {
		t.Errorf("active requests during = %v, want at least %v", during, before+1)
	}
	if after := testutil.ToFloat64(metrics.APIActiveRequests); after != before {
		t.Errorf("active requests after = %v, want %v", after, before)
	}
}

// hijackRecorder is an httptest.ResponseRecorder that supports Hijack.
type hijackRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	return nil, nil, nil
}

func TestMiddleware_PreservesHijacker(t *testing.T) {
	rec := &hijackRecorder{ResponseRecorder: httptest.NewRecorder()}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Fatal("ResponseWriter does not implement http.Hijacker")
		}
		_, _, _ = hj.Hijack()
	})

	handler := RequestID(RequestLogger(time.Second)(PrometheusMetrics(inner)))
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	if !rec.hijacked {
		t.Error("underlying Hijack was not called")
	}
}

func TestRequestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		delay     time.Duration
		threshold time.Duration
		wantLevel string
	}{
		{"fast success is quiet", http.StatusOK, 0, time.Second, ""},
		{"slow request warns", http.StatusOK, 20 * time.Millisecond, time.Millisecond, `"level":"warn"`},
		{"server error logs error", http.StatusInternalServerError, 0, time.Second, `"level":"error"`},
		{"zero threshold never warns", http.StatusOK, 5 * time.Millisecond, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := RequestLogger(tt.threshold)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(tt.delay)
				w.WriteHeader(tt.status)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms", nil)
			req = req.WithContext(logging.ContextWithLogger(req.Context(), logging.NewTestLogger(&buf)))
			handler.ServeHTTP(httptest.NewRecorder(), req)

			out := buf.String()
			if tt.wantLevel == "" {
				if out != "" {
					t.Errorf("unexpected log output at info level: %s", out)
				}
				return
			}
			if !strings.Contains(out, tt.wantLevel) {
				t.Errorf("log = %s, want %s", out, tt.wantLevel)
			}
			if !strings.Contains(out, `"message":"http request"`) {
				t.Errorf("log = %s, want http request message", out)
			}
		})
	}
}
