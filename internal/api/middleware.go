package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/mux"
	"github.com/homwrkk/IUI/internal/logger"
	"github.com/homwrkk/IUI/internal/logging"
	"github.com/homwrkk/IUI/internal/metrics"
)

const (
	corsAllowOrigin      = "Access-Control-Allow-Origin"
	corsAllowMethods     = "Access-Control-Allow-Methods"
	corsAllowHeaders     = "Access-Control-Allow-Headers"
	corsAllowCredentials = "Access-Control-Allow-Credentials"
	allowedMethods       = "GET, POST, DELETE, OPTIONS"
	allowedHeaders       = "Content-Type, Authorization, Stripe-Signature"
	allowedCredentials   = "true"
	internalServerError  = "Internal server error"
	unmatchedRoute       = "unmatched"
)

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.wroteHeader = true
	}
	return r.ResponseWriter.Write(b)
}

// WideEventMiddleware attaches a WideEvent to the request context and emits it once the request
// completes.
func WideEventMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		event := logging.NewWideEvent("http_request")
		ctx := logging.WithContext(r.Context(), event)
		logging.EnrichHTTP(ctx, r.Method, r.URL.Path)

		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r.WithContext(ctx))

		logging.EnrichHTTPResult(ctx, rec.status, time.Since(start))
		logging.Emit(ctx)
	})
}

func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logging.EnrichPanic(r.Context())
				logging.EnrichError(r.Context(), fmt.Errorf("panic: %v", err), "panic")
				logger.Log.Error("recovered from panic", "panic", err, "stack", string(debug.Stack()))
				writeError(w, http.StatusInternalServerError, "internal_error", internalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// CORSMiddleware allows credentialed requests from the frontend origin.
func CORSMiddleware(allowedOrigin string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(corsAllowOrigin, allowedOrigin)
			w.Header().Set(corsAllowMethods, allowedMethods)
			w.Header().Set(corsAllowHeaders, allowedHeaders)
			w.Header().Set(corsAllowCredentials, allowedCredentials)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// MetricsMiddleware records request counts and latency labelled by route template, so path
// parameters do not explode label cardinality.
func MetricsMiddleware(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			route := unmatchedRoute
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			m.ObserveHTTP(route, r.Method, rec.status, time.Since(start))
		})
	}
}
