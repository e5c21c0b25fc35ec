package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dtroode/cutout-server/internal/logger"
)

// RequestObserver records request metrics.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Logging logs each HTTP request with its status and duration.
type Logging struct {
	logger   *logger.Logger
	observer RequestObserver
}

// NewLogging creates a new Logging middleware. observer may be nil.
func NewLogging(logger *logger.Logger, observer RequestObserver) *Logging {
	return &Logging{logger: logger, observer: observer}
}

func (l *Logging) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		l.logger.Info("HTTP request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", duration.Milliseconds(),
			"request_id", chimw.GetReqID(r.Context()))

		if status >= http.StatusInternalServerError {
			l.logger.Error("HTTP request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status)
		}

		if l.observer != nil {
			l.observer.ObserveRequest(r.Method, route, status, duration)
		}
	})
}
