package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/kilobyteno/LANMS/internal/app/model/api"
)

// Logging logs every request with method, path, status and latency.
// The health probe path is skipped to keep uptime checks out of the logs.
func Logging(logger *logrus.Logger, skipPaths ...string) func(http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			fields := logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"latency_ms": time.Since(start).Milliseconds(),
				"remote_ip":  r.RemoteAddr,
				"request_id": chimiddleware.GetReqID(r.Context()),
			}

			switch {
			case ww.Status() >= http.StatusInternalServerError:
				logger.WithFields(fields).Error("HTTP request")
			case ww.Status() >= http.StatusBadRequest:
				logger.WithFields(fields).Warn("HTTP request")
			default:
				logger.WithFields(fields).Info("HTTP request")
			}
		})
	}
}

// Recovery converts panics into JSON 500 responses and logs the stack.
func Recovery(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.WithFields(logrus.Fields{
						"panic":      rec,
						"method":     r.Method,
						"path":       r.URL.Path,
						"request_id": chimiddleware.GetReqID(r.Context()),
						"stack":      string(debug.Stack()),
					}).Error("Panic recovered")

					render.Status(r, http.StatusInternalServerError)
					render.JSON(w, r, &api.ErrorResponse{
						Error:   "internal_error",
						Message: "Internal server error",
						Success: false,
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
