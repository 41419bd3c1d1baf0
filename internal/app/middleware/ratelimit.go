package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/kilobyteno/LANMS/internal/app/model/api"
	"github.com/kilobyteno/LANMS/internal/app/repo"
)

// RateLimit limits requests per client IP over a sliding window and blocks
// IPs that exceed the limit. Redis failures fail open so the limiter never
// takes the API down with it.
func RateLimit(rateLimitRepo repo.RateLimitRepository, logger *logrus.Logger, maxRequests int64, window, blockDuration time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			blocked, err := rateLimitRepo.IsBlocked(r.Context(), ip)
			if err != nil {
				logger.WithFields(logrus.Fields{
					"ip":    ip,
					"error": err.Error(),
				}).Warn("Rate limiter block check failed, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if blocked {
				renderTooManyRequests(w, r)
				return
			}

			count, err := rateLimitRepo.Hit(r.Context(), ip, window)
			if err != nil {
				logger.WithFields(logrus.Fields{
					"ip":    ip,
					"error": err.Error(),
				}).Warn("Rate limiter hit failed, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			if count > maxRequests {
				if err := rateLimitRepo.Block(r.Context(), ip, blockDuration); err != nil {
					logger.WithFields(logrus.Fields{
						"ip":    ip,
						"error": err.Error(),
					}).Error("Failed to block IP")
				}
				logger.WithFields(logrus.Fields{
					"ip":    ip,
					"count": count,
				}).Warn("Rate limit exceeded, IP blocked")
				renderTooManyRequests(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func renderTooManyRequests(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusTooManyRequests)
	render.JSON(w, r, &api.ErrorResponse{
		Error:   "too_many_requests",
		Message: "Too many requests, please try again later.",
		Success: false,
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for i := 0; i < len(fwd); i++ {
			if fwd[i] == ',' {
				return fwd[:i]
			}
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
