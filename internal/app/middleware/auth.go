package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kilobyteno/LANMS/internal/app/auth"
	"github.com/kilobyteno/LANMS/internal/app/model/api"
	"github.com/kilobyteno/LANMS/internal/app/model/domain"
	"github.com/kilobyteno/LANMS/internal/utils"
)

type contextKey string

const (
	userContextKey  contextKey = "current_user"
	tokenContextKey contextKey = "access_token"
)

// AuthMiddleware is the gate in front of every protected endpoint: it
// extracts the bearer token, verifies it and resolves the current user.
type AuthMiddleware struct {
	jwtManager  *utils.JWTManager
	authService auth.Service
	logger      *logrus.Logger
}

func NewAuthMiddleware(jwtManager *utils.JWTManager, authService auth.Service, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:  jwtManager,
		authService: authService,
		logger:      logger,
	}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.renderError(w, r, http.StatusUnauthorized, "unauthorized", "Not authenticated.")
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "bearer") {
			m.renderError(w, r, http.StatusUnauthorized, "unauthorized", "Invalid authentication scheme.")
			return
		}

		tokenString := tokenParts[1]

		claims, err := m.jwtManager.Verify(tokenString)
		if err != nil {
			m.renderError(w, r, http.StatusUnauthorized, "unauthorized", "Invalid or expired token.")
			return
		}

		// A verified token whose subject no longer resolves to a live user is
		// authenticated but not entitled
		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			m.renderError(w, r, http.StatusForbidden, "forbidden", "Invalid token.")
			return
		}

		user, err := m.authService.GetUserByID(r.Context(), userID)
		if err != nil {
			m.logger.WithFields(logrus.Fields{
				"user_id": userID,
				"error":   err.Error(),
			}).Error("Failed to resolve current user")
			m.renderError(w, r, http.StatusInternalServerError, "internal_error", "Could not resolve user.")
			return
		}
		if user == nil {
			m.renderError(w, r, http.StatusForbidden, "forbidden", "User not found.")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		ctx = context.WithValue(ctx, tokenContextKey, tokenString)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) renderError(w http.ResponseWriter, r *http.Request, status int, errorType, message string) {
	render.Status(r, status)
	render.JSON(w, r, &api.ErrorResponse{
		Error:   errorType,
		Message: message,
		Success: false,
	})
}

// CurrentUser returns the user injected by RequireAuth.
func CurrentUser(r *http.Request) (*domain.User, bool) {
	user, ok := r.Context().Value(userContextKey).(*domain.User)
	return user, ok
}

// BearerToken returns the raw access token injected by RequireAuth.
func BearerToken(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(tokenContextKey).(string)
	return token, ok
}
