package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/kilobyteno/LANMS/internal/app/auth"
	"github.com/kilobyteno/LANMS/internal/app/middleware"
	"github.com/kilobyteno/LANMS/internal/app/model/api"
	"github.com/kilobyteno/LANMS/internal/app/model/domain"
)

// AuthHandler exposes the signup, session and password flows over HTTP.
type AuthHandler struct {
	authService auth.Service
	authMW      *middleware.AuthMiddleware
	validator   *validator.Validate
	logger      *logrus.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService auth.Service, authMW *middleware.AuthMiddleware, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		authMW:      authMW,
		validator:   validator.New(),
		logger:      logger,
	}
}

// RegisterRoutes registers authentication routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		// Public routes
		r.Post("/signup", h.SignupGenerateOTP)
		r.Post("/signup/resend", h.SignupResendOTP)
		r.Post("/signup/verify", h.SignupVerifyOTP)
		r.Post("/signup/details", h.SignupDetails)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.RefreshToken)
		r.Post("/password/forgot", h.ForgotPassword)
		r.Post("/password/reset", h.ResetPassword)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.authMW.RequireAuth)
			r.Post("/logout", h.Logout)
			r.Post("/password/change", h.ChangePassword)
			r.Get("/me", h.GetMe)
		})
	})
}

// SignupGenerateOTP starts signup by emailing an OTP
// @Summary Start signup
// @Description Generate and email an OTP to start signup
// @Tags auth
// @Accept json
// @Produce json
// @Param request body api.GenerateOTPRequest true "Start signup request"
// @Success 200 {object} api.SuccessResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Failure 500 {object} api.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) SignupGenerateOTP(w http.ResponseWriter, r *http.Request) {
	var req api.GenerateOTPRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if err := h.authService.SignupGenerateOTP(r.Context(), req.Email); err != nil {
		h.renderFlowError(w, r, err, logrus.Fields{"email": req.Email}, "Signup start failed", "Could not generate OTP. Please contact support!")
		return
	}

	h.renderSuccess(w, r, http.StatusOK, "An OTP has been sent to your email")
}

// SignupResendOTP invalidates any active OTP and emails a fresh one
// @Summary Resend signup OTP
// @Description Invalidate the active OTP and email a fresh one
// @Tags auth
// @Accept json
// @Produce json
// @Param request body api.ResendOTPRequest true "Resend OTP request"
// @Success 200 {object} api.SuccessResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 500 {object} api.ErrorResponse
// @Router /auth/signup/resend [post]
func (h *AuthHandler) SignupResendOTP(w http.ResponseWriter, r *http.Request) {
	var req api.ResendOTPRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if err := h.authService.SignupResendOTP(r.Context(), req.Email); err != nil {
		h.renderFlowError(w, r, err, logrus.Fields{"email": req.Email}, "OTP resend failed", "Could not generate OTP. Please contact support!")
		return
	}

	h.renderSuccess(w, r, http.StatusOK, "A new OTP has been sent to your email")
}

// SignupVerifyOTP verifies the emailed OTP
// @Summary Verify signup OTP
// @Description Verify the OTP emailed during signup
// @Tags auth
// @Accept json
// @Produce json
// @Param request body api.VerifyOTPRequest true "Verify OTP request"
// @Success 200 {object} api.SuccessResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Failure 500 {object} api.ErrorResponse
// @Router /auth/signup/verify [post]
func (h *AuthHandler) SignupVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req api.VerifyOTPRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if err := h.authService.SignupVerifyOTP(r.Context(), req.Email, req.Code); err != nil {
		h.renderFlowError(w, r, err, logrus.Fields{"email": req.Email}, "OTP verification failed", "Could not verify OTP. Please contact support!")
		return
	}

	h.renderSuccess(w, r, http.StatusOK, "OTP verified")
}

// SignupDetails completes signup with the user's profile
// @Summary Complete signup
// @Description Register the user account after OTP verification
// @Tags auth
// @Accept json
// @Produce json
// @Param request body api.SignupDetailsRequest true "Complete signup request"
// @Success 201 {object} api.UserResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Failure 500 {object} api.ErrorResponse
// @Router /auth/signup/details [post]
func (h *AuthHandler) SignupDetails(w http.ResponseWriter, r *http.Request) {
	var req api.SignupDetailsRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	user, err := h.authService.SignupDetails(r.Context(), &auth.SignupDetailsRequest{
		Name:        req.Name,
		PhoneCode:   req.PhoneCode,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Password:    req.Password,
		Referrer:    req.Referrer,
	})
	if err != nil {
		h.renderFlowError(w, r, err, logrus.Fields{"email": req.Email}, "Signup failed", "Could not create user using these details. Please contact support!")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toUserResponse(user))
}

// Login authenticates with email and password
// @Summary User login
// @Description Authenticate user with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body api.LoginRequest true "Login request"
// @Success 200 {object} api.TokenPairResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 500 {object} api.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	tokens, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.renderFlowError(w, r, err, logrus.Fields{"email": req.Email}, "Login failed", "Could not create tokens. Please contact support!")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, &api.TokenPairResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    tokens.TokenType,
	})
}

// RefreshToken exchanges a refresh token for a new access token
// @Summary Refresh token
// @Description Mint a new access token from a refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body api.RefreshTokenRequest true "Refresh token request"
// @Success 200 {object} api.AccessTokenResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 401 {object} api.ErrorResponse
// @Failure 500 {object} api.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req api.RefreshTokenRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	accessToken, err := h.authService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		h.renderFlowError(w, r, err, nil, "Token refresh failed", "Failed to refresh token")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, &api.AccessTokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
	})
}

// Logout clears the stored refresh token and echoes an expired access token
// @Summary User logout
// @Description Invalidate the session refresh token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} api.AccessTokenResponse
// @Failure 401 {object} api.ErrorResponse
// @Failure 500 {object} api.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		h.renderError(w, r, http.StatusUnauthorized, "unauthorized", "Not authenticated.")
		return
	}
	token, _ := middleware.BearerToken(r)

	expiredToken, err := h.authService.Logout(r.Context(), user, token)
	if err != nil {
		h.renderFlowError(w, r, err, logrus.Fields{"user_id": user.ID}, "Logout failed", "Failed to log out")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, &api.AccessTokenResponse{
		AccessToken: expiredToken,
		TokenType:   "bearer",
	})
}

// ChangePassword changes the current user's password
// @Summary Change password
// @Description Change the authenticated user's password
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body api.ChangePasswordRequest true "Change password request"
// @Success 200 {object} api.SuccessResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 401 {object} api.ErrorResponse
// @Failure 500 {object} api.ErrorResponse
// @Router /auth/password/change [post]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		h.renderError(w, r, http.StatusUnauthorized, "unauthorized", "Not authenticated.")
		return
	}

	var req api.ChangePasswordRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	err := h.authService.ChangePassword(r.Context(), user, &auth.ChangePasswordRequest{
		OldPassword:          req.OldPassword,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		h.renderFlowError(w, r, err, logrus.Fields{"user_id": user.ID}, "Password change failed", "Failed to change password")
		return
	}

	h.renderSuccess(w, r, http.StatusOK, "Password successfully changed")
}

// ForgotPassword emails a password reset link
// @Summary Forgot password
// @Description Email a password reset link to the user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body api.ForgotPasswordRequest true "Forgot password request"
// @Success 200 {object} api.SuccessResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 500 {object} api.ErrorResponse
// @Router /auth/password/forgot [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req api.ForgotPasswordRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if err := h.authService.ForgotPassword(r.Context(), req.Email); err != nil {
		h.renderFlowError(w, r, err, logrus.Fields{"email": req.Email}, "Forgot password failed", "Could not send email. Please contact support!")
		return
	}

	h.renderSuccess(w, r, http.StatusOK, "Password reset link sent to your email")
}

// ResetPassword resets a password with a reset token
// @Summary Reset password
// @Description Reset the password using an emailed reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body api.ResetPasswordRequest true "Reset password request"
// @Success 200 {object} api.SuccessResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 500 {object} api.ErrorResponse
// @Router /auth/password/reset [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req api.ResetPasswordRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	err := h.authService.ResetPassword(r.Context(), &auth.ResetPasswordRequest{
		ResetToken:           req.ResetToken,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		h.renderFlowError(w, r, err, nil, "Password reset failed", "Failed to reset password")
		return
	}

	h.renderSuccess(w, r, http.StatusOK, "Password successfully reset")
}

// GetMe returns the current user's profile
// @Summary Get user profile
// @Description Get current user information
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} api.UserResponse
// @Failure 401 {object} api.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		h.renderError(w, r, http.StatusUnauthorized, "unauthorized", "Not authenticated.")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toUserResponse(user))
}

// Helper methods

func (h *AuthHandler) decodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := h.validator.Struct(v); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			messages := make([]string, 0, len(validationErrors))
			for _, fieldErr := range validationErrors {
				messages = append(messages, fmt.Sprintf("%s failed on the '%s' rule", fieldErr.Field(), fieldErr.Tag()))
			}
			return errors.New(strings.Join(messages, "; "))
		}
		return err
	}
	return nil
}

// renderFlowError maps classified flow failures onto status codes and treats
// everything else as a server error with a generic message.
func (h *AuthHandler) renderFlowError(w http.ResponseWriter, r *http.Request, err error, fields logrus.Fields, logMessage, serverMessage string) {
	var flowErr *auth.FlowError
	if errors.As(err, &flowErr) {
		switch flowErr.Kind() {
		case auth.KindConflict:
			h.renderError(w, r, http.StatusConflict, "conflict", flowErr.Error())
		case auth.KindInvalidInput:
			h.renderError(w, r, http.StatusBadRequest, "bad_request", flowErr.Error())
		case auth.KindUnauthorized:
			h.renderError(w, r, http.StatusUnauthorized, "unauthorized", flowErr.Error())
		case auth.KindNotFound:
			h.renderError(w, r, http.StatusNotFound, "not_found", flowErr.Error())
		default:
			h.renderError(w, r, http.StatusInternalServerError, "internal_error", serverMessage)
		}
		return
	}

	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["error"] = err.Error()
	h.logger.WithFields(fields).Error(logMessage)

	h.renderError(w, r, http.StatusInternalServerError, "internal_error", serverMessage)
}

func (h *AuthHandler) renderError(w http.ResponseWriter, r *http.Request, status int, errorType, message string) {
	render.Status(r, status)
	render.JSON(w, r, &api.ErrorResponse{
		Error:   errorType,
		Message: message,
		Success: false,
	})
}

func (h *AuthHandler) renderSuccess(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, &api.SuccessResponse{
		Message: message,
		Success: true,
	})
}

func toUserResponse(user *domain.User) *api.UserResponse {
	return &api.UserResponse{
		ID:                       user.ID,
		Name:                     user.Name,
		Email:                    user.Email,
		PhoneCode:                user.PhoneCode,
		PhoneNumber:              user.PhoneNumber,
		Referrer:                 user.Referrer,
		PhotoURL:                 user.PhotoURL,
		EmailVerifiedAt:          user.EmailVerifiedAt,
		PrivacyPolicyAcceptedAt:  user.PrivacyPolicyAcceptedAt,
		TermsOfServiceAcceptedAt: user.TermsOfServiceAcceptedAt,
	}
}
