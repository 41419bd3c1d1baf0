package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kilobyteno/LANMS/internal/app/model/domain"
	"github.com/kilobyteno/LANMS/internal/app/repo"
	"github.com/kilobyteno/LANMS/internal/client/email"
	"github.com/kilobyteno/LANMS/internal/utils"
)

// Service is the authentication and credential lifecycle core: OTP-gated
// signup, login/refresh/logout, password change and recovery.
type Service interface {
	SignupGenerateOTP(ctx context.Context, emailAddr string) error
	SignupResendOTP(ctx context.Context, emailAddr string) error
	SignupVerifyOTP(ctx context.Context, emailAddr, code string) error
	SignupDetails(ctx context.Context, req *SignupDetailsRequest) (*domain.User, error)

	Login(ctx context.Context, emailAddr, password string) (*domain.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, user *domain.User, accessToken string) (string, error)

	ChangePassword(ctx context.Context, user *domain.User, req *ChangePasswordRequest) error
	ForgotPassword(ctx context.Context, emailAddr string) error
	ResetPassword(ctx context.Context, req *ResetPasswordRequest) error

	GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

type SignupDetailsRequest struct {
	Name        string
	PhoneCode   string
	PhoneNumber string
	Email       string
	Password    string
	Referrer    *string
}

type ChangePasswordRequest struct {
	OldPassword          string
	Password             string
	PasswordConfirmation string
}

type ResetPasswordRequest struct {
	ResetToken           string
	Password             string
	PasswordConfirmation string
}

// Config carries the flow tunables, assembled once at process start.
type Config struct {
	OTPValidity       time.Duration
	PasswordMinLength int
	PortalURL         string
}

type service struct {
	userRepo    repo.UserRepository
	otpRepo     repo.OtpRepository
	mailer      email.Mailer
	jwtManager  *utils.JWTManager
	totpManager *utils.TOTPManager
	logger      *logrus.Logger
	config      *Config
}

func NewService(
	userRepo repo.UserRepository,
	otpRepo repo.OtpRepository,
	mailer email.Mailer,
	jwtManager *utils.JWTManager,
	totpManager *utils.TOTPManager,
	logger *logrus.Logger,
	config *Config,
) Service {
	return &service{
		userRepo:    userRepo,
		otpRepo:     otpRepo,
		mailer:      mailer,
		jwtManager:  jwtManager,
		totpManager: totpManager,
		logger:      logger,
		config:      config,
	}
}

func (s *service) SignupGenerateOTP(ctx context.Context, emailAddr string) error {
	emailAddr = utils.NormalizeEmail(emailAddr)

	s.logger.WithFields(logrus.Fields{
		"email": emailAddr,
	}).Info("Starting signup, generating OTP")

	// Check if a verified user already exists
	user, err := s.userRepo.GetVerifiedByEmail(ctx, emailAddr)
	if err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if user != nil {
		return conflictError("User with the email already exists")
	}

	// Check for an OTP that has not been used and has not expired
	otp, err := s.otpRepo.GetActiveByEmail(ctx, emailAddr)
	if err != nil {
		return fmt.Errorf("failed to check active OTP: %w", err)
	}
	if otp != nil {
		return conflictError("User with the email already has an OTP that has not been used and has not expired")
	}

	return s.issueOTP(ctx, emailAddr)
}

func (s *service) SignupResendOTP(ctx context.Context, emailAddr string) error {
	emailAddr = utils.NormalizeEmail(emailAddr)

	s.logger.WithFields(logrus.Fields{
		"email": emailAddr,
	}).Info("Resending signup OTP")

	// Invalidate the active OTP, if any, then issue a fresh one
	otp, err := s.otpRepo.GetActiveByEmail(ctx, emailAddr)
	if err != nil {
		return fmt.Errorf("failed to check active OTP: %w", err)
	}
	if otp != nil {
		if err := s.otpRepo.SoftDelete(ctx, otp); err != nil {
			return fmt.Errorf("failed to invalidate OTP: %w", err)
		}
	}

	return s.issueOTP(ctx, emailAddr)
}

func (s *service) SignupVerifyOTP(ctx context.Context, emailAddr, code string) error {
	emailAddr = utils.NormalizeEmail(emailAddr)

	s.logger.WithFields(logrus.Fields{
		"email": emailAddr,
	}).Info("Verifying signup OTP")

	// Check if a verified user already exists
	user, err := s.userRepo.GetVerifiedByEmail(ctx, emailAddr)
	if err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if user != nil {
		return conflictError("User with the email already exists")
	}

	// A single lookup covers wrong, expired, consumed and invalidated codes
	otp, err := s.otpRepo.GetActiveByEmailAndCode(ctx, emailAddr, code)
	if err != nil {
		return fmt.Errorf("failed to look up OTP: %w", err)
	}
	if otp == nil {
		return invalidInputError("Invalid code or it has expired, please request a new OTP")
	}

	if err := s.otpRepo.MarkUsed(ctx, otp); err != nil {
		return fmt.Errorf("failed to mark OTP as used: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"email": emailAddr,
	}).Info("OTP verified")

	return nil
}

func (s *service) SignupDetails(ctx context.Context, req *SignupDetailsRequest) (*domain.User, error) {
	emailAddr := utils.NormalizeEmail(req.Email)

	s.logger.WithFields(logrus.Fields{
		"email": emailAddr,
	}).Info("Completing signup")

	// Check if a user exists with the email or, if provided, the phone number
	var phoneNumber *string
	if req.PhoneNumber != "" {
		phoneNumber = &req.PhoneNumber
	}
	existing, err := s.userRepo.GetByEmailOrPhone(ctx, emailAddr, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, conflictError("User with the email or phone number already exists")
	}

	// Require server-side proof that the email passed OTP verification
	verified, err := s.otpRepo.UsedExistsForEmail(ctx, emailAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to check OTP verification: %w", err)
	}
	if !verified {
		return nil, invalidInputError("Please verify your email with the OTP sent to your email")
	}

	if len(req.Password) < s.config.PasswordMinLength {
		return nil, invalidInputError(fmt.Sprintf("Password must be at least %d characters long", s.config.PasswordMinLength))
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// The used-OTP proof above is what verified the email; stamp it on the
	// account so the signup conflict checks recognize the user from now on
	now := time.Now()
	photoURL := utils.GetAvatarURL(req.Name)
	user := &domain.User{
		ID:                       uuid.New(),
		Name:                     req.Name,
		Email:                    emailAddr,
		Password:                 hashed,
		PhoneCode:                &req.PhoneCode,
		PhoneNumber:              phoneNumber,
		Referrer:                 req.Referrer,
		PhotoURL:                 &photoURL,
		EmailVerifiedAt:          &now,
		PrivacyPolicyAcceptedAt:  &now,
		TermsOfServiceAcceptedAt: &now,
	}

	// A uniqueness race here surfaces as a server error; the pre-check above
	// is the intended conflict path
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"email":   emailAddr,
		"user_id": user.ID,
	}).Info("User registration successful")

	return user, nil
}

func (s *service) Login(ctx context.Context, emailAddr, password string) (*domain.TokenPair, error) {
	emailAddr = utils.NormalizeEmail(emailAddr)

	s.logger.WithFields(logrus.Fields{
		"email": emailAddr,
	}).Info("Starting login")

	// Unknown email and wrong password must be indistinguishable
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !utils.CheckPasswordHash(password, user.Password) {
		return nil, invalidInputError("Invalid credentials")
	}

	data := tokenData(user)
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID.String(), data)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID.String(), data)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	// Overwriting the stored refresh token revokes any prior session
	if err := s.userRepo.Patch(ctx, user.ID, &domain.UserPatch{RefreshToken: &refreshToken}); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"email":   emailAddr,
		"user_id": user.ID,
	}).Info("Login successful")

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	s.logger.Info("Refreshing access token")

	claims, err := s.jwtManager.Verify(refreshToken)
	if err != nil {
		return "", unauthorizedError("Invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return "", unauthorizedError("Invalid token")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	// A stored token mismatch means this token was revoked by a later login
	// or a logout, even though its signature and expiry still check out
	if user == nil || user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return "", unauthorizedError("Please log in again!")
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(claims.Subject, claims.Data)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
	}).Info("Token refreshed")

	return accessToken, nil
}

func (s *service) Logout(ctx context.Context, user *domain.User, accessToken string) (string, error) {
	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
	}).Info("Logging out user")

	if err := s.userRepo.Patch(ctx, user.ID, &domain.UserPatch{ClearRefreshToken: true}); err != nil {
		return "", fmt.Errorf("failed to clear refresh token: %w", err)
	}

	// Echo the access token back with its expiry forced into the past so the
	// client discards it. There is no server-side blocklist; other holders of
	// the original token keep it until natural expiry.
	expiredToken, err := s.jwtManager.ExpireToken(accessToken)
	if err != nil {
		return "", fmt.Errorf("failed to expire token: %w", err)
	}

	return expiredToken, nil
}

func (s *service) ChangePassword(ctx context.Context, user *domain.User, req *ChangePasswordRequest) error {
	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
	}).Info("Changing password")

	if !utils.CheckPasswordHash(req.OldPassword, user.Password) {
		return invalidInputError("The password does not match with the current password")
	}
	if req.Password != req.PasswordConfirmation {
		return invalidInputError("The new password fields do not match")
	}
	if utils.CheckPasswordHash(req.Password, user.Password) {
		return invalidInputError("The new password cannot be the same as the current password")
	}
	if len(req.Password) < s.config.PasswordMinLength {
		return invalidInputError(fmt.Sprintf("Password must be at least %d characters long", s.config.PasswordMinLength))
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.Patch(ctx, user.ID, &domain.UserPatch{Password: &hashed}); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
	}).Info("Password changed")

	return nil
}

func (s *service) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = utils.NormalizeEmail(emailAddr)

	s.logger.WithFields(logrus.Fields{
		"email": emailAddr,
	}).Info("Processing forgot password")

	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return notFoundError("User not found")
	}

	resetToken, err := s.jwtManager.GenerateResetToken(user.ID.String())
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	link := utils.GetPortalURL(s.config.PortalURL, "/auth/reset-password?reset_token="+resetToken)
	if err := s.mailer.Send(ctx, emailAddr, "Password reset link", "Your password reset link is: "+link); err != nil {
		s.logger.WithFields(logrus.Fields{
			"email": emailAddr,
			"error": err.Error(),
		}).Error("Failed to send password reset email")
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	return nil
}

func (s *service) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	s.logger.Info("Resetting password")

	claims, err := s.jwtManager.Verify(req.ResetToken)
	if err != nil || claims.Subject == "" {
		return invalidInputError("Invalid or expired token, please request a new one")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return invalidInputError("Invalid or expired token, please request a new one")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return notFoundError("User not found")
	}

	if req.Password != req.PasswordConfirmation {
		return invalidInputError("The new password fields do not match")
	}
	if len(req.Password) < s.config.PasswordMinLength {
		return invalidInputError(fmt.Sprintf("Password must be at least %d characters long", s.config.PasswordMinLength))
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.Patch(ctx, user.ID, &domain.UserPatch{Password: &hashed}); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
	}).Info("Password reset")

	return nil
}

func (s *service) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// issueOTP generates the current time-step code, persists it and dispatches
// it by email. The OTP row stays persisted when the send fails so a resend
// can supersede it.
func (s *service) issueOTP(ctx context.Context, emailAddr string) error {
	code, err := s.totpManager.GenerateCode()
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", err)
	}

	otp := &domain.Otp{
		ID:        uuid.New(),
		Email:     emailAddr,
		Code:      code,
		ExpiresAt: time.Now().Add(s.config.OTPValidity),
	}
	if err := s.otpRepo.Create(ctx, otp); err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}

	if err := s.mailer.Send(ctx, emailAddr, "OTP for account verification", "Your OTP is: "+code); err != nil {
		s.logger.WithFields(logrus.Fields{
			"email": emailAddr,
			"error": err.Error(),
		}).Error("Failed to send OTP email")
		return fmt.Errorf("failed to send OTP email: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"email": emailAddr,
	}).Info("OTP sent")

	return nil
}

// tokenData builds the opaque claim bag carried by access and refresh tokens.
func tokenData(user *domain.User) map[string]any {
	data := map[string]any{
		"email":                        user.Email,
		"privacy_policy_accepted_at":   nil,
		"terms_of_service_accepted_at": nil,
	}
	if user.PrivacyPolicyAcceptedAt != nil {
		data["privacy_policy_accepted_at"] = user.PrivacyPolicyAcceptedAt.Format(time.RFC3339)
	}
	if user.TermsOfServiceAcceptedAt != nil {
		data["terms_of_service_accepted_at"] = user.TermsOfServiceAcceptedAt.Format(time.RFC3339)
	}
	return data
}
