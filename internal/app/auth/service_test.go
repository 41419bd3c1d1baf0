package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilobyteno/LANMS/internal/app/model/domain"
	"github.com/kilobyteno/LANMS/internal/utils"
)

// In-memory fakes

type fakeUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetVerifiedByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email && u.EmailVerifiedAt != nil {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByEmailOrPhone(_ context.Context, email string, phoneNumber *string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
		if phoneNumber != nil && u.PhoneNumber != nil && *u.PhoneNumber == *phoneNumber {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Patch(_ context.Context, userID uuid.UUID, patch *domain.UserPatch) error {
	u, ok := r.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	if patch.Password != nil {
		u.Password = *patch.Password
	}
	if patch.ClearRefreshToken {
		u.RefreshToken = nil
	} else if patch.RefreshToken != nil {
		u.RefreshToken = patch.RefreshToken
	}
	if patch.EmailVerifiedAt != nil {
		u.EmailVerifiedAt = patch.EmailVerifiedAt
	}
	return nil
}

type fakeOtpRepo struct {
	rows    map[uuid.UUID]*domain.Otp
	deleted map[uuid.UUID]bool
}

func newFakeOtpRepo() *fakeOtpRepo {
	return &fakeOtpRepo{
		rows:    make(map[uuid.UUID]*domain.Otp),
		deleted: make(map[uuid.UUID]bool),
	}
}

func (r *fakeOtpRepo) Create(_ context.Context, otp *domain.Otp) error {
	copied := *otp
	r.rows[otp.ID] = &copied
	return nil
}

func (r *fakeOtpRepo) GetActiveByEmail(_ context.Context, email string) (*domain.Otp, error) {
	for id, o := range r.rows {
		if r.deleted[id] {
			continue
		}
		if o.Email == email && o.UsedAt == nil && o.ExpiresAt.After(time.Now()) {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeOtpRepo) GetActiveByEmailAndCode(_ context.Context, email, code string) (*domain.Otp, error) {
	for id, o := range r.rows {
		if r.deleted[id] {
			continue
		}
		if o.Email == email && o.Code == code && o.UsedAt == nil && o.ExpiresAt.After(time.Now()) {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeOtpRepo) UsedExistsForEmail(_ context.Context, email string) (bool, error) {
	for id, o := range r.rows {
		if r.deleted[id] {
			continue
		}
		if o.Email == email && o.UsedAt != nil {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOtpRepo) MarkUsed(_ context.Context, otp *domain.Otp) error {
	o, ok := r.rows[otp.ID]
	if !ok || r.deleted[otp.ID] {
		return errors.New("otp not found")
	}
	if o.UsedAt == nil {
		now := time.Now()
		o.UsedAt = &now
	}
	return nil
}

func (r *fakeOtpRepo) SoftDelete(_ context.Context, otp *domain.Otp) error {
	r.deleted[otp.ID] = true
	return nil
}

type sentEmail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	sent     []sentEmail
	failWith error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, htmlContent string) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.sent = append(m.sent, sentEmail{To: to, Subject: subject, Body: htmlContent})
	return nil
}

// Test harness

type testEnv struct {
	service  Service
	userRepo *fakeUserRepo
	otpRepo  *fakeOtpRepo
	mailer   *fakeMailer
	jwt      *utils.JWTManager
	totp     *utils.TOTPManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwtManager := utils.NewJWTManager(key, &key.PublicKey, 60, 43200)
	totpManager := utils.NewTOTPManager("JBSWY3DPEHPK3PXP", 6, "lanms-backend")

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	userRepo := newFakeUserRepo()
	otpRepo := newFakeOtpRepo()
	mailer := &fakeMailer{}

	svc := NewService(userRepo, otpRepo, mailer, jwtManager, totpManager, logger, &Config{
		OTPValidity:       5 * time.Minute,
		PasswordMinLength: 12,
		PortalURL:         "https://portal.example.com",
	})

	return &testEnv{
		service:  svc,
		userRepo: userRepo,
		otpRepo:  otpRepo,
		mailer:   mailer,
		jwt:      jwtManager,
		totp:     totpManager,
	}
}

func (e *testEnv) addVerifiedUser(t *testing.T, emailAddr, password string) *domain.User {
	t.Helper()

	hashed, err := utils.HashPassword(password)
	require.NoError(t, err)

	now := time.Now()
	phoneCode := "+47"
	phoneNumber := "99887766"
	user := &domain.User{
		ID:                       uuid.New(),
		Name:                     "John Doe",
		Email:                    emailAddr,
		Password:                 hashed,
		PhoneCode:                &phoneCode,
		PhoneNumber:              &phoneNumber,
		EmailVerifiedAt:          &now,
		PrivacyPolicyAcceptedAt:  &now,
		TermsOfServiceAcceptedAt: &now,
	}
	require.NoError(t, e.userRepo.Create(context.Background(), user))
	return user
}

func requireFlowKind(t *testing.T, err error, kind Kind) *FlowError {
	t.Helper()

	var flowErr *FlowError
	require.ErrorAs(t, err, &flowErr)
	require.Equal(t, kind, flowErr.Kind())
	return flowErr
}

// Signup flow

func TestSignupGenerateOTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.service.SignupGenerateOTP(ctx, " New-User@Example.com ")
	require.NoError(t, err)

	otp, err := env.otpRepo.GetActiveByEmail(ctx, "new-user@example.com")
	require.NoError(t, err)
	require.NotNil(t, otp)
	assert.Len(t, otp.Code, 6)

	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, "new-user@example.com", env.mailer.sent[0].To)
	assert.Contains(t, env.mailer.sent[0].Body, otp.Code)
}

func TestSignupGenerateOTP_VerifiedUserExists(t *testing.T) {
	env := newTestEnv(t)
	env.addVerifiedUser(t, "taken@example.com", "correct-horse-battery")

	err := env.service.SignupGenerateOTP(context.Background(), "taken@example.com")
	flowErr := requireFlowKind(t, err, KindConflict)
	assert.Equal(t, "User with the email already exists", flowErr.Error())
}

func TestSignupGenerateOTP_ActiveOTPExists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.service.SignupGenerateOTP(ctx, "new-user@example.com"))

	err := env.service.SignupGenerateOTP(ctx, "new-user@example.com")
	requireFlowKind(t, err, KindConflict)
	assert.Len(t, env.mailer.sent, 1)
}

func TestSignupResendOTP_InvalidatesActiveOTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.service.SignupGenerateOTP(ctx, "new-user@example.com"))
	first, err := env.otpRepo.GetActiveByEmail(ctx, "new-user@example.com")
	require.NoError(t, err)
	require.NotNil(t, first)

	// Resend never conflicts, it supersedes
	require.NoError(t, env.service.SignupResendOTP(ctx, "new-user@example.com"))

	active, err := env.otpRepo.GetActiveByEmail(ctx, "new-user@example.com")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.NotEqual(t, first.ID, active.ID)
	assert.Len(t, env.mailer.sent, 2)
}

func TestSignupResendOTP_WithoutActiveOTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.service.SignupResendOTP(ctx, "new-user@example.com"))

	active, err := env.otpRepo.GetActiveByEmail(ctx, "new-user@example.com")
	require.NoError(t, err)
	assert.NotNil(t, active)
}

func TestSignupVerifyOTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.service.SignupGenerateOTP(ctx, "new-user@example.com"))
	otp, err := env.otpRepo.GetActiveByEmail(ctx, "new-user@example.com")
	require.NoError(t, err)

	require.NoError(t, env.service.SignupVerifyOTP(ctx, "new-user@example.com", otp.Code))

	verified, err := env.otpRepo.UsedExistsForEmail(ctx, "new-user@example.com")
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestSignupVerifyOTP_WrongCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.service.SignupGenerateOTP(ctx, "new-user@example.com"))

	err := env.service.SignupVerifyOTP(ctx, "new-user@example.com", "000000")
	flowErr := requireFlowKind(t, err, KindInvalidInput)
	assert.Equal(t, "Invalid code or it has expired, please request a new OTP", flowErr.Error())
}

func TestSignupVerifyOTP_ConsumedCodeDoesNotVerifyTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.service.SignupGenerateOTP(ctx, "new-user@example.com"))
	otp, err := env.otpRepo.GetActiveByEmail(ctx, "new-user@example.com")
	require.NoError(t, err)

	require.NoError(t, env.service.SignupVerifyOTP(ctx, "new-user@example.com", otp.Code))

	err = env.service.SignupVerifyOTP(ctx, "new-user@example.com", otp.Code)
	requireFlowKind(t, err, KindInvalidInput)
}

func TestSignupVerifyOTP_ExpiredCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	code, err := env.totp.GenerateCode()
	require.NoError(t, err)
	require.NoError(t, env.otpRepo.Create(ctx, &domain.Otp{
		ID:        uuid.New(),
		Email:     "new-user@example.com",
		Code:      code,
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	err = env.service.SignupVerifyOTP(ctx, "new-user@example.com", code)
	requireFlowKind(t, err, KindInvalidInput)
}

func TestSignupVerifyOTP_VerifiedUserExists(t *testing.T) {
	env := newTestEnv(t)
	env.addVerifiedUser(t, "taken@example.com", "correct-horse-battery")

	err := env.service.SignupVerifyOTP(context.Background(), "taken@example.com", "123456")
	requireFlowKind(t, err, KindConflict)
}

func signupDetailsRequest(emailAddr string) *SignupDetailsRequest {
	return &SignupDetailsRequest{
		Name:        "John Doe",
		PhoneCode:   "+47",
		PhoneNumber: "99887766",
		Email:       emailAddr,
		Password:    "correct-horse-battery",
	}
}

func (e *testEnv) verifyEmail(t *testing.T, emailAddr string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, e.service.SignupGenerateOTP(ctx, emailAddr))
	otp, err := e.otpRepo.GetActiveByEmail(ctx, emailAddr)
	require.NoError(t, err)
	require.NoError(t, e.service.SignupVerifyOTP(ctx, emailAddr, otp.Code))
}

func TestSignupDetails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.verifyEmail(t, "new-user@example.com")

	user, err := env.service.SignupDetails(ctx, signupDetailsRequest("New-User@Example.com"))
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, "new-user@example.com", user.Email)
	assert.NotEqual(t, "correct-horse-battery", user.Password)
	assert.True(t, utils.CheckPasswordHash("correct-horse-battery", user.Password))
	require.NotNil(t, user.PhotoURL)
	assert.Contains(t, *user.PhotoURL, "ui-avatars.com")
	assert.NotNil(t, user.PrivacyPolicyAcceptedAt)
	assert.NotNil(t, user.TermsOfServiceAcceptedAt)
	assert.NotNil(t, user.EmailVerifiedAt)

	stored, err := env.userRepo.GetByEmail(ctx, "new-user@example.com")
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestSignupDetails_RegisteredUserBlocksNewSignupStart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.verifyEmail(t, "new-user@example.com")
	_, err := env.service.SignupDetails(ctx, signupDetailsRequest("new-user@example.com"))
	require.NoError(t, err)

	err = env.service.SignupGenerateOTP(ctx, "new-user@example.com")
	flowErr := requireFlowKind(t, err, KindConflict)
	assert.Equal(t, "User with the email already exists", flowErr.Error())
}

func TestSignupDetails_WithoutVerifiedOTP(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.SignupDetails(context.Background(), signupDetailsRequest("new-user@example.com"))
	flowErr := requireFlowKind(t, err, KindInvalidInput)
	assert.Equal(t, "Please verify your email with the OTP sent to your email", flowErr.Error())
}

func TestSignupDetails_EmailOrPhoneTaken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addVerifiedUser(t, "taken@example.com", "correct-horse-battery")

	// Same email
	_, err := env.service.SignupDetails(ctx, signupDetailsRequest("taken@example.com"))
	requireFlowKind(t, err, KindConflict)

	// Different email, same phone number
	env.verifyEmail(t, "other@example.com")
	_, err = env.service.SignupDetails(ctx, signupDetailsRequest("other@example.com"))
	requireFlowKind(t, err, KindConflict)
}

func TestSignupDetails_PasswordTooShort(t *testing.T) {
	env := newTestEnv(t)
	env.verifyEmail(t, "new-user@example.com")

	req := signupDetailsRequest("new-user@example.com")
	req.Password = "short"

	_, err := env.service.SignupDetails(context.Background(), req)
	flowErr := requireFlowKind(t, err, KindInvalidInput)
	assert.Equal(t, "Password must be at least 12 characters long", flowErr.Error())
}

// Session flow

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.addVerifiedUser(t, "user@example.com", "correct-horse-battery")

	pair, err := env.service.Login(ctx, "User@Example.com", "correct-horse-battery")
	require.NoError(t, err)

	assert.Equal(t, "bearer", pair.TokenType)

	claims, err := env.jwt.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, "user@example.com", claims.Data["email"])
	assert.NotNil(t, claims.Data["privacy_policy_accepted_at"])

	stored, err := env.userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, pair.RefreshToken, *stored.RefreshToken)
}

func TestLogin_UnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addVerifiedUser(t, "user@example.com", "correct-horse-battery")

	_, unknownErr := env.service.Login(ctx, "nobody@example.com", "correct-horse-battery")
	_, wrongErr := env.service.Login(ctx, "user@example.com", "wrong-password")

	requireFlowKind(t, unknownErr, KindInvalidInput)
	requireFlowKind(t, wrongErr, KindInvalidInput)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	assert.Equal(t, "Invalid credentials", unknownErr.Error())
}

func TestRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.addVerifiedUser(t, "user@example.com", "correct-horse-battery")

	pair, err := env.service.Login(ctx, "user@example.com", "correct-horse-battery")
	require.NoError(t, err)

	accessToken, err := env.service.RefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)

	claims, err := env.jwt.Verify(accessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, "user@example.com", claims.Data["email"])
}

func TestRefreshToken_Garbage(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.RefreshToken(context.Background(), "not-a-jwt")
	flowErr := requireFlowKind(t, err, KindUnauthorized)
	assert.Equal(t, "Invalid token", flowErr.Error())
}

func TestRefreshToken_RevokedByLaterLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addVerifiedUser(t, "user@example.com", "correct-horse-battery")

	first, err := env.service.Login(ctx, "user@example.com", "correct-horse-battery")
	require.NoError(t, err)

	// Tokens embed second-resolution expiry; force a different token
	time.Sleep(1100 * time.Millisecond)

	second, err := env.service.Login(ctx, "user@example.com", "correct-horse-battery")
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The first session's refresh token still verifies but no longer matches
	_, err = env.service.RefreshToken(ctx, first.RefreshToken)
	flowErr := requireFlowKind(t, err, KindUnauthorized)
	assert.Equal(t, "Please log in again!", flowErr.Error())

	_, err = env.service.RefreshToken(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.addVerifiedUser(t, "user@example.com", "correct-horse-battery")

	pair, err := env.service.Login(ctx, "user@example.com", "correct-horse-battery")
	require.NoError(t, err)

	current, err := env.userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)

	expired, err := env.service.Logout(ctx, current, pair.AccessToken)
	require.NoError(t, err)

	// Echoed token is already expired
	_, err = env.jwt.Verify(expired)
	assert.Error(t, err)

	stored, err := env.userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.RefreshToken)

	_, err = env.service.RefreshToken(ctx, pair.RefreshToken)
	requireFlowKind(t, err, KindUnauthorized)
}

// Password flows

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.addVerifiedUser(t, "user@example.com", "correct-horse-battery")

	err := env.service.ChangePassword(ctx, user, &ChangePasswordRequest{
		OldPassword:          "correct-horse-battery",
		Password:             "staple-horse-correct",
		PasswordConfirmation: "staple-horse-correct",
	})
	require.NoError(t, err)

	stored, err := env.userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, utils.CheckPasswordHash("staple-horse-correct", stored.Password))

	_, err = env.service.Login(ctx, "user@example.com", "correct-horse-battery")
	requireFlowKind(t, err, KindInvalidInput)
}

func TestChangePassword_Validations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.addVerifiedUser(t, "user@example.com", "correct-horse-battery")

	tests := []struct {
		name    string
		req     *ChangePasswordRequest
		message string
	}{
		{
			name: "wrong old password",
			req: &ChangePasswordRequest{
				OldPassword:          "wrong-password",
				Password:             "staple-horse-correct",
				PasswordConfirmation: "staple-horse-correct",
			},
			message: "The password does not match with the current password",
		},
		{
			name: "confirmation mismatch",
			req: &ChangePasswordRequest{
				OldPassword:          "correct-horse-battery",
				Password:             "staple-horse-correct",
				PasswordConfirmation: "different-confirmation",
			},
			message: "The new password fields do not match",
		},
		{
			name: "same as current",
			req: &ChangePasswordRequest{
				OldPassword:          "correct-horse-battery",
				Password:             "correct-horse-battery",
				PasswordConfirmation: "correct-horse-battery",
			},
			message: "The new password cannot be the same as the current password",
		},
		{
			name: "too short",
			req: &ChangePasswordRequest{
				OldPassword:          "correct-horse-battery",
				Password:             "short",
				PasswordConfirmation: "short",
			},
			message: "Password must be at least 12 characters long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.service.ChangePassword(ctx, user, tt.req)
			flowErr := requireFlowKind(t, err, KindInvalidInput)
			assert.Equal(t, tt.message, flowErr.Error())
		})
	}
}

func TestForgotPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addVerifiedUser(t, "user@example.com", "correct-horse-battery")

	err := env.service.ForgotPassword(ctx, "User@Example.com")
	require.NoError(t, err)

	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, "user@example.com", env.mailer.sent[0].To)
	assert.Contains(t, env.mailer.sent[0].Body, "https://portal.example.com/auth/reset-password?reset_token=")
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	err := env.service.ForgotPassword(context.Background(), "nobody@example.com")
	flowErr := requireFlowKind(t, err, KindNotFound)
	assert.Equal(t, "User not found", flowErr.Error())
}

func TestForgotPassword_SendFailure(t *testing.T) {
	env := newTestEnv(t)
	env.addVerifiedUser(t, "user@example.com", "correct-horse-battery")
	env.mailer.failWith = errors.New("relay unavailable")

	err := env.service.ForgotPassword(context.Background(), "user@example.com")
	require.Error(t, err)

	var flowErr *FlowError
	assert.False(t, errors.As(err, &flowErr))
}

func TestResetPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.addVerifiedUser(t, "user@example.com", "correct-horse-battery")

	resetToken, err := env.jwt.GenerateResetToken(user.ID.String())
	require.NoError(t, err)

	err = env.service.ResetPassword(ctx, &ResetPasswordRequest{
		ResetToken:           resetToken,
		Password:             "staple-horse-correct",
		PasswordConfirmation: "staple-horse-correct",
	})
	require.NoError(t, err)

	stored, err := env.userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, utils.CheckPasswordHash("staple-horse-correct", stored.Password))
}

func TestResetPassword_InvalidToken(t *testing.T) {
	env := newTestEnv(t)

	err := env.service.ResetPassword(context.Background(), &ResetPasswordRequest{
		ResetToken:           "not-a-jwt",
		Password:             "staple-horse-correct",
		PasswordConfirmation: "staple-horse-correct",
	})
	flowErr := requireFlowKind(t, err, KindInvalidInput)
	assert.Equal(t, "Invalid or expired token, please request a new one", flowErr.Error())
}

func TestResetPassword_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	resetToken, err := env.jwt.GenerateResetToken(uuid.New().String())
	require.NoError(t, err)

	err = env.service.ResetPassword(context.Background(), &ResetPasswordRequest{
		ResetToken:           resetToken,
		Password:             "staple-horse-correct",
		PasswordConfirmation: "staple-horse-correct",
	})
	requireFlowKind(t, err, KindNotFound)
}

func TestResetPassword_Validations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.addVerifiedUser(t, "user@example.com", "correct-horse-battery")

	resetToken, err := env.jwt.GenerateResetToken(user.ID.String())
	require.NoError(t, err)

	err = env.service.ResetPassword(ctx, &ResetPasswordRequest{
		ResetToken:           resetToken,
		Password:             "staple-horse-correct",
		PasswordConfirmation: "different-confirmation",
	})
	flowErr := requireFlowKind(t, err, KindInvalidInput)
	assert.Equal(t, "The new password fields do not match", flowErr.Error())

	err = env.service.ResetPassword(ctx, &ResetPasswordRequest{
		ResetToken:           resetToken,
		Password:             "short",
		PasswordConfirmation: "short",
	})
	flowErr = requireFlowKind(t, err, KindInvalidInput)
	assert.Equal(t, "Password must be at least 12 characters long", flowErr.Error())
}
