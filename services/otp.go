package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"mess-management-api/logger"
	"mess-management-api/mailer"
	"mess-management-api/metrics"
	"mess-management-api/models"
	"mess-management-api/store"

	"golang.org/x/crypto/bcrypt"
)

// OTPValidity is how long an issued code can be verified
const OTPValidity = 10 * time.Minute

// MaxOTPAttempts is how many wrong codes a pending code survives. The
// code is discarded on the last failed attempt and a new one must be requested.
const MaxOTPAttempts = 5

const otpDigits = 6

// OTPService issues and verifies one-time codes used for email verification
// and password reset.
//
// A user moves NO_OTP → PENDING on Request and PENDING → VERIFIED on a
// successful Verify. A wrong or late code leaves the stored code in place
// until MaxOTPAttempts wrong codes have been tried. A verification is only
// good for a password reset within OTPValidity.
type OTPService struct {
	store    store.Store
	mailer   mailer.Mailer
	activity *ActivityService
	log      *logger.Logger
	metrics  *metrics.Metrics

	now      func() time.Time
	generate func() (string, error)
}

func NewOTPService(st store.Store, m mailer.Mailer, activity *ActivityService, log *logger.Logger, mt *metrics.Metrics) *OTPService {
	return &OTPService{
		store:    st,
		mailer:   m,
		activity: activity,
		log:      log.Named("otp"),
		metrics:  mt,
		now:      time.Now,
		generate: generateCode,
	}
}

// WithClock replaces the time source
func (s *OTPService) WithClock(now func() time.Time) *OTPService {
	s.now = now
	return s
}

// generateCode returns a uniformly random zero-padded numeric code
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Request issues a fresh code for the account registered under email and
// mails it. Any earlier code and verification are discarded.
func (s *OTPService) Request(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return validationf("email is required")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return lookupErr(err, "user")
	}

	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	now := s.now()
	err = s.store.UpdateUser(ctx, user.ID, map[string]any{
		"otp":              code,
		"otp_generated_at": now,
		"otp_attempts":     0,
		"otp_verified":     false,
		"otp_verified_at":  nil,
	})
	if err != nil {
		return persistence("store otp", err)
	}
	s.metrics.ObserveOTPRequest()

	subject, body := mailer.OTPMessage(code)
	err = s.mailer.SendMail(ctx, user.Email, subject, body)
	s.metrics.ObserveMail(err)
	if err != nil {
		s.log.Errorw("send otp", "user_id", user.ID, "error", err)
		return fmt.Errorf("%w: %w", ErrMailDelivery, err)
	}

	s.log.Infow("otp issued", "user_id", user.ID)
	return nil
}

// Verify checks code against the user's pending code. A code is accepted
// for exactly OTPValidity after generation. On success the code is cleared
// and the account is marked verified.
func (s *OTPService) Verify(ctx context.Context, userID uint, code string) error {
	err := s.verify(ctx, userID, code)
	s.metrics.ObserveOTPVerification(otpOutcome(err))
	return err
}

func (s *OTPService) verify(ctx context.Context, userID uint, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return validationf("otp is required")
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return lookupErr(err, "user")
	}

	if user.OTP == nil {
		return ErrInvalidOTP
	}
	if subtle.ConstantTimeCompare([]byte(*user.OTP), []byte(code)) != 1 {
		return s.recordFailure(ctx, user.ID)
	}
	if user.OTPGeneratedAt == nil {
		return ErrMissingGenerationTime
	}
	if elapsed := s.now().Sub(*user.OTPGeneratedAt); elapsed > OTPValidity {
		return ErrExpiredOTP
	}

	err = s.store.UpdateUser(ctx, user.ID, map[string]any{
		"otp":              nil,
		"otp_generated_at": nil,
		"otp_attempts":     0,
		"otp_verified":     true,
		"otp_verified_at":  s.now(),
		"email_verified":   true,
	})
	if err != nil {
		return persistence("mark otp verified", err)
	}
	s.log.Infow("otp verified", "user_id", user.ID)
	return nil
}

// recordFailure counts a wrong code and discards the pending code once
// MaxOTPAttempts is reached. It always reports ErrInvalidOTP to the caller.
func (s *OTPService) recordFailure(ctx context.Context, userID uint) error {
	n, err := s.store.IncrementOTPAttempts(ctx, userID)
	if err != nil {
		return persistence("count otp attempt", err)
	}
	if n < MaxOTPAttempts {
		return ErrInvalidOTP
	}
	err = s.store.UpdateUser(ctx, userID, map[string]any{
		"otp":              nil,
		"otp_generated_at": nil,
		"otp_attempts":     0,
	})
	if err != nil {
		return persistence("discard otp", err)
	}
	s.log.Warnw("otp discarded after failed attempts", "user_id", userID, "attempts", n)
	return ErrInvalidOTP
}

// VerifyByEmail is Verify for callers that only know the email address
func (s *OTPService) VerifyByEmail(ctx context.Context, email, code string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, validationf("email is required")
	}
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	if err := s.Verify(ctx, user.ID, code); err != nil {
		return nil, err
	}
	return user, nil
}

// ResetPassword sets a new password for a user whose OTP was verified within
// the last OTPValidity. The verification is consumed, so each reset needs a
// new code, and every open session of the user is revoked.
func (s *OTPService) ResetPassword(ctx context.Context, userID uint, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return lookupErr(err, "user")
	}
	if !user.OTPVerified || user.OTPVerifiedAt == nil || s.now().Sub(*user.OTPVerifiedAt) > OTPValidity {
		return ErrOTPNotVerified
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		err := tx.UpdateUser(ctx, user.ID, map[string]any{
			"password_hash":   string(hash),
			"otp_verified":    false,
			"otp_verified_at": nil,
		})
		if err != nil {
			return err
		}
		_, err = tx.DeleteUserSessions(ctx, user.ID)
		return err
	})
	if err != nil {
		return persistence("reset password", err)
	}
	s.activity.Record(ctx, user.ID, ActionPasswordReset, "")
	return nil
}

// ResetPasswordByEmail verifies code for the account under email and sets
// the new password in one step. A code is always required.
func (s *OTPService) ResetPasswordByEmail(ctx context.Context, email, code, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: a verification code is required", ErrOTPNotVerified)
	}
	user, err := s.VerifyByEmail(ctx, email, code)
	if err != nil {
		return err
	}
	return s.ResetPassword(ctx, user.ID, newPassword)
}

func otpOutcome(err error) string {
	switch {
	case err == nil:
		return "verified"
	case errors.Is(err, ErrInvalidOTP):
		return "invalid"
	case errors.Is(err, ErrExpiredOTP):
		return "expired"
	case errors.Is(err, ErrMissingGenerationTime):
		return "missing_time"
	case errors.Is(err, ErrNotFound):
		return "unknown_user"
	default:
		return "error"
	}
}
