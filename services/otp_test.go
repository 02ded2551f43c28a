package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mess-management-api/models"
	"mess-management-api/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

func TestRequest_StoresAndMailsCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "ravi@mess.test", "secret1", models.RoleStudent)

	var mailed string
	f.mail.EXPECT().
		SendMail(gomock.Any(), "ravi@mess.test", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _, body string) error {
			mailed = body
			return nil
		})

	require.NoError(t, f.otp.Request(ctx, "  Ravi@Mess.test "))

	stored, err := f.store.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.OTP)
	require.NotNil(t, stored.OTPGeneratedAt)
	assert.Len(t, *stored.OTP, 6)
	assert.Contains(t, mailed, *stored.OTP)
	assert.True(t, stored.OTPGeneratedAt.Equal(baseTime))
}

func TestRequest_UnknownEmail(t *testing.T) {
	f := newFixture(t)
	err := f.otp.Request(context.Background(), "nobody@mess.test")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestRequest_MailFailure(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "ravi@mess.test", "secret1", models.RoleStudent)
	f.mail.EXPECT().SendMail(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))

	err := f.otp.Request(context.Background(), "ravi@mess.test")
	assert.ErrorIs(t, err, services.ErrMailDelivery)
}

func TestRequest_ResetsVerifiedFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "ravi@mess.test", "secret1", models.RoleStudent)
	require.NoError(t, f.store.UpdateUser(ctx, u.ID, map[string]any{"otp_verified": true}))
	f.mail.EXPECT().SendMail(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	require.NoError(t, f.otp.Request(ctx, u.Email))

	stored, err := f.store.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, stored.OTPVerified)
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{"immediately", 0, nil},
		{"one minute", time.Minute, nil},
		{"exactly ten minutes", 600_000 * time.Millisecond, nil},
		{"one millisecond late", 600_001 * time.Millisecond, services.ErrExpiredOTP},
		{"an hour late", time.Hour, services.ErrExpiredOTP},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			u := f.seedUser(t, "ravi@mess.test", "secret1", models.RoleStudent)
			f.mail.EXPECT().SendMail(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			require.NoError(t, f.otp.Request(ctx, u.Email))
			code := f.storedOTP(t, u.ID)

			f.clock.Set(baseTime.Add(tt.elapsed))
			err := f.otp.Verify(ctx, u.ID, code)

			stored, getErr := f.store.GetUserByID(ctx, u.ID)
			require.NoError(t, getErr)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, stored.OTPVerified)
				assert.NotNil(t, stored.OTP)
				return
			}
			require.NoError(t, err)
			assert.True(t, stored.OTPVerified)
			assert.True(t, stored.EmailVerified)
			assert.Nil(t, stored.OTP)
			assert.Nil(t, stored.OTPGeneratedAt)
		})
	}
}

func TestVerify_WrongCodeKeepsPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "ravi@mess.test", "secret1", models.RoleStudent)
	f.mail.EXPECT().SendMail(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	require.NoError(t, f.otp.Request(ctx, u.Email))
	code := f.storedOTP(t, u.ID)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	assert.ErrorIs(t, f.otp.Verify(ctx, u.ID, wrong), services.ErrInvalidOTP)
	assert.Equal(t, code, f.storedOTP(t, u.ID))

	require.NoError(t, f.otp.Verify(ctx, u.ID, code))
}

func TestVerify_FailureOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "ravi@mess.test", "secret1", models.RoleStudent)

	assert.ErrorIs(t, f.otp.Verify(ctx, 999, "123456"), services.ErrNotFound)
	assert.ErrorIs(t, f.otp.Verify(ctx, u.ID, ""), services.ErrValidation)
	assert.ErrorIs(t, f.otp.Verify(ctx, u.ID, "123456"), services.ErrInvalidOTP, "no code issued")

	require.NoError(t, f.store.UpdateUser(ctx, u.ID, map[string]any{"otp": "123456"}))
	assert.ErrorIs(t, f.otp.Verify(ctx, u.ID, "654321"), services.ErrInvalidOTP)
	assert.ErrorIs(t, f.otp.Verify(ctx, u.ID, "123456"), services.ErrMissingGenerationTime)
}

func TestVerify_CodeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "ravi@mess.test", "secret1", models.RoleStudent)
	f.mail.EXPECT().SendMail(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	require.NoError(t, f.otp.Request(ctx, u.Email))
	code := f.storedOTP(t, u.ID)

	require.NoError(t, f.otp.Verify(ctx, u.ID, code))
	assert.ErrorIs(t, f.otp.Verify(ctx, u.ID, code), services.ErrInvalidOTP)
}

func TestResetPassword_RequiresVerifiedOTP(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "ravi@mess.test", "secret1", models.RoleStudent)

	assert.ErrorIs(t, f.otp.ResetPassword(ctx, u.ID, "brandnew"), services.ErrOTPNotVerified)
	assert.ErrorIs(t, f.otp.ResetPassword(ctx, u.ID, "123"), services.ErrValidation)
}

func TestResetPasswordByEmail_WithCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "ravi@mess.test", "secret1", models.RoleStudent)
	f.mail.EXPECT().SendMail(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	require.NoError(t, f.otp.Request(ctx, u.Email))
	code := f.storedOTP(t, u.ID)

	require.NoError(t, f.otp.ResetPasswordByEmail(ctx, u.Email, code, "brandnew"))

	stored, err := f.store.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("brandnew")))
	assert.False(t, stored.OTPVerified, "verification is consumed by the reset")

	assert.ErrorIs(t, f.otp.ResetPasswordByEmail(ctx, u.Email, "", "another1"), services.ErrOTPNotVerified)
}

func TestResetPasswordByEmail_RegistrationVerificationIsNotEnough(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mail.EXPECT().SendMail(gomock.Any(), "victim@mess.test", gomock.Any(), gomock.Any()).Return(nil)

	u, err := f.auth.Register(ctx, "Victim", "victim@mess.test", "secret1")
	require.NoError(t, err)
	_, err = f.otp.VerifyByEmail(ctx, u.Email, f.storedOTP(t, u.ID))
	require.NoError(t, err)

	err = f.otp.ResetPasswordByEmail(ctx, u.Email, "", "attackerpw")
	assert.ErrorIs(t, err, services.ErrOTPNotVerified)

	_, _, err = f.auth.Login(ctx, u.Email, "secret1")
	assert.NoError(t, err, "password is unchanged")
	_, _, err = f.auth.Login(ctx, u.Email, "attackerpw")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestResetPassword_VerificationExpires(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "ravi@mess.test", "secret1", models.RoleStudent)
	f.mail.EXPECT().SendMail(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	require.NoError(t, f.otp.Request(ctx, u.Email))
	require.NoError(t, f.otp.Verify(ctx, u.ID, f.storedOTP(t, u.ID)))

	f.clock.Set(baseTime.Add(services.OTPValidity + time.Millisecond))
	assert.ErrorIs(t, f.otp.ResetPassword(ctx, u.ID, "brandnew"), services.ErrOTPNotVerified)

	f.clock.Set(baseTime.Add(services.OTPValidity))
	assert.NoError(t, f.otp.ResetPassword(ctx, u.ID, "brandnew"))
}

func TestResetPassword_RevokesSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "ravi@mess.test", "secret1", models.RoleStudent)
	_, session, err := f.auth.Login(ctx, u.Email, "secret1")
	require.NoError(t, err)

	f.mail.EXPECT().SendMail(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	require.NoError(t, f.otp.Request(ctx, u.Email))
	require.NoError(t, f.otp.ResetPasswordByEmail(ctx, u.Email, f.storedOTP(t, u.ID), "brandnew"))

	_, err = f.auth.UserForSession(ctx, session.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestVerify_DiscardsCodeAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "ravi@mess.test", "secret1", models.RoleStudent)
	f.mail.EXPECT().SendMail(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)
	require.NoError(t, f.otp.Request(ctx, u.Email))
	code := f.storedOTP(t, u.ID)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 1; i < services.MaxOTPAttempts; i++ {
		assert.ErrorIs(t, f.otp.Verify(ctx, u.ID, wrong), services.ErrInvalidOTP)
		assert.Equal(t, code, f.storedOTP(t, u.ID), "attempt %d keeps the code", i)
	}

	assert.ErrorIs(t, f.otp.Verify(ctx, u.ID, wrong), services.ErrInvalidOTP)
	stored, err := f.store.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.OTP)
	assert.Zero(t, stored.OTPAttempts)
	assert.ErrorIs(t, f.otp.Verify(ctx, u.ID, code), services.ErrInvalidOTP, "the discarded code no longer works")

	require.NoError(t, f.otp.Request(ctx, u.Email))
	assert.NoError(t, f.otp.Verify(ctx, u.ID, f.storedOTP(t, u.ID)))
}

func TestRequest_ResetsAttemptCounter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "ravi@mess.test", "secret1", models.RoleStudent)
	require.NoError(t, f.store.UpdateUser(ctx, u.ID, map[string]any{"otp_attempts": services.MaxOTPAttempts - 1}))
	f.mail.EXPECT().SendMail(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	require.NoError(t, f.otp.Request(ctx, u.Email))

	stored, err := f.store.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.OTPAttempts)
}
