package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"mess-management-api/logger"
	"mess-management-api/models"
	"mess-management-api/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// AuthService owns accounts, passwords and login sessions
type AuthService struct {
	store           store.Store
	otp             *OTPService
	activity        *ActivityService
	log             *logger.Logger
	sessionDuration time.Duration
	now             func() time.Time
}

func NewAuthService(st store.Store, otp *OTPService, activity *ActivityService, sessionDuration time.Duration, log *logger.Logger) *AuthService {
	return &AuthService{
		store:           st,
		otp:             otp,
		activity:        activity,
		log:             log.Named("auth"),
		sessionDuration: sessionDuration,
		now:             time.Now,
	}
}

func validatePassword(p string) error {
	if len(p) < minPasswordLength {
		return validationf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

func validateAccount(name, email, password string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return "", "", validationf("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return "", "", validationf("a valid email is required")
	}
	if err := validatePassword(password); err != nil {
		return "", "", err
	}
	return name, email, nil
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string, role models.UserRole, verified bool) (*models.User, error) {
	name, email, err := validateAccount(name, email, password)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, persistence("check email", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:          name,
		Email:         email,
		PasswordHash:  string(hash),
		Role:          role,
		EmailVerified: verified,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, persistence("create user", err)
	}
	return user, nil
}

// Register creates a student account and mails an email verification code.
// A failed mail does not undo the registration; the code can be re-requested.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	user, err := s.createUser(ctx, name, email, password, models.RoleStudent, false)
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, user.ID, ActionRegister, "")

	if err := s.otp.Request(ctx, user.Email); err != nil {
		s.log.Warnw("verification code not sent", "user_id", user.ID, "error", err)
	}
	return user, nil
}

// CreateAdmin creates a pre-verified admin account
func (s *AuthService) CreateAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	return s.createUser(ctx, name, email, password, models.RoleAdmin, true)
}

// Login checks credentials and opens a session
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *models.Session, error) {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, persistence("load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return nil, nil, ErrEmailNotVerified
	}

	now := s.now()
	session := &models.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionDuration),
		CreatedAt: now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, nil, persistence("create session", err)
	}

	s.activity.Record(ctx, user.ID, ActionLogin, "")
	return user, session, nil
}

// Logout ends a session
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return persistence("delete session", err)
	}
	return nil
}

// UserForSession resolves a live session to its user
func (s *AuthService) UserForSession(ctx context.Context, sessionID string) (*models.User, error) {
	session, err := s.store.GetSession(ctx, sessionID, s.now())
	if err != nil {
		return nil, lookupErr(err, "session")
	}
	return s.GetUser(ctx, session.UserID)
}

// SessionDuration is the lifetime of sessions opened by Login
func (s *AuthService) SessionDuration() time.Duration {
	return s.sessionDuration
}

func (s *AuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context, role models.UserRole) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx, role)
	if err != nil {
		return nil, persistence("list users", err)
	}
	return users, nil
}

// ChangePassword replaces the password after checking the current one and
// signs the user out of every session. Every failure is returned to the
// caller, including persistence errors.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if err := validatePassword(next); err != nil {
		return err
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.UpdateUser(ctx, user.ID, map[string]any{"password_hash": string(hash)}); err != nil {
			return err
		}
		_, err := tx.DeleteUserSessions(ctx, user.ID)
		return err
	})
	if err != nil {
		return persistence("update password", err)
	}
	s.activity.Record(ctx, user.ID, ActionPasswordChange, "")
	return nil
}
