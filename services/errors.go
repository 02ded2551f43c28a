package services

import (
	"errors"
	"fmt"

	"mess-management-api/statemachine"
	"mess-management-api/store"
)

// Error taxonomy. Callers match with errors.Is; the wrapped message carries
// the detail shown to users.
var (
	ErrValidation            = errors.New("validation failed")
	ErrNotFound              = errors.New("not found")
	ErrInvalidCategory       = errors.New("invalid category")
	ErrInvalidOTP            = errors.New("invalid otp")
	ErrExpiredOTP            = errors.New("otp expired")
	ErrMissingGenerationTime = errors.New("otp generation time missing")
	ErrPersistence           = errors.New("persistence failure")
	ErrAlreadyVoted          = errors.New("already voted")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrEmailNotVerified      = errors.New("email not verified")
	ErrOTPNotVerified        = errors.New("otp not verified")
	ErrForbidden             = errors.New("not allowed for this account")
	ErrConflict              = errors.New("conflict")
	ErrMailDelivery          = errors.New("mail delivery failed")
	ErrInvalidTransition     = statemachine.ErrInvalidTransition
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// lookupErr turns a store miss into ErrNotFound naming what was missing and
// anything else into a persistence error.
func lookupErr(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return persistence("load "+what, err)
}
