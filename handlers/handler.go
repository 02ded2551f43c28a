package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"mess-management-api/logger"
	"mess-management-api/services"

	"github.com/gin-gonic/gin"
)

// Services bundles the domain services the HTTP layer calls
type Services struct {
	Auth        *services.AuthService
	OTP         *services.OTPService
	Menu        *services.MenuService
	Reviews     *services.ReviewService
	Suggestions *services.SuggestionService
	Attendance  *services.AttendanceService
}

// Handler holds everything route handlers need; there is no package state
type Handler struct {
	svc           Services
	jwtSecret     []byte
	secureCookies bool
	log           *logger.Logger
}

func New(svc Services, jwtSecret []byte, secureCookies bool, log *logger.Logger) *Handler {
	return &Handler{svc: svc, jwtSecret: jwtSecret, secureCookies: secureCookies, log: log.Named("handlers")}
}

// statusFor maps a service error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidOTP),
		errors.Is(err, services.ErrExpiredOTP),
		errors.Is(err, services.ErrMissingGenerationTime):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrEmailNotVerified),
		errors.Is(err, services.ErrOTPNotVerified),
		errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrAlreadyVoted),
		errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCategory),
		errors.Is(err, services.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the failure envelope. Internal failures are logged
// in full and reported to the client with a generic message.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		h.log.Errorw("request failed", "path", c.FullPath(), "error", err)
		msg = "Something went wrong, please try again"
		if errors.Is(err, services.ErrMailDelivery) {
			msg = "Could not send email, please try again"
		}
	}
	c.JSON(status, gin.H{"success": false, "error": msg})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
}

// paramID parses a positive numeric path parameter
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}
