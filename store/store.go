// Package store is the persistence boundary. Services receive a Store
// explicitly instead of reaching for a package-level database handle.
package store

import (
	"context"
	"errors"
	"time"

	"mess-management-api/models"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// ReviewFilter narrows review listings; zero fields are ignored
type ReviewFilter struct {
	Day    string
	Meal   models.MealType
	UserID uint
}

// AttendanceFilter narrows attendance listings; dates are inclusive YYYY-MM-DD
type AttendanceFilter struct {
	UserID uint
	From   string
	To     string
	// Role keeps only rows whose user currently has this role
	Role models.UserRole
}

// Store is the set of persistence operations the services need
type Store interface {
	// Transaction runs fn against a Store bound to one database transaction.
	// Returning an error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id uint, fields map[string]any) error
	ListUsers(ctx context.Context, role models.UserRole) ([]models.User, error)
	CountUsers(ctx context.Context, role models.UserRole) (int64, error)
	// IncrementOTPAttempts bumps the failed-code counter and returns the new value
	IncrementOTPAttempts(ctx context.Context, id uint) (int, error)

	GetMenuEntry(ctx context.Context, day string, meal models.MealType) (*models.MenuEntry, error)
	ListMenu(ctx context.Context) ([]models.MenuEntry, error)
	SaveMenuEntry(ctx context.Context, entry *models.MenuEntry) error
	// ApplyRating folds one rating into the entry's running mean in a single
	// statement and returns the updated entry.
	ApplyRating(ctx context.Context, entryID uint, rating int) (*models.MenuEntry, error)

	CreateReview(ctx context.Context, review *models.Review) error
	ListReviews(ctx context.Context, filter ReviewFilter) ([]models.Review, error)

	CreateSuggestion(ctx context.Context, s *models.Suggestion) error
	GetSuggestion(ctx context.Context, id uint) (*models.Suggestion, error)
	ListSuggestions(ctx context.Context, status models.SuggestionStatus) ([]models.Suggestion, error)
	UpdateSuggestionStatus(ctx context.Context, id uint, status models.SuggestionStatus) error
	GetVote(ctx context.Context, suggestionID, userID uint) (*models.SuggestionVote, error)
	SaveVote(ctx context.Context, vote *models.SuggestionVote) error
	AdjustVotes(ctx context.Context, suggestionID uint, likesDelta, dislikesDelta int) error

	SaveAttendance(ctx context.Context, a *models.Attendance) error
	ListAttendance(ctx context.Context, filter AttendanceFilter) ([]models.Attendance, error)

	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id string, now time.Time) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID uint) (int64, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	CreateActivityLog(ctx context.Context, entry *models.ActivityLog) error
	DeleteActivityLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
