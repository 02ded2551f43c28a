package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"mess-management-api/logger"
	"mess-management-api/mailer"
	"mess-management-api/mailer/mocks"
	"mess-management-api/models"
	"mess-management-api/services"
	"mess-management-api/store"
	"mess-management-api/store/storetest"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var baseTime = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type recordingHub struct {
	mu    sync.Mutex
	kinds []string
}

func (h *recordingHub) Broadcast(kind string, _ any) {
	h.mu.Lock()
	h.kinds = append(h.kinds, kind)
	h.mu.Unlock()
}

func (h *recordingHub) Kinds() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.kinds...)
}

type recordingNotifier struct {
	changes []mailer.MenuChange
}

func (n *recordingNotifier) Publish(c mailer.MenuChange) {
	n.changes = append(n.changes, c)
}

type fixture struct {
	db       *gorm.DB
	store    *store.GormStore
	mail     *mocks.MockMailer
	clock    *clock
	hub      *recordingHub
	notifier *recordingNotifier

	activity    *services.ActivityService
	otp         *services.OTPService
	auth        *services.AuthService
	reviews     *services.ReviewService
	suggestions *services.SuggestionService
	menu        *services.MenuService
	attendance  *services.AttendanceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	db := storetest.NewDB(t)
	st := store.NewGormStore(db)
	log := logger.NewNop()

	f := &fixture{
		db:       db,
		store:    st,
		mail:     mocks.NewMockMailer(ctrl),
		clock:    &clock{now: baseTime},
		hub:      &recordingHub{},
		notifier: &recordingNotifier{},
	}
	f.activity = services.NewActivityService(st, 30*24*time.Hour, log, nil)
	f.otp = services.NewOTPService(st, f.mail, f.activity, log, nil).WithClock(f.clock.Now)
	f.auth = services.NewAuthService(st, f.otp, f.activity, time.Hour, log)
	f.reviews = services.NewReviewService(st, f.activity, f.hub, log, nil)
	f.suggestions = services.NewSuggestionService(st, f.activity, f.hub, log, nil)
	f.menu = services.NewMenuService(st, f.notifier, f.activity, f.hub, log)
	f.attendance = services.NewAttendanceService(st, f.activity, log)
	return f
}

// seedUser inserts a verified account with the given password
func (f *fixture) seedUser(t *testing.T, email, password string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{Name: "Test " + email, Email: email, PasswordHash: string(hash), Role: role, EmailVerified: true}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) seedMenu(t *testing.T, day string, meal models.MealType) *models.MenuEntry {
	t.Helper()
	e := &models.MenuEntry{Day: day, MealType: meal, MainCourse: "Paneer Butter Masala", SideDish: "Jeera Rice", Beverage: "Lassi"}
	require.NoError(t, f.store.SaveMenuEntry(context.Background(), e))
	return e
}

// storedOTP reads the code currently on the user record
func (f *fixture) storedOTP(t *testing.T, id uint) string {
	t.Helper()
	u, err := f.store.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, u.OTP)
	return *u.OTP
}
