package services

import (
	"context"
	"fmt"
	"time"

	"mess-management-api/logger"
	"mess-management-api/models"
	"mess-management-api/store"
)

const (
	dateLayout       = "2006-01-02"
	maxStatsRangeDay = 366
)

type AttendanceService struct {
	store    store.Store
	activity *ActivityService
	log      *logger.Logger
}

func NewAttendanceService(st store.Store, activity *ActivityService, log *logger.Logger) *AttendanceService {
	return &AttendanceService{store: st, activity: activity, log: log.Named("attendance")}
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, validationf("date %q must be YYYY-MM-DD", s)
	}
	return t, nil
}

// Mark records (or overwrites) whether userID ate meal on date. Only
// students have attendance.
func (s *AttendanceService) Mark(ctx context.Context, userID uint, date, meal string, present bool) (*models.Attendance, error) {
	if userID == 0 {
		return nil, validationf("user is required")
	}
	if _, err := parseDate(date); err != nil {
		return nil, err
	}
	m, ok := models.ParseMealType(meal)
	if !ok {
		return nil, validationf("unknown meal type %q", meal)
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	if user.Role != models.RoleStudent {
		return nil, fmt.Errorf("%w: only students mark attendance", ErrForbidden)
	}

	a := &models.Attendance{UserID: userID, Date: date, MealType: m, Present: present}
	if err := s.store.SaveAttendance(ctx, a); err != nil {
		return nil, persistence("save attendance", err)
	}
	s.activity.Record(ctx, userID, ActionAttendance, fmt.Sprintf("%s %s present=%t", date, m, present))
	return a, nil
}

// ForUser lists a user's attendance between from and to (inclusive, optional)
func (s *AttendanceService) ForUser(ctx context.Context, userID uint, from, to string) ([]models.Attendance, error) {
	for _, d := range []string{from, to} {
		if d != "" {
			if _, err := parseDate(d); err != nil {
				return nil, err
			}
		}
	}
	rows, err := s.store.ListAttendance(ctx, store.AttendanceFilter{UserID: userID, From: from, To: to})
	if err != nil {
		return nil, persistence("list attendance", err)
	}
	return rows, nil
}

// MealAttendance is the attendance summary for one meal slot
type MealAttendance struct {
	Present    int     `json:"present"`
	Marked     int     `json:"marked"`
	Expected   int     `json:"expected"`
	Percentage float64 `json:"percentage"`
}

// AttendanceStats summarises attendance over a date range. Expected counts
// one slot per student per day; Percentage is present over expected.
type AttendanceStats struct {
	From     string                             `json:"from"`
	To       string                             `json:"to"`
	Days     int                                `json:"days"`
	Students int64                              `json:"students"`
	ByMeal   map[models.MealType]MealAttendance `json:"by_meal"`
	Overall  MealAttendance                     `json:"overall"`
}

func (s *AttendanceService) Stats(ctx context.Context, from, to string) (*AttendanceStats, error) {
	start, err := parseDate(from)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, validationf("from must not be after to")
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days > maxStatsRangeDay {
		return nil, validationf("range is limited to %d days", maxStatsRangeDay)
	}

	students, err := s.store.CountUsers(ctx, models.RoleStudent)
	if err != nil {
		return nil, persistence("count students", err)
	}
	rows, err := s.store.ListAttendance(ctx, store.AttendanceFilter{From: from, To: to, Role: models.RoleStudent})
	if err != nil {
		return nil, persistence("list attendance", err)
	}

	return summarizeAttendance(rows, from, to, days, students), nil
}

func summarizeAttendance(rows []models.Attendance, from, to string, days int, students int64) *AttendanceStats {
	stats := &AttendanceStats{
		From:     from,
		To:       to,
		Days:     days,
		Students: students,
		ByMeal:   map[models.MealType]MealAttendance{},
	}
	expected := int(students) * days

	for _, m := range models.MealTypes {
		stats.ByMeal[m] = MealAttendance{Expected: expected}
	}
	for _, r := range rows {
		ma := stats.ByMeal[r.MealType]
		ma.Marked++
		if r.Present {
			ma.Present++
		}
		stats.ByMeal[r.MealType] = ma
	}

	for m, ma := range stats.ByMeal {
		ma.Percentage = percent(ma.Present, ma.Expected)
		stats.ByMeal[m] = ma
		stats.Overall.Present += ma.Present
		stats.Overall.Marked += ma.Marked
		stats.Overall.Expected += ma.Expected
	}
	stats.Overall.Percentage = percent(stats.Overall.Present, stats.Overall.Expected)
	return stats
}

func percent(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) * 100 / float64(d)
}
