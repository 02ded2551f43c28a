package services

import (
	"context"
	"time"

	"mess-management-api/logger"
	"mess-management-api/metrics"
	"mess-management-api/models"
	"mess-management-api/store"
)

// Activity actions recorded by the services
const (
	ActionLogin           = "login"
	ActionRegister        = "register"
	ActionPasswordChange  = "password_change"
	ActionPasswordReset   = "password_reset"
	ActionReview          = "review"
	ActionVote            = "vote"
	ActionSuggest         = "suggest"
	ActionSuggestionState = "suggestion_status"
	ActionMenuEdit        = "menu_edit"
	ActionAttendance      = "attendance"
)

// ActivityService writes the audit log and purges rows past retention
type ActivityService struct {
	store     store.Store
	retention time.Duration
	log       *logger.Logger
	metrics   *metrics.Metrics
}

func NewActivityService(st store.Store, retention time.Duration, log *logger.Logger, m *metrics.Metrics) *ActivityService {
	return &ActivityService{store: st, retention: retention, log: log.Named("activity"), metrics: m}
}

// Record stores one audit row. Failures are logged and swallowed so the
// audit trail never breaks the operation being audited.
func (s *ActivityService) Record(ctx context.Context, userID uint, action, detail string) {
	if s == nil {
		return
	}
	entry := &models.ActivityLog{UserID: userID, Action: action, Detail: detail}
	if err := s.store.CreateActivityLog(ctx, entry); err != nil {
		s.log.Warnw("record activity", "user_id", userID, "action", action, "error", err)
	}
}

// CleanupResult reports how many rows a cleanup pass removed
type CleanupResult struct {
	ActivityLogs int64 `json:"activity_logs"`
	Sessions     int64 `json:"sessions"`
}

// Cleanup deletes activity rows older than the retention window and expired sessions
func (s *ActivityService) Cleanup(ctx context.Context, now time.Time) (CleanupResult, error) {
	var res CleanupResult

	n, err := s.store.DeleteActivityLogsBefore(ctx, now.Add(-s.retention))
	if err != nil {
		return res, persistence("delete activity logs", err)
	}
	res.ActivityLogs = n
	s.metrics.ObserveCleanup("activity_logs", n)

	n, err = s.store.DeleteExpiredSessions(ctx, now)
	if err != nil {
		return res, persistence("delete sessions", err)
	}
	res.Sessions = n
	s.metrics.ObserveCleanup("sessions", n)

	s.log.Infow("cleanup finished", "activity_logs", res.ActivityLogs, "sessions", res.Sessions)
	return res, nil
}
