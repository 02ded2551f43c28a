package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"mess-management-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on top of a gorm connection
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps db
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func wrap(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// ── Users ───────────────────────────────────────────────────────────────────

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.conn(ctx).Create(user).Error
}

func (s *GormStore) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).First(&user, id).Error; err != nil {
		return nil, wrap(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, wrap(err)
	}
	return &user, nil
}

func (s *GormStore) UpdateUser(ctx context.Context, id uint, fields map[string]any) error {
	res := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListUsers(ctx context.Context, role models.UserRole) ([]models.User, error) {
	var users []models.User
	query := s.conn(ctx).Order("id asc")
	if role != "" {
		query = query.Where("role = ?", role)
	}
	err := query.Find(&users).Error
	return users, err
}

func (s *GormStore) CountUsers(ctx context.Context, role models.UserRole) (int64, error) {
	var n int64
	query := s.conn(ctx).Model(&models.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	err := query.Count(&n).Error
	return n, err
}

func (s *GormStore) IncrementOTPAttempts(ctx context.Context, id uint) (int, error) {
	res := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).
		Update("otp_attempts", gorm.Expr("otp_attempts + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	var user models.User
	if err := s.conn(ctx).Select("otp_attempts").First(&user, id).Error; err != nil {
		return 0, wrap(err)
	}
	return user.OTPAttempts, nil
}

// ── Menu ────────────────────────────────────────────────────────────────────

func (s *GormStore) GetMenuEntry(ctx context.Context, day string, meal models.MealType) (*models.MenuEntry, error) {
	var entry models.MenuEntry
	if err := s.conn(ctx).Where("day = ? AND meal_type = ?", day, meal).First(&entry).Error; err != nil {
		return nil, wrap(err)
	}
	return &entry, nil
}

func (s *GormStore) ListMenu(ctx context.Context) ([]models.MenuEntry, error) {
	var entries []models.MenuEntry
	if err := s.conn(ctx).Find(&entries).Error; err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := models.DayIndex(entries[i].Day), models.DayIndex(entries[j].Day)
		if di != dj {
			return di < dj
		}
		return models.MealIndex(entries[i].MealType) < models.MealIndex(entries[j].MealType)
	})
	return entries, nil
}

// SaveMenuEntry inserts the entry or, when (day, meal) exists, replaces its
// dishes. Rating and review count are never touched here.
func (s *GormStore) SaveMenuEntry(ctx context.Context, entry *models.MenuEntry) error {
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day"}, {Name: "meal_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"main_course", "side_dish", "dessert", "beverage", "updated_at"}),
	}).Create(entry).Error
	if err != nil {
		return err
	}
	var saved models.MenuEntry
	if err := s.conn(ctx).Where("day = ? AND meal_type = ?", entry.Day, entry.MealType).First(&saved).Error; err != nil {
		return wrap(err)
	}
	*entry = saved
	return nil
}

func (s *GormStore) ApplyRating(ctx context.Context, entryID uint, rating int) (*models.MenuEntry, error) {
	res := s.conn(ctx).Model(&models.MenuEntry{}).Where("id = ?", entryID).Updates(map[string]any{
		"rating":       gorm.Expr("(COALESCE(rating, 0) * review_count + ?) / (review_count + 1)", float64(rating)),
		"review_count": gorm.Expr("review_count + 1"),
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	var entry models.MenuEntry
	if err := s.conn(ctx).First(&entry, entryID).Error; err != nil {
		return nil, wrap(err)
	}
	return &entry, nil
}

// ── Reviews ─────────────────────────────────────────────────────────────────

func (s *GormStore) CreateReview(ctx context.Context, review *models.Review) error {
	return s.conn(ctx).Create(review).Error
}

func (s *GormStore) ListReviews(ctx context.Context, filter ReviewFilter) ([]models.Review, error) {
	var reviews []models.Review
	query := s.conn(ctx).Order("created_at desc, id desc")
	if filter.Day != "" {
		query = query.Where("day = ?", filter.Day)
	}
	if filter.Meal != "" {
		query = query.Where("meal_type = ?", filter.Meal)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	err := query.Find(&reviews).Error
	return reviews, err
}

// ── Suggestions ─────────────────────────────────────────────────────────────

func (s *GormStore) CreateSuggestion(ctx context.Context, sg *models.Suggestion) error {
	if err := s.conn(ctx).Omit("Votes").Create(sg).Error; err != nil {
		return err
	}
	sg.FillVoters()
	return nil
}

func (s *GormStore) GetSuggestion(ctx context.Context, id uint) (*models.Suggestion, error) {
	var sg models.Suggestion
	if err := s.conn(ctx).Preload("Votes").First(&sg, id).Error; err != nil {
		return nil, wrap(err)
	}
	sg.FillVoters()
	return &sg, nil
}

func (s *GormStore) ListSuggestions(ctx context.Context, status models.SuggestionStatus) ([]models.Suggestion, error) {
	var list []models.Suggestion
	query := s.conn(ctx).Preload("Votes").Order("created_at desc, id desc")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	for i := range list {
		list[i].FillVoters()
	}
	return list, nil
}

func (s *GormStore) UpdateSuggestionStatus(ctx context.Context, id uint, status models.SuggestionStatus) error {
	res := s.conn(ctx).Model(&models.Suggestion{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) GetVote(ctx context.Context, suggestionID, userID uint) (*models.SuggestionVote, error) {
	var vote models.SuggestionVote
	err := s.conn(ctx).
		Where("suggestion_id = ? AND user_id = ?", suggestionID, userID).
		First(&vote).Error
	if err != nil {
		return nil, wrap(err)
	}
	return &vote, nil
}

func (s *GormStore) SaveVote(ctx context.Context, vote *models.SuggestionVote) error {
	return s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "suggestion_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(vote).Error
}

// AdjustVotes changes the counters with SQL arithmetic so concurrent voters
// never overwrite each other.
func (s *GormStore) AdjustVotes(ctx context.Context, suggestionID uint, likesDelta, dislikesDelta int) error {
	update := map[string]any{}
	if likesDelta != 0 {
		update["likes"] = gorm.Expr("likes + ?", likesDelta)
	}
	if dislikesDelta != 0 {
		update["dislikes"] = gorm.Expr("dislikes + ?", dislikesDelta)
	}
	if len(update) == 0 {
		return nil
	}
	res := s.conn(ctx).Model(&models.Suggestion{}).Where("id = ?", suggestionID).Updates(update)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ── Attendance ──────────────────────────────────────────────────────────────

func (s *GormStore) SaveAttendance(ctx context.Context, a *models.Attendance) error {
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}, {Name: "meal_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"present", "updated_at"}),
	}).Create(a).Error
	if err != nil {
		return err
	}
	var saved models.Attendance
	err = s.conn(ctx).
		Where("user_id = ? AND date = ? AND meal_type = ?", a.UserID, a.Date, a.MealType).
		First(&saved).Error
	if err != nil {
		return wrap(err)
	}
	*a = saved
	return nil
}

func (s *GormStore) ListAttendance(ctx context.Context, filter AttendanceFilter) ([]models.Attendance, error) {
	var rows []models.Attendance
	query := s.conn(ctx).Order("date asc, id asc")
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.From != "" {
		query = query.Where("date >= ?", filter.From)
	}
	if filter.To != "" {
		query = query.Where("date <= ?", filter.To)
	}
	if filter.Role != "" {
		query = query.Where("user_id IN (?)", s.conn(ctx).Model(&models.User{}).Select("id").Where("role = ?", filter.Role))
	}
	err := query.Find(&rows).Error
	return rows, err
}

// ── Sessions ────────────────────────────────────────────────────────────────

func (s *GormStore) CreateSession(ctx context.Context, session *models.Session) error {
	return s.conn(ctx).Create(session).Error
}

func (s *GormStore) GetSession(ctx context.Context, id string, now time.Time) (*models.Session, error) {
	var session models.Session
	if err := s.conn(ctx).Where("id = ? AND expires_at > ?", id, now).First(&session).Error; err != nil {
		return nil, wrap(err)
	}
	return &session, nil
}

func (s *GormStore) DeleteSession(ctx context.Context, id string) error {
	return s.conn(ctx).Where("id = ?", id).Delete(&models.Session{}).Error
}

func (s *GormStore) DeleteUserSessions(ctx context.Context, userID uint) (int64, error) {
	res := s.conn(ctx).Where("user_id = ?", userID).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}

func (s *GormStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res := s.conn(ctx).Where("expires_at <= ?", now).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}

// ── Activity log ────────────────────────────────────────────────────────────

func (s *GormStore) CreateActivityLog(ctx context.Context, entry *models.ActivityLog) error {
	return s.conn(ctx).Create(entry).Error
}

func (s *GormStore) DeleteActivityLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.conn(ctx).Where("created_at < ?", cutoff).Delete(&models.ActivityLog{})
	return res.RowsAffected, res.Error
}
