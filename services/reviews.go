package services

import (
	"context"
	"fmt"
	"strings"

	"mess-management-api/logger"
	"mess-management-api/metrics"
	"mess-management-api/models"
	"mess-management-api/realtime"
	"mess-management-api/store"
)

const (
	MinRating = 1
	MaxRating = 5
)

// ReviewInput is a student's rating of one dish category of a meal
type ReviewInput struct {
	Meal     string
	Rating   int
	Category string
	Day      string
	Comment  string
	UserID   uint
}

// ReviewService stores reviews and keeps each menu entry's running mean
type ReviewService struct {
	store    store.Store
	activity *ActivityService
	hub      realtime.Broadcaster
	log      *logger.Logger
	metrics  *metrics.Metrics
}

func NewReviewService(st store.Store, activity *ActivityService, hub realtime.Broadcaster, log *logger.Logger, m *metrics.Metrics) *ReviewService {
	return &ReviewService{store: st, activity: activity, hub: orNop(hub), log: log.Named("reviews"), metrics: m}
}

func (in ReviewInput) validate() (string, models.MealType, error) {
	if strings.TrimSpace(in.Meal) == "" || strings.TrimSpace(in.Category) == "" ||
		strings.TrimSpace(in.Day) == "" || in.UserID == 0 {
		return "", "", validationf("meal, category, day and user are required")
	}
	if in.Rating < MinRating || in.Rating > MaxRating {
		return "", "", validationf("rating must be between %d and %d", MinRating, MaxRating)
	}
	meal, ok := models.ParseMealType(in.Meal)
	if !ok {
		return "", "", validationf("unknown meal type %q", in.Meal)
	}
	day, ok := models.ParseDay(in.Day)
	if !ok {
		return "", "", validationf("unknown day %q", in.Day)
	}
	return day, meal, nil
}

// Submit stores the review and folds its rating into the menu entry's mean.
// The insert and the rating update commit together or not at all; nothing is
// written when validation or the menu lookup fails.
func (s *ReviewService) Submit(ctx context.Context, in ReviewInput) (*models.Review, *models.MenuEntry, error) {
	day, meal, err := in.validate()
	if err != nil {
		return nil, nil, err
	}
	category := strings.TrimSpace(in.Category)

	var (
		review  *models.Review
		updated *models.MenuEntry
	)
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		entry, err := tx.GetMenuEntry(ctx, day, meal)
		if err != nil {
			return lookupErr(err, fmt.Sprintf("menu for %s %s", day, meal))
		}

		dish, known := entry.Dish(category)
		if !known || strings.TrimSpace(dish) == "" {
			return fmt.Errorf("%w: %q is not served at %s %s", ErrInvalidCategory, category, day, meal)
		}

		review = &models.Review{
			MealType: meal,
			Category: category,
			Rating:   in.Rating,
			Comment:  in.Comment,
			UserID:   in.UserID,
			Day:      day,
		}
		if err := tx.CreateReview(ctx, review); err != nil {
			return persistence("create review", err)
		}

		updated, err = tx.ApplyRating(ctx, entry.ID, in.Rating)
		if err != nil {
			return persistence("update menu rating", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.metrics.ObserveReview(string(meal))
	s.activity.Record(ctx, in.UserID, ActionReview, fmt.Sprintf("%s %s %s=%d", day, meal, category, in.Rating))
	s.hub.Broadcast(realtime.KindMenuRating, ratingEvent(updated))
	s.log.Infow("review submitted", "day", day, "meal", meal, "category", category,
		"rating", in.Rating, "new_average", updated.Rating, "review_count", updated.ReviewCount)

	return review, updated, nil
}

func ratingEvent(e *models.MenuEntry) map[string]any {
	return map[string]any{
		"id":           e.ID,
		"day":          e.Day,
		"meal_type":    e.MealType,
		"rating":       e.Rating,
		"review_count": e.ReviewCount,
	}
}

// List returns reviews newest first
func (s *ReviewService) List(ctx context.Context, filter store.ReviewFilter) ([]models.Review, error) {
	reviews, err := s.store.ListReviews(ctx, filter)
	if err != nil {
		return nil, persistence("list reviews", err)
	}
	return reviews, nil
}

// Sentiment buckets ratings: 4-5 positive, 3 neutral, 1-2 negative
type Sentiment struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

type CategoryStats struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// ReviewStats is the aggregate behind the review charts
type ReviewStats struct {
	Count      int                      `json:"count"`
	Average    float64                  `json:"average"`
	Sentiment  Sentiment                `json:"sentiment"`
	ByRating   map[int]int              `json:"by_rating"`
	ByCategory map[string]CategoryStats `json:"by_category"`
}

// Stats aggregates the reviews matching filter
func (s *ReviewService) Stats(ctx context.Context, filter store.ReviewFilter) (*ReviewStats, error) {
	reviews, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return Summarize(reviews), nil
}

// Summarize computes counts, averages and sentiment for reviews
func Summarize(reviews []models.Review) *ReviewStats {
	stats := &ReviewStats{
		ByRating:   map[int]int{},
		ByCategory: map[string]CategoryStats{},
	}
	for r := MinRating; r <= MaxRating; r++ {
		stats.ByRating[r] = 0
	}

	sums := map[string]int{}
	total := 0
	for _, r := range reviews {
		stats.Count++
		total += r.Rating
		stats.ByRating[r.Rating]++
		switch {
		case r.Rating >= 4:
			stats.Sentiment.Positive++
		case r.Rating == 3:
			stats.Sentiment.Neutral++
		default:
			stats.Sentiment.Negative++
		}
		cs := stats.ByCategory[r.Category]
		cs.Count++
		stats.ByCategory[r.Category] = cs
		sums[r.Category] += r.Rating
	}

	if stats.Count > 0 {
		stats.Average = float64(total) / float64(stats.Count)
	}
	for cat, cs := range stats.ByCategory {
		cs.Average = float64(sums[cat]) / float64(cs.Count)
		stats.ByCategory[cat] = cs
	}
	return stats
}
