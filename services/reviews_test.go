package services_test

import (
	"context"
	"testing"

	"mess-management-api/models"
	"mess-management-api/realtime"
	"mess-management-api/services"
	"mess-management-api/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func review(userID uint, rating int) services.ReviewInput {
	return services.ReviewInput{Meal: "lunch", Rating: rating, Category: models.CategoryMainCourse, Day: "Monday", UserID: userID}
}

func TestSubmit_MondayLunchRunningMean(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "a@mess.test", "secret1", models.RoleStudent)
	f.seedMenu(t, "Monday", models.MealLunch)

	_, entry, err := f.reviews.Submit(ctx, review(u.ID, 5))
	require.NoError(t, err)
	assert.Equal(t, 5.0, entry.Rating)
	assert.Equal(t, 1, entry.ReviewCount)

	_, entry, err = f.reviews.Submit(ctx, review(u.ID, 3))
	require.NoError(t, err)
	assert.Equal(t, 4.0, entry.Rating)
	assert.Equal(t, 2, entry.ReviewCount)

	stored, err := f.store.GetMenuEntry(ctx, "Monday", models.MealLunch)
	require.NoError(t, err)
	assert.Equal(t, 4.0, stored.Rating)
	assert.Equal(t, 2, stored.ReviewCount)
}

func TestSubmit_IncrementalMeanFromExistingState(t *testing.T) {
	tests := []struct {
		name     string
		oldMean  float64
		oldCount int
		rating   int
	}{
		{"fresh entry", 0, 0, 4},
		{"one prior", 2, 1, 5},
		{"several priors", 3.5, 4, 1},
		{"high count", 4.2, 10, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			u := f.seedUser(t, "a@mess.test", "secret1", models.RoleStudent)
			e := f.seedMenu(t, "Monday", models.MealLunch)
			require.NoError(t, f.db.Model(&models.MenuEntry{}).Where("id = ?", e.ID).
				Updates(map[string]any{"rating": tt.oldMean, "review_count": tt.oldCount}).Error)

			_, got, err := f.reviews.Submit(ctx, review(u.ID, tt.rating))
			require.NoError(t, err)

			want := (tt.oldMean*float64(tt.oldCount) + float64(tt.rating)) / float64(tt.oldCount+1)
			assert.InDelta(t, want, got.Rating, 1e-9)
			assert.Equal(t, tt.oldCount+1, got.ReviewCount)
		})
	}
}

func TestSubmit_MissingMenuWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "a@mess.test", "secret1", models.RoleStudent)

	_, _, err := f.reviews.Submit(ctx, review(u.ID, 4))
	assert.ErrorIs(t, err, services.ErrNotFound)

	reviews, err := f.store.ListReviews(ctx, store.ReviewFilter{})
	require.NoError(t, err)
	assert.Empty(t, reviews)
	assert.Empty(t, f.hub.Kinds())
}

func TestSubmit_InvalidCategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "a@mess.test", "secret1", models.RoleStudent)
	f.seedMenu(t, "Monday", models.MealLunch)

	for _, category := range []string{models.CategoryDessert, "soup"} {
		in := review(u.ID, 4)
		in.Category = category
		_, _, err := f.reviews.Submit(ctx, in)
		assert.ErrorIs(t, err, services.ErrInvalidCategory, category)
	}

	entry, err := f.store.GetMenuEntry(ctx, "Monday", models.MealLunch)
	require.NoError(t, err)
	assert.Zero(t, entry.ReviewCount)
}

func TestSubmit_Validation(t *testing.T) {
	f := newFixture(t)
	f.seedMenu(t, "Monday", models.MealLunch)

	tests := []struct {
		name string
		edit func(*services.ReviewInput)
	}{
		{"rating too low", func(in *services.ReviewInput) { in.Rating = 0 }},
		{"rating too high", func(in *services.ReviewInput) { in.Rating = 6 }},
		{"missing meal", func(in *services.ReviewInput) { in.Meal = "" }},
		{"unknown meal", func(in *services.ReviewInput) { in.Meal = "brunch" }},
		{"missing day", func(in *services.ReviewInput) { in.Day = " " }},
		{"unknown day", func(in *services.ReviewInput) { in.Day = "Funday" }},
		{"missing category", func(in *services.ReviewInput) { in.Category = "" }},
		{"missing user", func(in *services.ReviewInput) { in.UserID = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := review(1, 4)
			tt.edit(&in)
			_, _, err := f.reviews.Submit(context.Background(), in)
			assert.ErrorIs(t, err, services.ErrValidation)
		})
	}
}

func TestSubmit_KeepsCommentAndBroadcasts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "a@mess.test", "secret1", models.RoleStudent)
	f.seedMenu(t, "Monday", models.MealLunch)

	in := review(u.ID, 4)
	in.Day = "monday"
	in.Comment = "a bit salty"
	r, _, err := f.reviews.Submit(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Monday", r.Day)
	assert.Equal(t, "a bit salty", r.Comment)
	assert.Equal(t, []string{realtime.KindMenuRating}, f.hub.Kinds())

	list, err := f.reviews.List(ctx, store.ReviewFilter{UserID: u.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestSummarize(t *testing.T) {
	stats := services.Summarize([]models.Review{
		{Category: models.CategoryMainCourse, Rating: 5},
		{Category: models.CategoryMainCourse, Rating: 4},
		{Category: models.CategoryBeverage, Rating: 3},
		{Category: models.CategoryBeverage, Rating: 1},
	})

	assert.Equal(t, 4, stats.Count)
	assert.InDelta(t, 3.25, stats.Average, 1e-9)
	assert.Equal(t, services.Sentiment{Positive: 2, Neutral: 1, Negative: 1}, stats.Sentiment)
	assert.Equal(t, map[int]int{1: 1, 2: 0, 3: 1, 4: 1, 5: 1}, stats.ByRating)
	assert.InDelta(t, 4.5, stats.ByCategory[models.CategoryMainCourse].Average, 1e-9)
	assert.Equal(t, 2, stats.ByCategory[models.CategoryBeverage].Count)
}

func TestSummarize_Empty(t *testing.T) {
	stats := services.Summarize(nil)
	assert.Zero(t, stats.Count)
	assert.Zero(t, stats.Average)
	assert.Len(t, stats.ByRating, 5)
}
