package services_test

import (
	"context"
	"testing"

	"mess-management-api/models"
	"mess-management-api/realtime"
	"mess-management-api/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuUpsert_KeepsRatingAndNotifies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "a@mess.test", "secret1", models.RoleStudent)
	admin := f.seedUser(t, "warden@mess.test", "secret1", models.RoleAdmin)
	f.seedMenu(t, "Monday", models.MealLunch)
	_, _, err := f.reviews.Submit(ctx, review(u.ID, 5))
	require.NoError(t, err)

	entry, err := f.menu.Upsert(ctx, services.MenuInput{
		Day: "monday", Meal: "LUNCH", MainCourse: " Chole ", Dessert: "Gulab Jamun",
	}, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chole", entry.MainCourse)
	assert.Equal(t, 5.0, entry.Rating)
	assert.Equal(t, 1, entry.ReviewCount)

	require.Len(t, f.notifier.changes, 1)
	assert.Equal(t, "Monday", f.notifier.changes[0].Day)
	assert.Equal(t, "lunch", f.notifier.changes[0].Meal)
	assert.Contains(t, f.hub.Kinds(), realtime.KindMenuUpdated)

	got, err := f.menu.Get(ctx, "Monday", "lunch")
	require.NoError(t, err)
	assert.Equal(t, "Gulab Jamun", got.Dessert)
	assert.Empty(t, got.SideDish)
}

func TestMenuUpsert_Validation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		in   services.MenuInput
	}{
		{"unknown day", services.MenuInput{Day: "Someday", Meal: "lunch", MainCourse: "Dal"}},
		{"unknown meal", services.MenuInput{Day: "Monday", Meal: "brunch", MainCourse: "Dal"}},
		{"no dishes", services.MenuInput{Day: "Monday", Meal: "lunch", SideDish: "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.menu.Upsert(context.Background(), tt.in, 1)
			assert.ErrorIs(t, err, services.ErrValidation)
		})
	}
	assert.Empty(t, f.notifier.changes)
}

func TestMenuWeek_Ordered(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedMenu(t, "Sunday", models.MealBreakfast)
	f.seedMenu(t, "Monday", models.MealDinner)
	f.seedMenu(t, "Monday", models.MealBreakfast)

	week, err := f.menu.Week(ctx)
	require.NoError(t, err)
	require.Len(t, week, 3)
	assert.Equal(t, "Monday", week[0].Day)
	assert.Equal(t, models.MealBreakfast, week[0].MealType)
	assert.Equal(t, models.MealDinner, week[1].MealType)
	assert.Equal(t, "Sunday", week[2].Day)
}

func TestMenuGet_Missing(t *testing.T) {
	f := newFixture(t)
	_, err := f.menu.Get(context.Background(), "Friday", "dinner")
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = f.menu.Get(context.Background(), "Friday", "tea")
	assert.ErrorIs(t, err, services.ErrValidation)
}
