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

func newSuggestion(t *testing.T, f *fixture, userID uint) *models.Suggestion {
	t.Helper()
	sg, err := f.suggestions.Create(context.Background(), services.SuggestionInput{
		Name: "Masala Dosa", Description: "with coconut chutney", Meal: "Breakfast", UserID: userID,
	})
	require.NoError(t, err)
	return sg
}

func TestLike_Twice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "a@mess.test", "secret1", models.RoleStudent)
	sg := newSuggestion(t, f, u.ID)

	got, err := f.suggestions.Like(ctx, sg.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes)

	got, err = f.suggestions.Like(ctx, sg.ID, u.ID)
	require.ErrorIs(t, err, services.ErrAlreadyVoted)
	assert.Contains(t, err.Error(), "already liked")
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Likes)
	assert.Equal(t, []uint{u.ID}, got.LikedBy)
}

func TestLikeThenDislike_MovesVote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "a@mess.test", "secret1", models.RoleStudent)
	other := f.seedUser(t, "b@mess.test", "secret1", models.RoleStudent)
	sg := newSuggestion(t, f, u.ID)

	_, err := f.suggestions.Like(ctx, sg.ID, other.ID)
	require.NoError(t, err)
	_, err = f.suggestions.Like(ctx, sg.ID, u.ID)
	require.NoError(t, err)

	got, err := f.suggestions.Dislike(ctx, sg.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes)
	assert.Equal(t, 1, got.Dislikes)
	assert.Equal(t, []uint{other.ID}, got.LikedBy)
	assert.Equal(t, []uint{u.ID}, got.DislikedBy)

	_, err = f.suggestions.Dislike(ctx, sg.ID, u.ID)
	assert.ErrorContains(t, err, "already disliked")

	stored, err := f.suggestions.Get(ctx, sg.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Likes, stored.Likes)
	assert.Equal(t, got.Dislikes, stored.Dislikes)
	assert.NotContains(t, stored.LikedBy, u.ID)
}

func TestVote_MissingSuggestion(t *testing.T) {
	f := newFixture(t)
	_, err := f.suggestions.Like(context.Background(), 404, 1)
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = f.suggestions.Dislike(context.Background(), 0, 1)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestVote_Broadcasts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "a@mess.test", "secret1", models.RoleStudent)
	sg := newSuggestion(t, f, u.ID)

	_, err := f.suggestions.Like(ctx, sg.ID, u.ID)
	require.NoError(t, err)
	_, _ = f.suggestions.Like(ctx, sg.ID, u.ID)

	assert.Equal(t, []string{realtime.KindSuggestionVotes}, f.hub.Kinds())
}

func TestCreateSuggestion_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.suggestions.Create(context.Background(), services.SuggestionInput{Name: " ", Meal: "lunch", UserID: 1})
	assert.ErrorIs(t, err, services.ErrValidation)
	_, err = f.suggestions.Create(context.Background(), services.SuggestionInput{Name: "Idli", Meal: "supper", UserID: 1})
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	student := f.seedUser(t, "a@mess.test", "secret1", models.RoleStudent)
	admin := f.seedUser(t, "warden@mess.test", "secret1", models.RoleAdmin)
	sg := newSuggestion(t, f, student.ID)

	_, err := f.suggestions.SetStatus(ctx, sg.ID, models.SuggestionApproved, student)
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	got, err := f.suggestions.SetStatus(ctx, sg.ID, models.SuggestionApproved, admin)
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionApproved, got.Status)

	_, err = f.suggestions.SetStatus(ctx, sg.ID, models.SuggestionRejected, admin)
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	_, err = f.suggestions.SetStatus(ctx, sg.ID, "archived", admin)
	assert.ErrorIs(t, err, services.ErrValidation)

	approved, err := f.suggestions.List(ctx, models.SuggestionApproved)
	require.NoError(t, err)
	assert.Len(t, approved, 1)
	pending, err := f.suggestions.List(ctx, models.SuggestionPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
