package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mess-management-api/logger"
	"mess-management-api/metrics"
	"mess-management-api/models"
	"mess-management-api/realtime"
	"mess-management-api/statemachine"
	"mess-management-api/store"
)

// SuggestionInput is a proposed dish
type SuggestionInput struct {
	Name        string
	Description string
	Meal        string
	UserID      uint
}

// SuggestionService manages dish suggestions, voting and approval
type SuggestionService struct {
	store    store.Store
	activity *ActivityService
	hub      realtime.Broadcaster
	log      *logger.Logger
	metrics  *metrics.Metrics
}

func NewSuggestionService(st store.Store, activity *ActivityService, hub realtime.Broadcaster, log *logger.Logger, m *metrics.Metrics) *SuggestionService {
	return &SuggestionService{store: st, activity: activity, hub: orNop(hub), log: log.Named("suggestions"), metrics: m}
}

func (s *SuggestionService) Create(ctx context.Context, in SuggestionInput) (*models.Suggestion, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.UserID == 0 {
		return nil, validationf("name and user are required")
	}
	meal, ok := models.ParseMealType(in.Meal)
	if !ok {
		return nil, validationf("unknown meal type %q", in.Meal)
	}

	sg := &models.Suggestion{
		UserID:      in.UserID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		MealType:    meal,
		Status:      models.SuggestionPending,
	}
	if err := s.store.CreateSuggestion(ctx, sg); err != nil {
		return nil, persistence("create suggestion", err)
	}
	s.activity.Record(ctx, in.UserID, ActionSuggest, name)
	return sg, nil
}

func (s *SuggestionService) Get(ctx context.Context, id uint) (*models.Suggestion, error) {
	sg, err := s.store.GetSuggestion(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "suggestion")
	}
	return sg, nil
}

// List returns suggestions newest first, optionally filtered by status
func (s *SuggestionService) List(ctx context.Context, status models.SuggestionStatus) ([]models.Suggestion, error) {
	if status != "" && !statemachine.IsKnownStatus(status) {
		return nil, validationf("unknown status %q", status)
	}
	list, err := s.store.ListSuggestions(ctx, status)
	if err != nil {
		return nil, persistence("list suggestions", err)
	}
	return list, nil
}

// Like records userID's like. A repeated like changes nothing and returns
// the current suggestion together with an ErrAlreadyVoted error.
func (s *SuggestionService) Like(ctx context.Context, id, userID uint) (*models.Suggestion, error) {
	return s.vote(ctx, id, userID, models.VoteLike)
}

// Dislike is the mirror of Like
func (s *SuggestionService) Dislike(ctx context.Context, id, userID uint) (*models.Suggestion, error) {
	return s.vote(ctx, id, userID, models.VoteDislike)
}

func voteKind(value int) string {
	if value == models.VoteLike {
		return "like"
	}
	return "dislike"
}

// vote applies one vote. The vote row and both counters change in one
// transaction, and the returned suggestion is re-read inside it, so callers
// always see the stored state.
func (s *SuggestionService) vote(ctx context.Context, id, userID uint, value int) (*models.Suggestion, error) {
	if id == 0 || userID == 0 {
		return nil, validationf("suggestion and user are required")
	}
	kind := voteKind(value)

	var result *models.Suggestion
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.GetSuggestion(ctx, id); err != nil {
			return lookupErr(err, "suggestion")
		}

		prev, err := tx.GetVote(ctx, id, userID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			prev = nil
		case err != nil:
			return persistence("load vote", err)
		case prev.Value == value:
			return fmt.Errorf("%w: already %sd", ErrAlreadyVoted, kind)
		}

		likes, dislikes := 0, 0
		if value == models.VoteLike {
			likes = 1
			if prev != nil && prev.Value == models.VoteDislike {
				dislikes = -1
			}
		} else {
			dislikes = 1
			if prev != nil && prev.Value == models.VoteLike {
				likes = -1
			}
		}

		if err := tx.SaveVote(ctx, &models.SuggestionVote{SuggestionID: id, UserID: userID, Value: value}); err != nil {
			return persistence("save vote", err)
		}
		if err := tx.AdjustVotes(ctx, id, likes, dislikes); err != nil {
			return persistence("adjust vote counts", err)
		}

		result, err = tx.GetSuggestion(ctx, id)
		if err != nil {
			return persistence("reload suggestion", err)
		}
		return nil
	})

	if errors.Is(err, ErrAlreadyVoted) {
		s.metrics.ObserveVote(kind, "duplicate")
		current, getErr := s.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return current, err
	}
	if err != nil {
		s.metrics.ObserveVote(kind, "error")
		return nil, err
	}

	s.metrics.ObserveVote(kind, "ok")
	s.activity.Record(ctx, userID, ActionVote, fmt.Sprintf("%s suggestion %d", kind, id))
	s.hub.Broadcast(realtime.KindSuggestionVotes, map[string]any{
		"id":          result.ID,
		"likes":       result.Likes,
		"dislikes":    result.Dislikes,
		"liked_by":    result.LikedBy,
		"disliked_by": result.DislikedBy,
	})
	return result, nil
}

// SetStatus moves a suggestion through the approval workflow
func (s *SuggestionService) SetStatus(ctx context.Context, id uint, status models.SuggestionStatus, actor *models.User) (*models.Suggestion, error) {
	if !statemachine.IsKnownStatus(status) {
		return nil, validationf("unknown status %q", status)
	}

	var result *models.Suggestion
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		sg, err := tx.GetSuggestion(ctx, id)
		if err != nil {
			return lookupErr(err, "suggestion")
		}
		if err := statemachine.CanTransition(sg.Status, status, actor.Role); err != nil {
			return err
		}
		if err := tx.UpdateSuggestionStatus(ctx, id, status); err != nil {
			return persistence("update suggestion status", err)
		}
		result, err = tx.GetSuggestion(ctx, id)
		if err != nil {
			return persistence("reload suggestion", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor.ID, ActionSuggestionState, fmt.Sprintf("suggestion %d -> %s", id, status))
	s.hub.Broadcast(realtime.KindSuggestionStatus, map[string]any{"id": id, "status": status})
	return result, nil
}
