package services

import (
	"context"
	"fmt"
	"strings"

	"mess-management-api/logger"
	"mess-management-api/mailer"
	"mess-management-api/models"
	"mess-management-api/realtime"
	"mess-management-api/store"
)

// MenuNotifier announces menu edits to users
type MenuNotifier interface {
	Publish(change mailer.MenuChange)
}

// MenuInput is an admin's edit of one meal slot
type MenuInput struct {
	Day        string
	Meal       string
	MainCourse string
	SideDish   string
	Dessert    string
	Beverage   string
}

type MenuService struct {
	store    store.Store
	notifier MenuNotifier
	activity *ActivityService
	hub      realtime.Broadcaster
	log      *logger.Logger
}

// NewMenuService builds the service; notifier may be nil to skip announcements
func NewMenuService(st store.Store, notifier MenuNotifier, activity *ActivityService, hub realtime.Broadcaster, log *logger.Logger) *MenuService {
	return &MenuService{store: st, notifier: notifier, activity: activity, hub: orNop(hub), log: log.Named("menu")}
}

// Week returns every menu slot ordered Monday..Sunday, breakfast..dinner
func (s *MenuService) Week(ctx context.Context) ([]models.MenuEntry, error) {
	entries, err := s.store.ListMenu(ctx)
	if err != nil {
		return nil, persistence("list menu", err)
	}
	return entries, nil
}

func (s *MenuService) Get(ctx context.Context, day, meal string) (*models.MenuEntry, error) {
	d, ok := models.ParseDay(day)
	if !ok {
		return nil, validationf("unknown day %q", day)
	}
	m, ok := models.ParseMealType(meal)
	if !ok {
		return nil, validationf("unknown meal type %q", meal)
	}
	entry, err := s.store.GetMenuEntry(ctx, d, m)
	if err != nil {
		return nil, lookupErr(err, fmt.Sprintf("menu for %s %s", d, m))
	}
	return entry, nil
}

// Upsert creates or replaces the dishes of one slot and notifies everyone.
// The slot's rating and review count are preserved.
func (s *MenuService) Upsert(ctx context.Context, in MenuInput, adminID uint) (*models.MenuEntry, error) {
	day, ok := models.ParseDay(in.Day)
	if !ok {
		return nil, validationf("unknown day %q", in.Day)
	}
	meal, ok := models.ParseMealType(in.Meal)
	if !ok {
		return nil, validationf("unknown meal type %q", in.Meal)
	}

	entry := &models.MenuEntry{
		Day:        day,
		MealType:   meal,
		MainCourse: strings.TrimSpace(in.MainCourse),
		SideDish:   strings.TrimSpace(in.SideDish),
		Dessert:    strings.TrimSpace(in.Dessert),
		Beverage:   strings.TrimSpace(in.Beverage),
	}
	if entry.MainCourse == "" && entry.SideDish == "" && entry.Dessert == "" && entry.Beverage == "" {
		return nil, validationf("at least one dish is required")
	}

	if err := s.store.SaveMenuEntry(ctx, entry); err != nil {
		return nil, persistence("save menu entry", err)
	}

	s.activity.Record(ctx, adminID, ActionMenuEdit, fmt.Sprintf("%s %s", day, meal))
	s.hub.Broadcast(realtime.KindMenuUpdated, entry)
	if s.notifier != nil {
		s.notifier.Publish(mailer.MenuChange{
			Day:        entry.Day,
			Meal:       string(entry.MealType),
			MainCourse: entry.MainCourse,
			SideDish:   entry.SideDish,
			Dessert:    entry.Dessert,
			Beverage:   entry.Beverage,
		})
	}
	s.log.Infow("menu updated", "day", day, "meal", meal, "admin_id", adminID)
	return entry, nil
}
