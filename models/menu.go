package models

import (
	"strings"
	"time"
)

// MealType is one of the four daily meal slots
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealSnacks    MealType = "snacks"
	MealDinner    MealType = "dinner"
)

// MealTypes lists meal slots in serving order
var MealTypes = []MealType{MealBreakfast, MealLunch, MealSnacks, MealDinner}

// Days lists menu days in week order
var Days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Dish categories a review can target; they match the MenuEntry JSON field names.
const (
	CategoryMainCourse = "main_course"
	CategorySideDish   = "side_dish"
	CategoryDessert    = "dessert"
	CategoryBeverage   = "beverage"
)

var Categories = []string{CategoryMainCourse, CategorySideDish, CategoryDessert, CategoryBeverage}

// ParseMealType normalises s and reports whether it names a meal slot
func ParseMealType(s string) (MealType, bool) {
	m := MealType(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range MealTypes {
		if t == m {
			return m, true
		}
	}
	return "", false
}

// ParseDay normalises s ("monday", "MONDAY") to its canonical form
func ParseDay(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, d := range Days {
		if strings.EqualFold(d, s) {
			return d, true
		}
	}
	return "", false
}

// DayIndex returns the position of day in the week, or len(Days) if unknown
func DayIndex(day string) int {
	for i, d := range Days {
		if d == day {
			return i
		}
	}
	return len(Days)
}

// MealIndex returns the serving position of meal, or len(MealTypes) if unknown
func MealIndex(meal MealType) int {
	for i, m := range MealTypes {
		if m == meal {
			return i
		}
	}
	return len(MealTypes)
}

// MenuEntry is one meal slot (day x meal type) with its dishes and aggregate rating
type MenuEntry struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Day         string    `json:"day" gorm:"not null;uniqueIndex:idx_menu_day_meal"`
	MealType    MealType  `json:"meal_type" gorm:"not null;uniqueIndex:idx_menu_day_meal"`
	MainCourse  string    `json:"main_course"`
	SideDish    string    `json:"side_dish"`
	Dessert     string    `json:"dessert"`
	Beverage    string    `json:"beverage"`
	Rating      float64   `json:"rating" gorm:"not null;default:0"`
	ReviewCount int       `json:"review_count" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Dish returns the dish served under category; ok is false for an unknown category
func (m *MenuEntry) Dish(category string) (dish string, ok bool) {
	switch category {
	case CategoryMainCourse:
		return m.MainCourse, true
	case CategorySideDish:
		return m.SideDish, true
	case CategoryDessert:
		return m.Dessert, true
	case CategoryBeverage:
		return m.Beverage, true
	}
	return "", false
}

// Review is an append-only rating of one dish category of a menu entry
type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	MealType  MealType  `json:"meal_type" gorm:"not null;index:idx_review_day_meal"`
	Category  string    `json:"category" gorm:"not null"`
	Rating    int       `json:"rating" gorm:"not null"`
	Comment   string    `json:"comment" gorm:"not null;default:''"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Day       string    `json:"day" gorm:"not null;index:idx_review_day_meal"`
	CreatedAt time.Time `json:"created_at"`
}

// Attendance records whether a user ate a meal on a given date
type Attendance struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_attendance_user_date_meal"`
	Date      string    `json:"date" gorm:"not null;size:10;uniqueIndex:idx_attendance_user_date_meal"` // YYYY-MM-DD
	MealType  MealType  `json:"meal_type" gorm:"not null;uniqueIndex:idx_attendance_user_date_meal"`
	Present   bool      `json:"present" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
