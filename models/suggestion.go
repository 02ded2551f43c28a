package models

import "time"

// SuggestionStatus represents the admin review state of a dish suggestion
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionApproved SuggestionStatus = "approved"
	SuggestionRejected SuggestionStatus = "rejected"
)

type Suggestion struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	UserID      uint             `json:"user_id" gorm:"not null;index"`
	Name        string           `json:"name" gorm:"not null"`
	Description string           `json:"description"`
	MealType    MealType         `json:"meal_type" gorm:"not null"`
	Likes       int              `json:"likes" gorm:"not null;default:0"`
	Dislikes    int              `json:"dislikes" gorm:"not null;default:0"`
	Status      SuggestionStatus `json:"status" gorm:"not null;default:'pending';index"`
	Votes       []SuggestionVote `json:"-" gorm:"foreignKey:SuggestionID"`
	LikedBy     []uint           `json:"liked_by" gorm:"-"`
	DislikedBy  []uint           `json:"disliked_by" gorm:"-"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Vote values stored on SuggestionVote
const (
	VoteLike    = 1
	VoteDislike = -1
)

// SuggestionVote is a user's single like or dislike on a suggestion.
// The composite key allows one vote per user, so a user is never in both
// the liked and disliked sets.
type SuggestionVote struct {
	SuggestionID uint      `json:"suggestion_id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"primaryKey"`
	Value        int       `json:"value" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FillVoters populates LikedBy and DislikedBy from the loaded Votes
func (s *Suggestion) FillVoters() {
	s.LikedBy = []uint{}
	s.DislikedBy = []uint{}
	for _, v := range s.Votes {
		switch v.Value {
		case VoteLike:
			s.LikedBy = append(s.LikedBy, v.UserID)
		case VoteDislike:
			s.DislikedBy = append(s.DislikedBy, v.UserID)
		}
	}
}
