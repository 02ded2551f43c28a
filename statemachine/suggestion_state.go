package statemachine

import (
	"errors"
	"fmt"
	"strings"

	"mess-management-api/models"
)

// ErrInvalidTransition is wrapped by every error CanTransition returns
var ErrInvalidTransition = errors.New("invalid transition")

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.SuggestionStatus `json:"from"`
	To    models.SuggestionStatus `json:"to"`
	Actor models.UserRole         `json:"actor"`
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// Admin accepts the dish for a future menu
	{From: models.SuggestionPending, To: models.SuggestionApproved, Actor: models.RoleAdmin},
	// Admin turns it down
	{From: models.SuggestionPending, To: models.SuggestionRejected, Actor: models.RoleAdmin},
}

type transitionKey struct {
	From  models.SuggestionStatus
	To    models.SuggestionStatus
	Actor models.UserRole
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// IsKnownStatus reports whether s is one of the suggestion states
func IsKnownStatus(s models.SuggestionStatus) bool {
	switch s {
	case models.SuggestionPending, models.SuggestionApproved, models.SuggestionRejected:
		return true
	}
	return false
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.SuggestionStatus) []models.SuggestionStatus {
	nexts := []models.SuggestionStatus{}
	seen := map[models.SuggestionStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.SuggestionStatus, actor models.UserRole) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return fmt.Errorf("%w: %s → %s is not allowed for actor '%s'. Valid transitions from %s are: %s",
		ErrInvalidTransition, from, to, actor, from, describeValidFrom(from))
}

func describeValidFrom(status models.SuggestionStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}

// TerminalStates lists the states with no outgoing transition
func TerminalStates() []models.SuggestionStatus {
	var out []models.SuggestionStatus
	for _, s := range []models.SuggestionStatus{models.SuggestionPending, models.SuggestionApproved, models.SuggestionRejected} {
		if len(ValidTransitionsFrom(s)) == 0 {
			out = append(out, s)
		}
	}
	return out
}
