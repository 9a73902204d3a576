// Package view decides what the results region shows: nothing yet, a spinner,
// a recipe or an error.
package view

import (
	"github.com/alchemorsel/recipegen/internal/domain/recipe"
)

// Phase is the single active presentation state.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// DefaultFailureMessage replaces an empty failure message.
const DefaultFailureMessage = "Something went wrong while generating your recipe."

// Failure is what the error banner shows. Code selects a translated message;
// Message is the English fallback.
type Failure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Status  int    `json:"status,omitempty"`
}

// Ticket identifies one submission. Tickets increase monotonically per state.
type Ticket uint64

// Settlement describes how a settle call was applied.
type Settlement struct {
	Ticket Ticket
	// Stale is true when a newer submission was started after this one.
	// Stale settles are still applied: the last one to settle wins.
	Stale bool
}

// State is the view state machine. The zero value is Idle.
type State struct {
	Phase    Phase          `json:"phase"`
	Recipe   *recipe.Recipe `json:"recipe,omitempty"`
	Failure  *Failure       `json:"failure,omitempty"`
	Revision uint64         `json:"revision"`
	Issued   Ticket         `json:"issued"`
}

// Current returns the phase, treating the zero value as Idle.
func (s *State) Current() Phase {
	if s.Phase == "" {
		return PhaseIdle
	}
	return s.Phase
}

// Begin enters Loading from any phase and clears the previous outcome.
func (s *State) Begin() Ticket {
	s.Issued++
	s.Phase = PhaseLoading
	s.Recipe = nil
	s.Failure = nil
	return s.Issued
}

// Succeed settles ticket with r. A nil recipe settles as a failure.
func (s *State) Succeed(ticket Ticket, r *recipe.Recipe) Settlement {
	if r == nil {
		return s.Fail(ticket, Failure{Message: recipe.ErrMissingRecipe.Error()})
	}
	s.Phase = PhaseSuccess
	s.Recipe = r
	s.Failure = nil
	s.Revision++
	return s.settlement(ticket)
}

// Fail settles ticket with f.
func (s *State) Fail(ticket Ticket, f Failure) Settlement {
	if f.Message == "" {
		f.Message = DefaultFailureMessage
	}
	s.Phase = PhaseError
	s.Recipe = nil
	s.Failure = &f
	return s.settlement(ticket)
}

// Reset returns to Idle. Outstanding tickets become stale.
func (s *State) Reset() {
	s.Issued++
	s.Phase = PhaseIdle
	s.Recipe = nil
	s.Failure = nil
}

func (s *State) IsLoading() bool {
	return s.Current() == PhaseLoading
}

// Presentation selects what the results region shows for the current phase.
func (s *State) Presentation() Presentation {
	return SelectPresentation(s.Recipe, s.IsLoading(), s.Failure != nil)
}

func (s *State) settlement(ticket Ticket) Settlement {
	return Settlement{Ticket: ticket, Stale: ticket != s.Issued}
}
