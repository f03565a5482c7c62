// Package visitor contains the visitor entity and its lifecycle state machine.
package visitor

import (
	"github.com/atiendo/atiendo/internal/domain/errs"
)

// State is a value object wrapping a visitor lifecycle state.
type State struct {
	value string
}

// Visitor lifecycle states.
const (
	StateAnonymous    = "anonymous"
	StateIdentified   = "identified"
	StateConnected    = "connected"
	StateDisconnected = "disconnected"
	StateInChat       = "in_chat"
	StateConverted    = "converted"
	StateInactive     = "inactive"
)

// transitions is the fixed adjacency table. Every legal edge is listed
// explicitly; anything absent is rejected. Self-transitions are not
// allowed and inactive is terminal.
var transitions = map[string][]string{
	StateAnonymous:    {StateIdentified, StateConnected, StateInChat, StateInactive},
	StateIdentified:   {StateConnected, StateDisconnected, StateInChat, StateConverted, StateInactive},
	StateConnected:    {StateIdentified, StateDisconnected, StateInChat, StateInactive},
	StateDisconnected: {StateConnected, StateInactive},
	StateInChat:       {StateConnected, StateDisconnected, StateConverted, StateInactive},
	StateConverted:    {StateDisconnected, StateInactive},
	StateInactive:     {},
}

// NewState validates value and wraps it in a State.
func NewState(value string) (State, error) {
	if _, ok := transitions[value]; !ok {
		return State{}, errs.ErrInvalidInput
	}
	return State{value: value}, nil
}

// MustState wraps a known-valid state or panics. Intended for tests
// and package-internal constants.
func MustState(value string) State {
	s, err := NewState(value)
	if err != nil {
		panic(err)
	}
	return s
}

// CanTransitionTo reports whether the adjacency table allows moving to next.
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s.value] {
		if allowed == next.value {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no outgoing transition exists.
func (s State) IsTerminal() bool {
	return len(transitions[s.value]) == 0
}

// String returns the state name.
func (s State) String() string {
	return s.value
}

// AllStates returns every valid state name. Used by table-driven tests
// and by the HTTP layer for enum validation.
func AllStates() []string {
	return []string{
		StateAnonymous,
		StateIdentified,
		StateConnected,
		StateDisconnected,
		StateInChat,
		StateConverted,
		StateInactive,
	}
}
