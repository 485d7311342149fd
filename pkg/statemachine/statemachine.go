package statemachine

import (
	"context"
	"fmt"
)

// State represents a state in the state machine.
type State string

func (s State) Name() string { return string(s) }

// Event represents an event that can trigger a state transition.
type Event string

func (e Event) Name() string { return string(e) }

// Action executes side effects during a transition. Returning an error
// aborts the transition and leaves the machine in its current state.
type Action func(ctx context.Context, from, to State, event Event) error

// Guard evaluates whether a transition is allowed at fire time.
type Guard func(ctx context.Context, from State, event Event) bool

// Transition defines a state change triggered by an event, with optional
// guards and actions.
type Transition struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard  // all must pass for the transition to proceed
	Actions []Action // executed in order before the state change
}

// Option configures a Machine during construction.
type Option func(*Machine) error

// New creates a state machine with the given initial state and options.
func New(initial State, opts ...Option) (*Machine, error) {
	if initial == "" {
		return nil, ErrInvalidState
	}

	m := newMachine(initial)
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew creates a state machine and panics if any option fails.
// Transition tables are static; a malformed one is a programming error.
func MustNew(initial State, opts ...Option) *Machine {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

// WithTransition adds a single transition.
func WithTransition(from, to State, event Event, guards []Guard, actions []Action) Option {
	return func(m *Machine) error {
		return m.AddTransition(from, to, event, guards, actions)
	}
}

// WithTransitions adds multiple transitions at once.
func WithTransitions(transitions []Transition) Option {
	return func(m *Machine) error {
		for i, t := range transitions {
			if err := m.AddTransition(t.From, t.To, t.Event, t.Guards, t.Actions); err != nil {
				return fmt.Errorf("failed to add transition[%d] %s->%s on %s: %w",
					i, t.From, t.To, t.Event, err)
			}
		}
		return nil
	}
}
