package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Machine is a thread-safe in-memory finite state machine. Transitions are
// stored in a nested map for O(1) lookup: [fromState][event][]Transition.
type Machine struct {
	initial     State
	current     State
	transitions map[State]map[Event][]Transition
	mu          sync.RWMutex
}

func newMachine(initial State) *Machine {
	return &Machine{
		initial:     initial,
		current:     initial,
		transitions: make(map[State]map[Event][]Transition),
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// AddTransition registers a transition. Multiple transitions for the same
// from/event pair are allowed to support guard-based branching.
func (m *Machine) AddTransition(from, to State, event Event, guards []Guard, actions []Action) error {
	if from == "" || to == "" || event == "" {
		return ErrInvalidTransition
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transitions[from]; !ok {
		m.transitions[from] = make(map[Event][]Transition)
	}

	m.transitions[from][event] = append(m.transitions[from][event], Transition{
		From:    from,
		To:      to,
		Event:   event,
		Guards:  guards,
		Actions: actions,
	})
	return nil
}

// Fire attempts to transition on the given event. The first registered
// transition whose guards all pass wins. Actions run before the state change;
// an action error aborts the transition.
func (m *Machine) Fire(ctx context.Context, event Event) error {
	if event == "" {
		return ErrInvalidEvent
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	transitions, ok := m.transitions[m.current][event]
	if !ok || len(transitions) == 0 {
		return NewErrNoTransitionAvailable(m.current, event)
	}

	var match *Transition
	for i, t := range transitions {
		passed := true
		for _, guard := range t.Guards {
			if guard != nil && !guard(ctx, m.current, event) {
				passed = false
				break
			}
		}
		if passed {
			match = &transitions[i]
			break
		}
	}

	if match == nil {
		return NewErrTransitionRejected(m.current, event)
	}

	for _, action := range match.Actions {
		if action != nil {
			if err := action(ctx, m.current, match.To, event); err != nil {
				return fmt.Errorf("action failed: %w", err)
			}
		}
	}

	m.current = match.To
	return nil
}

// CanFire reports whether the event would trigger a transition from the
// current state, evaluating guards but running no actions.
func (m *Machine) CanFire(ctx context.Context, event Event) bool {
	if event == "" {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.transitions[m.current][event] {
		passed := true
		for _, guard := range t.Guards {
			if guard != nil && !guard(ctx, m.current, event) {
				passed = false
				break
			}
		}
		if passed {
			return true
		}
	}
	return false
}

// Reset returns the machine to its initial state without running actions.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}
