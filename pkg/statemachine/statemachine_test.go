package statemachine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragonlab/mimokit/pkg/statemachine"
)

func TestMachine_BasicTransitions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := statemachine.MustNew("hidden",
		statemachine.WithTransition("hidden", "appearing", "show", nil, nil),
		statemachine.WithTransition("appearing", "visible", "shown", nil, nil),
		statemachine.WithTransition("visible", "disappearing", "hide", nil, nil),
		statemachine.WithTransition("disappearing", "hidden", "hidden_done", nil, nil),
	)

	assert.Equal(t, statemachine.State("hidden"), m.Current())

	require.NoError(t, m.Fire(ctx, "show"))
	require.NoError(t, m.Fire(ctx, "shown"))
	assert.Equal(t, statemachine.State("visible"), m.Current())

	require.NoError(t, m.Fire(ctx, "hide"))
	require.NoError(t, m.Fire(ctx, "hidden_done"))
	assert.Equal(t, statemachine.State("hidden"), m.Current())
}

func TestMachine_NoTransitionAvailable(t *testing.T) {
	t.Parallel()

	m := statemachine.MustNew("closed",
		statemachine.WithTransition("closed", "opening", "open", nil, nil),
	)

	err := m.Fire(context.Background(), "close")
	assert.True(t, statemachine.IsNoTransitionAvailableError(err))
	assert.Equal(t, statemachine.State("closed"), m.Current())
}

func TestMachine_GuardRejectsTransition(t *testing.T) {
	t.Parallel()

	allow := false
	guard := func(ctx context.Context, from statemachine.State, event statemachine.Event) bool {
		return allow
	}

	m := statemachine.MustNew("awaiting_input",
		statemachine.WithTransition("awaiting_input", "submitting", "verify",
			[]statemachine.Guard{guard}, nil),
	)

	err := m.Fire(context.Background(), "verify")
	assert.True(t, statemachine.IsTransitionRejectedError(err))
	assert.False(t, m.CanFire(context.Background(), "verify"))

	allow = true
	assert.True(t, m.CanFire(context.Background(), "verify"))
	require.NoError(t, m.Fire(context.Background(), "verify"))
	assert.Equal(t, statemachine.State("submitting"), m.Current())
}

func TestMachine_ActionErrorAborts(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	action := func(ctx context.Context, from, to statemachine.State, event statemachine.Event) error {
		return boom
	}

	m := statemachine.MustNew("a",
		statemachine.WithTransition("a", "b", "go", nil, []statemachine.Action{action}),
	)

	err := m.Fire(context.Background(), "go")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, statemachine.State("a"), m.Current())
}

func TestMachine_GuardBranching(t *testing.T) {
	t.Parallel()

	never := func(ctx context.Context, from statemachine.State, event statemachine.Event) bool { return false }
	always := func(ctx context.Context, from statemachine.State, event statemachine.Event) bool { return true }

	// First matching transition with passing guards wins.
	m := statemachine.MustNew("s",
		statemachine.WithTransitions([]statemachine.Transition{
			{From: "s", To: "blocked", Event: "e", Guards: []statemachine.Guard{never}},
			{From: "s", To: "taken", Event: "e", Guards: []statemachine.Guard{always}},
		}),
	)

	require.NoError(t, m.Fire(context.Background(), "e"))
	assert.Equal(t, statemachine.State("taken"), m.Current())
}

func TestMachine_Reset(t *testing.T) {
	t.Parallel()

	m := statemachine.MustNew("a",
		statemachine.WithTransition("a", "b", "go", nil, nil),
	)
	require.NoError(t, m.Fire(context.Background(), "go"))
	m.Reset()
	assert.Equal(t, statemachine.State("a"), m.Current())
}

func TestNew_InvalidDefinitions(t *testing.T) {
	t.Parallel()

	_, err := statemachine.New("")
	assert.ErrorIs(t, err, statemachine.ErrInvalidState)

	_, err = statemachine.New("a",
		statemachine.WithTransition("", "b", "go", nil, nil),
	)
	assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)
}
