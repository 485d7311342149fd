package realtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dragonlab/mimokit/pkg/realtime"
)

func TestSubscription_BindAndDispatch(t *testing.T) {
	t.Parallel()

	sub := realtime.NewSubscription("private-orders")
	assert.Equal(t, "private-orders", sub.Channel())

	var got []string
	sub.Bind("created", func(data []byte) { got = append(got, "a:"+string(data)) })
	sub.Bind("created", func(data []byte) { got = append(got, "b:"+string(data)) })
	sub.Bind("deleted", func(data []byte) { got = append(got, "del") })

	sub.Dispatch("created", []byte("1"))

	// Handlers fire in registration order; unrelated events do not.
	assert.Equal(t, []string{"a:1", "b:1"}, got)
}

func TestSubscription_BindingCloseDetaches(t *testing.T) {
	t.Parallel()

	sub := realtime.NewSubscription("private-orders")

	var calls int
	b := sub.Bind("created", func([]byte) { calls++ })

	sub.Dispatch("created", nil)
	b.Close()
	b.Close() // idempotent
	sub.Dispatch("created", nil)

	assert.Equal(t, 1, calls)
}

func TestSubscription_DispatchUnknownEvent(t *testing.T) {
	t.Parallel()

	sub := realtime.NewSubscription("private-orders")
	assert.NotPanics(t, func() { sub.Dispatch("never-bound", []byte("{}")) })
}
