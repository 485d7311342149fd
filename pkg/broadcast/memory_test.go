package broadcast_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragonlab/mimokit/pkg/broadcast"
)

func TestMemoryBroadcaster_DeliversToAllSubscribers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := broadcast.NewMemoryBroadcaster[int](4)
	defer b.Close()

	s1 := b.Subscribe(ctx)
	s2 := b.Subscribe(ctx)

	require.NoError(t, b.Publish(ctx, 42))

	select {
	case v := <-s1.Receive(ctx):
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("subscriber 1 did not receive value")
	}

	select {
	case v := <-s2.Receive(ctx):
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("subscriber 2 did not receive value")
	}
}

func TestMemoryBroadcaster_PublishNeverBlocks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := broadcast.NewMemoryBroadcaster[int](1)
	defer b.Close()

	sub := b.Subscribe(ctx)
	defer sub.Close()

	// Fill the buffer and keep publishing: none of these may block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			_ = b.Publish(ctx, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestMemoryBroadcaster_ContextCancelCleansUp(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	b := broadcast.NewMemoryBroadcaster[string](1)
	defer b.Close()

	sub := b.Subscribe(ctx)
	cancel()

	// The receive channel must eventually close.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-sub.Receive(ctx):
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscriber channel not closed after context cancellation")
		}
	}
}

func TestMemoryBroadcaster_CloseIdempotent(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](1)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	// Subscribing after close yields an already-closed subscriber.
	sub := b.Subscribe(context.Background())
	_, ok := <-sub.Receive(context.Background())
	assert.False(t, ok)
}
