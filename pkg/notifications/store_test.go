package notifications_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragonlab/mimokit/pkg/notifications"
)

func TestStore_PushPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	s := notifications.NewStore()
	defer s.Close()

	for _, msg := range []string{"first", "second", "third"} {
		s.Push(notifications.Input{Message: msg})
	}

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "first", list[0].Message)
	assert.Equal(t, "second", list[1].Message)
	assert.Equal(t, "third", list[2].Message)
}

func TestStore_PushAssignsUniqueIDsAndDefaults(t *testing.T) {
	t.Parallel()

	s := notifications.NewStore()
	defer s.Close()

	a := s.Push(notifications.Input{Message: "a"})
	b := s.Push(notifications.Input{Message: "a"}) // identical content is allowed

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, notifications.SeverityInfo, a.Severity)
	assert.False(t, a.CreatedAt.IsZero())
	assert.Equal(t, 2, s.Len(), "no deduplication by content")
}

func TestStore_RemoveDeletesExactlyOne(t *testing.T) {
	t.Parallel()

	s := notifications.NewStore()
	defer s.Close()

	a := s.Push(notifications.Input{Message: "a"})
	b := s.Push(notifications.Input{Message: "b"})
	c := s.Push(notifications.Input{Message: "c"})

	assert.True(t, s.Remove(b.ID))
	assert.False(t, s.Remove(b.ID), "second remove of same id finds nothing")

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, c.ID, list[1].ID)
}

func TestStore_Clear(t *testing.T) {
	t.Parallel()

	s := notifications.NewStore()
	defer s.Close()

	s.Push(notifications.Input{Message: "a"})
	s.Push(notifications.Input{Message: "b"})
	s.Clear()

	assert.Zero(t, s.Len())
	_, ok := s.Oldest()
	assert.False(t, ok)
}

func TestStore_WatchSignalsOnPush(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := notifications.NewStore()
	defer s.Close()

	wake := s.Watch(ctx)

	s.Push(notifications.Input{Message: "wake up"})

	select {
	case <-wake:
	case <-time.After(time.Second):
		t.Fatal("watch channel not signalled after push")
	}
}

func TestStore_WatchSurvivesBurst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := notifications.NewStore()
	defer s.Close()

	wake := s.Watch(ctx)

	// A burst far beyond any buffer while the consumer is not reading must
	// coalesce into one pending signal, never close the channel.
	for i := 0; i < 50; i++ {
		s.Push(notifications.Input{Message: "burst"})
	}

	select {
	case _, open := <-wake:
		require.True(t, open, "watch channel closed by a push burst")
	case <-time.After(time.Second):
		t.Fatal("no pending signal after burst")
	}

	// The channel stays live for later mutations.
	s.Push(notifications.Input{Message: "after"})
	select {
	case _, open := <-wake:
		require.True(t, open)
	case <-time.After(time.Second):
		t.Fatal("watch channel dead after burst")
	}
}

func TestStore_WatchClosesWithStore(t *testing.T) {
	t.Parallel()

	s := notifications.NewStore()
	wake := s.Watch(context.Background())

	require.NoError(t, s.Close())

	select {
	case _, open := <-wake:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("watch channel not closed with the store")
	}
}

func TestStore_ConcurrentProducers(t *testing.T) {
	t.Parallel()

	s := notifications.NewStore()
	defer s.Close()

	const producers = 8
	const perProducer = 50

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				s.Push(notifications.Input{Message: "x"})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, s.Len())

	// All IDs distinct.
	seen := make(map[string]struct{})
	for _, n := range s.List() {
		seen[n.ID] = struct{}{}
	}
	assert.Len(t, seen, producers*perProducer)
}

func TestParseSeverity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, notifications.SeveritySuccess, notifications.ParseSeverity("success"))
	assert.Equal(t, notifications.SeverityError, notifications.ParseSeverity("error"))
	assert.Equal(t, notifications.SeverityWarning, notifications.ParseSeverity("warning"))
	assert.Equal(t, notifications.SeverityInfo, notifications.ParseSeverity("info"))
	assert.Equal(t, notifications.SeverityInfo, notifications.ParseSeverity("bogus"))
	assert.Equal(t, notifications.SeverityInfo, notifications.ParseSeverity(""))
}
