// Package broadcast provides type-safe in-process fan-out with subscriber
// management. It backs the notification store's change signal (one consumer,
// many producers) and the dev server's event fan-out to connected clients.
//
// Basic usage:
//
//	b := broadcast.NewMemoryBroadcaster[string](10)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	b.Publish(ctx, "hello")
//
//	for v := range sub.Receive(ctx) {
//		fmt.Println(v)
//	}
//
// Publishing never blocks: subscribers that cannot keep up are dropped.
// Subscriptions are cleaned up when their context is cancelled, when the
// subscriber is closed, or when the broadcaster is closed.
package broadcast
