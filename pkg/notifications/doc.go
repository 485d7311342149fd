// Package notifications implements the in-app notification pipeline: a FIFO
// queue written by event handlers, consumed by a single hub, and rendered one
// notification at a time as a transient toast banner.
//
// The moving parts:
//
//   - Store: the process-wide FIFO queue. Producers call Push; items get a
//     unique ID and timestamp on insertion.
//   - Hub: the queue's only consumer. It shows the oldest item through a
//     Presenter, removes it once display completes, then moves to the next,
//     so every pushed notification is eventually displayed in order.
//   - Toast: the default Presenter. One banner with enter/exit animation
//     phases, an auto-hide timer, and a poll-able depletion indicator.
//   - Archive: optional history persistence (in-memory or Redis backed),
//     written best effort after each display.
//
// Wiring:
//
//	store := notifications.NewStore()
//	toast := notifications.NewToast()
//	hub := notifications.NewHub(store, toast)
//	go hub.Run(ctx)
//
//	store.Push(notifications.Input{Message: "transfer completed", Severity: notifications.SeveritySuccess})
package notifications
