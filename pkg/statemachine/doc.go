// Package statemachine provides a small thread-safe finite state machine
// used to enforce the legal transitions of UI-facing components: the toast
// view (hidden/appearing/visible/disappearing) and the OTP verification
// sheet (closed/opening/awaiting input/submitting/closing).
//
// States and events are plain strings; guards veto transitions at fire time
// and actions run side effects before the state change:
//
//	m := statemachine.MustNew("hidden",
//		statemachine.WithTransition("hidden", "appearing", "show", nil, nil),
//		statemachine.WithTransition("appearing", "visible", "shown", nil, nil),
//	)
//	_ = m.Fire(ctx, "show")
//
// Firing an event with no registered transition returns
// ErrNoTransitionAvailable; a transition vetoed by its guards returns
// ErrTransitionRejected. Components treat both as "ignore the input", which
// is how double-taps and stale timer callbacks are suppressed.
package statemachine
