// Package realtime delivers backend events to the client over a persistent
// authenticated websocket connection.
//
// Transport abstracts the pub/sub connection; WSTransport implements it
// over gorilla/websocket speaking a pusher-style protocol with
// private-channel authorization. Manager owns at most one transport for the
// process behind a guarded lazy initializer. Coordinator wires everything
// to the session: it reads the bearer token, resolves the user's private
// channel, joins it, and turns transfer-completed events into localized
// notifications.
//
//	manager, _ := realtime.NewManager(func(token string) (realtime.Transport, error) {
//		return realtime.NewWSTransport(wsURL, authURL, token)
//	})
//	formatter, _ := realtime.NewFormatter(tr, "vi")
//	coord, _ := realtime.NewCoordinator(manager, tokens, store, formatter, resolveURL)
//
//	coord.Start(ctx)
//	defer coord.Stop()
//
// Event callbacks are registered through Subscription.Bind, which returns a
// disposable handle released on teardown. Transport and authorization
// failures are logged, never surfaced to the user; their only visible
// effect is IsConnected reporting false.
package realtime
