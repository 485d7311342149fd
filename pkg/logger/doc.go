// Package logger provides a thin factory around Go's slog package with
// functional options for configuration and attribute constructors shared by
// the realtime, notifications, and otp packages.
//
// The single factory - New - creates a *slog.Logger configured by a set of
// Option functions:
//
//	log := logger.New(
//		logger.WithDevelopment("mimokit"),
//		logger.WithOutput(os.Stderr),
//	)
//	log.Info("connected", logger.Channel("notifications.token.42"))
//
// The attribute helpers keep log keys consistent across packages: errors are
// always "error", channels "channel", notification ids "notification_id".
package logger
