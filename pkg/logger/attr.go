package logger

import (
	"log/slog"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Channel records a realtime channel name under the key "channel".
// If name is empty, it returns an empty Attr.
func Channel(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("channel", name)
}

// Event records a realtime event name under the key "event".
// If name is empty, it returns an empty Attr.
func Event(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("event", name)
}

// NotificationID records a notification identifier under the key "notification_id".
// If id is empty, it returns an empty Attr.
func NotificationID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("notification_id", id)
}

// Operation records an OTP operation kind under the key "operation".
// If op is empty, it returns an empty Attr.
func Operation(op string) slog.Attr {
	if op == "" {
		return slog.Attr{}
	}
	return slog.String("operation", op)
}

// ConnState records a connection state under the key "conn_state".
// If state is empty, it returns an empty Attr.
func ConnState(state string) slog.Attr {
	if state == "" {
		return slog.Attr{}
	}
	return slog.String("conn_state", state)
}
