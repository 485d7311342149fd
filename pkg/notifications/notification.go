package notifications

import (
	"time"
)

// Severity represents the notification severity.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ParseSeverity maps a string to a Severity, defaulting to info for unknown
// values so a malformed event payload still produces a visible notification.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeveritySuccess, SeverityWarning, SeverityError:
		return Severity(s)
	default:
		return SeverityInfo
	}
}

// Notification is a single queued UI notification.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
	Raw       any       `json:"raw,omitempty"` // opaque source payload
}

// Input is the caller-supplied part of a notification; the store assigns the
// ID and timestamp at push time.
type Input struct {
	Title    string
	Message  string
	Severity Severity
	Raw      any
}
