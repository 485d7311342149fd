package realtime

import "errors"

var (
	ErrEmptyURL             = errors.New("URL cannot be empty")
	ErrEmptyChannel         = errors.New("channel name cannot be empty")
	ErrNilFactory           = errors.New("transport factory cannot be nil")
	ErrNilManager           = errors.New("manager cannot be nil")
	ErrNilTokenStore        = errors.New("token store cannot be nil")
	ErrNilStore             = errors.New("notification store cannot be nil")
	ErrNilTranslator        = errors.New("translator cannot be nil")
	ErrTransportClosed      = errors.New("transport is closed")
	ErrNotConnected         = errors.New("transport is not connected")
	ErrConnectFailed        = errors.New("failed to connect")
	ErrChannelAuthFailed    = errors.New("channel authorization failed")
	ErrChannelResolveFailed = errors.New("channel resolution failed")
	ErrEmptyPayload         = errors.New("event payload is empty")
	ErrInvalidPayload       = errors.New("invalid event payload")
)
