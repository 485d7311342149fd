package otp

import "errors"

var (
	ErrEmptyBaseURL         = errors.New("base URL cannot be empty")
	ErrNilClient            = errors.New("client cannot be nil")
	ErrEmptyIdentifier      = errors.New("identifier cannot be empty")
	ErrRequestFailed        = errors.New("request failed")
	ErrInvalidResponse      = errors.New("invalid response body")
	ErrAlreadyOpen          = errors.New("session is already open")
	ErrNotOpen              = errors.New("session is not open")
	ErrVerificationInFlight = errors.New("verification in flight")
)
