package tokenstore

import "errors"

var (
	// ErrNoToken is returned when no token has been stored.
	ErrNoToken = errors.New("no token stored")

	// ErrInvalidPath is returned when a FileStore is created with an empty path.
	ErrInvalidPath = errors.New("token store path cannot be empty")

	// ErrEmptySecret is returned when a FileStore is created without key material.
	ErrEmptySecret = errors.New("token store secret cannot be empty")

	// ErrSealFailed is returned when the token cannot be encrypted or written.
	ErrSealFailed = errors.New("failed to seal token")

	// ErrUnsealFailed is returned when the stored blob cannot be decrypted,
	// including when it was sealed under a different secret.
	ErrUnsealFailed = errors.New("failed to unseal token")
)
