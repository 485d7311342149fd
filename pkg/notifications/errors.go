package notifications

import "errors"

var (
	// ErrToastBusy is returned when Show is called while a toast is already
	// on screen.
	ErrToastBusy = errors.New("a toast is already being displayed")

	// ErrNilRedisClient is returned when a RedisArchive is created without a client.
	ErrNilRedisClient = errors.New("redis client cannot be nil")

	// ErrArchiveSave is returned when a notification cannot be archived.
	ErrArchiveSave = errors.New("failed to archive notification")

	// ErrArchiveLoad is returned when archived notifications cannot be read.
	ErrArchiveLoad = errors.New("failed to load archived notifications")
)
