package i18n

import "errors"

var (
	// ErrInvalidCatalog is returned when a YAML catalog cannot be parsed or
	// has empty language codes.
	ErrInvalidCatalog = errors.New("invalid translation catalog")
)
