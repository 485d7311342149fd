// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Configuration structs declare their environment bindings with `env` tags
// (see github.com/caarlos0/env). Load caches parsed values per type, so the
// realtime, otp, and devserver configs are each parsed exactly once no matter
// how many components request them.
package config
