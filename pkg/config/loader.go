package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	cacheMu sync.Mutex
	cache   = make(map[string]any)

	dotenvOnce sync.Once
)

// Load populates the provided configuration struct from environment
// variables. Each unique configuration type is parsed at most once per
// process; subsequent calls for the same type return the cached value so
// every package sees the same configuration.
//
// A .env file in the working directory is loaded once before the first
// parse. A missing .env file is not an error.
//
// Example:
//
//	type RealtimeConfig struct {
//		Host string `env:"REALTIME_HOST,required"`
//		Port int    `env:"REALTIME_PORT" envDefault:"443"`
//	}
//
//	var cfg RealtimeConfig
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		// The .env file is optional.
		_ = godotenv.Load()
	})

	key := typeName[T]()

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached, ok := cache[key]; ok {
		*v = cached.(T)
		return nil
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	// Store a copy so later callers cannot mutate the cached value.
	cache[key] = *v
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
// Use for configuration the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

func typeName[T any]() string {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		// Interface types have no concrete reflect.Type for the zero value.
		return fmt.Sprintf("%T", *new(T))
	}
	return t.String()
}
