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
	// cache holds one parsed value per config type.
	cache sync.Map

	// loadMu serializes first-time parsing so each type is parsed once.
	loadMu sync.Mutex

	defaultEnvLoaded sync.Once
)

// Load parses environment variables into v. Each config type is parsed once
// per process; later calls for the same type return the cached copy.
// The default .env file, when present, is loaded before the first parse.
//
//	type Config struct {
//		MaxDefinitions int64 `env:"METAFIELD_MAX_DEFINITIONS" envDefault:"250"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		// The .env file is optional.
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	key := typeKey[T]()
	if cached, ok := cache.Load(key); ok {
		*v = cached.(T)
		return nil
	}

	loadMu.Lock()
	defer loadMu.Unlock()

	if cached, ok := cache.Load(key); ok {
		*v = cached.(T)
		return nil
	}

	if err := Parse(v); err != nil {
		return err
	}
	cache.Store(key, *v)
	return nil
}

// Parse parses environment variables into v without caching.
func Parse[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// LoadEnvFiles loads the given dotenv files without overriding variables
// already set in the process environment.
func LoadEnvFiles(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("Failed to load required configuration: %v", err))
	}
}

func typeKey[T any]() string {
	return reflect.TypeFor[T]().String()
}
