// Package config loads typed configuration from environment variables using
// github.com/caarlos0/env, with optional .env files read by
// github.com/joho/godotenv.
//
// Load caches one value per config type, so packages can call it freely.
// Parse skips the cache and is handy in tests that set variables with
// t.Setenv.
package config
