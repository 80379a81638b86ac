// Package config handles application configuration loading and validation.
//
// Configuration is read from an optional config.yml, then overridden by
// RAPIDBUS_* environment variables (a .env file in the working directory is
// loaded first), and finally validated using struct tags. Every field has a
// default matching the public RapidKL endpoints, so the binary runs with no
// configuration at all.
package config
