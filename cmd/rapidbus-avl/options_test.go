package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/rapidbus-avl/config"
)

func TestParseOptions_Defaults(t *testing.T) {
	opts, err := ParseOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, modeLive, opts.Mode)
	assert.Equal(t, -1, opts.HealthPort)

	cfg := config.Default()
	opts.Apply(&cfg)
	assert.Equal(t, config.Default(), cfg)
}

func TestParseOptions_Overrides(t *testing.T) {
	opts, err := ParseOptions([]string{"--mode", "oneshot", "--route", "T789", "--log-level", "debug", "--log-format", "json", "--health-port", "0"})
	require.NoError(t, err)
	assert.Equal(t, modeOneShot, opts.Mode)

	cfg := config.Default()
	cfg.Server.Port = 8080
	opts.Apply(&cfg)
	assert.Equal(t, "T789", cfg.Dashboard.RouteID)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 0, cfg.Server.Port)
}

func TestParseOptions_BadMode(t *testing.T) {
	_, err := ParseOptions([]string{"--mode", "replay"})
	assert.Error(t, err)
}
