package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RAPIDBUS_"

// DefaultPaths are searched when no explicit path is given.
var DefaultPaths = []string{"config.yml", "./config/config.yml"}

// Default returns the configuration used when nothing else is set.
func Default() AppConfig {
	return AppConfig{
		Server: ServerConfig{Port: 0},
		Dashboard: DashboardConfig{
			BaseURL: "https://myrapidbus.prasarana.com.my",
			RouteID: "300",
		},
		Feed: FeedConfig{
			ServerURL:         "https://rapidbus-socketio-avl.prasarana.com.my",
			RefreshIntervalMS: 5000,
		},
		GTFSRT: GTFSRTConfig{
			VehiclePositionsURL: "https://api.data.gov.my/gtfs-realtime/vehicle-position/prasarana?category=rapid-bus-kl",
			TimeoutMS:           30000,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// LoadAppConfig loads, overrides and validates the configuration. An
// explicit path must exist; otherwise DefaultPaths are tried and a missing
// file just means defaults.
func LoadAppConfig(path string) (AppConfig, error) {
	cfg := Default()

	data, err := readConfigFile(path)
	if err != nil {
		return AppConfig{}, err
	}
	if data != nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional.
	_ = godotenv.Load()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return AppConfig{}, fmt.Errorf("parse env: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks struct tag constraints.
func Validate(cfg AppConfig) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func readConfigFile(path string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		return data, nil
	}
	for _, p := range DefaultPaths {
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", p, err)
		}
	}
	return nil, nil
}

// RefreshInterval returns the keep-alive interval.
func (c AppConfig) RefreshInterval() time.Duration {
	return time.Duration(c.Feed.RefreshIntervalMS) * time.Millisecond
}

// GTFSRTTimeout returns the one-shot fetch timeout; zero means none.
func (c AppConfig) GTFSRTTimeout() time.Duration {
	return time.Duration(c.GTFSRT.TimeoutMS) * time.Millisecond
}
