package main

import (
	flags "github.com/jessevdk/go-flags"

	"github.com/theoremus-urban-solutions/rapidbus-avl/config"
)

const (
	modeLive    = "live"
	modeOneShot = "oneshot"
)

// Options are the command-line flags.
type Options struct {
	Config     string `long:"config" short:"c" description:"Path to config.yml (default: ./config.yml or ./config/config.yml)"`
	Mode       string `long:"mode" default:"live" choice:"live" choice:"oneshot" description:"live dashboard feed or one-shot GTFS-RT fetch"`
	Route      string `long:"route" description:"Route id to subscribe to (overrides dashboard.routeID)"`
	LogLevel   string `long:"log-level" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Log level (overrides logging.level)"`
	LogFormat  string `long:"log-format" choice:"text" choice:"json" description:"Log handler (overrides logging.format)"`
	HealthPort int    `long:"health-port" default:"-1" description:"Health endpoint port, 0 disables (overrides server.port)"`
}

// ParseOptions parses args (without the program name).
func ParseOptions(args []string) (Options, error) {
	opts := Options{}
	if _, err := flags.ParseArgs(&opts, args); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Apply copies the flags that were set over cfg.
func (o Options) Apply(cfg *config.AppConfig) {
	if o.Route != "" {
		cfg.Dashboard.RouteID = o.Route
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Logging.Format = o.LogFormat
	}
	if o.HealthPort >= 0 {
		cfg.Server.Port = o.HealthPort
	}
}
