package config

// ServerConfig contains the health endpoint configuration. Port 0 disables it.
type ServerConfig struct {
	Port int `yaml:"port" env:"PORT" validate:"gte=0,lte=65535"`
}

// DashboardConfig points at the operator's kiosk pages.
type DashboardConfig struct {
	BaseURL   string `yaml:"baseURL" env:"BASE_URL" validate:"required,url"`
	RouteID   string `yaml:"routeID" env:"ROUTE_ID" validate:"required"`
	UserAgent string `yaml:"userAgent" env:"USER_AGENT"`
}

// FeedConfig contains the push backend configuration.
type FeedConfig struct {
	ServerURL         string `yaml:"serverURL" env:"SERVER_URL" validate:"required,url"`
	RefreshIntervalMS int    `yaml:"refreshIntervalMS" env:"REFRESH_INTERVAL_MS" validate:"gt=0"`
}

// GTFSRTConfig contains the one-shot GTFS-Realtime feed configuration.
type GTFSRTConfig struct {
	VehiclePositionsURL string `yaml:"vehiclePositionsURL" env:"VEHICLE_POSITIONS_URL" validate:"omitempty,url"`
	TimeoutMS           int    `yaml:"timeoutMS" env:"TIMEOUT_MS" validate:"gte=0"`
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" env:"FORMAT" validate:"oneof=text json"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	Dashboard DashboardConfig `yaml:"dashboard" envPrefix:"DASHBOARD_"`
	Feed      FeedConfig      `yaml:"feed" envPrefix:"FEED_"`
	GTFSRT    GTFSRTConfig    `yaml:"gtfsrt" envPrefix:"GTFSRT_"`
	Logging   LoggingConfig   `yaml:"logging" envPrefix:"LOG_"`
}
