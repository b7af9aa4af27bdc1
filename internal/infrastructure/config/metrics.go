package config

// MetricsConfig controls the Prometheus exposition endpoint
type MetricsConfig struct {
	// Enabled turns the HTTP metrics listener on
	Enabled bool `mapstructure:"enabled"`

	// Addr is the listen address (default binds loopback only)
	Addr string `mapstructure:"addr"`

	// Path for the scrape endpoint
	Path string `mapstructure:"path"`
}
