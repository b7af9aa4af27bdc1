package config

import "time"

// APIConfig holds SpaceTraders API client configuration
type APIConfig struct {
	// Base URL for the SpaceTraders API
	BaseURL string `mapstructure:"base_url" validate:"required,url"`

	// Agent bearer token. The run command refuses to start without one;
	// the read-path commands never need it.
	Token string `mapstructure:"token"`

	// Account token, only needed when registering a fresh agent
	AccountToken string `mapstructure:"account_token"`

	// Request timeout
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`
}

// SchedulerConfig paces every outbound API request through one token bucket
type SchedulerConfig struct {
	// Sustained requests per second
	Rate float64 `mapstructure:"rate" validate:"gt=0"`

	// Burst size for the token bucket
	Burst int `mapstructure:"burst" validate:"min=1"`

	// SharedBucket moves token accounting into the database so several
	// processes can split a single API budget
	SharedBucket bool `mapstructure:"shared_bucket"`
}
