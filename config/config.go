// Package config loads the stream client configuration from YAML.
package config

import "time"

// Config is the top-level configuration.
type Config struct {
	URL          string          `yaml:"url"`
	WriteTimeout time.Duration   `yaml:"write_timeout"`
	ReadBuffer   int             `yaml:"read_buffer"`
	ReadLimit    int64           `yaml:"read_limit"`
	PingInterval time.Duration   `yaml:"ping_interval"`
	Reconnect    ReconnectConfig `yaml:"reconnect"`
	Log          LogConfig       `yaml:"log"`
	Feeds        []FeedConfig    `yaml:"feeds"`
}

// ReconnectConfig controls the exponential reconnect backoff.
type ReconnectConfig struct {
	BaseDelay time.Duration `yaml:"base_delay"`
	MaxDelay  time.Duration `yaml:"max_delay"`
}

// LogConfig selects the zap level and encoder.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// FeedConfig describes one feed the CLI subscribes to.
type FeedConfig struct {
	Channel  string `yaml:"channel"`
	Coin     string `yaml:"coin"`
	Interval string `yaml:"interval"`
	User     string `yaml:"user"`
	Single   bool   `yaml:"single"`
}
