package config

import "time"

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Address         string        `mapstructure:"address" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}
