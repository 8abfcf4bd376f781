package container

import (
	"fmt"
	"time"
)

// Config holds all configuration the container needs to assemble the
// application.
type Config struct {
	Database     DatabaseConfig
	Server       ServerConfig
	Engine       EngineConfig
	Notification NotificationConfig
	Docgen       DocgenConfig
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// EngineConfig holds approval engine configuration.
type EngineConfig struct {
	DefaultOrganisationID string
}

// NotificationConfig holds notification delivery configuration.
type NotificationConfig struct {
	Transport string
}

// DocgenConfig holds purchase order form generation configuration.
type DocgenConfig struct {
	OutputDir string
	BaseURL   string
}

// Validate checks the configuration for assembly-blocking problems.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Server.Port)
	}
	if c.Docgen.OutputDir == "" {
		return fmt.Errorf("docgen output directory is required")
	}
	return nil
}
