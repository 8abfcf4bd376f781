package config

import (
	"github.com/keystonepm/approvalflow/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This bridges the file-based config loaded by viper and the container's
// configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
		Engine: container.EngineConfig{
			DefaultOrganisationID: c.Engine.DefaultOrganisationID,
		},
		Notification: container.NotificationConfig{
			Transport: c.Notification.Transport,
		},
		Docgen: container.DocgenConfig{
			OutputDir: c.Docgen.OutputDir,
			BaseURL:   c.Docgen.BaseURL,
		},
	}
}
