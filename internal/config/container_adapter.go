package config

import (
	"github.com/garyjia/travel-approval/internal/container"
	"github.com/garyjia/travel-approval/internal/domain/access"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	// Validate already rejected unknown modes
	mode, _ := access.ParseMode(c.Workflow.AuthorizationMode)

	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Workflow: container.WorkflowConfig{
			AuthorizationMode:     mode,
			LockShards:            c.Workflow.LockShards,
			PolicyPath:            c.Workflow.PolicyPath,
			MaxConcurrentHandlers: c.Workflow.MaxConcurrentHandlers,
		},
		Lark: container.LarkConfig{
			Enabled:   c.Lark.Enabled,
			AppID:     c.Lark.AppID,
			AppSecret: c.Lark.AppSecret,
		},
		OpenAI: container.OpenAIConfig{
			Enabled:     c.OpenAI.Enabled,
			APIKey:      c.OpenAI.APIKey,
			BaseURL:     c.OpenAI.BaseURL,
			Model:       c.OpenAI.Model,
			Timeout:     c.OpenAI.Timeout,
			PromptsPath: c.OpenAI.PromptsPath,
		},
		Export: container.ExportConfig{
			OutputDir: c.Export.OutputDir,
			FontName:  c.Export.FontName,
		},
	}
}
