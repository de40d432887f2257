// Package container provides dependency injection and lifecycle management
// for the travel approval service following Clean Architecture principles.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/travel-approval/internal/domain/access"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	Database DatabaseConfig
	Workflow WorkflowConfig
	Lark     LarkConfig
	OpenAI   OpenAIConfig
	Export   ExportConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file, or ":memory:"
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// WorkflowConfig holds approval engine settings.
type WorkflowConfig struct {
	AuthorizationMode access.Mode

	// LockShards sizes the per-request lock table; 0 uses the engine default
	LockShards int

	// PolicyPath is a casbin CSV policy; empty uses the built-in rules
	PolicyPath string

	// MaxConcurrentHandlers bounds async event handlers; 0 is unbounded
	MaxConcurrentHandlers int
}

// LarkConfig holds Lark IM settings. Delivery is skipped when disabled.
type LarkConfig struct {
	Enabled   bool
	AppID     string
	AppSecret string
}

// OpenAIConfig holds notification composer settings.
type OpenAIConfig struct {
	Enabled     bool
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	PromptsPath string
}

// ExportConfig holds audit export settings.
type ExportConfig struct {
	// OutputDir receives saved workbooks
	OutputDir string

	// FontName is the default workbook font, e.g. "Noto Sans CJK SC"
	FontName string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/travel.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Workflow: WorkflowConfig{
			AuthorizationMode:     access.ModeStrict,
			LockShards:            64,
			MaxConcurrentHandlers: 16,
		},
		OpenAI: OpenAIConfig{
			Model:   "gpt-4o-mini",
			Timeout: 15 * time.Second,
		},
		Export: ExportConfig{
			OutputDir: "exports",
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if _, err := access.ParseMode(string(c.Workflow.AuthorizationMode)); err != nil {
		return fmt.Errorf("workflow.authorization_mode: %w", err)
	}

	if c.Lark.Enabled && (c.Lark.AppID == "" || c.Lark.AppSecret == "") {
		return fmt.Errorf("lark.app_id and lark.app_secret are required when lark is enabled")
	}

	if c.OpenAI.Enabled && c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required when openai is enabled")
	}

	if c.Export.OutputDir == "" {
		return fmt.Errorf("export.output_dir is required")
	}

	return nil
}
