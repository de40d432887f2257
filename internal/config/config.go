package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/garyjia/travel-approval/internal/domain/access"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Lark     LarkConfig     `mapstructure:"lark"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Export   ExportConfig   `mapstructure:"export"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// WorkflowConfig holds approval workflow configuration
type WorkflowConfig struct {
	// AuthorizationMode is strict (chain-bound approver only) or role (any holder of the role)
	AuthorizationMode string `mapstructure:"authorization_mode"`
	LockShards        int    `mapstructure:"lock_shards"`
	// PolicyPath is an optional casbin CSV policy for administrative operations
	PolicyPath            string `mapstructure:"policy_path"`
	MaxConcurrentHandlers int    `mapstructure:"max_concurrent_handlers"`
}

// LarkConfig holds Lark IM delivery configuration
type LarkConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
}

// OpenAIConfig holds notification composer configuration
type OpenAIConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	PromptsPath string        `mapstructure:"prompts_path"`
}

// ExportConfig holds audit export configuration
type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	FontName  string `mapstructure:"font_name"`
}

// Load reads .env, then the YAML file at configPath, then environment overrides.
// An empty configPath uses defaults and the environment only.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TRAVELFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/travel.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Workflow defaults
	v.SetDefault("workflow.authorization_mode", string(access.ModeStrict))
	v.SetDefault("workflow.lock_shards", 64)
	v.SetDefault("workflow.policy_path", "")
	v.SetDefault("workflow.max_concurrent_handlers", 16)

	// Lark defaults
	v.SetDefault("lark.enabled", false)
	v.SetDefault("lark.app_id", "")
	v.SetDefault("lark.app_secret", "")

	// OpenAI defaults
	v.SetDefault("openai.enabled", false)
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout", 15*time.Second)
	v.SetDefault("openai.prompts_path", "")

	// Export defaults
	v.SetDefault("export.output_dir", "exports")
	v.SetDefault("export.font_name", "")
}

// bindEnvVars binds the conventional credential variables
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("lark.app_id", "LARK_APP_ID")
	_ = v.BindEnv("lark.app_secret", "LARK_APP_SECRET")
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}

	if _, err := access.ParseMode(c.Workflow.AuthorizationMode); err != nil {
		return fmt.Errorf("workflow.authorization_mode: %w", err)
	}
	if c.Workflow.LockShards < 0 {
		return fmt.Errorf("workflow.lock_shards must not be negative")
	}
	if c.Workflow.MaxConcurrentHandlers < 0 {
		return fmt.Errorf("workflow.max_concurrent_handlers must not be negative")
	}

	if c.Lark.Enabled {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required when lark is enabled")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required when lark is enabled")
		}
	}

	if c.OpenAI.Enabled && c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required when openai is enabled")
	}

	if c.Export.OutputDir == "" {
		return fmt.Errorf("export.output_dir is required")
	}

	return nil
}
