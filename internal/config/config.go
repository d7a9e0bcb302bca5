// Package config provides configuration loading and validation for
// Guardian.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete server/CLI configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server,omitempty"`
	AI       AIConfig       `yaml:"ai"`
	Scans    ScansConfig    `yaml:"scans,omitempty"`
	Export   *ExportConfig  `yaml:"export,omitempty"`
}

// DatabaseConfig locates the SQLite record store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// AIConfig configures the model provider gateway.
type AIConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key,omitempty"`
	Model          string `yaml:"model,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

// ScansConfig holds scan-quota defaults.
type ScansConfig struct {
	DefaultLimit int `yaml:"default_limit,omitempty"`
}

// ExportConfig configures the optional S3 report export.
type ExportConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix,omitempty"`
	Region string `yaml:"region"`
}

// Timeout returns the AI call timeout as a duration.
func (c *AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads and parses a YAML configuration file, applies defaults,
// and validates the result. The AI API key may come from the
// GUARDIAN_AI_API_KEY environment variable instead of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted source (config file)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "guardian.db"
	}
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.AI.Model == "" {
		c.AI.Model = "google/gemini-2.5-flash"
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = 120
	}
	if c.AI.APIKey == "" {
		c.AI.APIKey = os.Getenv("GUARDIAN_AI_API_KEY")
	}
	if c.Scans.DefaultLimit <= 0 {
		c.Scans.DefaultLimit = 50
	}
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if c.AI.Endpoint == "" {
		return fmt.Errorf("ai.endpoint is required")
	}
	if c.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key is required (or set GUARDIAN_AI_API_KEY)")
	}
	if c.Export != nil {
		if c.Export.Bucket == "" {
			return fmt.Errorf("export.bucket is required when export is configured")
		}
		if c.Export.Region == "" {
			return fmt.Errorf("export.region is required when export is configured")
		}
	}
	return nil
}
