package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level file configuration for a storymesh deployment.
type Config struct {
	Backend   BackendConfig   `yaml:"backend" validate:"required"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Engine    EngineConfig    `yaml:"engine"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// BackendConfig selects and parameterizes the generator backend.
type BackendConfig struct {
	Provider    string  `yaml:"provider" validate:"required,oneof=anthropic openai subprocess mock"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	MaxTokens   int     `yaml:"max_tokens" validate:"omitempty,min=1,max=64000"`
	Temperature float64 `yaml:"temperature" validate:"omitempty,min=0,max=2"`
	// Command and Args configure the subprocess provider.
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	// RequestsPerMinute enables client side rate limiting when > 0.
	RequestsPerMinute int `yaml:"requests_per_minute" validate:"omitempty,min=1"`
}

// RetrievalConfig bounds context selection. Zero values fall back to the
// retrieval package defaults.
type RetrievalConfig struct {
	MaxSummaries   int `yaml:"max_summaries" validate:"omitempty,min=1"`
	MaxFacts       int `yaml:"max_facts" validate:"omitempty,min=1"`
	MaxSubplots    int `yaml:"max_subplots" validate:"omitempty,min=1"`
	DormancyWindow int `yaml:"dormancy_window" validate:"omitempty,min=1"`
}

// EngineConfig tunes generation lifecycle behavior.
type EngineConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	MaxConcurrent int           `yaml:"max_concurrent" validate:"omitempty,min=1"`
}

// LoggingConfig selects log verbosity and encoding.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=json text"`
}

// Default returns a config that runs against the mock backend with the
// standard lifecycle limits.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{Provider: "mock"},
		Engine:  EngineConfig{Timeout: 2 * time.Minute, MaxConcurrent: 10},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads a YAML config file, applies environment overrides and validates
// the result. A .env file next to the working directory is honored when
// present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv resolves the API key from the environment when the file leaves it
// empty or uses a placeholder. Keys never need to live in the config file.
func (c *Config) applyEnv() {
	if c.Backend.APIKey != "" && c.Backend.APIKey != "${ANTHROPIC_API_KEY}" && c.Backend.APIKey != "${OPENAI_API_KEY}" {
		return
	}
	switch c.Backend.Provider {
	case "anthropic":
		c.Backend.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		c.Backend.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// Validate checks structural constraints plus provider specific requirements.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	switch c.Backend.Provider {
	case "anthropic", "openai":
		if c.Backend.APIKey == "" {
			return fmt.Errorf("config validation failed: provider %s requires an api key", c.Backend.Provider)
		}
	case "subprocess":
		if c.Backend.Command == "" {
			return fmt.Errorf("config validation failed: provider subprocess requires a command")
		}
	}

	return nil
}
