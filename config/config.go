// Package config provides configuration for agentrelay.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the agentrelay configuration.
type Config struct {
	// Host the crew listens on and the default endpoints point at.
	Host string `yaml:"host"`

	// Endpoints override the crew URLs derived from Host.
	Endpoints EndpointsConfig `yaml:"endpoints"`

	// Timeouts for outbound A2A calls.
	Timeouts TimeoutsConfig `yaml:"timeouts"`

	// Logging
	Log LogConfig `yaml:"log"`

	// Model backing the hosted crew.
	Model ModelConfig `yaml:"model"`
}

// EndpointsConfig holds optional explicit agent URLs.
type EndpointsConfig struct {
	Research   string `yaml:"research"`
	Processing string `yaml:"processing"`
	Report     string `yaml:"report"`
}

// TimeoutsConfig holds the timeouts of the directory client.
type TimeoutsConfig struct {
	Overall time.Duration `yaml:"overall"`
	Connect time.Duration `yaml:"connect"`
	Write   time.Duration `yaml:"write"`
	Pool    time.Duration `yaml:"pool"`
	Probe   time.Duration `yaml:"probe"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ModelConfig selects the language model provider.
type ModelConfig struct {
	Provider string `yaml:"provider"` // openai, anthropic or mock
	Name     string `yaml:"name"`

	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
}

// Model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Host: "localhost",
		Timeouts: TimeoutsConfig{
			Overall: 120 * time.Second,
			Connect: 10 * time.Second,
			Write:   10 * time.Second,
			Pool:    5 * time.Second,
			Probe:   5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Model: ModelConfig{
			Provider: ProviderMock,
		},
	}
}

// Load loads configuration from environment variables on top of the defaults.
func Load() *Config {
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

// LoadFile overlays the YAML file at path onto the defaults, then applies
// environment variables.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// Validate reports unsupported settings.
func (c *Config) Validate() error {
	var errs []error
	switch c.Model.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("unknown model provider %q", c.Model.Provider))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if c.Host == "" {
		errs = append(errs, errors.New("host must not be empty"))
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnv() {
	c.Host = getEnv("AGENTRELAY_HOST", c.Host)

	c.Endpoints.Research = getEnv("AGENTRELAY_RESEARCH_URL", c.Endpoints.Research)
	c.Endpoints.Processing = getEnv("AGENTRELAY_PROCESSING_URL", c.Endpoints.Processing)
	c.Endpoints.Report = getEnv("AGENTRELAY_REPORT_URL", c.Endpoints.Report)

	c.Timeouts.Overall = getEnvMillis("AGENTRELAY_TIMEOUT_MS", c.Timeouts.Overall)
	c.Timeouts.Connect = getEnvMillis("AGENTRELAY_CONNECT_TIMEOUT_MS", c.Timeouts.Connect)
	c.Timeouts.Write = getEnvMillis("AGENTRELAY_WRITE_TIMEOUT_MS", c.Timeouts.Write)
	c.Timeouts.Pool = getEnvMillis("AGENTRELAY_POOL_TIMEOUT_MS", c.Timeouts.Pool)
	c.Timeouts.Probe = getEnvMillis("AGENTRELAY_PROBE_TIMEOUT_MS", c.Timeouts.Probe)

	c.Log.Level = strings.ToLower(getEnv("AGENTRELAY_LOG_LEVEL", c.Log.Level))
	c.Log.Format = strings.ToLower(getEnv("AGENTRELAY_LOG_FORMAT", c.Log.Format))

	c.Model.Provider = strings.ToLower(getEnv("AGENTRELAY_MODEL_PROVIDER", c.Model.Provider))
	c.Model.Name = getEnv("AGENTRELAY_MODEL", c.Model.Name)
	c.Model.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.Model.OpenAIAPIKey)
	c.Model.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", c.Model.AnthropicAPIKey)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvMillis(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if ms, err := strconv.Atoi(val); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultVal
}
