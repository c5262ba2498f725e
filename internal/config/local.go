package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// LocalConfig holds configuration for local daemon mode
type LocalConfig struct {
	Daemon     DaemonConfig     `yaml:"daemon"`
	LLM        LLMConfig        `yaml:"llm"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Session    SessionConfig    `yaml:"session"`
	Export     ExportConfig     `yaml:"export"`
}

// DaemonConfig holds daemon server settings
type DaemonConfig struct {
	Port     int    `yaml:"port"`
	Bind     string `yaml:"bind"`
	LogLevel string `yaml:"log_level"`

	// GenerationsPerMinute caps generation requests per client; 0 disables
	GenerationsPerMinute int `yaml:"generations_per_minute"`
}

// LLMConfig holds generator provider settings
type LLMConfig struct {
	DefaultProvider string                     `yaml:"default_provider"`
	Providers       map[string]*ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds settings for a single provider. There is no API key
// field: the user's credential travels with each request and is never
// written to disk.
type ProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	URL     string `yaml:"url,omitempty"`
}

// ResilienceConfig holds the outbound call protections
type ResilienceConfig struct {
	CircuitBreaker bool `yaml:"circuit_breaker"`
	Bulkhead       bool `yaml:"bulkhead"`
	RateLimit      bool `yaml:"rate_limit"`
	MaxConcurrent  int  `yaml:"max_concurrent"`
	RatePerSecond  int  `yaml:"rate_per_second"`
}

// SessionConfig holds in-memory session settings
type SessionConfig struct {
	CopyWindow    time.Duration `yaml:"copy_window"`
	IdleTTL       time.Duration `yaml:"idle_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// ExportConfig holds artifact export settings
type ExportConfig struct {
	LinkTTL         time.Duration `yaml:"link_ttl"`
	SystemClipboard bool          `yaml:"system_clipboard"`
	OutDir          string        `yaml:"out_dir,omitempty"`
}

// Dir returns the path to ~/.escapekit
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".escapekit"), nil
}

// EnsureDir creates ~/.escapekit and subdirectories if they don't exist
func EnsureDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}

	subdirs := []string{
		"",
		"logs",
		"exports",
	}

	for _, subdir := range subdirs {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}

	return dir, nil
}

// DefaultLocalConfig returns sensible defaults for local mode
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		Daemon: DaemonConfig{
			Port:                 7433,
			Bind:                 "127.0.0.1",
			LogLevel:             "info",
			GenerationsPerMinute: 30,
		},
		LLM: LLMConfig{
			DefaultProvider: "gemini",
			Providers: map[string]*ProviderConfig{
				"gemini": {
					Enabled: true,
					Model:   "gemini-2.5-flash",
				},
				"openai": {
					Enabled: false,
					Model:   "gpt-4o",
				},
				"claude": {
					Enabled: false,
					Model:   "claude-sonnet-4-20250514",
				},
				"ollama": {
					Enabled: false,
					URL:     "http://localhost:11434",
					Model:   "llama3.1",
				},
			},
		},
		Resilience: ResilienceConfig{
			CircuitBreaker: true,
			Bulkhead:       true,
			RateLimit:      true,
			MaxConcurrent:  6,
			RatePerSecond:  4,
		},
		Session: SessionConfig{
			CopyWindow:    2 * time.Second,
			IdleTTL:       2 * time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Export: ExportConfig{
			LinkTTL: 10 * time.Minute,
		},
	}
}

// Validate checks the settings that would otherwise fail at startup
func (c *LocalConfig) Validate() error {
	var errs []error

	if c.Daemon.Port <= 0 || c.Daemon.Port > 65535 {
		errs = append(errs, fmt.Errorf("daemon.port %d out of range", c.Daemon.Port))
	}
	if c.Daemon.GenerationsPerMinute < 0 {
		errs = append(errs, errors.New("daemon.generations_per_minute must not be negative"))
	}
	if name := c.LLM.DefaultProvider; name != "" && name != "auto" {
		p, ok := c.LLM.Providers[name]
		if !ok {
			errs = append(errs, fmt.Errorf("llm.default_provider %q is not configured", name))
		} else if !p.Enabled {
			errs = append(errs, fmt.Errorf("llm.default_provider %q is disabled", name))
		}
	}
	if c.Session.CopyWindow <= 0 {
		errs = append(errs, errors.New("session.copy_window must be positive"))
	}
	if c.Session.IdleTTL <= 0 {
		errs = append(errs, errors.New("session.idle_ttl must be positive"))
	}
	if c.Export.LinkTTL <= 0 {
		errs = append(errs, errors.New("export.link_ttl must be positive"))
	}

	return errors.Join(errs...)
}

// LoadLocalConfig loads configuration from ~/.escapekit/config.yaml and
// applies ESCAPEKIT_* environment overrides
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadLocalConfigFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		return nil, err
	}
	ApplyEnv(cfg)

	return cfg, nil
}

// LoadLocalConfigFile loads configuration from path over the defaults.
// A missing file yields the defaults.
func LoadLocalConfigFile(path string) (*LocalConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultLocalConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultLocalConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// SaveLocalConfig saves configuration to ~/.escapekit/config.yaml
func SaveLocalConfig(cfg *LocalConfig) error {
	dir, err := EnsureDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(dir, "config.yaml")

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
