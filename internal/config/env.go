package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "ESCAPEKIT_"

// CredentialEnv is read by the CLI as a convenience source of the user's
// credential. The daemon never reads it.
const CredentialEnv = "GEMINI_API_KEY"

// LoadDotEnv loads .env files into the process environment. Missing files
// are skipped and variables already set are not overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with ESCAPEKIT_* variables
func ApplyEnv(cfg *LocalConfig) {
	cfg.Daemon.Port = getEnvInt(EnvPrefix+"PORT", cfg.Daemon.Port)
	cfg.Daemon.Bind = getEnv(EnvPrefix+"BIND", cfg.Daemon.Bind)
	cfg.Daemon.LogLevel = getEnv(EnvPrefix+"LOG_LEVEL", cfg.Daemon.LogLevel)
	cfg.Daemon.GenerationsPerMinute = getEnvInt(EnvPrefix+"GENERATIONS_PER_MINUTE", cfg.Daemon.GenerationsPerMinute)

	if name := strings.ToLower(getEnv(EnvPrefix+"PROVIDER", "")); name != "" {
		cfg.LLM.DefaultProvider = name
		if p, ok := cfg.LLM.Providers[name]; ok {
			p.Enabled = true
		}
	}
	if model := getEnv(EnvPrefix+"MODEL", ""); model != "" {
		if p, ok := cfg.LLM.Providers[cfg.LLM.DefaultProvider]; ok {
			p.Model = model
		}
	}
	if url := getEnv(EnvPrefix+"OLLAMA_URL", ""); url != "" {
		if p, ok := cfg.LLM.Providers["ollama"]; ok {
			p.URL = url
		}
	}

	cfg.Resilience.MaxConcurrent = getEnvInt(EnvPrefix+"MAX_CONCURRENT", cfg.Resilience.MaxConcurrent)
	cfg.Resilience.RatePerSecond = getEnvInt(EnvPrefix+"RATE_PER_SECOND", cfg.Resilience.RatePerSecond)

	cfg.Session.CopyWindow = getEnvDuration(EnvPrefix+"COPY_WINDOW", cfg.Session.CopyWindow)
	cfg.Session.IdleTTL = getEnvDuration(EnvPrefix+"IDLE_TTL", cfg.Session.IdleTTL)

	cfg.Export.LinkTTL = getEnvDuration(EnvPrefix+"LINK_TTL", cfg.Export.LinkTTL)
	cfg.Export.SystemClipboard = getEnvBool(EnvPrefix+"SYSTEM_CLIPBOARD", cfg.Export.SystemClipboard)
	cfg.Export.OutDir = getEnv(EnvPrefix+"OUT_DIR", cfg.Export.OutDir)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
