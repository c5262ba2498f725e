package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDir(t *testing.T) {
	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error = %v", err)
	}

	if filepath.Base(dir) != ".escapekit" {
		t.Errorf("Dir() = %q, want ending with .escapekit", dir)
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("Dir() = %q, want absolute path", dir)
	}
}

func TestEnsureDir(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	dir, err := EnsureDir()
	if err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}

	expectedDir := filepath.Join(tmpHome, ".escapekit")
	if dir != expectedDir {
		t.Errorf("EnsureDir() = %q, want %q", dir, expectedDir)
	}

	for _, subdir := range []string{"logs", "exports"} {
		path := filepath.Join(dir, subdir)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("EnsureDir() should create %s", subdir)
		}
	}
}

func TestDefaultLocalConfig(t *testing.T) {
	cfg := DefaultLocalConfig()

	if cfg.Daemon.Port != 7433 {
		t.Errorf("Daemon.Port = %d, want 7433", cfg.Daemon.Port)
	}
	if cfg.Daemon.Bind != "127.0.0.1" {
		t.Errorf("Daemon.Bind = %q, want 127.0.0.1", cfg.Daemon.Bind)
	}
	if cfg.LLM.DefaultProvider != "gemini" {
		t.Errorf("LLM.DefaultProvider = %q, want gemini", cfg.LLM.DefaultProvider)
	}
	if cfg.Session.CopyWindow != 2*time.Second {
		t.Errorf("Session.CopyWindow = %v, want 2s", cfg.Session.CopyWindow)
	}
	if cfg.Session.IdleTTL != 2*time.Hour {
		t.Errorf("Session.IdleTTL = %v, want 2h", cfg.Session.IdleTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, defaults should be valid", err)
	}
}

func TestDefaultLocalConfig_ProviderDetails(t *testing.T) {
	cfg := DefaultLocalConfig()

	tests := []struct {
		name    string
		enabled bool
		model   string
	}{
		{"gemini", true, "gemini-2.5-flash"},
		{"openai", false, "gpt-4o"},
		{"claude", false, "claude-sonnet-4-20250514"},
		{"ollama", false, "llama3.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := cfg.LLM.Providers[tt.name]
			if !ok {
				t.Fatalf("provider %q missing", tt.name)
			}
			if p.Enabled != tt.enabled {
				t.Errorf("Enabled = %v, want %v", p.Enabled, tt.enabled)
			}
			if p.Model != tt.model {
				t.Errorf("Model = %q, want %q", p.Model, tt.model)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LocalConfig)
		wantErr string
	}{
		{"bad port", func(c *LocalConfig) { c.Daemon.Port = 70000 }, "daemon.port"},
		{"unknown provider", func(c *LocalConfig) { c.LLM.DefaultProvider = "mistral" }, "not configured"},
		{"disabled provider", func(c *LocalConfig) { c.LLM.DefaultProvider = "openai" }, "disabled"},
		{"zero copy window", func(c *LocalConfig) { c.Session.CopyWindow = 0 }, "copy_window"},
		{"zero idle ttl", func(c *LocalConfig) { c.Session.IdleTTL = 0 }, "idle_ttl"},
		{"zero link ttl", func(c *LocalConfig) { c.Export.LinkTTL = 0 }, "link_ttl"},
		{"negative generation rate", func(c *LocalConfig) { c.Daemon.GenerationsPerMinute = -1 }, "generations_per_minute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLocalConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}

	cfg := DefaultLocalConfig()
	cfg.LLM.DefaultProvider = "auto"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with auto provider error = %v", err)
	}
}

func TestLoadLocalConfig_DefaultsWhenNoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}

	if cfg.Daemon.Port != 7433 {
		t.Errorf("Daemon.Port = %d, want 7433 (default)", cfg.Daemon.Port)
	}
}

func TestLoadLocalConfig_WithConfigFile(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	dir := filepath.Join(tmpHome, ".escapekit")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create .escapekit dir: %v", err)
	}

	configContent := `daemon:
  port: 9999
  bind: "0.0.0.0"
  log_level: debug
llm:
  default_provider: ollama
  providers:
    ollama:
      enabled: true
      model: qwen2.5
      url: http://gpu-box:11434
session:
  copy_window: 3s
  idle_ttl: 30m
export:
  link_ttl: 1m
  system_clipboard: true
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}

	if cfg.Daemon.Port != 9999 {
		t.Errorf("Daemon.Port = %d, want 9999", cfg.Daemon.Port)
	}
	if cfg.Daemon.Bind != "0.0.0.0" {
		t.Errorf("Daemon.Bind = %q, want 0.0.0.0", cfg.Daemon.Bind)
	}
	if cfg.LLM.DefaultProvider != "ollama" {
		t.Errorf("LLM.DefaultProvider = %q, want ollama", cfg.LLM.DefaultProvider)
	}
	if p := cfg.LLM.Providers["ollama"]; p.Model != "qwen2.5" || p.URL != "http://gpu-box:11434" {
		t.Errorf("ollama = %+v", p)
	}
	if _, ok := cfg.LLM.Providers["gemini"]; !ok {
		t.Error("providers not in the file should keep their defaults")
	}
	if cfg.Session.CopyWindow != 3*time.Second {
		t.Errorf("Session.CopyWindow = %v, want 3s", cfg.Session.CopyWindow)
	}
	if cfg.Session.IdleTTL != 30*time.Minute {
		t.Errorf("Session.IdleTTL = %v, want 30m", cfg.Session.IdleTTL)
	}
	if !cfg.Export.SystemClipboard {
		t.Error("Export.SystemClipboard = false, want true")
	}
	if cfg.Resilience.MaxConcurrent != 6 {
		t.Errorf("Resilience.MaxConcurrent = %d, want default 6", cfg.Resilience.MaxConcurrent)
	}
}

func TestLoadLocalConfig_InvalidConfigYAML(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	dir := filepath.Join(tmpHome, ".escapekit")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create .escapekit dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("daemon: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := LoadLocalConfig(); err == nil {
		t.Error("LoadLocalConfig() should fail on invalid YAML")
	}
}

func TestSaveLocalConfig(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	cfg := DefaultLocalConfig()
	cfg.Daemon.Port = 8123
	cfg.Session.CopyWindow = 5 * time.Second

	if err := SaveLocalConfig(cfg); err != nil {
		t.Fatalf("SaveLocalConfig() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpHome, ".escapekit", "config.yaml"))
	if err != nil {
		t.Fatalf("Failed to read saved config: %v", err)
	}

	var saved LocalConfig
	if err := yaml.Unmarshal(data, &saved); err != nil {
		t.Fatalf("Failed to parse saved config: %v", err)
	}
	if saved.Daemon.Port != 8123 {
		t.Errorf("saved Daemon.Port = %d, want 8123", saved.Daemon.Port)
	}
	if saved.Session.CopyWindow != 5*time.Second {
		t.Errorf("saved Session.CopyWindow = %v, want 5s", saved.Session.CopyWindow)
	}

	loaded, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}
	if loaded.Daemon.Port != 8123 {
		t.Errorf("loaded Daemon.Port = %d, want 8123", loaded.Daemon.Port)
	}
}
