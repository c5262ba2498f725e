package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/escapekit/internal/config"
)

// cmdInit creates the directory layout and a default config
func cmdInit() error {
	fmt.Println("escapekit - First-Time Setup")
	fmt.Println("============================")
	fmt.Println()

	fmt.Print("Creating ~/.escapekit directory structure... ")
	dir, err := config.EnsureDir()
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	fmt.Println("✓")

	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Print("Creating default configuration... ")
		if err := config.SaveLocalConfig(config.DefaultLocalConfig()); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Println("✓")
	} else {
		fmt.Println("Configuration already exists ✓")
	}

	fmt.Println()
	fmt.Println("Gemini API key")
	fmt.Println("--------------")
	fmt.Printf("The key is never stored by escapekit. Export %s or put it in\n", config.CredentialEnv)
	fmt.Printf("a .env file next to where you run escapekit or in %s.\n", dir)
	fmt.Println("The web page asks for the key on every plan.")

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. escapekit start     # Start the daemon and open http://127.0.0.1:7433")
	fmt.Println("  2. escapekit doctor    # Verify configuration")
	fmt.Println("  3. escapekit mcp       # Use from an MCP client")

	return nil
}

// cmdDoctor checks configuration and generator access
func cmdDoctor() error {
	fmt.Println("Checking configuration...")
	allGood := true

	fmt.Print("Directory: ")
	dir, err := config.Dir()
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		allGood = false
	} else if _, err := os.Stat(dir); os.IsNotExist(err) {
		fmt.Println("✗ not created (run 'escapekit init')")
		allGood = false
	} else {
		fmt.Printf("✓ %s\n", dir)
		_ = config.LoadDotEnv(".env", filepath.Join(dir, ".env"))
	}

	fmt.Print("Config:    ")
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		allGood = false
	} else if err := cfg.Validate(); err != nil {
		fmt.Printf("✗ %v\n", err)
		allGood = false
	} else {
		fmt.Println("✓ loaded")

		fmt.Println("\nGenerator Providers:")
		for name, provider := range cfg.LLM.Providers {
			if !provider.Enabled {
				continue
			}
			fmt.Printf("  %s: ", name)
			if name == "ollama" {
				if err := checkOllama(provider.URL); err != nil {
					fmt.Printf("✗ %v\n", err)
				} else {
					fmt.Printf("✓ available (model: %s)\n", provider.Model)
				}
			} else {
				fmt.Printf("✓ enabled (model: %s)\n", provider.Model)
			}
		}
	}

	fmt.Print("\nAPI key:   ")
	if os.Getenv(config.CredentialEnv) != "" {
		fmt.Printf("✓ %s is set (CLI and MCP use it)\n", config.CredentialEnv)
	} else {
		fmt.Printf("- %s not set (the web page asks for it)\n", config.CredentialEnv)
	}

	fmt.Print("Daemon:    ")
	if isRunning() {
		fmt.Println("✓ running")
	} else {
		fmt.Println("✗ not running (run 'escapekit start')")
	}

	fmt.Println()
	if allGood {
		fmt.Println("All checks passed! ✓")
	} else {
		fmt.Println("Some checks failed. Please fix the issues above.")
	}
	return nil
}

// cmdConfig shows current configuration
func cmdConfig() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("escapekit Configuration")
	fmt.Println("Daemon:")
	fmt.Printf("  bind: %s:%d\n", cfg.Daemon.Bind, cfg.Daemon.Port)
	fmt.Printf("  log_level: %s\n", cfg.Daemon.LogLevel)

	fmt.Println("\nGenerator:")
	fmt.Printf("  default_provider: %s\n", cfg.LLM.DefaultProvider)
	for name, provider := range cfg.LLM.Providers {
		if provider.Enabled {
			fmt.Printf("  %s: model=%s\n", name, provider.Model)
		}
	}

	fmt.Println("\nResilience:")
	fmt.Printf("  circuit_breaker=%t bulkhead=%t rate_limit=%t\n",
		cfg.Resilience.CircuitBreaker, cfg.Resilience.Bulkhead, cfg.Resilience.RateLimit)
	fmt.Printf("  max_concurrent=%d rate_per_second=%d\n", cfg.Resilience.MaxConcurrent, cfg.Resilience.RatePerSecond)

	fmt.Println("\nSession:")
	fmt.Printf("  copy_window: %s\n", cfg.Session.CopyWindow)
	fmt.Printf("  idle_ttl: %s\n", cfg.Session.IdleTTL)

	fmt.Println("\nExport:")
	fmt.Printf("  link_ttl: %s\n", cfg.Export.LinkTTL)
	fmt.Printf("  system_clipboard: %t\n", cfg.Export.SystemClipboard)
	if cfg.Export.OutDir != "" {
		fmt.Printf("  out_dir: %s\n", cfg.Export.OutDir)
	}

	dir, _ := config.Dir()
	fmt.Printf("\nConfig path: %s/config.yaml\n", dir)
	return nil
}
