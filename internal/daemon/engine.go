package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/escapekit/internal/assets"
	"github.com/felixgeelhaar/escapekit/internal/config"
	"github.com/felixgeelhaar/escapekit/internal/export"
	"github.com/felixgeelhaar/escapekit/internal/llm"
	"github.com/felixgeelhaar/escapekit/internal/planner"
	"github.com/felixgeelhaar/escapekit/internal/session"
)

// Engine wires the generator gateway, the planner, the asset generator and
// the session service from a LocalConfig. The daemon, the MCP server and
// the CLI each run one.
type Engine struct {
	Config    *config.LocalConfig
	Providers *llm.Registry
	Gateway   *llm.Gateway
	Sessions  *session.Service
	Links     *export.Links

	registry  *session.Registry
	resilient []*llm.ResilientProvider
	logger    *slog.Logger
}

// EngineOptions overrides parts of the wiring
type EngineOptions struct {
	// Providers replaces the configured providers, mainly for tests
	Providers *llm.Registry

	// Clipboard receives copied text when set
	Clipboard export.Clipboard

	// LinkBasePath prefixes artifact link paths
	LinkBasePath string

	Logger *slog.Logger
}

// NewEngine builds an engine from cfg
func NewEngine(cfg *config.LocalConfig, opts EngineOptions) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{Config: cfg, logger: logger}

	providers := opts.Providers
	if providers == nil {
		providers = llm.NewRegistry()
		e.setupLLMProviders(providers)
	}
	if name := cfg.LLM.DefaultProvider; name != "" && name != "auto" {
		if err := providers.SetDefault(name); err != nil {
			return nil, fmt.Errorf("default provider: %w", err)
		}
	}
	e.Providers = providers

	e.Gateway = llm.NewGateway(providers, llm.GatewayConfig{Logger: logger})

	e.registry = session.NewRegistry(cfg.Session.IdleTTL)
	e.Sessions = session.NewService(
		e.registry,
		planner.NewAssembler(e.Gateway, logger),
		assets.NewGenerator(e.Gateway),
		session.Config{
			CopyWindow: cfg.Session.CopyWindow,
			Clipboard:  opts.Clipboard,
			Logger:     logger,
		},
	)

	basePath := opts.LinkBasePath
	if basePath == "" {
		basePath = "/v1/artifacts/"
	}
	e.Links = export.NewLinks(basePath, cfg.Export.LinkTTL)

	return e, nil
}

// setupLLMProviders registers every enabled provider, each wrapped with the
// configured resilience policies
func (e *Engine) setupLLMProviders(registry *llm.Registry) {
	res := e.Config.Resilience
	resCfg := llm.ResilientConfig{
		EnableCircuitBreaker: res.CircuitBreaker,
		EnableBulkhead:       res.Bulkhead,
		EnableRateLimit:      res.RateLimit,
		MaxConcurrent:        res.MaxConcurrent,
		RatePerSecond:        res.RatePerSecond,
		Logger:               e.logger,
	}

	for name, providerCfg := range e.Config.LLM.Providers {
		if !providerCfg.Enabled {
			continue
		}

		var provider llm.Provider
		switch name {
		case "gemini":
			provider = llm.NewGeminiProvider(llm.GeminiConfig{
				BaseURL: providerCfg.URL,
				Model:   providerCfg.Model,
			})
		case "openai":
			provider = llm.NewOpenAIProvider(llm.OpenAIConfig{
				BaseURL: providerCfg.URL,
				Model:   providerCfg.Model,
			})
		case "claude":
			provider = llm.NewClaudeProvider(llm.ClaudeConfig{
				BaseURL: providerCfg.URL,
				Model:   providerCfg.Model,
			})
		case "ollama":
			provider = llm.NewOllamaProvider(llm.OllamaConfig{
				BaseURL: providerCfg.URL,
				Model:   providerCfg.Model,
			})
		default:
			e.logger.Warn("unknown provider in config", "name", name)
			continue
		}

		wrapped := llm.NewResilientProvider(provider, resCfg)
		e.resilient = append(e.resilient, wrapped)
		registry.Register(name, wrapped)
		e.logger.Info("registered generator provider", "name", name, "model", providerCfg.Model)
	}
}

// Run evicts idle sessions and expired artifact links until ctx is done
func (e *Engine) Run(ctx context.Context) {
	interval := e.Config.Session.SweepInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sessions := e.registry.Sweep(now)
			links := e.Links.Sweep(now)
			if sessions > 0 || links > 0 {
				e.logger.Info("evicted expired state", "sessions", sessions, "links", links)
			}
		}
	}
}

// Close waits for in-flight generations and releases every resource
func (e *Engine) Close() {
	e.Sessions.Close()
	for _, p := range e.resilient {
		if err := p.Close(); err != nil {
			e.logger.Warn("failed to close provider", "name", p.Name(), "error", err)
		}
	}
}
