package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/escapekit/internal/domain"
)

// Call is one gateway invocation
type Call struct {
	// Op names the calling operation for errors and logs
	Op string

	// APIKey is the user credential, passed through to the provider
	APIKey string

	// Instruction is the full prompt text; it must not be blank
	Instruction string

	// Schema requests constrained JSON output when set
	Schema *Schema
}

// GatewayConfig configures the gateway
type GatewayConfig struct {
	// Provider selects a registry entry; empty uses the registry default
	Provider string

	// Model overrides the provider's default model
	Model string

	Logger *slog.Logger
}

// Gateway issues exactly one provider call per invocation and normalises
// every failure to a *domain.GenerationError.
type Gateway struct {
	registry ProviderRegistry
	provider string
	model    string
	logger   *slog.Logger
}

// NewGateway creates a gateway over the registry
func NewGateway(registry ProviderRegistry, cfg GatewayConfig) *Gateway {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		registry: registry,
		provider: cfg.Provider,
		model:    cfg.Model,
		logger:   logger,
	}
}

// Execute runs the instruction and returns the trimmed response text
func (g *Gateway) Execute(ctx context.Context, call Call) (string, error) {
	if strings.TrimSpace(call.Instruction) == "" {
		return "", domain.NewValidationError("instruction", "instruction is empty", domain.ErrInstructionMissing)
	}

	p, err := g.selectProvider()
	if err != nil {
		return "", domain.NewGenerationError(call.Op, domain.ReasonUnavailable, err)
	}

	start := time.Now()
	resp, err := p.Generate(ctx, &Request{
		APIKey: call.APIKey,
		Model:  g.model,
		Prompt: call.Instruction,
		Schema: call.Schema,
	})
	if err != nil {
		reason := classify(err)
		g.logger.Warn("generation failed",
			"op", call.Op,
			"provider", p.Name(),
			"reason", string(reason),
			"duration", time.Since(start))
		return "", domain.NewGenerationError(call.Op, reason, err)
	}

	text := ""
	if resp != nil {
		text = strings.TrimSpace(resp.Content)
	}
	if text == "" {
		return "", domain.NewGenerationError(call.Op, domain.ReasonEmptyResponse, nil)
	}

	g.logger.Debug("generation complete",
		"op", call.Op,
		"provider", p.Name(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"duration", time.Since(start))

	return text, nil
}

// ExecuteJSON runs the instruction with call.Schema and decodes the response
// into out. Text that does not parse is a malformed response.
func (g *Gateway) ExecuteJSON(ctx context.Context, call Call, out any) error {
	if call.Schema == nil {
		return fmt.Errorf("%s: %w", call.Op, errors.New("schema is required for structured output"))
	}

	text, err := g.Execute(ctx, call)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(unwrapJSON(text)), out); err != nil {
		return domain.NewGenerationError(call.Op, domain.ReasonMalformedResponse, err)
	}
	return nil
}

func (g *Gateway) selectProvider() (Provider, error) {
	if g.provider != "" && g.provider != "auto" {
		return g.registry.Get(g.provider)
	}
	return g.registry.Default()
}

// unwrapJSON drops a ```json fence some providers add despite the schema
func unwrapJSON(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func classify(err error) domain.GenerationReason {
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrEmptyAPIKey):
		return domain.ReasonAuth
	case errors.Is(err, ErrRateLimited):
		return domain.ReasonQuota
	case errors.As(err, &apiErr):
		switch {
		case apiErr.IsAuth():
			return domain.ReasonAuth
		case apiErr.IsQuota():
			return domain.ReasonQuota
		case apiErr.IsUnavailable():
			return domain.ReasonUnavailable
		}
		return domain.ReasonTransport
	default:
		return domain.ReasonTransport
	}
}
