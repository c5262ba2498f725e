package llm

import "context"

// ProviderRegistry defines the registry operations used by the gateway
// and the daemon status handlers
type ProviderRegistry interface {
	// List returns all registered provider names
	List() []string

	// Default returns the default provider
	Default() (Provider, error)

	// Get retrieves a provider by name
	Get(name string) (Provider, error)
}

// Ensure Registry implements ProviderRegistry
var _ ProviderRegistry = (*Registry)(nil)

// Executor is the gateway contract consumed by the planner and the asset
// generator
type Executor interface {
	Execute(ctx context.Context, call Call) (string, error)
	ExecuteJSON(ctx context.Context, call Call, out any) error
}

// Ensure Gateway implements Executor
var _ Executor = (*Gateway)(nil)
