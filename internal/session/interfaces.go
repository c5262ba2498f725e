package session

import (
	"context"

	"github.com/felixgeelhaar/escapekit/internal/domain"
)

// PlanBuilder produces a plan from form input
type PlanBuilder interface {
	BuildPlan(ctx context.Context, in domain.PlanInput) (*domain.Plan, error)
}

// AssetGenerator produces the secondary artifacts of a plan
type AssetGenerator interface {
	ImagePrompt(ctx context.Context, apiKey string, p domain.Puzzle, level domain.SchoolLevel) (string, error)
	WorksheetPrompt(p domain.Puzzle, level domain.SchoolLevel) (string, error)
	WebApp(ctx context.Context, apiKey string, p domain.Puzzle, previousReward *string, level domain.SchoolLevel) (string, error)
	FinalWebApp(ctx context.Context, apiKey string, plan *domain.Plan, level domain.SchoolLevel) (string, error)
	ZepAdvice(ctx context.Context, apiKey string, plan *domain.Plan, level domain.SchoolLevel) (string, error)
	ZepBackgroundPrompt(ctx context.Context, apiKey, theme, storyline string, level domain.SchoolLevel) (string, error)
}

// SessionService defines the session operations used by the daemon
// handlers and the MCP tools
type SessionService interface {
	// Create validates the input, registers a session and generates its plan
	Create(ctx context.Context, in domain.PlanInput) (*Session, error)

	// Get retrieves a session by ID
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session
	Delete(ctx context.Context, id string) error

	// GeneratePlan regenerates the plan of a session
	GeneratePlan(ctx context.Context, id string) (*Session, error)

	// GenerateAsset generates one asset and waits for the result
	GenerateAsset(ctx context.Context, id string, key SlotKey, force bool) (Slot, error)

	// StartAsset starts one asset generation in the background
	StartAsset(ctx context.Context, id string, key SlotKey, force bool) (Slot, error)

	// Copy returns an asset result and marks it copied
	Copy(ctx context.Context, id string, key SlotKey) (string, error)

	// CopyText renders a text export and marks it copied
	CopyText(ctx context.Context, id, target string) (string, error)

	// Count returns the number of live sessions
	Count() int
}

// Ensure Service implements SessionService
var _ SessionService = (*Service)(nil)
