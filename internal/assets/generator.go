package assets

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/escapekit/internal/domain"
	"github.com/felixgeelhaar/escapekit/internal/llm"
)

// Operation names, used for gateway calls and logs
const (
	OpImagePrompt     = "image_prompt"
	OpWorksheetPrompt = "worksheet_prompt"
	OpWebApp          = "webapp"
	OpFinalWebApp     = "final_webapp"
	OpZepAdvice       = "zep_advice"
	OpZepBackground   = "zep_background"
)

// Generator produces the secondary artifacts of a plan. Gateway errors are
// returned unchanged; input errors are raised before any call.
type Generator struct {
	exec llm.Executor
}

// NewGenerator creates a new asset generator
func NewGenerator(exec llm.Executor) *Generator {
	return &Generator{exec: exec}
}

// ImagePrompt generates an illustration prompt for a puzzle
func (g *Generator) ImagePrompt(ctx context.Context, apiKey string, p domain.Puzzle, level domain.SchoolLevel) (string, error) {
	if err := requirePuzzle(OpImagePrompt, p, false); err != nil {
		return "", err
	}
	return g.exec.Execute(ctx, llm.Call{
		Op:          OpImagePrompt,
		APIKey:      apiKey,
		Instruction: ImagePromptInstruction(p, level),
	})
}

// WorksheetPrompt formats the worksheet instruction locally. It never calls
// the generator and returns byte-identical output for identical input.
func (g *Generator) WorksheetPrompt(p domain.Puzzle, level domain.SchoolLevel) (string, error) {
	return WorksheetPrompt(p, level)
}

// WorksheetPrompt is the package-level form of Generator.WorksheetPrompt
func WorksheetPrompt(p domain.Puzzle, level domain.SchoolLevel) (string, error) {
	if err := requirePuzzle(OpWorksheetPrompt, p, false); err != nil {
		return "", err
	}
	if strings.TrimSpace(p.ConnectionToContent) == "" {
		return "", fmt.Errorf("%s: connectionToContent is empty: %w", OpWorksheetPrompt, domain.ErrInput)
	}
	return WorksheetInstruction(p, level), nil
}

// WebApp generates the lock, play and reward mini-game for a puzzle.
// previousReward is nil for the first puzzle.
func (g *Generator) WebApp(ctx context.Context, apiKey string, p domain.Puzzle, previousReward *string, level domain.SchoolLevel) (string, error) {
	if err := requirePuzzle(OpWebApp, p, true); err != nil {
		return "", err
	}
	if previousReward != nil && strings.TrimSpace(*previousReward) == "" {
		return "", fmt.Errorf("%s: previous reward is blank: %w", OpWebApp, domain.ErrInput)
	}

	html, err := g.exec.Execute(ctx, llm.Call{
		Op:          OpWebApp,
		APIKey:      apiKey,
		Instruction: WebAppInstruction(p, previousReward, level),
	})
	if err != nil {
		return "", err
	}
	return StripCodeFence(html), nil
}

// FinalWebApp generates the final password lock with a savable certificate
func (g *Generator) FinalWebApp(ctx context.Context, apiKey string, plan *domain.Plan, level domain.SchoolLevel) (string, error) {
	if plan == nil {
		return "", fmt.Errorf("%s: %w", OpFinalWebApp, domain.ErrPlanNotReady)
	}
	if strings.TrimSpace(plan.FinalPassword) == "" {
		return "", fmt.Errorf("%s: final password is empty: %w", OpFinalWebApp, domain.ErrInput)
	}

	html, err := g.exec.Execute(ctx, llm.Call{
		Op:          OpFinalWebApp,
		APIKey:      apiKey,
		Instruction: FinalWebAppInstruction(plan, level),
	})
	if err != nil {
		return "", err
	}
	return StripCodeFence(html), nil
}

// ZepAdvice generates the metaverse map building guide
func (g *Generator) ZepAdvice(ctx context.Context, apiKey string, plan *domain.Plan, level domain.SchoolLevel) (string, error) {
	if plan == nil {
		return "", fmt.Errorf("%s: %w", OpZepAdvice, domain.ErrPlanNotReady)
	}
	if len(plan.Puzzles) == 0 {
		return "", fmt.Errorf("%s: plan has no puzzles: %w", OpZepAdvice, domain.ErrInput)
	}

	return g.exec.Execute(ctx, llm.Call{
		Op:          OpZepAdvice,
		APIKey:      apiKey,
		Instruction: ZepAdviceInstruction(plan, level),
	})
}

// ZepBackgroundPrompt generates the map background image prompt
func (g *Generator) ZepBackgroundPrompt(ctx context.Context, apiKey, theme, storyline string, level domain.SchoolLevel) (string, error) {
	if strings.TrimSpace(theme) == "" {
		return "", fmt.Errorf("%s: theme is empty: %w", OpZepBackground, domain.ErrInput)
	}

	return g.exec.Execute(ctx, llm.Call{
		Op:          OpZepBackground,
		APIKey:      apiKey,
		Instruction: ZepBackgroundInstruction(theme, storyline, level),
	})
}

// StripCodeFence removes a leading ```html (or bare ```) marker and a
// trailing ``` marker, then trims the result
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "```html"):
		s = s[len("```html"):]
	case strings.HasPrefix(s, "```"):
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func requirePuzzle(op string, p domain.Puzzle, needReward bool) error {
	if strings.TrimSpace(p.PuzzleTitle) == "" || strings.TrimSpace(p.Description) == "" {
		return fmt.Errorf("%s: puzzle title and description are required: %w", op, domain.ErrInput)
	}
	if needReward && strings.TrimSpace(p.Reward) == "" {
		return fmt.Errorf("%s: puzzle reward is required: %w", op, domain.ErrInput)
	}
	return nil
}
