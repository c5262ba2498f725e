package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/escapekit/internal/domain"
	"github.com/felixgeelhaar/escapekit/internal/llm"
)

// OpBuildPlan names the plan generation in errors and logs
const OpBuildPlan = "build_plan"

// Assembler turns form input into a validated Plan
type Assembler struct {
	exec   llm.Executor
	logger *slog.Logger
}

// NewAssembler creates a new plan assembler
func NewAssembler(exec llm.Executor, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{exec: exec, logger: logger}
}

// BuildPlan validates the input, runs one structured generation and checks
// the returned document. It returns either a complete Plan or an error,
// never a partially populated Plan.
func (a *Assembler) BuildPlan(ctx context.Context, in domain.PlanInput) (*domain.Plan, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var plan domain.Plan
	err := a.exec.ExecuteJSON(ctx, llm.Call{
		Op:          OpBuildPlan,
		APIKey:      in.Credential,
		Instruction: BuildPrompt(in),
		Schema:      PlanSchema(),
	}, &plan)
	if err != nil {
		return nil, err
	}

	Normalize(&plan)
	if missing := plan.MissingFields(); len(missing) > 0 {
		return nil, domain.NewGenerationError(OpBuildPlan, domain.ReasonMalformedResponse,
			fmt.Errorf("missing or invalid fields: %s", strings.Join(missing, ", ")))
	}

	for _, f := range CheckPasswordChain(&plan) {
		a.logger.Warn("plan consistency", "code", f.Code, "detail", f.Message)
	}

	return &plan, nil
}

// Normalize trims every string and drops blank list entries in place
func Normalize(p *domain.Plan) {
	p.Title = strings.TrimSpace(p.Title)
	p.Theme = strings.TrimSpace(p.Theme)
	p.Storyline = strings.TrimSpace(p.Storyline)
	p.Conclusion = strings.TrimSpace(p.Conclusion)
	p.FinalPasswordHint = strings.TrimSpace(p.FinalPasswordHint)
	p.FinalPassword = strings.TrimSpace(p.FinalPassword)
	p.Flow = compact(p.Flow)
	p.Materials = compact(p.Materials)
	p.TeacherGuide.Preparation = compact(p.TeacherGuide.Preparation)
	p.TeacherGuide.ImplementationTips = compact(p.TeacherGuide.ImplementationTips)
	p.TeacherGuide.Differentiation = strings.TrimSpace(p.TeacherGuide.Differentiation)

	for i := range p.Puzzles {
		pz := &p.Puzzles[i]
		pz.PuzzleTitle = strings.TrimSpace(pz.PuzzleTitle)
		pz.Description = strings.TrimSpace(pz.Description)
		pz.ConnectionToContent = strings.TrimSpace(pz.ConnectionToContent)
		pz.Reward = strings.TrimSpace(pz.Reward)
	}
}

func compact(items []string) []string {
	out := items[:0]
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
