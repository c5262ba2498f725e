package session

import (
	"fmt"

	"github.com/felixgeelhaar/escapekit/internal/domain"
	"github.com/felixgeelhaar/escapekit/internal/export"
)

// AssetArtifact names a ready slot of plan for opening or saving. Web apps
// become HTML pages named after their puzzle; prompts and advice become
// text files.
func AssetArtifact(plan *domain.Plan, slot Slot) (export.Artifact, error) {
	if slot.Result == "" {
		return export.Artifact{}, fmt.Errorf("%w: %s", ErrNoResult, slot.Key)
	}

	key := slot.Key
	if !key.Kind.PlanLevel() && (key.Puzzle < 0 || key.Puzzle >= len(plan.Puzzles)) {
		return export.Artifact{}, fmt.Errorf("%w: index %d", domain.ErrPuzzleNotFound, key.Puzzle)
	}

	switch key.Kind {
	case KindWebApp:
		return export.HTMLArtifact(plan.Puzzles[key.Puzzle].PuzzleTitle, slot.Result), nil
	case KindFinalWebApp:
		return export.HTMLArtifact(plan.Title+" - 최종 도전", slot.Result), nil
	case KindZepAdvice, KindZepBackground:
		return export.TextArtifact(plan.Title+" "+string(key.Kind), slot.Result), nil
	default:
		return export.TextArtifact(plan.Puzzles[key.Puzzle].PuzzleTitle+" "+string(key.Kind), slot.Result), nil
	}
}
