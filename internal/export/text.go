package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/escapekit/internal/domain"
)

// Text export targets
const (
	TargetFull       = "full"
	TargetConclusion = "conclusion"
	puzzlePrefix     = "puzzle:"
)

// PuzzleTarget returns the text target of the puzzle at index
func PuzzleTarget(index int) string {
	return puzzlePrefix + strconv.Itoa(index)
}

// RenderText renders a text target: "full", "conclusion" or "puzzle:<index>"
// with a zero-based index
func RenderText(plan *domain.Plan, target string) (string, error) {
	if plan == nil {
		return "", domain.ErrPlanNotReady
	}

	switch {
	case target == TargetFull:
		return RenderFullPlanText(plan), nil
	case target == TargetConclusion:
		return RenderConclusionText(plan), nil
	case strings.HasPrefix(target, puzzlePrefix):
		i, err := strconv.Atoi(strings.TrimPrefix(target, puzzlePrefix))
		if err != nil {
			return "", fmt.Errorf("%w: text target %q", domain.ErrInput, target)
		}
		p, err := plan.Puzzle(i)
		if err != nil {
			return "", err
		}
		return RenderPuzzleText(p), nil
	default:
		return "", fmt.Errorf("%w: text target %q", domain.ErrInput, target)
	}
}

// RenderFullPlanText concatenates every plan field into one block with
// fixed section labels. The output is deterministic.
func RenderFullPlanText(plan *domain.Plan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "제목: %s\n", plan.Title)
	fmt.Fprintf(&b, "테마: %s\n", plan.Theme)
	fmt.Fprintf(&b, "도입 스토리: %s\n\n", plan.Storyline)

	b.WriteString("[교사용 가이드]\n")
	fmt.Fprintf(&b, "준비사항: %s\n", strings.Join(plan.TeacherGuide.Preparation, ", "))
	fmt.Fprintf(&b, "진행팁: %s\n", strings.Join(plan.TeacherGuide.ImplementationTips, ", "))
	fmt.Fprintf(&b, "수준별 지도: %s\n\n", plan.TeacherGuide.Differentiation)

	b.WriteString("[진행 순서]\n")
	for i, step := range plan.Flow {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	b.WriteString("\n[퍼즐 상세]\n")
	puzzles := make([]string, len(plan.Puzzles))
	for i, p := range plan.Puzzles {
		puzzles[i] = fmt.Sprintf("퍼즐 %d: %s\n설명: %s\n보상: %s", i+1, p.PuzzleTitle, p.Description, p.Reward)
	}
	b.WriteString(strings.Join(puzzles, "\n\n"))

	b.WriteString("\n\n[마무리]\n")
	fmt.Fprintf(&b, "%s\n", plan.Conclusion)
	fmt.Fprintf(&b, "최종 비밀번호 힌트: %s\n", plan.FinalPasswordHint)
	fmt.Fprintf(&b, "최종 비밀번호: %s\n\n", plan.FinalPassword)

	b.WriteString("[준비물]\n")
	b.WriteString(strings.Join(plan.Materials, ", "))

	return strings.TrimSpace(b.String())
}

// RenderPuzzleText renders one puzzle for the per-puzzle copy action
func RenderPuzzleText(p domain.Puzzle) string {
	return fmt.Sprintf("%s\n\n%s\n\n[학습 연계]: %s\n\n[획득 보상]: %s",
		p.PuzzleTitle, p.Description, p.ConnectionToContent, p.Reward)
}

// RenderConclusionText renders the conclusion and the password hint. The
// password itself is never included.
func RenderConclusionText(plan *domain.Plan) string {
	return fmt.Sprintf("%s\n\n[최종 비밀번호 힌트]: %s", plan.Conclusion, plan.FinalPasswordHint)
}
