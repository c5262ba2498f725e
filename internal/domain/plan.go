package domain

import (
	"fmt"
	"strings"
)

// Plan shape bounds
const (
	MinFlowSteps = 3
	MaxFlowSteps = 5
	MinPuzzles   = 3
	MaxPuzzles   = 4
)

// PlanInput holds the teacher-supplied parameters for one plan request.
// The credential is kept in memory only and never serialised.
type PlanInput struct {
	Credential           string      `json:"-" yaml:"-"`
	Level                SchoolLevel `json:"level"`
	RoomType             RoomType    `json:"room_type"`
	LearningObjectives   string      `json:"learning_objectives"`
	AchievementStandards string      `json:"achievement_standards,omitempty"`
	LearningContent      string      `json:"learning_content,omitempty"`
	PuzzleIdeas          string      `json:"puzzle_ideas,omitempty"`
	EvaluationMethods    string      `json:"evaluation_methods,omitempty"`
}

// Validate checks the required fields. The credential is checked first so
// that a blank credential always blocks the request.
func (in PlanInput) Validate() error {
	if strings.TrimSpace(in.Credential) == "" {
		return NewValidationError("credential", "Gemini API 키를 입력해주세요. 상단의 가이드를 참고하세요.", ErrCredentialRequired)
	}
	if !in.Level.Valid() {
		return NewValidationError("level", "수업 수준을 선택해주세요.", ErrInvalidLevel)
	}
	if !in.RoomType.Valid() {
		return NewValidationError("room_type", "방탈출 유형을 선택해주세요.", ErrInvalidRoomType)
	}
	if strings.TrimSpace(in.LearningObjectives) == "" {
		return NewValidationError("learning_objectives", "학습 목표를 입력해주세요.", ErrObjectivesRequired)
	}
	return nil
}

// Puzzle is one chained challenge. Its reward unlocks the next puzzle's
// mini-game and contributes to the final password.
type Puzzle struct {
	PuzzleTitle         string `json:"puzzleTitle" yaml:"puzzle_title"`
	Description         string `json:"description" yaml:"description"`
	ConnectionToContent string `json:"connectionToContent" yaml:"connection_to_content"`
	Reward              string `json:"reward" yaml:"reward"`
}

// Complete reports whether every puzzle field is present
func (p Puzzle) Complete() bool {
	return strings.TrimSpace(p.PuzzleTitle) != "" &&
		strings.TrimSpace(p.Description) != "" &&
		strings.TrimSpace(p.ConnectionToContent) != "" &&
		strings.TrimSpace(p.Reward) != ""
}

// TeacherGuide holds the facilitation notes of a plan
type TeacherGuide struct {
	Preparation        []string `json:"preparation" yaml:"preparation"`
	ImplementationTips []string `json:"implementationTips" yaml:"implementation_tips"`
	Differentiation    string   `json:"differentiation" yaml:"differentiation"`
}

// Plan is the structured lesson plan produced by the first generation stage.
// It is immutable once created.
type Plan struct {
	Title             string       `json:"title" yaml:"title"`
	Theme             string       `json:"theme" yaml:"theme"`
	Storyline         string       `json:"storyline" yaml:"storyline"`
	Flow              []string     `json:"flow" yaml:"flow"`
	Puzzles           []Puzzle     `json:"puzzles" yaml:"puzzles"`
	Conclusion        string       `json:"conclusion" yaml:"conclusion"`
	Materials         []string     `json:"materials" yaml:"materials"`
	FinalPasswordHint string       `json:"finalPasswordHint" yaml:"final_password_hint"`
	FinalPassword     string       `json:"finalPassword" yaml:"final_password"`
	TeacherGuide      TeacherGuide `json:"teacherGuide" yaml:"teacher_guide"`
}

// Puzzle returns the puzzle at index i
func (p *Plan) Puzzle(i int) (Puzzle, error) {
	if i < 0 || i >= len(p.Puzzles) {
		return Puzzle{}, fmt.Errorf("%w: index %d", ErrPuzzleNotFound, i)
	}
	return p.Puzzles[i], nil
}

// PreviousReward returns the reward that unlocks puzzle i, which is the
// reward of puzzle i-1. The first puzzle has no unlock key.
func (p *Plan) PreviousReward(i int) (string, bool) {
	if i <= 0 || i > len(p.Puzzles) {
		return "", false
	}
	return p.Puzzles[i-1].Reward, true
}

// Rewards returns the puzzle rewards in chaining order
func (p *Plan) Rewards() []string {
	rewards := make([]string, len(p.Puzzles))
	for i, pz := range p.Puzzles {
		rewards[i] = pz.Reward
	}
	return rewards
}

// MissingFields returns the names of required fields that are absent or
// empty, and of arrays outside their bounds. An empty result means the plan
// is complete.
func (p *Plan) MissingFields() []string {
	var missing []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}

	check("title", p.Title)
	check("theme", p.Theme)
	check("storyline", p.Storyline)
	check("conclusion", p.Conclusion)
	check("finalPasswordHint", p.FinalPasswordHint)
	check("finalPassword", p.FinalPassword)
	check("teacherGuide.differentiation", p.TeacherGuide.Differentiation)

	if n := len(p.Flow); n < MinFlowSteps || n > MaxFlowSteps {
		missing = append(missing, fmt.Sprintf("flow[%d..%d] (got %d)", MinFlowSteps, MaxFlowSteps, n))
	}
	if n := len(p.Puzzles); n < MinPuzzles || n > MaxPuzzles {
		missing = append(missing, fmt.Sprintf("puzzles[%d..%d] (got %d)", MinPuzzles, MaxPuzzles, n))
	}
	for i, pz := range p.Puzzles {
		if !pz.Complete() {
			missing = append(missing, fmt.Sprintf("puzzles[%d]", i))
		}
	}
	if nonEmpty(p.Materials) == 0 {
		missing = append(missing, "materials")
	}
	if nonEmpty(p.TeacherGuide.Preparation) == 0 {
		missing = append(missing, "teacherGuide.preparation")
	}
	if nonEmpty(p.TeacherGuide.ImplementationTips) == 0 {
		missing = append(missing, "teacherGuide.implementationTips")
	}

	return missing
}

func nonEmpty(items []string) int {
	n := 0
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	return n
}
