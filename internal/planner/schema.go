package planner

import (
	"github.com/felixgeelhaar/escapekit/internal/domain"
	"github.com/felixgeelhaar/escapekit/internal/llm"
)

func str(desc string) *llm.Schema {
	return &llm.Schema{Type: llm.TypeString, Description: desc}
}

func strList(desc string, min, max int) *llm.Schema {
	return &llm.Schema{
		Type:        llm.TypeArray,
		Description: desc,
		Items:       &llm.Schema{Type: llm.TypeString},
		MinItems:    min,
		MaxItems:    max,
	}
}

// PlanSchema returns the structured output contract mirroring domain.Plan.
// Every field is required and every array must be non-empty.
func PlanSchema() *llm.Schema {
	puzzle := &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"puzzleTitle":         str("퍼즐의 이름"),
			"description":         str("퍼즐에 대한 상세한 설명과 해결 방법"),
			"connectionToContent": str("이 퍼즐이 어떤 학습 내용과 관련되는지에 대한 설명"),
			"reward":              str("이 퍼즐을 해결했을 때 얻는 보상(단서, 아이템, 비밀번호 등). 다음 퍼즐의 잠금을 여는 열쇠이며 최종 비밀번호를 푸는 데 사용되어야 함."),
		},
		Required: []string{"puzzleTitle", "description", "connectionToContent", "reward"},
	}

	guide := &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"preparation":        strList("수업 전 교사가 준비해야 할 구체적인 단계", 1, 0),
			"implementationTips": strList("수업 진행 중 교사가 참고할 팁이나 유의사항", 1, 0),
			"differentiation":    str("학습 수준이 다른 학생들을 위한 개별화 지도 방안"),
		},
		Required: []string{"preparation", "implementationTips", "differentiation"},
	}

	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"title":     str("수업의 주제를 잘 나타내는 흥미로운 방탈출 제목"),
			"theme":     str("방탈출의 전체적인 컨셉 또는 테마 (예: 고대 유적 탐사, 미래 과학 실험실)"),
			"storyline": str("학생들의 몰입을 유도하는 흥미로운 도입 스토리"),
			"flow":      strList("방탈출의 전체적인 진행 순서 (3~5단계로 요약)", domain.MinFlowSteps, domain.MaxFlowSteps),
			"puzzles": {
				Type:        llm.TypeArray,
				Description: "학습 내용과 연계된 3-4개의 구체적인 퍼즐. 각 퍼즐은 서로 연결되어야 함.",
				Items:       puzzle,
				MinItems:    domain.MinPuzzles,
				MaxItems:    domain.MaxPuzzles,
			},
			"conclusion":        str("방탈출 성공 조건 및 학습 목표를 정리하는 마무리 활동"),
			"materials":         strList("수업에 필요한 준비물 목록", 1, 0),
			"finalPasswordHint": str("최종 비밀번호를 밝히지 않고 찾는 방법만 알려주는 힌트 (예: '지금까지 모은 모든 알파벳 조각을 순서대로 조합하세요.')"),
			"finalPassword":     str("모든 퍼즐의 보상(reward)을 순서대로 조합하여 만들 수 있는 최종 비밀번호"),
			"teacherGuide":      guide,
		},
		Required: []string{
			"title", "theme", "storyline", "flow", "puzzles", "conclusion",
			"materials", "finalPasswordHint", "finalPassword", "teacherGuide",
		},
	}
}
