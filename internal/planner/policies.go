package planner

import "github.com/felixgeelhaar/escapekit/internal/domain"

// RoomPolicies maps each escape room subtype to the narrative rule the plan
// must follow. Every domain.RoomType has exactly one entry.
var RoomPolicies = map[domain.RoomType]string{
	domain.RoomStorytelling: "흥미진진한 이야기가 중심이 되어 학생들이 주인공이 된 것처럼 느끼게 해줘. 퍼즐은 스토리 진행을 위한 도구야.",
	domain.RoomProblem:      "스토리는 최소화하고, 논리적 사고력을 요구하는 다양한 유형의 문제들을 연속적으로 해결하는 데 집중해 줘.",
	domain.RoomExploration:  "미지의 공간을 탐험하고 단서를 발견하는 재미를 강조해 줘. 관찰력과 협동이 중요해.",
	domain.RoomMystery:      "학생들이 탐정이 되어 사건의 진실을 파헤치는 과정을 중심으로 구성해 줘.",
	domain.RoomHistorical:   "특정 역사적 배경 속에서 사건을 해결하며 자연스럽게 시대적 상황을 학습하도록 해줘.",
}

// Policy returns the narrative rule for t
func Policy(t domain.RoomType) (string, bool) {
	p, ok := RoomPolicies[t]
	return p, ok
}
