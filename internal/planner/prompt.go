package planner

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/escapekit/internal/domain"
)

// Placeholders written into the instruction for blank optional fields
const (
	AutoFillMarker  = "(자동 생성 필요)"
	NoIdeasFallback = "특별한 아이디어 없음. 학습 내용과 방탈출 유형에 맞게 창의적으로 제안해줘."
)

// BuildPrompt constructs the plan instruction for the generator. The subtype
// rules are listed in full so the generator sees the contrast, and the
// selected subtype is named explicitly.
func BuildPrompt(in domain.PlanInput) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("사용자가 제공한 정보를 바탕으로 %s 학생들을 위한 몰입형 방탈출 수업 계획을 생성해 줘.\n", in.Level))
	sb.WriteString("수업 계획은 교육적이고 재미있어야 하며, 주어진 학습 목표를 달성할 수 있도록 설계해야 해.\n\n")

	sb.WriteString("**중요 지침:**\n")
	sb.WriteString(fmt.Sprintf("1. **방탈출 유형 맞춤 설계:** '%s' 유형의 특징을 잘 살려서 전체 계획을 구성해 줘.\n", in.RoomType))
	for _, t := range domain.RoomTypes {
		sb.WriteString(fmt.Sprintf("   - **%s:** %s\n", t, RoomPolicies[t]))
	}
	sb.WriteString("2. **연결성 및 최종 비밀번호:** 각 퍼즐은 서로 유기적으로 연결되어야 해. ")
	sb.WriteString("앞선 퍼즐을 풀어야만 다음 퍼즐을 풀 수 있는 단서(보상)를 얻을 수 있는 구조로 설계해 줘. ")
	sb.WriteString("각 퍼즐의 보상(reward)은 다음 퍼즐의 잠금을 여는 열쇠로 쓰여야 해. ")
	sb.WriteString("모든 퍼즐의 보상들을 순서대로 조합하면 풀 수 있는 최종 비밀번호(finalPassword)를 반드시 만들고, ")
	sb.WriteString("최종 비밀번호 자체는 밝히지 않으면서 조합 방법을 설명하는 명확한 힌트(finalPasswordHint)를 함께 만들어야 해.\n")
	sb.WriteString(fmt.Sprintf("3. **자동 생성:** 만약 '성취 기준', '핵심 학습 내용', '평가 방법' 항목이 비어있거나 '%s'라고 되어 있다면, ", AutoFillMarker))
	sb.WriteString("'학습 목표'와 '수업 수준'에 가장 적합한 내용을 창의적으로 생성해서 채워줘.\n")
	sb.WriteString("4. **구체성:** 퍼즐과 문제들은 학생들이 바로 활동할 수 있을 정도로 구체적으로 설명해 줘.\n")
	sb.WriteString(fmt.Sprintf("5. **분량:** 진행 순서는 %d~%d단계, 퍼즐은 %d~%d개로 구성해 줘.\n\n",
		domain.MinFlowSteps, domain.MaxFlowSteps, domain.MinPuzzles, domain.MaxPuzzles))

	sb.WriteString("**수업 정보:**\n")
	sb.WriteString(fmt.Sprintf("- **수업 수준:** %s\n", in.Level))
	sb.WriteString(fmt.Sprintf("- **방탈출 유형:** %s\n", in.RoomType))
	sb.WriteString(fmt.Sprintf("- **학습 목표:** %s\n", strings.TrimSpace(in.LearningObjectives)))
	sb.WriteString(fmt.Sprintf("- **성취 기준:** %s\n", orDefault(in.AchievementStandards, AutoFillMarker)))
	sb.WriteString(fmt.Sprintf("- **핵심 학습 내용:** %s\n", orDefault(in.LearningContent, AutoFillMarker)))
	sb.WriteString(fmt.Sprintf("- **포함하고 싶은 문제/퍼즐 아이디어:** %s\n", orDefault(in.PuzzleIdeas, NoIdeasFallback)))
	sb.WriteString(fmt.Sprintf("- **평가 방법:** %s\n\n", orDefault(in.EvaluationMethods, AutoFillMarker)))

	sb.WriteString("위 정보와 지침을 활용하여 주어진 JSON 스키마에 맞춰 창의적이고 상세한 방탈출 계획을 생성해 줘.")

	return sb.String()
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
