package planner

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/felixgeelhaar/escapekit/internal/domain"
)

// Finding codes
const (
	FindingHintRevealsPassword = "hint_reveals_password"
	FindingPasswordNotInReward = "password_not_in_rewards"
)

// Finding is an advisory note about the reward chain. Findings never reject
// a plan: the generator is trusted, the teacher is informed.
type Finding struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CheckPasswordChain looks for two cheap signs of a broken chain: a hint
// that spells out the password, and password characters that appear in no
// reward at all.
func CheckPasswordChain(p *domain.Plan) []Finding {
	var findings []Finding

	password := strings.ToLower(strings.TrimSpace(p.FinalPassword))
	if password == "" {
		return nil
	}

	if len([]rune(password)) >= 2 && strings.Contains(strings.ToLower(p.FinalPasswordHint), password) {
		findings = append(findings, Finding{
			Code:    FindingHintRevealsPassword,
			Message: "최종 비밀번호 힌트에 비밀번호가 그대로 들어 있습니다.",
		})
	}

	rewards := strings.ToLower(strings.Join(p.Rewards(), " "))
	var absent []string
	seen := make(map[rune]bool)
	for _, r := range password {
		if seen[r] || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			continue
		}
		seen[r] = true
		if !strings.ContainsRune(rewards, r) {
			absent = append(absent, string(r))
		}
	}
	if len(absent) > 0 {
		findings = append(findings, Finding{
			Code:    FindingPasswordNotInReward,
			Message: fmt.Sprintf("최종 비밀번호의 글자 %s 이(가) 어떤 퍼즐 보상에도 나타나지 않습니다.", strings.Join(absent, ", ")),
		})
	}

	return findings
}
