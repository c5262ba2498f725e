package assets

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/escapekit/internal/domain"
)

// ImagePromptInstruction asks for a one-paragraph illustration prompt for a
// puzzle scene
func ImagePromptInstruction(p domain.Puzzle, level domain.SchoolLevel) string {
	var sb strings.Builder

	sb.WriteString("Gemini 또는 Midjourney와 같은 이미지 생성 도구를 위한 상세하고 고품질의 이미지 생성 프롬프트를 한국어로 만들어 줘.\n")
	sb.WriteString(fmt.Sprintf("이 이미지는 %s 학생들을 위한 교실 퍼즐에 사용될 거야.\n", level))
	sb.WriteString("스타일은 시각적으로 매력적이고, 활기차며, 명확한 디지털 일러스트 또는 만화 스타일이어야 해. ")
	sb.WriteString("어린이/청소년에게 적합해야 하고, 너무 복잡하거나 무서운 비주얼은 피해야 해.\n\n")
	sb.WriteString(fmt.Sprintf("퍼즐 제목: %q\n", p.PuzzleTitle))
	sb.WriteString(fmt.Sprintf("퍼즐 설명: %q\n\n", p.Description))
	sb.WriteString("이 퍼즐을 바탕으로 원하는 이미지를 묘사하는 간결하고 상세한 한 단락의 글을 생성해 줘. ")
	sb.WriteString("핵심적인 시각 요소, 캐릭터, 배경, 분위기에 초점을 맞춰. ")
	sb.WriteString("\"프롬프트를 만드세요\" 같은 지시 사항이나 따옴표는 포함하지 말고, 프롬프트 내용만 제공해 줘.")

	return sb.String()
}

// WorksheetInstruction formats the worksheet authoring template. It is a
// pure function of its arguments.
func WorksheetInstruction(p domain.Puzzle, level domain.SchoolLevel) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s 학생용 활동지 생성 프롬프트\n\n", level))
	sb.WriteString("## 목표\n")
	sb.WriteString("아래 퍼즐 정보를 바탕으로, 학생들이 흥미를 느끼고 학습 목표에 도달할 수 있도록 잘 구조화된 1페이지 분량의 활동지를 만들어 주세요.\n\n")

	sb.WriteString("## 활동지 기본 정보\n")
	sb.WriteString(fmt.Sprintf("- **대상:** %s\n", level))
	sb.WriteString(fmt.Sprintf("- **퍼즐 제목:** %s\n", p.PuzzleTitle))
	sb.WriteString(fmt.Sprintf("- **퍼즐 내용:** %s\n", p.Description))
	sb.WriteString(fmt.Sprintf("- **학습 연계:** %s\n\n", p.ConnectionToContent))

	sb.WriteString("## 활동지 포함 요소 및 요청사항\n")
	sb.WriteString("1. **제목:** 퍼즐 제목을 활용하여 흥미로운 활동지 제목을 만들어 주세요.\n")
	sb.WriteString("2. **기본 정보:** '이름'과 '날짜'를 적는 칸을 포함해 주세요.\n")
	sb.WriteString("3. **안내문:** 학생들이 무엇을 해야 하는지 명확하고 간결하게 안내하는 문장을 1~2개 넣어주세요.\n")
	sb.WriteString("4. **문제 제시:** 퍼즐 내용을 학생들이 이해하기 쉽게 재구성하여 제시해 주세요. 필요한 경우 그림이나 도표를 넣을 자리를 [그림] 또는 [표]와 같이 표시해 주세요.\n")
	sb.WriteString("5. **활동 공간:** 학생들이 답을 적거나, 그림을 그리거나, 계산을 할 수 있는 충분한 공간을 네모 박스나 빈칸 형태로 마련해 주세요.\n")
	sb.WriteString(fmt.Sprintf("6. **디자인:** %s 학생들의 눈높이에 맞는 아이콘이나 테두리를 활용하고, 깔끔하고 인쇄하기 좋은 형태로 구성해 주세요.\n\n", level))
	sb.WriteString("위 내용을 바탕으로 바로 인쇄해서 사용할 수 있는 완성도 높은 활동지를 생성해 주세요.")

	return sb.String()
}

const noSpoilerRules = `### PRIME DIRECTIVE: ZERO HINTS, ZERO SPOILERS
The player must work out every answer alone.
- The correct answer (for the lock screen or the main puzzle) MUST NOT appear anywhere the user can see it: not in page text, not in HTML comments, not in attributes, not in an unobfuscated JavaScript variable name.
- No placeholder and no example ("예: ...") may equal, contain or hint at an answer. Placeholders are generic only, such as "정답을 입력하세요" or "숫자 입력".
- A leaked answer is a total failure of the task.
`

const uxRules = `### UI/UX
- Font: use the system font stack on body (system-ui, -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif). Do not import external fonts.
- Layout: centered, clean, modern and fully responsive (mobile-first). Use Flexbox or Grid, no fixed widths.
- Feedback: on-page visual cues only. NEVER use alert(), confirm() or prompt(). Wrong answers get a gentle shake or a brief color change.
- All user-facing text must be in Korean.

### TECHNICAL
- CODE ONLY: answer with raw HTML starting with <!DOCTYPE html>. No markdown.
- Single file: HTML, CSS in <style> and JavaScript in <script>. Vanilla JS, no external libraries, no network requests.
- Every interactive element MUST be wired to working logic. A button without an event listener is a bug; an input whose value is never checked is a bug.
- Compare text answers with .trim() and .toLowerCase().
`

// WebAppInstruction builds the lock, play and reward blueprint for one
// puzzle's mini-game. previousReward is the unlock credential; nil means the
// puzzle is first in the chain and has no lock screen.
func WebAppInstruction(p domain.Puzzle, previousReward *string, level domain.SchoolLevel) string {
	var sb strings.Builder

	sb.WriteString("You are a world-class game developer and UX designer building one mini-game in a chain of interconnected educational escape room games. ")
	sb.WriteString("The reward of one puzzle MUST be the key to the next.\n")
	sb.WriteString(fmt.Sprintf("Create ONE flawless, self-contained HTML file that engages a %s student and follows the blueprint below exactly.\n\n", level))

	sb.WriteString(noSpoilerRules)
	sb.WriteString("\n### GAME FLOW: Lock -> Play -> Reward\n\n")

	if previousReward != nil {
		sb.WriteString("a. LOCK SCREEN (mandatory)\n")
		sb.WriteString("- The game MUST begin on a lock screen that asks for a single password.\n")
		sb.WriteString("- The password input starts blank with the generic placeholder '단서를 입력하세요'.\n")
		sb.WriteString(fmt.Sprintf("- FOR YOUR JAVASCRIPT LOGIC ONLY: the correct password is the exact string '%s'.\n", *previousReward))
		sb.WriteString("- That password MUST NEVER appear in any user-visible markup, text, attribute or comment.\n\n")
	} else {
		sb.WriteString("a. LOCK SCREEN\n")
		sb.WriteString("- This is the first puzzle in the chain. There is no lock screen: start directly on the play screen.\n\n")
	}

	sb.WriteString("b. PLAY SCREEN\n")
	sb.WriteString("- Show the mission first:\n")
	sb.WriteString(fmt.Sprintf("  <div class=\"puzzle-container\"><h1 class=\"puzzle-title\">%s</h1><p class=\"puzzle-description\">%s</p></div>\n", p.PuzzleTitle, p.Description))
	sb.WriteString("- Turn the description into a creative interactive game below it. Avoid a bare text box: use drag-and-drop, click-to-find, virtual keypads, sliders, switches or sequences so that playing leads the student to the answer.\n\n")

	sb.WriteString("c. REWARD SCREEN\n")
	sb.WriteString("- On success, animate a reveal (a chest opening, a lock clicking open) and then show the reward of THIS puzzle verbatim:\n")
	sb.WriteString(fmt.Sprintf("  <div class=\"reward-container\"><h1>성공! 다음 단서를 획득했습니다:</h1><p class=\"reward-text\">%s</p></div>\n", p.Reward))
	sb.WriteString("- Style .reward-text large, bold, green on a light green background with a dashed border, and fade the container in.\n\n")

	sb.WriteString(uxRules)
	sb.WriteString(fmt.Sprintf("- The <title> tag MUST be: <title>%s</title>\n\n", p.PuzzleTitle))

	prev := "없음"
	if previousReward != nil {
		prev = *previousReward
	}
	sb.WriteString("### PUZZLE BRIEFING\n")
	sb.WriteString(fmt.Sprintf("- Title: %s\n", p.PuzzleTitle))
	sb.WriteString(fmt.Sprintf("- Description: %s\n", p.Description))
	sb.WriteString(fmt.Sprintf("- Learning Connection: %s\n", p.ConnectionToContent))
	sb.WriteString(fmt.Sprintf("- Final Reward (revealed on win): %s\n", p.Reward))
	sb.WriteString(fmt.Sprintf("- Previous Puzzle's Reward (the key to unlock this game): %s\n\n", prev))
	sb.WriteString("Execute this blueprint with precision. The result must be a bug-free, fully working mini-game.")

	return sb.String()
}

// FinalWebAppInstruction builds the single-stage final lock with a savable
// certificate
func FinalWebAppInstruction(plan *domain.Plan, level domain.SchoolLevel) string {
	var sb strings.Builder

	sb.WriteString("You are a world-class game developer creating the grand finale of an educational escape room. ")
	sb.WriteString("The student enters one final password to win and receives a savable certificate. ")
	sb.WriteString("Your output must be a single, self-contained HTML file.\n\n")

	sb.WriteString(noSpoilerRules)
	sb.WriteString("- The final password input uses the generic placeholder '최종 비밀번호 입력'.\n\n")

	sb.WriteString("### 1. THE FINAL LOCK\n")
	sb.WriteString(fmt.Sprintf("- Theme: %q. Show the mission:\n", plan.Theme))
	sb.WriteString(fmt.Sprintf("  <div class=\"mission-briefing\"><h1>%s</h1><p class=\"final-hint\">%s</p></div>\n", plan.Title, plan.FinalPasswordHint))
	sb.WriteString("- One password input and one submit button.\n")
	sb.WriteString(fmt.Sprintf("- FOR YOUR JAVASCRIPT LOGIC ONLY: the correct password is '%s'.\n\n", plan.FinalPassword))

	sb.WriteString("### 2. VICTORY SCREEN AND CERTIFICATE\n")
	sb.WriteString("- On the correct password, hide the form and show a \"탈출 성공!\" view containing <div id=\"certificate\"> styled as a formal certificate.\n")
	sb.WriteString("- The certificate MUST include:\n")
	sb.WriteString("  - the title \"방탈출 성공 인증서 (Certificate of Escape)\"\n")
	sb.WriteString("  - <input type=\"text\" id=\"student-name-input\" placeholder=\"이름을 입력하여 인증서 완성하기\">\n")
	sb.WriteString("  - <h2 id=\"certificate-name\" class=\"name-display\"></h2>, updated live on every input event of #student-name-input\n")
	sb.WriteString(fmt.Sprintf("  - <h3 class=\"mission-title\">미션: %s</h3>\n", plan.Title))
	sb.WriteString("  - <p id=\"certificate-date\" class=\"date\"></p>, filled with today's date by JavaScript\n")
	sb.WriteString(fmt.Sprintf("  - <p class=\"conclusion-text\">%s</p>\n", plan.Conclusion))
	sb.WriteString("  - <button id=\"save-button\">인증서 이미지로 저장</button>\n\n")

	sb.WriteString("### 3. SAVE AS IMAGE (vanilla JS only)\n")
	sb.WriteString("When #save-button is clicked:\n")
	sb.WriteString("1. Read the student name; use \"탐험가\" when it is empty.\n")
	sb.WriteString("2. Build an SVG string that reproduces the certificate with <text> elements (title, name, mission, date, conclusion) and basic styling.\n")
	sb.WriteString("3. Create a Blob of type 'image/svg+xml' and an object URL with URL.createObjectURL().\n")
	sb.WriteString("4. Create a temporary <a>, set href to the URL and download to '방탈출_성공_인증서.svg', click it.\n")
	sb.WriteString("5. Release the URL with URL.revokeObjectURL().\n\n")

	sb.WriteString(uxRules)
	sb.WriteString(fmt.Sprintf("- The <title> tag MUST be: <title>%s - 최종 도전</title>\n\n", plan.Title))

	sb.WriteString("### FINAL CHALLENGE BRIEFING\n")
	sb.WriteString(fmt.Sprintf("- Escape Room Title: %s\n", plan.Title))
	sb.WriteString(fmt.Sprintf("- Theme: %s\n", plan.Theme))
	sb.WriteString(fmt.Sprintf("- Final Password Hint: %s\n", plan.FinalPasswordHint))
	sb.WriteString(fmt.Sprintf("- Final Password (for your JS logic ONLY): %s\n", plan.FinalPassword))
	sb.WriteString(fmt.Sprintf("- Concluding Lesson: %s\n", plan.Conclusion))
	sb.WriteString(fmt.Sprintf("- Target Audience: %s students\n\n", level))
	sb.WriteString("Create a bug-free, fully working final challenge with a savable certificate.")

	return sb.String()
}

// ZepAdviceInstruction asks for a markdown guide for building the plan as a
// ZEP (zep.us) metaverse map, with one room section per puzzle
func ZepAdviceInstruction(plan *domain.Plan, level domain.SchoolLevel) string {
	var sb strings.Builder

	sb.WriteString("당신은 ZEP(zep.us) 플랫폼을 활용한 메타버스 기반 학습 설계 전문가입니다.\n")
	sb.WriteString(fmt.Sprintf("아래에 제공된 %s 학생들을 위한 방탈출 계획을 바탕으로, 교사가 이 경험을 ZEP에서 어떻게 구축할 수 있는지에 대한 매우 상세하고 구체적인 가이드를 작성해 주세요.\n", level))
	sb.WriteString("가이드는 ZEP 초보 사용자도 쉽게 이해할 수 있도록 실용적이고 단계별로 작성되어야 합니다. ")
	sb.WriteString("응답은 마크다운 형식으로 구성하고, 전체 응답은 반드시 한국어로 작성되어야 합니다.\n\n")

	sb.WriteString("**방탈출 계획 세부 정보:**\n")
	sb.WriteString(fmt.Sprintf("- **제목:** %s\n", plan.Title))
	sb.WriteString(fmt.Sprintf("- **테마:** %s\n", plan.Theme))
	sb.WriteString(fmt.Sprintf("- **스토리라인:** %s\n", plan.Storyline))
	sb.WriteString("- **퍼즐:**\n")
	for _, p := range plan.Puzzles {
		sb.WriteString(fmt.Sprintf("  - %s: %s\n    - 보상: %s\n", p.PuzzleTitle, p.Description, p.Reward))
	}

	sb.WriteString("\n**가이드에는 다음 섹션이 반드시 포함되어야 합니다:**\n\n")

	sb.WriteString("### 1. 전체 맵 컨셉 및 흐름\n")
	sb.WriteString("- 하나의 큰 맵과 여러 개의 연결된 맵 중 적합한 레이아웃을 제안해 주세요.\n")
	sb.WriteString("- 테마와 스토리에 맞는 핵심 장소들을 제안하고, 학생들이 퍼즐 순서대로 자연스럽게 이동할 동선을 설명해 주세요.\n\n")

	sb.WriteString("### 2. 시작 및 종료 지점 설정\n")
	sb.WriteString("- 학생들이 처음 스폰될 시작 지점과 최종 탈출 지점을 어떻게 꾸미면 좋을지 아이디어를 주세요.\n")
	sb.WriteString("- 도입 스토리를 전달하기 위한 NPC나 오브젝트 배치 팁을 알려주세요.\n\n")

	sb.WriteString("### 3. 방별 상세 구성 (Room-by-Room Breakdown)\n")
	sb.WriteString("아래의 모든 방에 대해 각각 다음 네 가지를 구체적으로 설명해 주세요.\n")
	for i, p := range plan.Puzzles {
		next := "최종 탈출 지점"
		if i+1 < len(plan.Puzzles) {
			next = fmt.Sprintf("'%s' 방", plan.Puzzles[i+1].PuzzleTitle)
		}
		sb.WriteString(fmt.Sprintf("#### 방 %d: '%s'\n", i+1, p.PuzzleTitle))
		sb.WriteString("- **시각적 테마 및 레이아웃:** 이 방을 어떤 모습으로 꾸밀지 묘사해 주세요.\n")
		sb.WriteString("- **퍼즐 제시 방법:** NPC 대화, 표지판, 암호문이 적힌 오브젝트 등 ZEP 오브젝트로 퍼즐을 어떻게 제시할지 설명해 주세요.\n")
		sb.WriteString("- **상호작용 오브젝트:** 정답을 입력하거나 단서를 조합할 오브젝트(비밀번호 입력 도어, 아이템 트리거 등)와 설정 방법을 알려주세요.\n")
		sb.WriteString(fmt.Sprintf("- **흐름 연결:** 이 방에서 얻는 '%s'를 %s(으)로 어떻게 가져가는지 설명해 주세요.\n", p.Reward, next))
	}
	sb.WriteString("\n")

	sb.WriteString("### 4. 몰입감 향상을 위한 팁\n")
	sb.WriteString("- 테마에 맞는 배경 음악, 음향 효과, 시각적 장식물을 추천해 주세요.\n")
	sb.WriteString("- 스토리를 더욱 풍부하게 만들어 줄 NPC 대사 작성 팁을 알려주세요.\n\n")
	sb.WriteString("위 지침에 따라 매우 구체적이고 실용적인 가이드를 한국어로 작성해 주세요.")

	return sb.String()
}

// ZepBackgroundInstruction asks for a one-paragraph top-down or isometric
// map background prompt
func ZepBackgroundInstruction(theme, storyline string, level domain.SchoolLevel) string {
	var sb strings.Builder

	sb.WriteString("Gemini와 같은 이미지 생성 도구를 위한 상세하고 고품질의 이미지 생성 프롬프트를 한국어로 만들어 줘.\n")
	sb.WriteString(fmt.Sprintf("이 이미지는 %s 학생들을 위한 ZEP 메타버스 교실의 탑다운 또는 아이소메트릭 뷰 배경 맵으로 사용될 거야.\n", level))
	sb.WriteString("스타일은 ZEP의 미학에 어울리는 활기차고, 명확하며, 약간 만화 같은 디지털 아트 또는 픽셀 아트 스타일이어야 해. 어린이/청소년 친화적이어야 해.\n\n")
	sb.WriteString(fmt.Sprintf("**테마:** %q\n", theme))
	sb.WriteString(fmt.Sprintf("**스토리라인 일부:** %q\n\n", storyline))
	sb.WriteString("테마와 스토리를 바탕으로 원하는 맵을 묘사하는 간결하고 상세한 한 단락의 글을 생성해 줘. ")
	sb.WriteString("핵심 구역, 랜드마크, 전체적인 색상 팔레트, 분위기에 초점을 맞추고, 시점은 탑다운 또는 아이소메트릭 뷰여야 해. ")
	sb.WriteString("\"프롬프트를 만드세요\" 같은 지시 사항이나 따옴표는 포함하지 말고, 프롬프트 내용만 제공해 줘.")

	return sb.String()
}
