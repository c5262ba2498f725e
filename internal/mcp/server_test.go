package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/escapekit/internal/domain"
	"github.com/felixgeelhaar/escapekit/internal/session"
)

// stubPlanner returns a fixed three-puzzle plan
type stubPlanner struct {
	err error
}

func (p *stubPlanner) BuildPlan(ctx context.Context, in domain.PlanInput) (*domain.Plan, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &domain.Plan{
		Title:     "시간 여행자의 일기",
		Theme:     "역사",
		Storyline: "조선 시대로 떨어진 학생들이 돌아갈 길을 찾는다.",
		Flow:      []string{"도입", "탐색", "마무리"},
		Puzzles: []domain.Puzzle{
			{PuzzleTitle: "훈민정음의 비밀", Description: "자음을 찾는다.", ConnectionToContent: "한글 창제", Reward: "4"},
			{PuzzleTitle: "측우기의 눈금", Description: "강수량을 읽는다.", ConnectionToContent: "과학 기구", Reward: "1"},
			{PuzzleTitle: "거북선 설계도", Description: "도형을 맞춘다.", ConnectionToContent: "임진왜란", Reward: "8"},
		},
		Conclusion:        "현재로 돌아왔다.",
		Materials:         []string{"활동지"},
		FinalPasswordHint: "보상을 차례로",
		FinalPassword:     "418",
		TeacherGuide: domain.TeacherGuide{
			Preparation:        []string{"자료 인쇄"},
			ImplementationTips: []string{"모둠 활동"},
			Differentiation:    "힌트 제공",
		},
	}, nil
}

// stubAssets echoes the addressed puzzle or plan
type stubAssets struct {
	fail    bool
	apiKeys []string
}

func (a *stubAssets) ImagePrompt(ctx context.Context, apiKey string, p domain.Puzzle, level domain.SchoolLevel) (string, error) {
	a.apiKeys = append(a.apiKeys, apiKey)
	if a.fail {
		return "", domain.NewGenerationError("image", domain.ReasonQuota, nil)
	}
	return "image of " + p.PuzzleTitle, nil
}

func (a *stubAssets) WorksheetPrompt(p domain.Puzzle, level domain.SchoolLevel) (string, error) {
	return "worksheet for " + p.PuzzleTitle, nil
}

func (a *stubAssets) WebApp(ctx context.Context, apiKey string, p domain.Puzzle, previousReward *string, level domain.SchoolLevel) (string, error) {
	return "<html>" + p.PuzzleTitle + "</html>", nil
}

func (a *stubAssets) FinalWebApp(ctx context.Context, apiKey string, plan *domain.Plan, level domain.SchoolLevel) (string, error) {
	return "<html>" + plan.FinalPassword + "</html>", nil
}

func (a *stubAssets) ZepAdvice(ctx context.Context, apiKey string, plan *domain.Plan, level domain.SchoolLevel) (string, error) {
	return "zep advice", nil
}

func (a *stubAssets) ZepBackgroundPrompt(ctx context.Context, apiKey, theme, storyline string, level domain.SchoolLevel) (string, error) {
	return "background of " + theme, nil
}

// setupTestServer creates a test MCP server over an in-memory session service
func setupTestServer(t *testing.T, planner *stubPlanner, assets *stubAssets) *Server {
	t.Helper()

	svc := session.NewService(session.NewRegistry(time.Hour), planner, assets, session.Config{})
	t.Cleanup(svc.Close)

	return NewServer(Config{
		SessionService: svc,
		Credential:     func() string { return "env-key" },
	})
}

func planInput() PlanInput {
	return PlanInput{
		Level:              "중등",
		RoomType:           "historical",
		LearningObjectives: "조선 전기 문화를 이해한다.",
	}
}

func TestNewServer(t *testing.T) {
	server := setupTestServer(t, &stubPlanner{}, &stubAssets{})

	if server.mcpServer == nil {
		t.Fatal("expected non-nil MCP server")
	}
	if server.sessionService == nil {
		t.Fatal("expected non-nil session service")
	}
	if server.GetMCPServer() == nil {
		t.Fatal("expected non-nil underlying MCP server")
	}
}

func TestServerConfig(t *testing.T) {
	server := NewServer(Config{})
	if server == nil {
		t.Fatal("expected non-nil server even with empty config")
	}
	if got := server.credential(); got != "" {
		t.Errorf("credential() = %q; want empty", got)
	}
}

func TestHandlePlan(t *testing.T) {
	server := setupTestServer(t, &stubPlanner{}, &stubAssets{})

	out, err := server.handlePlan(context.Background(), planInput())
	if err != nil {
		t.Fatalf("handlePlan() error = %v", err)
	}
	if out.SessionID == "" {
		t.Error("expected a session id")
	}
	if out.Title != "시간 여행자의 일기" {
		t.Errorf("Title = %q; want %q", out.Title, "시간 여행자의 일기")
	}
	if len(out.Puzzles) != 3 {
		t.Errorf("len(Puzzles) = %d; want 3", len(out.Puzzles))
	}
	if !strings.Contains(out.Text, "최종 비밀번호: 418") {
		t.Errorf("Text should contain the final password line:\n%s", out.Text)
	}
}

func TestHandlePlan_Errors(t *testing.T) {
	tests := []struct {
		name    string
		planner *stubPlanner
		input   func() PlanInput
		want    string
	}{
		{
			name:    "unknown level",
			planner: &stubPlanner{},
			input: func() PlanInput {
				in := planInput()
				in.Level = "대학"
				return in
			},
			want: "invalid school level",
		},
		{
			name:    "missing objectives",
			planner: &stubPlanner{},
			input: func() PlanInput {
				in := planInput()
				in.LearningObjectives = " "
				return in
			},
			want: "학습 목표를 입력해주세요.",
		},
		{
			name:    "generation failed",
			planner: &stubPlanner{err: domain.NewGenerationError("plan", domain.ReasonAuth, errors.New("401"))},
			input:   planInput,
			want:    session.PlanFailureMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(t, tt.planner, &stubAssets{})

			_, err := server.handlePlan(context.Background(), tt.input())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("handlePlan() error = %v; want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestHandlePlan_CredentialFromInput(t *testing.T) {
	assets := &stubAssets{}
	server := setupTestServer(t, &stubPlanner{}, assets)

	in := planInput()
	in.Credential = "tool-key"
	out, err := server.handlePlan(context.Background(), in)
	if err != nil {
		t.Fatalf("handlePlan() error = %v", err)
	}

	zero := 0
	if _, err := server.handleAsset(context.Background(), AssetInput{SessionID: out.SessionID, Kind: "image", Puzzle: &zero}); err != nil {
		t.Fatalf("handleAsset() error = %v", err)
	}
	if len(assets.apiKeys) != 1 || assets.apiKeys[0] != "tool-key" {
		t.Errorf("apiKeys = %v; want [tool-key]", assets.apiKeys)
	}
}

func TestHandleAsset(t *testing.T) {
	server := setupTestServer(t, &stubPlanner{}, &stubAssets{})
	plan, err := server.handlePlan(context.Background(), planInput())
	if err != nil {
		t.Fatalf("handlePlan() error = %v", err)
	}

	one := 1
	out, err := server.handleAsset(context.Background(), AssetInput{SessionID: plan.SessionID, Kind: "webapp", Puzzle: &one})
	if err != nil {
		t.Fatalf("handleAsset() error = %v", err)
	}
	if out.Key != "puzzle:1/webapp" {
		t.Errorf("Key = %q; want %q", out.Key, "puzzle:1/webapp")
	}
	if out.State != string(session.StateReady) {
		t.Errorf("State = %q; want ready", out.State)
	}
	if out.Result != "<html>측우기의 눈금</html>" {
		t.Errorf("Result = %q", out.Result)
	}

	out, err = server.handleAsset(context.Background(), AssetInput{SessionID: plan.SessionID, Kind: "final_webapp"})
	if err != nil {
		t.Fatalf("handleAsset(final_webapp) error = %v", err)
	}
	if out.Key != "plan/final_webapp" || out.Result != "<html>418</html>" {
		t.Errorf("final = %+v", out)
	}

	if _, err := server.handleAsset(context.Background(), AssetInput{SessionID: plan.SessionID, Kind: "webapp", Puzzle: &one}); !errors.Is(err, session.ErrAlreadyReady) {
		t.Errorf("regenerate error = %v; want %v", err, session.ErrAlreadyReady)
	}
	if _, err := server.handleAsset(context.Background(), AssetInput{SessionID: plan.SessionID, Kind: "webapp", Puzzle: &one, Force: true}); err != nil {
		t.Errorf("forced regenerate error = %v", err)
	}
}

func TestHandleAsset_Errors(t *testing.T) {
	server := setupTestServer(t, &stubPlanner{}, &stubAssets{})
	plan, err := server.handlePlan(context.Background(), planInput())
	if err != nil {
		t.Fatalf("handlePlan() error = %v", err)
	}

	five := 5
	tests := []struct {
		name  string
		input AssetInput
		want  error
	}{
		{"unknown kind", AssetInput{SessionID: plan.SessionID, Kind: "poster"}, domain.ErrInput},
		{"missing index", AssetInput{SessionID: plan.SessionID, Kind: "image"}, domain.ErrInput},
		{"index out of range", AssetInput{SessionID: plan.SessionID, Kind: "image", Puzzle: &five}, domain.ErrPuzzleNotFound},
		{"unknown session", AssetInput{SessionID: "nope", Kind: "zep_advice"}, session.ErrSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := server.handleAsset(context.Background(), tt.input); !errors.Is(err, tt.want) {
				t.Errorf("handleAsset() error = %v; want %v", err, tt.want)
			}
		})
	}
}

func TestHandleAsset_Failed(t *testing.T) {
	server := setupTestServer(t, &stubPlanner{}, &stubAssets{fail: true})
	plan, err := server.handlePlan(context.Background(), planInput())
	if err != nil {
		t.Fatalf("handlePlan() error = %v", err)
	}

	zero := 0
	out, err := server.handleAsset(context.Background(), AssetInput{SessionID: plan.SessionID, Kind: "image", Puzzle: &zero})
	if err != nil {
		t.Fatalf("handleAsset() error = %v", err)
	}
	if out.State != string(session.StateFailed) {
		t.Errorf("State = %q; want failed", out.State)
	}
	if out.Error != session.FailureMessages[session.KindImage] {
		t.Errorf("Error = %q; want %q", out.Error, session.FailureMessages[session.KindImage])
	}
}

func TestHandleText(t *testing.T) {
	server := setupTestServer(t, &stubPlanner{}, &stubAssets{})
	plan, err := server.handlePlan(context.Background(), planInput())
	if err != nil {
		t.Fatalf("handlePlan() error = %v", err)
	}

	tests := []struct {
		target string
		prefix string
	}{
		{"", "제목: 시간 여행자의 일기"},
		{"full", "제목: 시간 여행자의 일기"},
		{"puzzle:2", "거북선 설계도"},
		{"conclusion", "현재로 돌아왔다."},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			out, err := server.handleText(context.Background(), TextInput{SessionID: plan.SessionID, Target: tt.target})
			if err != nil {
				t.Fatalf("handleText() error = %v", err)
			}
			if !strings.HasPrefix(out.Text, tt.prefix) {
				t.Errorf("Text = %q; want prefix %q", out.Text, tt.prefix)
			}
		})
	}

	if _, err := server.handleText(context.Background(), TextInput{SessionID: plan.SessionID, Target: "puzzle:3"}); !errors.Is(err, domain.ErrPuzzleNotFound) {
		t.Errorf("out-of-range error = %v; want %v", err, domain.ErrPuzzleNotFound)
	}
}

func TestHandleStatusAndStop(t *testing.T) {
	server := setupTestServer(t, &stubPlanner{}, &stubAssets{})
	plan, err := server.handlePlan(context.Background(), planInput())
	if err != nil {
		t.Fatalf("handlePlan() error = %v", err)
	}

	status, err := server.handleStatus(context.Background(), StatusInput{SessionID: plan.SessionID})
	if err != nil {
		t.Fatalf("handleStatus() error = %v", err)
	}
	if status.Status != string(session.StatusReady) {
		t.Errorf("Status = %q; want ready", status.Status)
	}
	if len(status.Assets) != 12 {
		t.Errorf("len(Assets) = %d; want 12", len(status.Assets))
	}
	if status.Assets["plan/zep_advice"] != string(session.StateAbsent) {
		t.Errorf("zep_advice = %q; want absent", status.Assets["plan/zep_advice"])
	}

	if _, err := server.handleStop(context.Background(), StopInput{SessionID: plan.SessionID}); err != nil {
		t.Fatalf("handleStop() error = %v", err)
	}
	if _, err := server.handleStatus(context.Background(), StatusInput{SessionID: plan.SessionID}); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("status after stop error = %v; want %v", err, session.ErrSessionNotFound)
	}
}
