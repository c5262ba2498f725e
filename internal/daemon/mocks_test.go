package daemon

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/felixgeelhaar/escapekit/internal/config"
	"github.com/felixgeelhaar/escapekit/internal/domain"
	"github.com/felixgeelhaar/escapekit/internal/export"
	"github.com/felixgeelhaar/escapekit/internal/llm"
	"github.com/felixgeelhaar/escapekit/internal/session"
)

var errNotImplemented = errors.New("mock: not implemented")

// mockSessionService implements session.SessionService for testing
type mockSessionService struct {
	createFn        func(ctx context.Context, in domain.PlanInput) (*session.Session, error)
	getFn           func(ctx context.Context, id string) (*session.Session, error)
	deleteFn        func(ctx context.Context, id string) error
	generatePlanFn  func(ctx context.Context, id string) (*session.Session, error)
	generateAssetFn func(ctx context.Context, id string, key session.SlotKey, force bool) (session.Slot, error)
	startAssetFn    func(ctx context.Context, id string, key session.SlotKey, force bool) (session.Slot, error)
	copyFn          func(ctx context.Context, id string, key session.SlotKey) (string, error)
	copyTextFn      func(ctx context.Context, id, target string) (string, error)
	count           int
}

func (m *mockSessionService) Create(ctx context.Context, in domain.PlanInput) (*session.Session, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return nil, errNotImplemented
}

func (m *mockSessionService) Get(ctx context.Context, id string) (*session.Session, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, errNotImplemented
}

func (m *mockSessionService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return errNotImplemented
}

func (m *mockSessionService) GeneratePlan(ctx context.Context, id string) (*session.Session, error) {
	if m.generatePlanFn != nil {
		return m.generatePlanFn(ctx, id)
	}
	return nil, errNotImplemented
}

func (m *mockSessionService) GenerateAsset(ctx context.Context, id string, key session.SlotKey, force bool) (session.Slot, error) {
	if m.generateAssetFn != nil {
		return m.generateAssetFn(ctx, id, key, force)
	}
	return session.Slot{}, errNotImplemented
}

func (m *mockSessionService) StartAsset(ctx context.Context, id string, key session.SlotKey, force bool) (session.Slot, error) {
	if m.startAssetFn != nil {
		return m.startAssetFn(ctx, id, key, force)
	}
	return session.Slot{}, errNotImplemented
}

func (m *mockSessionService) Copy(ctx context.Context, id string, key session.SlotKey) (string, error) {
	if m.copyFn != nil {
		return m.copyFn(ctx, id, key)
	}
	return "", errNotImplemented
}

func (m *mockSessionService) CopyText(ctx context.Context, id, target string) (string, error) {
	if m.copyTextFn != nil {
		return m.copyTextFn(ctx, id, target)
	}
	return "", errNotImplemented
}

func (m *mockSessionService) Count() int { return m.count }

var _ session.SessionService = (*mockSessionService)(nil)

// mockLLMRegistry implements llm.ProviderRegistry for testing
type mockLLMRegistry struct {
	listFn    func() []string
	defaultFn func() (llm.Provider, error)
	getFn     func(name string) (llm.Provider, error)
}

func (m *mockLLMRegistry) List() []string {
	if m.listFn != nil {
		return m.listFn()
	}
	return nil
}

func (m *mockLLMRegistry) Default() (llm.Provider, error) {
	if m.defaultFn != nil {
		return m.defaultFn()
	}
	return nil, errNotImplemented
}

func (m *mockLLMRegistry) Get(name string) (llm.Provider, error) {
	if m.getFn != nil {
		return m.getFn(name)
	}
	return nil, errNotImplemented
}

var _ llm.ProviderRegistry = (*mockLLMRegistry)(nil)

// serverWithMocks holds a server and its mock dependencies
type serverWithMocks struct {
	server   *Server
	sessions *mockSessionService
	registry *mockLLMRegistry
}

// newServerWithMocks creates a minimal Server with all mock dependencies injected
func newServerWithMocks() *serverWithMocks {
	sessions := &mockSessionService{}
	registry := &mockLLMRegistry{}

	srv := &Server{
		cfg:            config.DefaultLocalConfig(),
		router:         http.NewServeMux(),
		llmRegistry:    registry,
		sessionService: sessions,
		links:          export.NewLinks("/v1/artifacts/", export.DefaultLinkTTL),
	}
	srv.setupRoutes()

	return &serverWithMocks{
		server:   srv,
		sessions: sessions,
		registry: registry,
	}
}

// scriptedProvider answers structured requests with a fixed plan document
// and every other request with a fenced HTML page
type scriptedProvider struct {
	mu      sync.Mutex
	plan    string
	text    string
	fail    error
	apiKeys []string
}

func (p *scriptedProvider) Name() string { return "gemini" }

func (p *scriptedProvider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.apiKeys = append(p.apiKeys, req.APIKey)
	if p.fail != nil {
		return nil, p.fail
	}
	if req.Schema != nil {
		return &llm.Response{Content: p.plan}, nil
	}
	return &llm.Response{Content: p.text}, nil
}

func (p *scriptedProvider) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.apiKeys...)
}

const testPlanJSON = `{
  "title": "분수 왕국 탈출",
  "theme": "판타지",
  "storyline": "분수 왕국의 보물이 사라졌다.",
  "flow": ["도입", "퍼즐 해결", "마무리"],
  "puzzles": [
    {"puzzleTitle": "첫 번째 문", "description": "분수를 비교한다.", "connectionToContent": "분수의 크기 비교", "reward": "7"},
    {"puzzleTitle": "두 번째 문", "description": "분수를 더한다.", "connectionToContent": "분수의 덧셈", "reward": "2"},
    {"puzzleTitle": "세 번째 문", "description": "분수를 뺀다.", "connectionToContent": "분수의 뺄셈", "reward": "9"}
  ],
  "conclusion": "보물을 되찾았다.",
  "materials": ["활동지", "태블릿"],
  "finalPasswordHint": "보상을 순서대로 입력하세요.",
  "finalPassword": "729",
  "teacherGuide": {
    "preparation": ["활동지 인쇄"],
    "implementationTips": ["모둠별로 진행"],
    "differentiation": "힌트 카드를 제공한다."
  }
}`

const testPage = "```html\n<!DOCTYPE html><html><body>잠금 화면</body></html>\n```"

const testCredential = "AIza-daemon-test"

// newEngineServer builds a server on a real engine whose only provider is
// a scripted one
func newEngineServer(t *testing.T) (*Server, *scriptedProvider) {
	t.Helper()

	provider := &scriptedProvider{plan: testPlanJSON, text: testPage}
	registry := llm.NewRegistry()
	registry.Register("gemini", provider)

	cfg := config.DefaultLocalConfig()
	engine, err := NewEngine(cfg, EngineOptions{Providers: registry})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	t.Cleanup(engine.Close)

	server, err := NewServer(context.Background(), ServerConfig{Engine: engine})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(func() {
		if server.limiter != nil {
			_ = server.limiter.Close()
		}
	})
	return server, provider
}
