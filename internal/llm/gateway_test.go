package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/felixgeelhaar/escapekit/internal/domain"
)

func newTestGateway(p *mockProvider) *Gateway {
	r := NewRegistry()
	r.Register(p.name, p)
	return NewGateway(r, GatewayConfig{})
}

func TestGateway_Execute_TrimsText(t *testing.T) {
	mock := &mockProvider{name: "gemini", response: &Response{Content: "\n  떠다니는 섬  \n"}}
	g := newTestGateway(mock)

	got, err := g.Execute(context.Background(), Call{Op: "image", APIKey: "k", Instruction: "그려줘"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got != "떠다니는 섬" {
		t.Errorf("Execute() = %q; want %q", got, "떠다니는 섬")
	}
	if mock.callCount() != 1 {
		t.Errorf("provider called %d times; want 1", mock.callCount())
	}
	if mock.requests[0].APIKey != "k" {
		t.Errorf("APIKey = %q; want request credential", mock.requests[0].APIKey)
	}
}

func TestGateway_Execute_EmptyInstruction(t *testing.T) {
	mock := &mockProvider{name: "gemini", response: &Response{Content: "x"}}
	g := newTestGateway(mock)

	_, err := g.Execute(context.Background(), Call{Op: "image", APIKey: "k", Instruction: "   "})
	if !errors.Is(err, domain.ErrInstructionMissing) {
		t.Errorf("Execute() error = %v; want ErrInstructionMissing", err)
	}
	if mock.callCount() != 0 {
		t.Error("provider must not be called for an empty instruction")
	}
}

func TestGateway_Execute_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.GenerationReason
	}{
		{"auth", &APIError{StatusCode: http.StatusUnauthorized}, domain.ReasonAuth},
		{"forbidden", &APIError{StatusCode: http.StatusForbidden}, domain.ReasonAuth},
		{"quota", &APIError{StatusCode: http.StatusTooManyRequests}, domain.ReasonQuota},
		{"local rate limit", ErrRateLimited, domain.ReasonQuota},
		{"unavailable", &APIError{StatusCode: http.StatusServiceUnavailable}, domain.ReasonUnavailable},
		{"server error", &APIError{StatusCode: http.StatusInternalServerError}, domain.ReasonTransport},
		{"missing key", ErrEmptyAPIKey, domain.ReasonAuth},
		{"network", errors.New("dial tcp: connection refused"), domain.ReasonTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(&mockProvider{name: "gemini", err: tt.err})

			_, err := g.Execute(context.Background(), Call{Op: "plan", Instruction: "x"})
			var genErr *domain.GenerationError
			if !errors.As(err, &genErr) {
				t.Fatalf("Execute() error = %v; want *GenerationError", err)
			}
			if genErr.Reason != tt.want {
				t.Errorf("Reason = %q; want %q", genErr.Reason, tt.want)
			}
			if genErr.Op != "plan" {
				t.Errorf("Op = %q; want plan", genErr.Op)
			}
			if !errors.Is(err, domain.ErrGeneration) {
				t.Error("error should match ErrGeneration")
			}
		})
	}
}

func TestGateway_Execute_EmptyResponse(t *testing.T) {
	g := newTestGateway(&mockProvider{name: "gemini", response: &Response{Content: "  "}})

	_, err := g.Execute(context.Background(), Call{Op: "zep", Instruction: "x"})
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) || genErr.Reason != domain.ReasonEmptyResponse {
		t.Errorf("Execute() error = %v; want empty_response", err)
	}
}

func TestGateway_ExecuteJSON(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantTitle string
		malformed bool
	}{
		{"plain json", `{"title":"시간 여행자"}`, "시간 여행자", false},
		{"fenced json", "```json\n{\"title\":\"비밀 연구소\"}\n```", "비밀 연구소", false},
		{"not json", "제목: 시간 여행자", "", true},
		{"truncated", `{"title":"시간`, "", true},
	}

	schema := &Schema{Type: TypeObject, Properties: map[string]*Schema{"title": {Type: TypeString}}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockProvider{name: "gemini", response: &Response{Content: tt.content}}
			g := newTestGateway(mock)

			var out struct {
				Title string `json:"title"`
			}
			err := g.ExecuteJSON(context.Background(), Call{Op: "plan", Instruction: "x", Schema: schema}, &out)

			if tt.malformed {
				if !domain.IsMalformed(err) {
					t.Errorf("ExecuteJSON() error = %v; want malformed_response", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExecuteJSON() error = %v", err)
			}
			if out.Title != tt.wantTitle {
				t.Errorf("Title = %q; want %q", out.Title, tt.wantTitle)
			}
			if mock.requests[0].Schema != schema {
				t.Error("schema should be forwarded to the provider")
			}
		})
	}
}

func TestGateway_ExecuteJSON_RequiresSchema(t *testing.T) {
	mock := &mockProvider{name: "gemini", response: &Response{Content: "{}"}}
	g := newTestGateway(mock)

	var out map[string]any
	if err := g.ExecuteJSON(context.Background(), Call{Op: "plan", Instruction: "x"}, &out); err == nil {
		t.Error("ExecuteJSON() expected error without schema")
	}
	if mock.callCount() != 0 {
		t.Error("provider must not be called without a schema")
	}
}

func TestGateway_SelectsConfiguredProvider(t *testing.T) {
	r := NewRegistry()
	gemini := &mockProvider{name: "gemini", response: &Response{Content: "g"}}
	ollama := &mockProvider{name: "ollama", response: &Response{Content: "o"}}
	r.Register("gemini", gemini)
	r.Register("ollama", ollama)

	g := NewGateway(r, GatewayConfig{Provider: "ollama", Model: "qwen"})
	got, err := g.Execute(context.Background(), Call{Op: "x", Instruction: "x"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got != "o" {
		t.Errorf("Execute() = %q; want ollama answer", got)
	}
	if ollama.requests[0].Model != "qwen" {
		t.Errorf("Model = %q; want qwen", ollama.requests[0].Model)
	}

	missing := NewGateway(r, GatewayConfig{Provider: "nope"})
	_, err = missing.Execute(context.Background(), Call{Op: "x", Instruction: "x"})
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) || genErr.Reason != domain.ReasonUnavailable {
		t.Errorf("Execute() error = %v; want unavailable", err)
	}
}
