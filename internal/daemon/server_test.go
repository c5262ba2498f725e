package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/felixgeelhaar/escapekit/internal/config"
	"github.com/felixgeelhaar/escapekit/internal/llm"
	"github.com/felixgeelhaar/escapekit/internal/session"
)

type sessionResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Plan   *struct {
		Title   string `json:"title"`
		Puzzles []struct {
			Reward string `json:"reward"`
		} `json:"puzzles"`
	} `json:"plan"`
	Assets     []session.Slot    `json:"assets"`
	Errors     map[string]string `json:"errors"`
	TextCopied []string          `json:"text_copied"`
}

func createTestSession(t *testing.T, s *Server) sessionResponse {
	t.Helper()

	body := `{"credential":"` + testCredential + `","level":"초등","room_type":"스토리텔링형","learning_objectives":"분수의 크기를 비교할 수 있다."}`
	w := serve(s, http.MethodPost, "/v1/sessions", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d; want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if strings.Contains(w.Body.String(), testCredential) {
		t.Fatal("session view must not contain the credential")
	}

	var resp sessionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	cfg := config.DefaultLocalConfig()
	cfg.Daemon.Port = -1

	if _, err := NewEngine(cfg, EngineOptions{Providers: llm.NewRegistry()}); err == nil {
		t.Error("NewEngine() should reject an invalid config")
	}
}

func TestNewEngine_UnknownDefaultProvider(t *testing.T) {
	cfg := config.DefaultLocalConfig()

	// the injected registry has no gemini provider
	_, err := NewEngine(cfg, EngineOptions{Providers: llm.NewRegistry()})
	if !errors.Is(err, llm.ErrProviderNotFound) {
		t.Errorf("NewEngine() error = %v; want %v", err, llm.ErrProviderNotFound)
	}
}

func TestServer_PlanWorkflow(t *testing.T) {
	s, provider := newEngineServer(t)

	sess := createTestSession(t, s)
	if sess.Status != string(session.StatusReady) {
		t.Fatalf("status = %q; want ready", sess.Status)
	}
	if sess.Plan == nil || sess.Plan.Title != "분수 왕국 탈출" {
		t.Fatalf("plan = %+v; want title 분수 왕국 탈출", sess.Plan)
	}
	if len(sess.Assets) != 3*3+3 {
		t.Errorf("len(assets) = %d; want 12", len(sess.Assets))
	}
	for _, slot := range sess.Assets {
		if slot.State != session.StateAbsent {
			t.Errorf("slot %s = %q; want absent", slot.Key, slot.State)
		}
	}

	base := "/v1/sessions/" + sess.ID

	w := serve(s, http.MethodPost, base+"/puzzles/1/assets/webapp?wait=true", "")
	if w.Code != http.StatusOK {
		t.Fatalf("generate status = %d; want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var slot session.Slot
	if err := json.NewDecoder(w.Body).Decode(&slot); err != nil {
		t.Fatalf("decode slot: %v", err)
	}
	if slot.State != session.StateReady {
		t.Errorf("state = %q; want ready", slot.State)
	}
	if strings.HasPrefix(slot.Result, "```") {
		t.Errorf("result should have its code fence stripped: %q", slot.Result)
	}

	w = serve(s, http.MethodPost, base+"/puzzles/1/assets/webapp?wait=true", "")
	if w.Code != http.StatusConflict {
		t.Errorf("regenerate without force status = %d; want %d", w.Code, http.StatusConflict)
	}

	w = serve(s, http.MethodPost, base+"/puzzles/1/assets/webapp/open", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("open status = %d; want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	var link struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(w.Body).Decode(&link); err != nil {
		t.Fatalf("decode link: %v", err)
	}
	w = serve(s, http.MethodGet, link.Path, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "잠금 화면") {
		t.Errorf("artifact status = %d body = %q", w.Code, w.Body.String())
	}

	w = serve(s, http.MethodGet, base+"/puzzles/1/assets/webapp/download", "")
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Errorf("Content-Disposition = %q; want attachment", cd)
	}

	w = serve(s, http.MethodPost, base+"/puzzles/0/assets/image/open", "")
	if w.Code != http.StatusConflict {
		t.Errorf("open without result status = %d; want %d", w.Code, http.StatusConflict)
	}

	for _, key := range provider.keys() {
		if key != testCredential {
			t.Errorf("provider got credential %q; want %q", key, testCredential)
		}
	}
}

func TestServer_TextExport(t *testing.T) {
	s, _ := newEngineServer(t)
	sess := createTestSession(t, s)
	base := "/v1/sessions/" + sess.ID

	w := serve(s, http.MethodGet, base+"/text/full", "")
	if w.Code != http.StatusOK {
		t.Fatalf("text status = %d; want %d", w.Code, http.StatusOK)
	}
	resp := decodeBody(t, w)
	text, _ := resp["text"].(string)
	if !strings.HasPrefix(text, "제목: 분수 왕국 탈출") {
		t.Errorf("full text starts with %q", text[:min(len(text), 40)])
	}

	w = serve(s, http.MethodPost, base+"/text/puzzle:1/copy", "")
	if w.Code != http.StatusOK {
		t.Fatalf("copy status = %d; want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	resp = decodeBody(t, w)
	text, _ = resp["text"].(string)
	if !strings.HasPrefix(text, "두 번째 문") {
		t.Errorf("puzzle text = %q; want it to start with 두 번째 문", text)
	}

	w = serve(s, http.MethodGet, base+"/text/puzzle:7", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("out-of-range text status = %d; want %d", w.Code, http.StatusNotFound)
	}

	w = serve(s, http.MethodGet, base, "")
	var view sessionResponse
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if len(view.TextCopied) != 1 || view.TextCopied[0] != "puzzle:1" {
		t.Errorf("text_copied = %v; want [puzzle:1]", view.TextCopied)
	}

	w = serve(s, http.MethodGet, base+"/download?format=yaml", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "final_password: \"729\"") {
		t.Errorf("yaml download status = %d body = %q", w.Code, w.Body.String())
	}

	w = serve(s, http.MethodGet, base+"/download?format=pdf", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("pdf download status = %d; want %d", w.Code, http.StatusBadRequest)
	}
}

func TestServer_AssetFailureIsolated(t *testing.T) {
	s, provider := newEngineServer(t)
	sess := createTestSession(t, s)
	base := "/v1/sessions/" + sess.ID

	provider.mu.Lock()
	provider.fail = &llm.APIError{Provider: "gemini", StatusCode: 429, Body: "quota"}
	provider.mu.Unlock()

	w := serve(s, http.MethodPost, base+"/puzzles/0/assets/image?wait=true", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d; want %d: %s", w.Code, http.StatusBadGateway, w.Body.String())
	}

	provider.mu.Lock()
	provider.fail = nil
	provider.mu.Unlock()

	w = serve(s, http.MethodPost, base+"/assets/zep_advice?wait=true", "")
	if w.Code != http.StatusOK {
		t.Fatalf("zep status = %d; want %d", w.Code, http.StatusOK)
	}

	w = serve(s, http.MethodGet, base, "")
	var view sessionResponse
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if view.Errors["puzzle:0"] != session.FailureMessages[session.KindImage] {
		t.Errorf("errors[puzzle:0] = %q; want %q", view.Errors["puzzle:0"], session.FailureMessages[session.KindImage])
	}
	if _, ok := view.Errors["zep"]; ok {
		t.Error("zep should have no error")
	}
	if view.Plan == nil {
		t.Error("plan should survive an asset failure")
	}
}

func TestServer_Shutdown(t *testing.T) {
	s, _ := newEngineServer(t)

	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
