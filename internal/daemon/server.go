package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/escapekit/internal/config"
	"github.com/felixgeelhaar/escapekit/internal/domain"
	"github.com/felixgeelhaar/escapekit/internal/export"
	"github.com/felixgeelhaar/escapekit/internal/llm"
	"github.com/felixgeelhaar/escapekit/internal/planner"
	"github.com/felixgeelhaar/escapekit/internal/session"
	"github.com/felixgeelhaar/escapekit/web"
)

// Version is reported by the status endpoint
const Version = "0.1.0"

// Server represents the escapekit daemon HTTP server
type Server struct {
	cfg    *config.LocalConfig
	server *http.Server
	router *http.ServeMux

	engine *Engine
	cancel context.CancelFunc
	runCtx context.Context

	// Services
	llmRegistry    llm.ProviderRegistry
	sessionService session.SessionService
	links          *export.Links
	limiter        *generationLimiter
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config *config.LocalConfig

	// Engine replaces the engine built from Config, mainly for tests
	Engine *Engine
}

// NewServer creates a new daemon server
func NewServer(ctx context.Context, cfg ServerConfig) (*Server, error) {
	engine := cfg.Engine
	if engine == nil {
		var err error
		engine, err = NewEngine(cfg.Config, EngineOptions{})
		if err != nil {
			return nil, fmt.Errorf("create engine: %w", err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	s := &Server{
		cfg:            engine.Config,
		router:         http.NewServeMux(),
		engine:         engine,
		cancel:         cancel,
		runCtx:         runCtx,
		llmRegistry:    engine.Providers,
		sessionService: engine.Sessions,
		links:          engine.Links,
		limiter:        newGenerationLimiter(engine.Config.Daemon.GenerationsPerMinute),
	}

	// Setup routes
	s.setupRoutes()

	// Create HTTP server with middleware chain
	addr := fmt.Sprintf("%s:%d", s.cfg.Daemon.Bind, s.cfg.Daemon.Port)
	handler := recoveryMiddleware(requestIDMiddleware(loggingMiddleware(s.router)))
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second, // long for ?wait=true generations
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)
	s.router.HandleFunc("GET /v1/options", s.handleOptions)

	// Config
	s.router.HandleFunc("GET /v1/config", s.handleGetConfig)
	s.router.HandleFunc("GET /v1/config/providers", s.handleListProviders)

	// Sessions
	s.router.HandleFunc("POST /v1/sessions", s.limitGeneration(s.handleCreateSession))
	s.router.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	s.router.HandleFunc("DELETE /v1/sessions/{id}", s.handleDeleteSession)
	s.router.HandleFunc("POST /v1/sessions/{id}/plan", s.limitGeneration(s.handleGeneratePlan))
	s.router.HandleFunc("GET /v1/sessions/{id}/download", s.handleDownloadPlan)

	// Plan-level assets
	s.router.HandleFunc("POST /v1/sessions/{id}/assets/{kind}", s.limitGeneration(s.handleGenerateAsset))
	s.router.HandleFunc("POST /v1/sessions/{id}/assets/{kind}/copy", s.handleCopyAsset)
	s.router.HandleFunc("POST /v1/sessions/{id}/assets/{kind}/open", s.handleOpenAsset)
	s.router.HandleFunc("GET /v1/sessions/{id}/assets/{kind}/download", s.handleDownloadAsset)

	// Puzzle assets
	s.router.HandleFunc("POST /v1/sessions/{id}/puzzles/{index}/assets/{kind}", s.limitGeneration(s.handleGenerateAsset))
	s.router.HandleFunc("POST /v1/sessions/{id}/puzzles/{index}/assets/{kind}/copy", s.handleCopyAsset)
	s.router.HandleFunc("POST /v1/sessions/{id}/puzzles/{index}/assets/{kind}/open", s.handleOpenAsset)
	s.router.HandleFunc("GET /v1/sessions/{id}/puzzles/{index}/assets/{kind}/download", s.handleDownloadAsset)

	// Text exports
	s.router.HandleFunc("GET /v1/sessions/{id}/text/{target}", s.handleGetText)
	s.router.HandleFunc("POST /v1/sessions/{id}/text/{target}/copy", s.handleCopyText)

	// Artifacts
	s.router.HandleFunc("GET /v1/artifacts/{token}", s.handleGetArtifact)
	s.router.HandleFunc("DELETE /v1/artifacts/{token}", s.handleRevokeArtifact)

	// Page
	s.router.Handle("GET /", web.Handler())
}

// Start starts the HTTP server and the background sweeper
func (s *Server) Start() error {
	slog.Info("starting escapekit daemon",
		"addr", s.server.Addr,
		"llm_providers", s.llmRegistry.List(),
	)
	if s.engine != nil {
		go s.engine.Run(s.runCtx)
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")

	s.cancel()
	err := s.server.Shutdown(ctx)
	if s.limiter != nil {
		if closeErr := s.limiter.Close(); closeErr != nil {
			slog.Warn("failed to close generation limiter", "error", closeErr)
		}
	}
	if s.engine != nil {
		s.engine.Close()
	}
	return err
}

// Handler implementations

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":                 "running",
		"version":                Version,
		"llm_providers":          s.llmRegistry.List(),
		"default_provider":       s.cfg.LLM.DefaultProvider,
		"sessions":               s.sessionService.Count(),
		"artifact_links":         s.links.Len(),
		"generations_per_minute": s.cfg.Daemon.GenerationsPerMinute,
	})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	rooms := make([]map[string]string, 0, len(domain.RoomTypes))
	for _, t := range domain.RoomTypes {
		policy, _ := planner.Policy(t)
		rooms = append(rooms, map[string]string{
			"value":  t.String(),
			"policy": policy,
		})
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"levels":      domain.SchoolLevels,
		"room_types":  rooms,
		"asset_kinds": map[string]interface{}{"puzzle": session.PuzzleKinds, "plan": session.PlanKinds},
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"daemon":           s.cfg.Daemon,
		"resilience":       s.cfg.Resilience,
		"session":          s.cfg.Session,
		"export":           s.cfg.Export,
		"default_provider": s.cfg.LLM.DefaultProvider,
	})
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	registered := make(map[string]bool)
	for _, name := range s.llmRegistry.List() {
		registered[name] = true
	}

	providers := make([]map[string]interface{}, 0)
	for name, cfg := range s.cfg.LLM.Providers {
		providers = append(providers, map[string]interface{}{
			"name":       name,
			"enabled":    cfg.Enabled,
			"model":      cfg.Model,
			"registered": registered[name],
		})
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"default":   s.cfg.LLM.DefaultProvider,
		"providers": providers,
	})
}

// Helpers

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}

// writeError maps a service error onto a status code. generationMessage is
// the user-facing text for generator failures.
func (s *Server) writeError(w http.ResponseWriter, err error, generationMessage string) {
	var vErr *domain.ValidationError
	var csErr *domain.ClientSideError

	switch {
	case errors.As(err, &vErr):
		s.jsonError(w, http.StatusBadRequest, vErr.Message, nil)
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, domain.ErrPuzzleNotFound),
		errors.Is(err, session.ErrUnknownSlot),
		errors.Is(err, export.ErrLinkNotFound):
		s.jsonError(w, http.StatusNotFound, "not found", err)
	case errors.Is(err, domain.ErrPlanNotReady),
		errors.Is(err, session.ErrInFlight),
		errors.Is(err, session.ErrAlreadyReady),
		errors.Is(err, session.ErrNoResult):
		s.jsonError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, domain.ErrInput):
		s.jsonError(w, http.StatusBadRequest, "invalid request", err)
	case errors.As(err, &csErr):
		s.jsonError(w, http.StatusUnprocessableEntity, csErr.Op+" failed", err)
	case errors.Is(err, domain.ErrGeneration):
		s.jsonError(w, http.StatusBadGateway, generationMessage, err)
	default:
		s.jsonError(w, http.StatusInternalServerError, "internal error", err)
	}
}
