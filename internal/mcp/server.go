package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/escapekit/internal/domain"
	"github.com/felixgeelhaar/escapekit/internal/export"
	"github.com/felixgeelhaar/escapekit/internal/session"
	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"
)

// Server wraps the MCP server with escapekit functionality
type Server struct {
	mcpServer      *server.Server
	sessionService session.SessionService
	credential     func() string
}

// Config contains configuration for the MCP server
type Config struct {
	SessionService session.SessionService

	// Credential supplies the generator key when a tool call carries none.
	// It is read per call and never stored.
	Credential func() string
}

// NewServer creates a new MCP server for escapekit
func NewServer(cfg Config) *Server {
	s := &Server{
		sessionService: cfg.SessionService,
		credential:     cfg.Credential,
	}
	if s.credential == nil {
		s.credential = func() string { return "" }
	}

	s.mcpServer = server.New(server.Info{
		Name:    "escapekit",
		Version: "0.1.0",
	}, server.WithInstructions(`
escapekit designs escape-room lessons for classroom use.
A plan has a storyline, 3-4 chained puzzles and a final password built
from the puzzle rewards. Assets are generated per puzzle or per plan.

Available tools:
- escape_plan: Generate a lesson plan and open a session
- escape_asset: Generate one asset (image, worksheet, webapp per puzzle;
  zep_advice, zep_background, final_webapp per plan)
- escape_text: Render the plan, a puzzle or the conclusion as plain text
- escape_status: Show plan and asset states of a session
- escape_stop: End a session

Puzzle indexes start at 0. Text targets are full, conclusion or puzzle:N.
`))

	s.registerTools()

	return s
}

// registerTools registers all escapekit MCP tools
func (s *Server) registerTools() {
	s.mcpServer.Tool("escape_plan").
		Description("Generate an escape-room lesson plan from learning objectives.").
		Handler(s.handlePlan)

	s.mcpServer.Tool("escape_asset").
		Description("Generate one asset of a plan. Regenerating a ready asset needs force.").
		Handler(s.handleAsset)

	s.mcpServer.Tool("escape_text").
		Description("Render plan text for copying: full, conclusion or puzzle:N.").
		Handler(s.handleText)

	s.mcpServer.Tool("escape_status").
		Description("Get plan and asset states of a session.").
		Handler(s.handleStatus)

	s.mcpServer.Tool("escape_stop").
		Description("End an escapekit session.").
		Handler(s.handleStop)
}

// Input/Output types for tools

type PlanInput struct {
	Credential           string `json:"credential,omitempty" jsonschema:"description=Gemini API key; defaults to GEMINI_API_KEY of the server"`
	Level                string `json:"level" jsonschema:"description=School level,enum=초등,enum=중등,enum=고등"`
	RoomType             string `json:"room_type" jsonschema:"description=Escape room type,enum=스토리텔링형,enum=문제방,enum=탐사/모험형,enum=미스터리/추리형,enum=역사/시대극형"`
	LearningObjectives   string `json:"learning_objectives" jsonschema:"description=Learning objectives of the lesson"`
	AchievementStandards string `json:"achievement_standards,omitempty" jsonschema:"description=Curriculum achievement standards"`
	LearningContent      string `json:"learning_content,omitempty" jsonschema:"description=Lesson content"`
	PuzzleIdeas          string `json:"puzzle_ideas,omitempty" jsonschema:"description=Puzzle ideas to consider"`
	EvaluationMethods    string `json:"evaluation_methods,omitempty" jsonschema:"description=Evaluation methods"`
}

type PlanOutput struct {
	SessionID string   `json:"session_id"`
	Title     string   `json:"title"`
	Puzzles   []string `json:"puzzles"`
	Warnings  []string `json:"warnings,omitempty"`
	Text      string   `json:"text"`
}

type AssetInput struct {
	SessionID string `json:"session_id" jsonschema:"description=Session ID from escape_plan"`
	Kind      string `json:"kind" jsonschema:"description=Asset kind,enum=image,enum=worksheet,enum=webapp,enum=zep_advice,enum=zep_background,enum=final_webapp"`
	Puzzle    *int   `json:"puzzle,omitempty" jsonschema:"description=Puzzle index starting at 0; required for puzzle assets"`
	Force     bool   `json:"force,omitempty" jsonschema:"description=Regenerate an asset that is already ready"`
}

type AssetOutput struct {
	Key    string `json:"key"`
	State  string `json:"state"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

type TextInput struct {
	SessionID string `json:"session_id" jsonschema:"description=Session ID from escape_plan"`
	Target    string `json:"target" jsonschema:"description=full, conclusion or puzzle:N"`
}

type TextOutput struct {
	Target string `json:"target"`
	Text   string `json:"text"`
}

type StatusInput struct {
	SessionID string `json:"session_id" jsonschema:"description=Session ID from escape_plan"`
}

type StatusOutput struct {
	SessionID string            `json:"session_id"`
	Status    string            `json:"status"`
	Error     string            `json:"error,omitempty"`
	Title     string            `json:"title,omitempty"`
	Assets    map[string]string `json:"assets,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}

type StopInput struct {
	SessionID string `json:"session_id" jsonschema:"description=Session ID to end"`
}

type StopOutput struct {
	Message string `json:"message"`
}

// Tool handlers

func (s *Server) handlePlan(ctx context.Context, input PlanInput) (PlanOutput, error) {
	credential := input.Credential
	if credential == "" {
		credential = s.credential()
	}

	in := domain.PlanInput{
		Credential:           credential,
		LearningObjectives:   input.LearningObjectives,
		AchievementStandards: input.AchievementStandards,
		LearningContent:      input.LearningContent,
		PuzzleIdeas:          input.PuzzleIdeas,
		EvaluationMethods:    input.EvaluationMethods,
	}
	if input.Level != "" {
		level, err := domain.ParseSchoolLevel(input.Level)
		if err != nil {
			return PlanOutput{}, err
		}
		in.Level = level
	}
	if input.RoomType != "" {
		roomType, err := domain.ParseRoomType(input.RoomType)
		if err != nil {
			return PlanOutput{}, err
		}
		in.RoomType = roomType
	}

	sess, err := s.sessionService.Create(ctx, in)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			return PlanOutput{}, fmt.Errorf("%s", vErr.Message)
		}
		if sess != nil {
			return PlanOutput{}, fmt.Errorf("%s (session %s): %w", session.PlanFailureMessage, sess.ID, err)
		}
		return PlanOutput{}, fmt.Errorf("failed to create session: %w", err)
	}

	plan, err := sess.Plan()
	if err != nil {
		return PlanOutput{}, err
	}

	out := PlanOutput{
		SessionID: sess.ID,
		Title:     plan.Title,
		Text:      export.RenderFullPlanText(plan),
	}
	for _, p := range plan.Puzzles {
		out.Puzzles = append(out.Puzzles, p.PuzzleTitle)
	}
	for _, w := range sess.View().Warnings {
		out.Warnings = append(out.Warnings, w.Message)
	}
	return out, nil
}

func (s *Server) handleAsset(ctx context.Context, input AssetInput) (AssetOutput, error) {
	kind, err := session.ParseAssetKind(input.Kind)
	if err != nil {
		return AssetOutput{}, err
	}

	var key session.SlotKey
	switch {
	case kind.PlanLevel():
		key = session.PlanKey(kind)
	case input.Puzzle == nil:
		return AssetOutput{}, fmt.Errorf("%w: puzzle index is required for %s", domain.ErrInput, kind)
	default:
		key = session.PuzzleKey(*input.Puzzle, kind)
	}

	slot, err := s.sessionService.GenerateAsset(ctx, input.SessionID, key, input.Force)
	if err != nil {
		if slot.State == session.StateFailed {
			return AssetOutput{
				Key:   key.String(),
				State: string(slot.State),
				Error: session.FailureMessages[kind],
			}, nil
		}
		return AssetOutput{}, fmt.Errorf("generate %s: %w", key, err)
	}

	return AssetOutput{
		Key:    key.String(),
		State:  string(slot.State),
		Result: slot.Result,
	}, nil
}

func (s *Server) handleText(ctx context.Context, input TextInput) (TextOutput, error) {
	sess, err := s.sessionService.Get(ctx, input.SessionID)
	if err != nil {
		return TextOutput{}, fmt.Errorf("session not found: %w", err)
	}
	plan, err := sess.Plan()
	if err != nil {
		return TextOutput{}, err
	}

	target := strings.TrimSpace(input.Target)
	if target == "" {
		target = export.TargetFull
	}
	text, err := export.RenderText(plan, target)
	if err != nil {
		return TextOutput{}, err
	}
	return TextOutput{Target: target, Text: text}, nil
}

func (s *Server) handleStatus(ctx context.Context, input StatusInput) (StatusOutput, error) {
	sess, err := s.sessionService.Get(ctx, input.SessionID)
	if err != nil {
		return StatusOutput{}, fmt.Errorf("session not found: %w", err)
	}

	view := sess.View()
	out := StatusOutput{
		SessionID: view.ID,
		Status:    string(view.Status),
		Error:     view.Error,
		Errors:    view.Errors,
	}
	if view.Plan != nil {
		out.Title = view.Plan.Title
	}
	if len(view.Assets) > 0 {
		out.Assets = make(map[string]string, len(view.Assets))
		for _, slot := range view.Assets {
			out.Assets[slot.Key.String()] = string(slot.State)
		}
	}
	return out, nil
}

func (s *Server) handleStop(ctx context.Context, input StopInput) (StopOutput, error) {
	err := s.sessionService.Delete(ctx, input.SessionID)
	if err != nil {
		return StopOutput{}, fmt.Errorf("failed to delete session: %w", err)
	}

	return StopOutput{
		Message: "Session ended successfully",
	}, nil
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
