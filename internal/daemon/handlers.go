package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/felixgeelhaar/escapekit/internal/domain"
	"github.com/felixgeelhaar/escapekit/internal/export"
	"github.com/felixgeelhaar/escapekit/internal/session"
)

// createSessionRequest is the plan form. The credential is only accepted
// here and is kept in memory by the session.
type createSessionRequest struct {
	Credential           string `json:"credential"`
	Level                string `json:"level"`
	RoomType             string `json:"room_type"`
	LearningObjectives   string `json:"learning_objectives"`
	AchievementStandards string `json:"achievement_standards,omitempty"`
	LearningContent      string `json:"learning_content,omitempty"`
	PuzzleIdeas          string `json:"puzzle_ideas,omitempty"`
	EvaluationMethods    string `json:"evaluation_methods,omitempty"`
}

func (req createSessionRequest) toInput() (domain.PlanInput, error) {
	in := domain.PlanInput{
		Credential:           req.Credential,
		LearningObjectives:   req.LearningObjectives,
		AchievementStandards: req.AchievementStandards,
		LearningContent:      req.LearningContent,
		PuzzleIdeas:          req.PuzzleIdeas,
		EvaluationMethods:    req.EvaluationMethods,
	}

	// blank level or room type is left for Validate to report in order
	if req.Level != "" {
		level, err := domain.ParseSchoolLevel(req.Level)
		if err != nil {
			return in, domain.NewValidationError("level", "수업 수준을 선택해주세요.", err)
		}
		in.Level = level
	}
	if req.RoomType != "" {
		roomType, err := domain.ParseRoomType(req.RoomType)
		if err != nil {
			return in, domain.NewValidationError("room_type", "방탈출 유형을 선택해주세요.", err)
		}
		in.RoomType = roomType
	}

	return in, in.Validate()
}

// Session handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	in, err := req.toInput()
	if err != nil {
		s.writeError(w, err, "")
		return
	}

	sess, err := s.sessionService.Create(r.Context(), in)
	if err != nil {
		if sess != nil && errors.Is(err, domain.ErrGeneration) {
			// the session is kept so the plan can be retried
			s.jsonResponse(w, http.StatusBadGateway, map[string]interface{}{
				"error":   session.PlanFailureMessage,
				"status":  http.StatusBadGateway,
				"session": sess.View(),
			})
			return
		}
		s.writeError(w, err, session.PlanFailureMessage)
		return
	}

	s.jsonResponse(w, http.StatusCreated, sess.View())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err, "")
		return
	}
	s.jsonResponse(w, http.StatusOK, sess.View())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessionService.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionService.GeneratePlan(r.Context(), r.PathValue("id"))
	if err != nil {
		if sess != nil && errors.Is(err, domain.ErrGeneration) {
			s.jsonResponse(w, http.StatusBadGateway, map[string]interface{}{
				"error":   session.PlanFailureMessage,
				"status":  http.StatusBadGateway,
				"session": sess.View(),
			})
			return
		}
		s.writeError(w, err, session.PlanFailureMessage)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess.View())
}

func (s *Server) handleDownloadPlan(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err, "")
		return
	}
	plan, err := sess.Plan()
	if err != nil {
		s.writeError(w, err, "")
		return
	}

	var artifact export.Artifact
	switch format := r.URL.Query().Get("format"); format {
	case "", "text":
		artifact = export.TextArtifact(plan.Title, export.RenderFullPlanText(plan))
	case "yaml":
		artifact, err = export.YAMLArtifact(plan)
		if err != nil {
			s.writeError(w, err, "")
			return
		}
	default:
		s.jsonError(w, http.StatusBadRequest, "unsupported format", fmt.Errorf("format %q", format))
		return
	}

	if err := export.WriteAttachment(w, artifact); err != nil {
		s.logClientError(r, err)
	}
}

// Asset handlers

func (s *Server) handleGenerateAsset(w http.ResponseWriter, r *http.Request) {
	key, err := slotKey(r)
	if err != nil {
		s.writeError(w, err, "")
		return
	}

	id := r.PathValue("id")
	force := r.URL.Query().Get("force") == "true"
	message := session.FailureMessages[key.Kind]

	if r.URL.Query().Get("wait") != "true" {
		slot, err := s.sessionService.StartAsset(r.Context(), id, key, force)
		if err != nil {
			s.writeError(w, err, message)
			return
		}
		s.jsonResponse(w, http.StatusAccepted, slot)
		return
	}

	slot, err := s.sessionService.GenerateAsset(r.Context(), id, key, force)
	if err != nil {
		if slot.State == session.StateFailed {
			s.jsonResponse(w, http.StatusBadGateway, map[string]interface{}{
				"error":  message,
				"status": http.StatusBadGateway,
				"slot":   slot,
			})
			return
		}
		s.writeError(w, err, message)
		return
	}
	s.jsonResponse(w, http.StatusOK, slot)
}

func (s *Server) handleCopyAsset(w http.ResponseWriter, r *http.Request) {
	key, err := slotKey(r)
	if err != nil {
		s.writeError(w, err, "")
		return
	}

	text, err := s.sessionService.Copy(r.Context(), r.PathValue("id"), key)
	if err != nil {
		s.writeError(w, err, "")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"key":    key,
		"text":   text,
		"copied": true,
	})
}

func (s *Server) handleOpenAsset(w http.ResponseWriter, r *http.Request) {
	artifact, err := s.assetArtifact(r)
	if err != nil {
		s.writeError(w, err, "")
		return
	}

	link, err := s.links.Create(artifact)
	if err != nil {
		s.logClientError(r, err)
		s.jsonError(w, http.StatusUnprocessableEntity, export.OpenFailureMessage, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, link)
}

func (s *Server) handleDownloadAsset(w http.ResponseWriter, r *http.Request) {
	artifact, err := s.assetArtifact(r)
	if err != nil {
		s.writeError(w, err, "")
		return
	}
	if err := export.WriteAttachment(w, artifact); err != nil {
		s.logClientError(r, err)
	}
}

// assetArtifact resolves the slot addressed by r into a named artifact
func (s *Server) assetArtifact(r *http.Request) (export.Artifact, error) {
	key, err := slotKey(r)
	if err != nil {
		return export.Artifact{}, err
	}

	sess, err := s.sessionService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return export.Artifact{}, err
	}
	plan, err := sess.Plan()
	if err != nil {
		return export.Artifact{}, err
	}
	store, err := sess.Assets()
	if err != nil {
		return export.Artifact{}, err
	}
	slot, err := store.Slot(key)
	if err != nil {
		return export.Artifact{}, err
	}
	return session.AssetArtifact(plan, slot)
}

// Text handlers

func (s *Server) handleGetText(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err, "")
		return
	}
	plan, err := sess.Plan()
	if err != nil {
		s.writeError(w, err, "")
		return
	}

	text, err := export.RenderText(plan, r.PathValue("target"))
	if err != nil {
		s.writeError(w, err, "")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"target": r.PathValue("target"),
		"text":   text,
	})
}

func (s *Server) handleCopyText(w http.ResponseWriter, r *http.Request) {
	target := r.PathValue("target")
	text, err := s.sessionService.CopyText(r.Context(), r.PathValue("id"), target)
	if err != nil {
		s.writeError(w, err, "")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"target": target,
		"text":   text,
		"copied": true,
	})
}

// Artifact handlers

func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	artifact, err := s.links.Resolve(r.PathValue("token"))
	if err != nil {
		s.writeError(w, err, "")
		return
	}
	if err := export.WriteInline(w, artifact); err != nil {
		s.logClientError(r, err)
	}
}

func (s *Server) handleRevokeArtifact(w http.ResponseWriter, r *http.Request) {
	if !s.links.Revoke(r.PathValue("token")) {
		s.writeError(w, export.ErrLinkNotFound, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// slotKey parses the asset address of a request. Requests without an
// index address a plan-level asset.
func slotKey(r *http.Request) (session.SlotKey, error) {
	kind, err := session.ParseAssetKind(r.PathValue("kind"))
	if err != nil {
		return session.SlotKey{}, err
	}

	raw := r.PathValue("index")
	if raw == "" {
		if !kind.PlanLevel() {
			return session.SlotKey{}, fmt.Errorf("%w: %s is a puzzle asset", domain.ErrInput, kind)
		}
		return session.PlanKey(kind), nil
	}

	if kind.PlanLevel() {
		return session.SlotKey{}, fmt.Errorf("%w: %s is a plan asset", domain.ErrInput, kind)
	}
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return session.SlotKey{}, fmt.Errorf("%w: puzzle index %q", domain.ErrInput, raw)
	}
	return session.PuzzleKey(index, kind), nil
}

func (s *Server) logClientError(r *http.Request, err error) {
	slog.Warn("client-side export failed",
		"request_id", GetRequestID(r.Context()),
		"path", r.URL.Path,
		"error", err)
}
