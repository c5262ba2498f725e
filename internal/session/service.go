package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/escapekit/internal/domain"
	"github.com/felixgeelhaar/escapekit/internal/export"
	"github.com/felixgeelhaar/escapekit/internal/planner"
)

// PlanFailureMessage is shown when plan generation fails
const PlanFailureMessage = "계획 생성에 실패했습니다. API 키가 올바른지 확인 후 다시 시도해 주세요."

// FailureMessages are the user-facing messages recorded in an owner's error
// slot when generating an asset of that kind fails
var FailureMessages = map[AssetKind]string{
	KindImage:         "[이미지 프롬프트] 생성에 실패했습니다. 다시 시도해 주세요.",
	KindWorksheet:     "[활동지 프롬프트] 생성에 실패했습니다. 다시 시도해 주세요.",
	KindWebApp:        "[웹 활동] 생성에 실패했습니다. 다시 시도해 주세요.",
	KindZepAdvice:     "ZEP 제작 조언 생성에 실패했습니다.",
	KindZepBackground: "ZEP 배경 이미지 프롬프트 생성에 실패했습니다.",
	KindFinalWebApp:   "최종 웹 활동 생성에 실패했습니다. 다시 시도해 주세요.",
}

// Config configures the session service
type Config struct {
	// CopyWindow is how long copied flags stay set (default 2s)
	CopyWindow time.Duration

	// Clipboard, when set, receives every copied text. Failures are logged.
	Clipboard export.Clipboard

	// Observer, when set, receives every asset state transition
	Observer Observer

	Logger *slog.Logger
}

// Service orchestrates plan and asset generation over the session registry
type Service struct {
	registry   *Registry
	planner    PlanBuilder
	assets     AssetGenerator
	copyWindow time.Duration
	clipboard  export.Clipboard
	observer   Observer
	logger     *slog.Logger
	wg         sync.WaitGroup
}

// NewService creates a new session service
func NewService(registry *Registry, planner PlanBuilder, assets AssetGenerator, cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	window := cfg.CopyWindow
	if window <= 0 {
		window = DefaultCopyWindow
	}
	return &Service{
		registry:   registry,
		planner:    planner,
		assets:     assets,
		copyWindow: window,
		clipboard:  cfg.Clipboard,
		observer:   cfg.Observer,
		logger:     logger,
	}
}

// Create validates the input, registers a new session and generates its
// plan. Invalid input is rejected before any session or generator call
// exists. When generation fails the session is still returned, in the
// failed state, together with the error so that the plan can be retried.
func (s *Service) Create(ctx context.Context, in domain.PlanInput) (*Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var opts []StoreOption
	if s.observer != nil {
		opts = append(opts, WithObserver(s.observer))
	}
	sess := NewSession(in, s.copyWindow, opts...)
	s.registry.Put(sess)

	s.logger.Info("session created",
		"session_id", sess.ID,
		"level", in.Level.String(),
		"room_type", in.RoomType.String())

	return s.generatePlan(ctx, sess)
}

// Get retrieves a session by ID
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.registry.Get(id)
}

// Delete removes a session
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.registry.Delete(id); err != nil {
		return err
	}
	s.logger.Info("session deleted", "session_id", id)
	return nil
}

// GeneratePlan regenerates the plan of an existing session. A new plan
// replaces the previous one and all of its assets.
func (s *Service) GeneratePlan(ctx context.Context, id string) (*Session, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	return s.generatePlan(ctx, sess)
}

func (s *Service) generatePlan(ctx context.Context, sess *Session) (*Session, error) {
	if err := sess.beginPlan(); err != nil {
		return sess, err
	}

	start := time.Now()
	plan, err := s.planner.BuildPlan(ctx, sess.Input())
	if err != nil {
		sess.failPlan(PlanFailureMessage)
		s.logger.Error("plan generation failed",
			"session_id", sess.ID,
			"error", err,
			"duration", time.Since(start))
		return sess, err
	}

	sess.setPlan(plan, planner.CheckPasswordChain(plan))
	s.logger.Info("plan generated",
		"session_id", sess.ID,
		"puzzles", len(plan.Puzzles),
		"duration", time.Since(start))

	return sess, nil
}

// GenerateAsset generates one asset and returns the resulting slot. The
// generation error, if any, is returned alongside the failed slot.
func (s *Service) GenerateAsset(ctx context.Context, id string, key SlotKey, force bool) (Slot, error) {
	sess, store, plan, err := s.begin(id, key, force)
	if err != nil {
		return Slot{}, err
	}

	genErr := s.run(ctx, sess, store, plan, key)
	slot, err := store.Slot(key)
	if err != nil {
		return Slot{}, err
	}
	return slot, genErr
}

// StartAsset moves the slot to loading and generates the asset in the
// background. The generation is detached from ctx: once started it runs to
// completion or failure.
func (s *Service) StartAsset(ctx context.Context, id string, key SlotKey, force bool) (Slot, error) {
	sess, store, plan, err := s.begin(id, key, force)
	if err != nil {
		return Slot{}, err
	}

	detached := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.run(detached, sess, store, plan, key)
	}()

	return store.Slot(key)
}

// Copy returns an asset result and marks it copied
func (s *Service) Copy(ctx context.Context, id string, key SlotKey) (string, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return "", err
	}
	store, err := sess.Assets()
	if err != nil {
		return "", err
	}

	text, err := store.MarkCopied(key)
	if err != nil {
		return "", err
	}
	s.toClipboard(sess.ID, key.String(), text)
	return text, nil
}

// CopyText renders a text export ("full", "conclusion" or "puzzle:<n>")
// and marks it copied
func (s *Service) CopyText(ctx context.Context, id, target string) (string, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return "", err
	}
	plan, err := sess.Plan()
	if err != nil {
		return "", err
	}

	text, err := export.RenderText(plan, target)
	if err != nil {
		return "", err
	}
	sess.markTextCopied(target)
	s.toClipboard(sess.ID, target, text)
	return text, nil
}

// Count returns the number of live sessions
func (s *Service) Count() int {
	return s.registry.Len()
}

// Wait blocks until every background generation has finished
func (s *Service) Wait() {
	s.wg.Wait()
}

// Close waits for background generations and drops every session
func (s *Service) Close() {
	s.wg.Wait()
	s.registry.Close()
}

func (s *Service) begin(id string, key SlotKey, force bool) (*Session, *AssetStore, *domain.Plan, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return nil, nil, nil, err
	}
	plan, err := sess.Plan()
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := sess.Assets()
	if err != nil {
		return nil, nil, nil, err
	}

	if !key.Valid() {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrUnknownSlot, key)
	}
	if !key.Kind.PlanLevel() && key.Puzzle >= len(plan.Puzzles) {
		return nil, nil, nil, fmt.Errorf("%w: index %d", domain.ErrPuzzleNotFound, key.Puzzle)
	}

	if err := store.Begin(key, force); err != nil {
		return nil, nil, nil, err
	}
	return sess, store, plan, nil
}

// run produces the asset and completes the slot exactly once, whatever
// happens in between
func (s *Service) run(ctx context.Context, sess *Session, store *AssetStore, plan *domain.Plan, key SlotKey) (err error) {
	start := time.Now()
	var result string

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", key, r)
		}
		sess.markActive()
		if err != nil {
			_ = store.Fail(key, FailureMessages[key.Kind])
			s.logger.Warn("asset generation failed",
				"session_id", sess.ID,
				"asset", key.String(),
				"error", err,
				"duration", time.Since(start))
			return
		}
		_ = store.Succeed(key, result)
		s.logger.Info("asset generated",
			"session_id", sess.ID,
			"asset", key.String(),
			"duration", time.Since(start))
	}()

	result, err = s.produce(ctx, sess.Input(), plan, key)
	return err
}

func (s *Service) produce(ctx context.Context, in domain.PlanInput, plan *domain.Plan, key SlotKey) (string, error) {
	switch key.Kind {
	case KindImage:
		return s.assets.ImagePrompt(ctx, in.Credential, plan.Puzzles[key.Puzzle], in.Level)
	case KindWorksheet:
		return s.assets.WorksheetPrompt(plan.Puzzles[key.Puzzle], in.Level)
	case KindWebApp:
		var prev *string
		if reward, ok := plan.PreviousReward(key.Puzzle); ok {
			prev = &reward
		}
		return s.assets.WebApp(ctx, in.Credential, plan.Puzzles[key.Puzzle], prev, in.Level)
	case KindFinalWebApp:
		return s.assets.FinalWebApp(ctx, in.Credential, plan, in.Level)
	case KindZepAdvice:
		return s.assets.ZepAdvice(ctx, in.Credential, plan, in.Level)
	case KindZepBackground:
		return s.assets.ZepBackgroundPrompt(ctx, in.Credential, plan.Theme, plan.Storyline, in.Level)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownSlot, key)
	}
}

func (s *Service) toClipboard(sessionID, what, text string) {
	if s.clipboard == nil {
		return
	}
	if err := s.clipboard.Write(text); err != nil {
		s.logger.Warn("clipboard write failed",
			"session_id", sessionID,
			"target", what,
			"error", err)
	}
}
