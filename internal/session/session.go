package session

import (
	"sync"
	"time"

	"github.com/felixgeelhaar/escapekit/internal/domain"
	"github.com/felixgeelhaar/escapekit/internal/planner"
	"github.com/google/uuid"
)

// Status represents the plan state of a session
type Status string

const (
	StatusAbsent  Status = "absent"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Session is the state of one planning workflow: the input, the plan once
// generated and the asset store of that plan. It lives in memory only.
type Session struct {
	ID string

	mu         sync.RWMutex
	input      domain.PlanInput
	status     Status
	planError  string
	plan       *domain.Plan
	warnings   []planner.Finding
	assets     *AssetStore
	textCopied *copyFlags
	storeOpts  []StoreOption
	createdAt  time.Time
	updatedAt  time.Time
}

// NewSession creates a session for the input. The credential stays in the
// session and is never serialised.
func NewSession(in domain.PlanInput, copyWindow time.Duration, opts ...StoreOption) *Session {
	now := time.Now()
	storeOpts := append([]StoreOption{WithCopyWindow(copyWindow)}, opts...)
	return &Session{
		ID:         uuid.New().String(),
		input:      in,
		status:     StatusAbsent,
		textCopied: newCopyFlags(copyWindow),
		storeOpts:  storeOpts,
		createdAt:  now,
		updatedAt:  now,
	}
}

// Input returns a copy of the session input
func (s *Session) Input() domain.PlanInput {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.input
}

// Plan returns the current plan or ErrPlanNotReady
func (s *Session) Plan() (*domain.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.plan == nil {
		return nil, domain.ErrPlanNotReady
	}
	return s.plan, nil
}

// Assets returns the asset store of the current plan or ErrPlanNotReady
func (s *Session) Assets() (*AssetStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.assets == nil {
		return nil, domain.ErrPlanNotReady
	}
	return s.assets, nil
}

// Status returns the plan state and its error message
func (s *Session) Status() (Status, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.planError
}

// beginPlan moves the session to loading; a plan already loading is in flight
func (s *Session) beginPlan() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusLoading {
		return ErrInFlight
	}
	s.status = StatusLoading
	s.planError = ""
	s.touch()
	return nil
}

// setPlan installs a new plan and replaces the asset store wholesale
func (s *Session) setPlan(p *domain.Plan, warnings []planner.Finding) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.assets != nil {
		s.assets.Close()
	}
	s.plan = p
	s.warnings = warnings
	s.assets = NewAssetStore(len(p.Puzzles), s.storeOpts...)
	s.status = StatusReady
	s.planError = ""
	s.touch()
}

// failPlan records a plan error; an earlier plan, if any, is kept
func (s *Session) failPlan(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusFailed
	s.planError = message
	s.touch()
}

// markTextCopied flags a copied text export such as "full" or "puzzle:1"
func (s *Session) markTextCopied(id string) {
	s.textCopied.mark(id)
	s.markActive()
}

// markActive records activity so the session is not swept as idle
func (s *Session) markActive() {
	s.mu.Lock()
	s.touch()
	s.mu.Unlock()
}

// busy reports whether an asset of the current plan is still generating
func (s *Session) busy() bool {
	s.mu.RLock()
	assets := s.assets
	s.mu.RUnlock()
	return assets != nil && assets.Loading()
}

func (s *Session) lastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

func (s *Session) touch() {
	s.updatedAt = time.Now()
}

// close stops all pending timers
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.assets != nil {
		s.assets.Close()
	}
	s.textCopied.stop()
}

// View is the serialisable state of a session
type View struct {
	ID         string            `json:"id"`
	Level      string            `json:"level"`
	RoomType   string            `json:"room_type"`
	Status     Status            `json:"status"`
	Error      string            `json:"error,omitempty"`
	Plan       *domain.Plan      `json:"plan,omitempty"`
	Warnings   []planner.Finding `json:"warnings,omitempty"`
	Assets     []Slot            `json:"assets,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
	TextCopied []string          `json:"text_copied,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// View returns a consistent snapshot of the session
func (s *Session) View() View {
	s.mu.RLock()
	v := View{
		ID:        s.ID,
		Level:     s.input.Level.String(),
		RoomType:  s.input.RoomType.String(),
		Status:    s.status,
		Error:     s.planError,
		Plan:      s.plan,
		Warnings:  s.warnings,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
	assets := s.assets
	s.mu.RUnlock()

	if assets != nil {
		v.Assets, v.Errors = assets.Snapshot()
	}
	v.TextCopied = s.textCopied.current()
	return v
}
