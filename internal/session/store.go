package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	ErrUnknownSlot = errors.New("unknown asset slot")
	ErrInFlight    = errors.New("asset generation already in progress")
	ErrNotLoading  = errors.New("asset is not loading")
	ErrNoResult    = errors.New("asset has no result to copy")

	// ErrAlreadyReady is returned when an asset exists and regeneration was
	// not requested
	ErrAlreadyReady = errors.New("asset already generated")
)

// State is the lifecycle position of one asset slot
type State string

const (
	StateAbsent  State = "absent"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Slot is a snapshot of one asset
type Slot struct {
	Key       SlotKey   `json:"key"`
	State     State     `json:"state"`
	Result    string    `json:"result,omitempty"`
	Copied    bool      `json:"copied"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transition is reported to observers on every state change
type Transition struct {
	Key  SlotKey
	From State
	To   State
	At   time.Time
}

// Observer receives every transition in order. It runs with the store
// locked and must not call back into the store.
type Observer func(Transition)

type slot struct {
	state     State
	result    string
	updatedAt time.Time
}

// AssetStore tracks every asset slot of one plan. The key space is fixed at
// creation: one slot per puzzle and puzzle kind, one per plan kind, all
// starting Absent. Whether a ready asset may be regenerated is decided by
// the caller through Begin.
type AssetStore struct {
	mu        sync.Mutex
	slots     map[SlotKey]*slot
	errors    map[string]string
	copied    *copyFlags
	observers []Observer
	now       func() time.Time
}

// StoreOption configures an AssetStore
type StoreOption func(*AssetStore)

// WithCopyWindow overrides the copied flag window
func WithCopyWindow(d time.Duration) StoreOption {
	return func(s *AssetStore) {
		s.copied = newCopyFlags(d)
	}
}

// WithObserver registers a transition observer
func WithObserver(o Observer) StoreOption {
	return func(s *AssetStore) {
		s.observers = append(s.observers, o)
	}
}

// NewAssetStore creates the store for a plan with the given puzzle count
func NewAssetStore(puzzles int, opts ...StoreOption) *AssetStore {
	s := &AssetStore{
		slots:  make(map[SlotKey]*slot),
		errors: make(map[string]string),
		copied: newCopyFlags(DefaultCopyWindow),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	created := s.now()
	for i := 0; i < puzzles; i++ {
		for _, k := range PuzzleKinds {
			s.slots[PuzzleKey(i, k)] = &slot{state: StateAbsent, updatedAt: created}
		}
	}
	for _, k := range PlanKinds {
		s.slots[PlanKey(k)] = &slot{state: StateAbsent, updatedAt: created}
	}

	return s
}

// Begin moves a slot to Loading and clears the error of its owner. Absent
// and Failed slots may begin, Ready slots only when allowReady is set; a
// slot already Loading may not.
func (s *AssetStore) Begin(key SlotKey, allowReady bool) error {
	s.mu.Lock()
	sl, ok := s.slots[key]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownSlot, key)
	}
	switch {
	case sl.state == StateLoading:
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInFlight, key)
	case sl.state == StateReady && !allowReady:
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyReady, key)
	}

	delete(s.errors, key.Owner())
	s.notify(s.transition(key, sl, StateLoading))
	s.mu.Unlock()
	return nil
}

// Succeed stores the result of a loading slot and resets its copied flag
func (s *AssetStore) Succeed(key SlotKey, result string) error {
	s.mu.Lock()
	sl, err := s.loading(key)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	sl.result = result
	s.notify(s.transition(key, sl, StateReady))
	s.mu.Unlock()

	s.copied.clear(key.String())
	return nil
}

// Fail ends a loading slot and records message in its owner's error slot.
// A previous result, if any, is kept.
func (s *AssetStore) Fail(key SlotKey, message string) error {
	s.mu.Lock()
	sl, err := s.loading(key)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	s.errors[key.Owner()] = message
	s.notify(s.transition(key, sl, StateFailed))
	s.mu.Unlock()
	return nil
}

// MarkCopied sets the copied flag of a slot with a result. The flag reverts
// after the copy window; marking again restarts the window.
func (s *AssetStore) MarkCopied(key SlotKey) (string, error) {
	s.mu.Lock()
	sl, ok := s.slots[key]
	if !ok {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrUnknownSlot, key)
	}
	if sl.result == "" {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrNoResult, key)
	}
	result := sl.result
	s.mu.Unlock()

	s.copied.mark(key.String())
	return result, nil
}

// Slot returns a snapshot of one slot
func (s *AssetStore) Slot(key SlotKey) (Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[key]
	if !ok {
		return Slot{}, fmt.Errorf("%w: %s", ErrUnknownSlot, key)
	}
	return s.view(key, sl), nil
}

// Loading reports whether any slot is Loading
func (s *AssetStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sl := range s.slots {
		if sl.state == StateLoading {
			return true
		}
	}
	return false
}

// Error returns the current error message of an owner, or ""
func (s *AssetStore) Error(owner string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors[owner]
}

// Snapshot returns every slot ordered by puzzle then kind, plan-level
// slots last, plus the current owner errors
func (s *AssetStore) Snapshot() ([]Slot, map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots := make([]Slot, 0, len(s.slots))
	for key, sl := range s.slots {
		slots = append(slots, s.view(key, sl))
	}
	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i].Key, slots[j].Key
		if a.Puzzle != b.Puzzle {
			if a.Puzzle == PlanSlot || b.Puzzle == PlanSlot {
				return b.Puzzle == PlanSlot
			}
			return a.Puzzle < b.Puzzle
		}
		return kindOrder(a.Kind) < kindOrder(b.Kind)
	})

	errs := make(map[string]string, len(s.errors))
	for owner, msg := range s.errors {
		errs[owner] = msg
	}
	return slots, errs
}

// Close cancels pending copied-flag reverts
func (s *AssetStore) Close() {
	s.copied.stop()
}

func (s *AssetStore) loading(key SlotKey) (*slot, error) {
	sl, ok := s.slots[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSlot, key)
	}
	if sl.state != StateLoading {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotLoading, key, sl.state)
	}
	return sl, nil
}

func (s *AssetStore) transition(key SlotKey, sl *slot, to State) Transition {
	tr := Transition{Key: key, From: sl.state, To: to, At: s.now()}
	sl.state = to
	sl.updatedAt = tr.At
	return tr
}

func (s *AssetStore) notify(tr Transition) {
	for _, o := range s.observers {
		o(tr)
	}
}

func (s *AssetStore) view(key SlotKey, sl *slot) Slot {
	return Slot{
		Key:       key,
		State:     sl.state,
		Result:    sl.result,
		Copied:    s.copied.isSet(key.String()),
		UpdatedAt: sl.updatedAt,
	}
}

func kindOrder(k AssetKind) int {
	for i, known := range PuzzleKinds {
		if k == known {
			return i
		}
	}
	for i, known := range PlanKinds {
		if k == known {
			return len(PuzzleKinds) + i
		}
	}
	return len(PuzzleKinds) + len(PlanKinds)
}
