package export

import (
	"errors"
	"sync"
	"time"

	"github.com/felixgeelhaar/escapekit/internal/domain"
	"github.com/google/uuid"
)

// OpenFailureMessage is shown when an artifact cannot be opened
const OpenFailureMessage = "새 탭을 여는 데 실패했습니다. 팝업 차단 기능이 활성화되어 있는지 확인해주세요."

// DefaultLinkTTL is how long an artifact link stays resolvable
const DefaultLinkTTL = 10 * time.Minute

var (
	ErrLinkNotFound  = errors.New("artifact link not found or expired")
	ErrEmptyArtifact = errors.New("artifact is empty")
)

// Link is a transient reference to an artifact
type Link struct {
	Token     string    `json:"token"`
	Path      string    `json:"path"`
	ExpiresAt time.Time `json:"expires_at"`
}

type linkEntry struct {
	artifact  Artifact
	expiresAt time.Time
}

// Links holds artifacts behind revocable tokens, the server side of an
// object URL. Entries expire after the TTL or when revoked.
type Links struct {
	mu       sync.Mutex
	items    map[string]linkEntry
	ttl      time.Duration
	basePath string
	now      func() time.Time
}

// NewLinks creates a link table. basePath is prefixed to every token in
// the returned Link.Path.
func NewLinks(basePath string, ttl time.Duration) *Links {
	if ttl <= 0 {
		ttl = DefaultLinkTTL
	}
	return &Links{
		items:    make(map[string]linkEntry),
		ttl:      ttl,
		basePath: basePath,
		now:      time.Now,
	}
}

// Create registers an artifact and returns its link
func (l *Links) Create(a Artifact) (Link, error) {
	if len(a.Body) == 0 {
		return Link{}, &domain.ClientSideError{Op: "open", Err: ErrEmptyArtifact}
	}

	token := uuid.New().String()
	expires := l.now().Add(l.ttl)

	l.mu.Lock()
	l.items[token] = linkEntry{artifact: a, expiresAt: expires}
	l.mu.Unlock()

	return Link{Token: token, Path: l.basePath + token, ExpiresAt: expires}, nil
}

// Resolve returns the artifact behind a live token
func (l *Links) Resolve(token string) (Artifact, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.items[token]
	if !ok {
		return Artifact{}, ErrLinkNotFound
	}
	if !l.now().Before(e.expiresAt) {
		delete(l.items, token)
		return Artifact{}, ErrLinkNotFound
	}
	return e.artifact, nil
}

// Revoke drops a token; it reports whether the token was live
func (l *Links) Revoke(token string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.items[token]
	delete(l.items, token)
	return ok
}

// Sweep drops expired tokens and returns how many were removed
func (l *Links) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for token, e := range l.items {
		if !now.Before(e.expiresAt) {
			delete(l.items, token)
			n++
		}
	}
	return n
}

// Len returns the number of tokens held
func (l *Links) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}
