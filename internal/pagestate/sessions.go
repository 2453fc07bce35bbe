package pagestate

import (
	"sync"
	"time"

	"github.com/homwrkk/IUI/internal/config"
)

// Sessions keeps one Page per signed-in user. A page lives until Reset or Close, so reloading
// the membership page after a confirmed payment goes through Reset to pick up the persisted tier.
type Sessions struct {
	mu     sync.Mutex
	pages  map[string]*Page
	ttl    time.Duration
	closed bool
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{pages: make(map[string]*Page), ttl: ttl}
}

// NewSessionsForConfig uses the configured toast lifetime.
func NewSessionsForConfig(cfg *config.Config) *Sessions {
	return NewSessions(time.Duration(cfg.ToastTTLSeconds) * time.Second)
}

// Get returns the user's page, building it from the persisted tier the first time.
func (s *Sessions) Get(userID, current string) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if p, ok := s.pages[userID]; ok {
		return p, nil
	}
	p, err := New(current, s.ttl)
	if err != nil {
		return nil, err
	}
	s.pages[userID] = p
	return p, nil
}

// Reset drops the user's page. It reports whether one existed.
func (s *Sessions) Reset(userID string) bool {
	s.mu.Lock()
	p, ok := s.pages[userID]
	delete(s.pages, userID)
	s.mu.Unlock()
	if ok {
		p.Close()
	}
	return ok
}

// Close stops every page's timers and refuses new pages.
func (s *Sessions) Close() {
	s.mu.Lock()
	pages := s.pages
	s.pages = make(map[string]*Page)
	s.closed = true
	s.mu.Unlock()
	for _, p := range pages {
		p.Close()
	}
}
