package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"formfill/browser"
	"formfill/models"
	"formfill/utils"
)

// ErrSessionNotFound is returned for ids the registry does not hold.
var ErrSessionNotFound = errors.New("session not found")

// Session is a browser left open for a human to review and submit.
type Session struct {
	ID        string
	CreatedAt time.Time

	instance *browser.Instance

	mu       sync.Mutex
	url      string
	title    string
	lastUsed time.Time
}

func NewSession(instance *browser.Instance, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		instance:  instance,
		lastUsed:  now,
	}
}

// Page is the live page owned by the session.
func (s *Session) Page() browser.Page {
	return s.instance.Page
}

// Describe records what the session currently shows.
func (s *Session) Describe(url, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = url
	s.title = title
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) Info() models.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SessionInfo{
		ID:        s.ID,
		URL:       s.url,
		Title:     s.title,
		CreatedAt: s.CreatedAt,
		LastUsed:  s.lastUsed,
	}
}

// Close releases the browser behind the session.
func (s *Session) Close() error {
	return s.instance.Close()
}

// SessionRegistry owns every session handed to the operator until it is
// closed explicitly, evicted by MaxOpen, or reaped after IdleTTL.
// A session is idle from the end of its fill or the last operator lookup by id.
// maxOpen == 0 and idleTTL == 0 disable the respective limit.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	order    []string

	maxOpen int
	idleTTL time.Duration
	now     func() time.Time
}

func NewSessionRegistry(maxOpen int, idleTTL time.Duration) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		maxOpen:  maxOpen,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Open wraps a freshly launched browser in a session and registers it.
func (r *SessionRegistry) Open(instance *browser.Instance) *Session {
	s := NewSession(instance, r.now())
	r.Register(s)
	return s
}

// Register adds s. If that exceeds maxOpen the oldest sessions are closed and
// their ids returned.
func (r *SessionRegistry) Register(s *Session) []string {
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.order = append(r.order, s.ID)

	var evicted []*Session
	if r.maxOpen > 0 {
		for len(r.order) > r.maxOpen {
			oldest := r.order[0]
			r.order = r.order[1:]
			evicted = append(evicted, r.sessions[oldest])
			delete(r.sessions, oldest)
		}
	}
	r.mu.Unlock()

	return closeSessions(evicted, "evicted")
}

// Get returns the session and marks it as used.
func (r *SessionRegistry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		r.markUsed(s)
	}
	return s, ok
}

// markUsed restarts the idle clock of s.
func (r *SessionRegistry) markUsed(s *Session) {
	s.touch(r.now())
}

// List returns the open sessions in registration order.
func (r *SessionRegistry) List() []models.SessionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.SessionInfo, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sessions[id].Info())
	}
	return out
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close removes the session and shuts its browser down.
func (r *SessionRegistry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		r.remove(id)
	}
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	return s.Close()
}

// CloseAll shuts every session down and returns how many were closed.
func (r *SessionRegistry) CloseAll() int {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.sessions[id])
	}
	r.sessions = make(map[string]*Session)
	r.order = nil
	r.mu.Unlock()

	return len(closeSessions(all, "closed"))
}

// Reap closes sessions idle for longer than idleTTL as of now.
func (r *SessionRegistry) Reap(now time.Time) []string {
	if r.idleTTL <= 0 {
		return nil
	}

	r.mu.Lock()
	var expired []*Session
	for _, id := range append([]string(nil), r.order...) {
		s := r.sessions[id]
		if now.Sub(s.idleSince()) > r.idleTTL {
			expired = append(expired, s)
			r.remove(id)
		}
	}
	r.mu.Unlock()

	return closeSessions(expired, "expired")
}

// StartReaper runs Reap every interval until ctx is done. It does nothing when idleTTL is 0.
func (r *SessionRegistry) StartReaper(ctx context.Context, interval time.Duration) {
	if r.idleTTL <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Reap(r.now())
			}
		}
	}()
}

// remove must be called with r.mu held.
func (r *SessionRegistry) remove(id string) {
	delete(r.sessions, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func closeSessions(sessions []*Session, reason string) []string {
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			utils.LogError("Failed to close browser session", err, map[string]interface{}{"session_id": s.ID, "reason": reason})
		} else {
			utils.LogInfo("Browser session closed", map[string]interface{}{"session_id": s.ID, "reason": reason})
		}
		ids = append(ids, s.ID)
	}
	return ids
}
