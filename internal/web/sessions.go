package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lepinkainen/marquee/internal/browse"
)

// SessionCookie names the cookie carrying a visitor's session id.
const SessionCookie = "marquee_session"

type sessionEntry struct {
	controller *browse.Controller
	lastSeen   time.Time
}

// SessionStore keeps one controller per visitor and forgets visitors idle
// for longer than its TTL.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
	factory  func() *browse.Controller
	now      func() time.Time
}

// NewSessionStore creates a store that builds controllers with factory.
func NewSessionStore(ttl time.Duration, factory func() *browse.Controller) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		factory:  factory,
		now:      time.Now,
	}
}

// Controller returns the visitor's controller, starting a new session and
// setting the cookie when the request carries no live session.
func (s *SessionStore) Controller(w http.ResponseWriter, r *http.Request) *browse.Controller {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if entry, ok := s.sessions[cookie.Value]; ok && !s.expired(entry, now) {
			entry.lastSeen = now
			return entry.controller
		}
	}

	id := uuid.NewString()
	entry := &sessionEntry{controller: s.factory(), lastSeen: now}
	s.sessions[id] = entry

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	slog.Debug("Started browsing session", "session", id)
	return entry.controller
}

func (s *SessionStore) expired(entry *sessionEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(entry.lastSeen) > s.ttl
}

// Sweep drops idle sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.sessions {
		if s.expired(entry, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of sessions held.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run sweeps idle sessions every interval until ctx is done.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Debug("Evicted idle sessions", "count", n, "remaining", s.Len())
			}
		}
	}
}
