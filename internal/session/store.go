package session

import (
	"fmt"
	"sync"
	"time"

	"memory-keeper/backend/internal/models"
)

// NewID mints a session identifier. IDs are time-based tokens generated once
// per conversation and never reused; every new conversation gets a fresh one.
func NewID() string {
	return fmt.Sprintf("session-%d", time.Now().UnixNano())
}

type entry struct {
	messages []models.ChatMessage
	touched  time.Time
}

// Store keeps an in-memory ordered projection of the chat messages for
// active sessions. The database is the source of truth: messages are
// appended here only after the persistence call has been acknowledged,
// so the projection never runs ahead of the store. Entries are released
// when their session is compiled and swept when idle past the TTL.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	maxLen   int
	ttl      time.Duration
}

// NewStore creates an empty session store. maxLen bounds the number of
// messages retained per session; zero means unbounded. ttl bounds how long
// an idle session's projection is kept; zero disables the sweep.
func NewStore(maxLen int, ttl time.Duration) *Store {
	s := &Store{
		sessions: make(map[string]*entry),
		maxLen:   maxLen,
		ttl:      ttl,
	}

	if ttl > 0 {
		go s.sweep()
	}

	return s
}

// Append records an acknowledged message at the tail of its session's log.
func (s *Store) Append(msg models.ChatMessage) {
	if msg.SessionID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[msg.SessionID]
	if !ok {
		e = &entry{}
		s.sessions[msg.SessionID] = e
	}

	e.messages = append(e.messages, msg)
	if s.maxLen > 0 && len(e.messages) > s.maxLen {
		e.messages = e.messages[len(e.messages)-s.maxLen:]
	}
	e.touched = time.Now()
}

// Transcript returns a copy of the session's messages in append order.
// The second return is false when the session has no local projection.
func (s *Store) Transcript(sessionID string) ([]models.ChatMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}

	out := make([]models.ChatMessage, len(e.messages))
	copy(out, e.messages)
	return out, true
}

// Drop discards a session's projection, typically after it has been
// compiled into a memory.
func (s *Store) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// sweep periodically releases projections that have been idle past the TTL.
func (s *Store) sweep() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()

	for range ticker.C {
		s.prune(time.Now().Add(-s.ttl))
	}
}

func (s *Store) prune(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sessionID, e := range s.sessions {
		if e.touched.Before(cutoff) {
			delete(s.sessions, sessionID)
		}
	}
}
