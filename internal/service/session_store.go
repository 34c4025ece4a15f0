package service

import (
	"sync"

	"github.com/google/uuid"

	domainauth "github.com/classboard-app/classboard/internal/domain/auth"
)

// SessionStore holds the process-wide current Session. It is the only
// mutable shared state in the subsystem: a single writer (the session
// pump) replaces the whole value per provider event, and readers either
// poll Current or watch the republished snapshot stream.
type SessionStore struct {
	mu      sync.RWMutex
	current domainauth.Session

	// lastAuthErr is the most recent sign-in failure surfaced through
	// RequestSignIn/RequestSignOut. It is overlaid onto non-authenticated
	// snapshots so the entry page can render the failure inline even
	// though the provider's own events carry no error payload.
	lastAuthErr *domainauth.AuthError

	watchers map[string]chan domainauth.Session
	closed   bool
}

// NewSessionStore returns a store in the loading state. A fresh process
// always starts loading and waits for the provider's initial callback.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		current:  domainauth.NewLoadingSession(),
		watchers: make(map[string]chan domainauth.Session),
	}
}

// Current returns the current session snapshot synchronously.
func (s *SessionStore) Current() domainauth.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overlayLocked(s.current)
}

// Watch registers a watcher and returns its snapshot channel plus an
// unsubscribe function. Each watcher has a one-slot latest-wins buffer:
// a slow consumer skips intermediate snapshots but never observes them
// out of apply order. Unsubscribing closes the channel.
func (s *SessionStore) Watch() (<-chan domainauth.Session, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan domainauth.Session, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	key := uuid.NewString()
	s.watchers[key] = ch
	// Deliver the current snapshot immediately so new watchers do not
	// wait for the next transition.
	ch <- s.overlayLocked(s.current)

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		w, ok := s.watchers[key]
		if !ok {
			return
		}
		delete(s.watchers, key)
		drainAndClose(w)
	}
	return ch, unsubscribe
}

// apply replaces the session wholesale and republishes it to watchers.
// No partial updates: the new value fully supersedes the old one so
// consumers never see torn reads.
func (s *SessionStore) apply(next domainauth.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if next.Authenticated() {
		// A successful sign-in clears any stale failure annotation.
		s.lastAuthErr = nil
	}
	s.current = next
	s.broadcastLocked()
}

// Fail forces the terminal error state. Used when the provider
// subscription cannot be established or the subsystem is misconfigured
// at startup.
func (s *SessionStore) Fail(err *domainauth.AuthError) {
	s.apply(domainauth.NewErrorSession(err))
}

// SetAuthError records a sign-in/sign-out failure for inline display.
// The session status itself is driven only by provider events; the
// annotation rides along on non-authenticated snapshots.
func (s *SessionStore) SetAuthError(err *domainauth.AuthError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.lastAuthErr = err
	s.broadcastLocked()
}

// ClearAuthError drops the failure annotation, typically when a new
// sign-in attempt begins.
func (s *SessionStore) ClearAuthError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.lastAuthErr == nil {
		return
	}
	s.lastAuthErr = nil
	s.broadcastLocked()
}

// Close releases all watchers. Subsequent applies are ignored and new
// watchers receive an already-closed channel.
func (s *SessionStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for key, ch := range s.watchers {
		delete(s.watchers, key)
		drainAndClose(ch)
	}
}

func (s *SessionStore) broadcastLocked() {
	snapshot := s.overlayLocked(s.current)
	for _, ch := range s.watchers {
		// Latest wins: displace a pending snapshot rather than block the
		// single writer on a slow consumer.
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}

func (s *SessionStore) overlayLocked(sess domainauth.Session) domainauth.Session {
	if sess.Err == nil && !sess.Authenticated() && s.lastAuthErr != nil {
		sess.Err = s.lastAuthErr
	}
	return sess
}

// drainAndClose removes any buffered snapshot before closing so
// receivers observe a closed channel immediately.
func drainAndClose(ch chan domainauth.Session) {
	for {
		select {
		case <-ch:
		default:
			close(ch)
			return
		}
	}
}
