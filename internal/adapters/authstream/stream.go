// Package authstream implements the provider-side auth-state-change
// stream shared by identity provider adapters. Subscribers receive the
// current state on subscription, then every change, in emission order.
package authstream

import (
	"errors"
	"sync"

	"github.com/classboard-app/classboard/internal/ports"
)

// queueDepth bounds each subscriber's delivery queue. When a consumer
// falls this far behind, the oldest pending event is dropped; delivery
// order of the remaining events is preserved.
const queueDepth = 32

// ErrClosed indicates the stream no longer accepts subscribers.
var ErrClosed = errors.New("auth state stream is closed")

type subscriber struct {
	queue chan *ports.ProviderUser
	done  chan struct{}
}

// Stream fans auth-state events out to subscribers. Each subscriber is
// serviced by its own delivery goroutine so one slow callback cannot
// stall the producer or other subscribers.
type Stream struct {
	mu      sync.Mutex
	subs    map[int]*subscriber
	nextID  int
	current *ports.ProviderUser
	closed  bool
}

// New returns a stream in the signed-out state (current user nil).
func New() *Stream {
	return &Stream{subs: make(map[int]*subscriber)}
}

// Subscribe registers cb and schedules asynchronous delivery of the
// current state followed by all subsequent changes.
func (s *Stream) Subscribe(cb ports.AuthStateCallback) (func(), error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}

	id := s.nextID
	s.nextID++
	sub := &subscriber{
		queue: make(chan *ports.ProviderUser, queueDepth),
		done:  make(chan struct{}),
	}
	s.subs[id] = sub
	sub.queue <- s.current
	s.mu.Unlock()

	go sub.deliver(cb)

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(sub.done)
		})
	}
	return unsubscribe, nil
}

// Emit records the new current state and fans it out.
func (s *Stream) Emit(user *ports.ProviderUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.current = user
	for _, sub := range s.subs {
		select {
		case sub.queue <- user:
		default:
			// Full queue: drop the oldest pending event to make room.
			select {
			case <-sub.queue:
			default:
			}
			sub.queue <- user
		}
	}
}

// Current returns the provider's current user (nil when signed out).
func (s *Stream) Current() *ports.ProviderUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SignedIn reports whether a provider session is active.
func (s *Stream) SignedIn() bool { return s.Current() != nil }

// Close stops all subscribers and rejects future subscriptions.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, sub := range s.subs {
		delete(s.subs, id)
		close(sub.done)
	}
}

func (sub *subscriber) deliver(cb ports.AuthStateCallback) {
	for {
		select {
		case user := <-sub.queue:
			cb(user)
		case <-sub.done:
			return
		}
	}
}
