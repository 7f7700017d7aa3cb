// Package session holds the process-wide current location shared by every
// dashboard consumer. The value is injected explicitly into each consumer
// rather than looked up ambiently, and changes fan out through an observer
// channel per subscriber.
package session

import (
	"fmt"
	"strings"
	"sync"
)

// GeoLocation formats a coordinate pair in the ground-truth feed's
// "geo:<lat>;<lon>" location form.
func GeoLocation(lat, lon float64) string {
	return fmt.Sprintf("geo:%.4f;%.4f", lat, lon)
}

// Session is the single current-location cell. Setting is last-write-wins;
// each Set bumps a version so consumers can detect that an in-flight fetch
// went stale. At most one current location exists per Session.
type Session struct {
	mu       sync.RWMutex
	location string
	version  uint64
	subs     map[chan string]struct{}
}

// New creates a Session with an optional starting location.
func New(initial string) *Session {
	s := &Session{subs: make(map[chan string]struct{})}
	if initial != "" {
		s.location = strings.TrimSpace(initial)
		s.version = 1
	}
	return s
}

// Set replaces the current location and notifies subscribers. A notification
// is dropped rather than queued when a subscriber is still processing the
// previous one; the subscriber re-reads the latest value anyway.
func (s *Session) Set(location string) {
	location = strings.TrimSpace(location)
	s.mu.Lock()
	s.location = location
	s.version++
	for ch := range s.subs {
		select {
		case ch <- location:
		default:
		}
	}
	s.mu.Unlock()
}

// Current returns the current location, which may be empty before the first
// Set.
func (s *Session) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.location
}

// Snapshot returns the current location together with its version, for
// stale-fetch guarding: capture the version before fetching, and discard the
// result if StillCurrent reports the session has moved on.
func (s *Session) Snapshot() (string, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.location, s.version
}

// StillCurrent reports whether no Set has happened since the given version
// was snapshotted.
func (s *Session) StillCurrent(version uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version == version
}

// Subscribe registers a change listener. The returned channel carries the
// new location after each Set; cancel removes the subscription and closes
// the channel.
func (s *Session) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}
