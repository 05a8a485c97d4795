// Package projection builds the local feed from observed events.
// Holds ordering and the view model consumed by a rendering surface.
// Does not emit events or talk to any collaborator directly.
package projection

import (
	"sync"

	"secure-messenger/contract"
	"secure-messenger/domain/chat"
)

var _ contract.FeedSink = (*FeedStore)(nil)

// FeedStore holds everything observed on a channel during the current attached session.
// Insertion order is delivery order. It is cleared, never edited.
type FeedStore struct {
	mu        sync.RWMutex
	messages  []chat.Message
	observers []contract.FeedObserver
}

func NewFeedStore() *FeedStore {
	return &FeedStore{
		messages: nil,
	}
}

// Observe registers a rendering surface. Observers run synchronously on the appending goroutine.
func (s *FeedStore) Observe(observer ...contract.FeedObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer...)
}

func (s *FeedStore) Append(message chat.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, message)
	index := len(s.messages) - 1
	observers := s.observers
	s.mu.Unlock()

	for _, o := range observers {
		o.OnAppend(index, message)
	}
}

func (s *FeedStore) Clear() {
	s.mu.Lock()
	s.messages = nil
	observers := s.observers
	s.mu.Unlock()

	for _, o := range observers {
		o.OnClear()
	}
}

// Snapshot returns a copy of the ordered sequence.
func (s *FeedStore) Snapshot() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make([]chat.Message, len(s.messages))
	copy(snapshot, s.messages)
	return snapshot
}

func (s *FeedStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
