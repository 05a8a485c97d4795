package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"secure-messenger/contract"
	"secure-messenger/domain/chat"
	"secure-messenger/domain/feed"
	"secure-messenger/runtime/workers"
)

var _ AuthorSource = (*Session)(nil)

// Session binds the identity of the user and the foreground state of the client
// to the feed: signed in and resumed means attached, anything else means detached
// with an empty store.
type Session struct {
	log             *slog.Logger
	identity        contract.IdentityProvider
	listener        contract.FeedAttacher
	store           contract.FeedSink
	channel         feed.Channel
	restartInterval time.Duration

	mu         sync.Mutex
	author     string
	stop       context.CancelFunc
	supervisor contract.ISupervisor
}

func NewSession(log *slog.Logger, identity contract.IdentityProvider, listener contract.FeedAttacher,
	store contract.FeedSink, channel feed.Channel, restartInterval time.Duration) *Session {
	return &Session{
		log:             log,
		identity:        identity,
		listener:        listener,
		store:           store,
		channel:         channel,
		restartInterval: restartInterval,
		author:          chat.Anonymous,
	}
}

// Author is the display name of the signed-in user, Anonymous otherwise.
func (s *Session) Author() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.author
}

// Resume starts following identity changes. No-op when already resumed.
func (s *Session) Resume(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	watchCtx, cancel := context.WithCancel(ctx)
	supervisor := workers.NewSupervisor(s.log, s.restartInterval)
	supervisor.Start(watchCtx, workers.NewIdentityWatcher(s.log, s.identity, s.onIdentity))
	s.stop, s.supervisor = cancel, supervisor
	s.log.Debug("Session resumed", "channel", s.channel)
}

// Pause stops following identity changes, detaches from the feed and empties the store.
func (s *Session) Pause() {
	s.mu.Lock()
	stop, supervisor := s.stop, s.supervisor
	s.stop, s.supervisor = nil, nil
	s.mu.Unlock()

	if stop != nil {
		stop()
		supervisor.Wait()
	}
	s.listener.Detach()
	s.store.Clear()
	s.log.Debug("Session paused", "channel", s.channel)
}

func (s *Session) onIdentity(ctx context.Context, change contract.IdentityChange) {
	if change.SignedIn {
		s.setAuthor(change.Identity.DisplayName)
		if err := s.listener.Attach(ctx, s.channel); err != nil {
			s.log.Error("Unable to attach to the feed", "channel", s.channel, "error", err)
		}
		return
	}
	s.setAuthor(chat.Anonymous)
	// Detached first so no late entry lands after the clear
	s.listener.Detach()
	s.store.Clear()
}

func (s *Session) setAuthor(name string) {
	if name == "" {
		name = chat.Anonymous
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.author = name
}
