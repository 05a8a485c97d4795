package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"secure-messenger/contract"
	"secure-messenger/domain/feed"
	"secure-messenger/errors"
	"secure-messenger/runtime/workers"
)

// FeedListener keeps at most one live subscription and pumps its added
// entries into a sink. States: Detached and Attached, both transitions
// idempotent.
//
// Detach joins the pump goroutine, so no append reaches the sink once it
// returns. An append already running when Detach is called completes first.
// Detach must not be called from inside the sink callback.
type FeedListener struct {
	mu              sync.Mutex
	log             *slog.Logger
	feed            contract.ChangeFeed
	sink            contract.FeedSink
	restartInterval time.Duration
	resubscribe     bool
	current         *attachment
}

type attachment struct {
	channel    feed.Channel
	cancel     context.CancelFunc
	supervisor contract.ISupervisor
}

func NewFeedListener(log *slog.Logger, changeFeed contract.ChangeFeed, sink contract.FeedSink,
	restartInterval time.Duration, resubscribe bool) *FeedListener {
	return &FeedListener{
		log:             log,
		feed:            changeFeed,
		sink:            sink,
		restartInterval: restartInterval,
		resubscribe:     resubscribe,
	}
}

// Attach subscribes to channel. The backlog is delivered first, then live
// entries, until Detach. When ctx ends the listener detaches on its own.
func (l *FeedListener) Attach(ctx context.Context, channel feed.Channel) error {
	if channel == "" {
		return errors.ErrEmptyChannel
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current != nil {
		if l.current.channel == channel {
			return nil
		}
		return fmt.Errorf("%w: %s", errors.ErrAttachedElsewhere, l.current.channel)
	}

	pumpCtx, cancel := context.WithCancel(ctx)
	sub, err := l.feed.Subscribe(pumpCtx, channel)
	if err != nil {
		cancel()
		return fmt.Errorf("attach to %s: %w", channel, err)
	}

	pump := workers.NewFeedPump(l.log, l.feed, channel, l.sink, l.resubscribe).WithSubscription(sub)
	supervisor := workers.NewSupervisor(l.log, l.restartInterval)
	supervisor.Start(pumpCtx, pump)

	att := &attachment{channel: channel, cancel: cancel, supervisor: supervisor}
	l.current = att
	go l.release(pumpCtx, att)
	l.log.Debug("Listener attached", "channel", channel)
	return nil
}

// release clears att once its pump stopped because ctx ended. Detach clears it first otherwise.
func (l *FeedListener) release(ctx context.Context, att *attachment) {
	att.supervisor.Wait()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current != att || ctx.Err() == nil {
		return
	}
	att.cancel()
	l.current = nil
	l.log.Debug("Listener released", "channel", att.channel, "reason", context.Cause(ctx))
}

// Detach unsubscribes and waits for the pump to stop. No-op when detached.
func (l *FeedListener) Detach() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}
	l.current.cancel()
	l.current.supervisor.Wait()
	l.log.Debug("Listener detached", "channel", l.current.channel)
	l.current = nil
}

func (l *FeedListener) Attached() (feed.Channel, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return "", false
	}
	return l.current.channel, true
}
