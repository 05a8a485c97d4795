package workers

import (
	"context"
	"fmt"
	"log/slog"

	"secure-messenger/contract"
	"secure-messenger/domain/chat"
	"secure-messenger/domain/feed"
	"secure-messenger/errors"
)

var _ contract.Worker = (*FeedPump)(nil)

// FeedPump drains one channel subscription into a sink.
//
// It is the single serialized append path of a listener: every added entry is
// decoded and appended in delivery order, on the pump goroutine only.
// Changed, removed and moved entries are acknowledged and dropped.
//
// A pump lives for one attached session. Keys already delivered during that
// session are skipped, so a resubscription replaying the backlog does not
// duplicate entries.
type FeedPump struct {
	log         *slog.Logger
	feed        contract.ChangeFeed
	channel     feed.Channel
	sink        contract.FeedSink
	resubscribe bool
	pending     contract.Subscription
	seen        map[string]struct{}
}

func NewFeedPump(log *slog.Logger, changeFeed contract.ChangeFeed, channel feed.Channel,
	sink contract.FeedSink, resubscribe bool) *FeedPump {
	return &FeedPump{
		log:         log,
		feed:        changeFeed,
		channel:     channel,
		sink:        sink,
		resubscribe: resubscribe,
		seen:        make(map[string]struct{}),
	}
}

// WithSubscription hands an already opened subscription to the first run.
func (p *FeedPump) WithSubscription(sub contract.Subscription) *FeedPump {
	p.pending = sub
	return p
}

// Run returns nil when the pump is done for good, and an error when the
// subscription was cancelled by the collaborator and resubscription is enabled.
func (p *FeedPump) Run(ctx context.Context) error {
	sub, err := p.subscription(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer sub.Close()

	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-events:
			if !ok {
				return p.ended(ctx, sub.Err())
			}
			// Detach may have raced with the receive
			if ctx.Err() != nil {
				return nil
			}
			p.handle(evt)
		}
	}
}

func (p *FeedPump) subscription(ctx context.Context) (contract.Subscription, error) {
	if p.pending != nil {
		sub := p.pending
		p.pending = nil
		return sub, nil
	}
	p.log.Debug("Subscribing", "channel", p.channel)
	sub, err := p.feed.Subscribe(ctx, p.channel)
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", p.channel, err)
	}
	return sub, nil
}

func (p *FeedPump) ended(ctx context.Context, err error) error {
	if ctx.Err() != nil || err == nil {
		return nil
	}
	p.log.Warn("Feed subscription cancelled", "channel", p.channel, "error", err, "resubscribe", p.resubscribe)
	if !p.resubscribe {
		return nil
	}
	return fmt.Errorf("%w: %v", errors.ErrFeedCancelled, err)
}

func (p *FeedPump) handle(evt feed.ChangeEvent) {
	if evt.Kind != feed.Added {
		p.log.Debug("Ignoring change event", "channel", p.channel, "kind", evt.Kind, "key", evt.Key)
		return
	}
	if evt.Key != "" {
		if _, ok := p.seen[evt.Key]; ok {
			p.log.Debug("Skipping entry already delivered", "channel", p.channel, "key", evt.Key)
			return
		}
		p.seen[evt.Key] = struct{}{}
	}
	p.sink.Append(chat.Decode(evt.Payload))
}
