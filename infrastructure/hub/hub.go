// Package hub is a local, single node change-feed: an ordered store of
// channel entries with live fan-out to subscribers.
package hub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"secure-messenger/contract"
	"secure-messenger/domain/feed"
	"secure-messenger/errors"
	"secure-messenger/repositories"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var (
	_ contract.ChangeFeed = (*Hub)(nil)
	_ contract.Appender   = (*Hub)(nil)
)

// Hub serializes appends and subscriptions per hub so that a subscriber
// gets the backlog and then every later entry, with no gap and no duplicate.
type Hub struct {
	mu         sync.Mutex
	log        *slog.Logger
	repository repositories.IFeedRepository
	registry   *Registry
	sequences  map[feed.Channel]uint64
	lastKeys   map[feed.Channel]string
	closed     bool
}

func NewHub(log *slog.Logger, repository repositories.IFeedRepository, registry *Registry) *Hub {
	return &Hub{
		log:        log,
		repository: repository,
		registry:   registry,
		sequences:  make(map[feed.Channel]uint64),
		lastKeys:   make(map[feed.Channel]string),
	}
}

// Append stores the payload and publishes it to every subscriber of the channel.
// It returns the key of the new entry.
func (h *Hub) Append(ctx context.Context, channel feed.Channel, payload map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if channel == "" {
		return "", errors.ErrEmptyChannel
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return "", errors.ErrHubClosed
	}
	sequence, err := h.nextSequence(channel)
	if err != nil {
		return "", err
	}
	entry := repositories.FeedEntry{
		Channel:  channel,
		Key:      repositories.EntryKey(sequence, uuid.NewString()),
		Sequence: sequence,
		Payload:  payload,
		At:       time.Now().UTC(),
	}
	if err = h.repository.Store(entry); err != nil {
		return "", fmt.Errorf("append to %s: %w", channel, err)
	}
	h.sequences[channel] = sequence

	evt := feed.ChangeEvent{
		Kind:               feed.Added,
		Channel:            channel,
		Key:                entry.Key,
		Payload:            payload,
		PreviousSiblingKey: previous(h.lastKeys[channel]),
	}
	h.lastKeys[channel] = entry.Key

	subscribers := h.registry.ForChannel(channel)
	for _, sub := range subscribers {
		sub.push(evt)
	}
	h.log.Debug("Entry appended", "channel", channel, "key", entry.Key, "subscribers", len(subscribers))
	return entry.Key, nil
}

// Subscribe registers interest in channel. The subscription ends when ctx is
// done, when it is closed, or when the hub shuts down.
func (h *Hub) Subscribe(ctx context.Context, channel feed.Channel) (contract.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if channel == "" {
		return nil, errors.ErrEmptyChannel
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, errors.ErrHubClosed
	}
	entries, err := h.repository.Scan(channel)
	if err != nil {
		return nil, fmt.Errorf("read backlog of %s: %w", channel, err)
	}

	backlog := make([]feed.ChangeEvent, 0, len(entries))
	var previousKey string
	for _, entry := range entries {
		backlog = append(backlog, feed.ChangeEvent{
			Kind:               feed.Added,
			Channel:            channel,
			Key:                entry.Key,
			Payload:            entry.Payload,
			PreviousSiblingKey: previous(previousKey),
		})
		previousKey = entry.Key
	}

	sub := newSubscription(uuid.NewString(), channel, backlog, h.registry.Unsubscribe)
	h.registry.Subscribe(sub)
	sub.bind(context.AfterFunc(ctx, func() { sub.end(ctx.Err()) }))

	h.log.Debug("Subscribed", "channel", channel, "backlog", len(backlog))
	return sub, nil
}

// Disconnect cancels every subscription of a channel, as a dropped transport would.
func (h *Hub) Disconnect(channel feed.Channel) {
	for _, sub := range h.registry.ForChannel(channel) {
		sub.end(errors.ErrFeedCancelled)
	}
}

// Shutdown cancels every subscription and refuses further appends and subscriptions.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	for _, sub := range h.registry.All() {
		sub.end(errors.ErrFeedCancelled)
	}
}

func (h *Hub) Subscribers(channel feed.Channel) int {
	return h.registry.Count(channel)
}

func (h *Hub) nextSequence(channel feed.Channel) (uint64, error) {
	last, ok := h.sequences[channel]
	if !ok {
		key, err := h.repository.LastKey(channel)
		if err != nil {
			return 0, fmt.Errorf("read last key of %s: %w", channel, err)
		}
		if key != "" {
			if last, err = repositories.SequenceOf(key); err != nil {
				return 0, err
			}
		}
		h.lastKeys[channel] = key
	}
	return last + 1, nil
}

func previous(key string) *string {
	if key == "" {
		return nil
	}
	return lo.ToPtr(key)
}
