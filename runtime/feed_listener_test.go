package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"secure-messenger/domain/chat"
	"secure-messenger/domain/feed"
	"secure-messenger/errors"
	"secure-messenger/mocks"
	"secure-messenger/projection"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

// expectSubscription wires a mocked subscription fed by the returned channel.
func expectSubscription(ctrl *gomock.Controller, mockFeed *mocks.MockChangeFeed, channel feed.Channel) chan feed.ChangeEvent {
	events := make(chan feed.ChangeEvent, 16)
	sub := mocks.NewMockSubscription(ctrl)
	mockFeed.EXPECT().Subscribe(gomock.Any(), channel).Return(sub, nil).Times(1)
	sub.EXPECT().Events().Return((<-chan feed.ChangeEvent)(events)).AnyTimes()
	sub.EXPECT().Err().Return(nil).AnyTimes()
	sub.EXPECT().Close().AnyTimes()
	return events
}

func newListener(t *testing.T) (*FeedListener, *mocks.MockChangeFeed, *projection.FeedStore, *gomock.Controller) {
	ctrl := gomock.NewController(t)
	mockFeed := mocks.NewMockChangeFeed(ctrl)
	store := projection.NewFeedStore()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	return NewFeedListener(log, mockFeed, store, time.Millisecond, false), mockFeed, store, ctrl
}

func TestFeedListener_Attach_DeliversBacklog_InOrder(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	listener, mockFeed, store, ctrl := newListener(t)
	defer ctrl.Finish()

	// Given a channel with an existing backlog
	events := expectSubscription(ctrl, mockFeed, feed.DefaultChannel)
	events <- feed.ChangeEvent{Kind: feed.Added, Key: "a", Payload: map[string]any{"text": "hi", "name": "alice"}}
	events <- feed.ChangeEvent{Kind: feed.Added, Key: "b", Payload: map[string]any{"photoUrl": "http://x/1.jpg", "name": "bob"}}

	// When the listener attaches
	req.NoError(listener.Attach(context.Background(), feed.DefaultChannel))
	defer listener.Detach()

	// Then the store holds the backlog in feed order
	req.Eventually(func() bool { return store.Len() == 2 }, time.Second, 5*time.Millisecond)
	req.Equal([]chat.Message{
		{Text: "hi", Author: "alice"},
		{PhotoURL: "http://x/1.jpg", Author: "bob"},
	}, store.Snapshot())
}

func TestFeedListener_Attach_IsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	listener, mockFeed, store, ctrl := newListener(t)
	defer ctrl.Finish()

	// Given a single subscription is expected
	events := expectSubscription(ctrl, mockFeed, feed.DefaultChannel)
	events <- feed.ChangeEvent{Kind: feed.Added, Key: "a", Payload: map[string]any{"text": "hi", "name": "alice"}}

	// When attaching twice in a row
	req.NoError(listener.Attach(context.Background(), feed.DefaultChannel))
	req.NoError(listener.Attach(context.Background(), feed.DefaultChannel))

	// Then the backlog is delivered once
	req.Eventually(func() bool { return store.Len() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	req.Equal(1, store.Len())

	channel, attached := listener.Attached()
	req.True(attached)
	req.Equal(feed.DefaultChannel, channel)

	listener.Detach()
}

func TestFeedListener_Detach_IsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	listener, mockFeed, _, ctrl := newListener(t)
	defer ctrl.Finish()

	// Detaching while detached is a no-op
	listener.Detach()

	expectSubscription(ctrl, mockFeed, feed.DefaultChannel)
	req.NoError(listener.Attach(context.Background(), feed.DefaultChannel))

	listener.Detach()
	listener.Detach()

	_, attached := listener.Attached()
	req.False(attached)
}

func TestFeedListener_NoDelivery_AfterDetach(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	listener, mockFeed, store, ctrl := newListener(t)
	defer ctrl.Finish()

	events := expectSubscription(ctrl, mockFeed, feed.DefaultChannel)
	req.NoError(listener.Attach(context.Background(), feed.DefaultChannel))
	events <- feed.ChangeEvent{Kind: feed.Added, Key: "a", Payload: map[string]any{"text": "hi", "name": "alice"}}
	req.Eventually(func() bool { return store.Len() == 1 }, time.Second, 5*time.Millisecond)

	// When the listener detaches and an entry is still queued
	listener.Detach()
	events <- feed.ChangeEvent{Kind: feed.Added, Key: "b", Payload: map[string]any{"text": "late", "name": "bob"}}
	time.Sleep(20 * time.Millisecond)

	// Then the late entry never reaches the store
	req.Equal(1, store.Len())
}

func TestFeedListener_Detach_Clear_Attach_StartsEmpty(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	listener, mockFeed, store, ctrl := newListener(t)
	defer ctrl.Finish()

	events := expectSubscription(ctrl, mockFeed, feed.DefaultChannel)
	events <- feed.ChangeEvent{Kind: feed.Added, Key: "a", Payload: map[string]any{"text": "hi", "name": "alice"}}
	req.NoError(listener.Attach(context.Background(), feed.DefaultChannel))
	req.Eventually(func() bool { return store.Len() == 1 }, time.Second, 5*time.Millisecond)

	// When detaching and clearing
	listener.Detach()
	store.Clear()
	req.Empty(store.Snapshot())

	// And attaching again to a channel whose backlog is not delivered yet
	replay := expectSubscription(ctrl, mockFeed, feed.DefaultChannel)
	req.NoError(listener.Attach(context.Background(), feed.DefaultChannel))
	defer listener.Detach()

	// Then the store starts empty
	req.Empty(store.Snapshot())

	// And the replayed backlog is delivered again, once
	replay <- feed.ChangeEvent{Kind: feed.Added, Key: "a", Payload: map[string]any{"text": "hi", "name": "alice"}}
	req.Eventually(func() bool { return store.Len() == 1 }, time.Second, 5*time.Millisecond)
}

func TestFeedListener_Attach_OtherChannel_Fails(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	listener, mockFeed, _, ctrl := newListener(t)
	defer ctrl.Finish()

	expectSubscription(ctrl, mockFeed, feed.DefaultChannel)
	req.NoError(listener.Attach(context.Background(), feed.DefaultChannel))
	defer listener.Detach()

	err := listener.Attach(context.Background(), feed.Channel("other"))
	req.ErrorIs(err, errors.ErrAttachedElsewhere)
}

func TestFeedListener_Attach_SubscribeError_StaysDetached(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	listener, mockFeed, _, ctrl := newListener(t)
	defer ctrl.Finish()

	mockFeed.EXPECT().Subscribe(gomock.Any(), feed.DefaultChannel).Return(nil, fmt.Errorf("offline")).Times(1)

	req.Error(listener.Attach(context.Background(), feed.DefaultChannel))
	_, attached := listener.Attached()
	req.False(attached)

	req.ErrorIs(listener.Attach(context.Background(), ""), errors.ErrEmptyChannel)
}

func TestFeedListener_ContextCancel_Releases_Attachment(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	listener, mockFeed, store, ctrl := newListener(t)
	defer ctrl.Finish()

	// Given a listener attached with a cancellable context and never detached
	expectSubscription(ctrl, mockFeed, feed.DefaultChannel)
	ctx, cancel := context.WithCancel(context.Background())
	req.NoError(listener.Attach(ctx, feed.DefaultChannel))

	// When that context is cancelled
	cancel()

	// Then the listener reports itself detached
	req.Eventually(func() bool {
		_, attached := listener.Attached()
		return !attached
	}, time.Second, 5*time.Millisecond)

	// And a later attach subscribes again and delivers
	events := expectSubscription(ctrl, mockFeed, feed.DefaultChannel)
	req.NoError(listener.Attach(context.Background(), feed.DefaultChannel))
	defer listener.Detach()
	events <- feed.ChangeEvent{Kind: feed.Added, Key: "a", Payload: map[string]any{"text": "hi", "name": "alice"}}
	req.Eventually(func() bool { return store.Len() == 1 }, time.Second, 5*time.Millisecond)
	channel, attached := listener.Attached()
	req.True(attached)
	req.Equal(feed.DefaultChannel, channel)
}
