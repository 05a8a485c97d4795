package services

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"secure-messenger/contract"
	"secure-messenger/domain/chat"
	"secure-messenger/domain/feed"
	"secure-messenger/mocks"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

type sessionFixture struct {
	session  *Session
	identity *mocks.MockIdentityProvider
	listener *mocks.MockFeedAttacher
	store    *mocks.MockFeedSink
	changes  chan contract.IdentityChange
}

func newSession(t *testing.T) sessionFixture {
	ctrl := gomock.NewController(t)
	f := sessionFixture{
		identity: mocks.NewMockIdentityProvider(ctrl),
		listener: mocks.NewMockFeedAttacher(ctrl),
		store:    mocks.NewMockFeedSink(ctrl),
		changes:  make(chan contract.IdentityChange, 8),
	}
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	f.session = NewSession(log, f.identity, f.listener, f.store, feed.DefaultChannel, time.Millisecond)
	f.identity.EXPECT().Watch(gomock.Any()).Return((<-chan contract.IdentityChange)(f.changes)).MaxTimes(1)
	return f
}

func signedIn(name string) contract.IdentityChange {
	return contract.IdentityChange{Identity: contract.Identity{UserID: name + "-id", DisplayName: name}, SignedIn: true}
}

func waitFor(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestSession_SignIn_Attaches_And_Pause_Detaches(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	f := newSession(t)
	attached := make(chan struct{})

	gomock.InOrder(
		f.listener.EXPECT().Detach(),
		f.store.EXPECT().Clear(),
		f.listener.EXPECT().Attach(gomock.Any(), feed.DefaultChannel).
			DoAndReturn(func(context.Context, feed.Channel) error {
				close(attached)
				return nil
			}),
		f.listener.EXPECT().Detach(),
		f.store.EXPECT().Clear(),
	)

	// Given the client starts signed out, then alice signs in
	f.changes <- contract.IdentityChange{}
	f.changes <- signedIn("alice")

	// When the session is resumed
	f.session.Resume(context.Background())
	waitFor(t, attached)

	// Then messages are signed by alice until the session is paused
	req.Equal("alice", f.session.Author())
	f.session.Pause()
}

func TestSession_SignOut_Resets_Author_And_Clears(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	f := newSession(t)
	cleared := make(chan struct{})

	gomock.InOrder(
		f.listener.EXPECT().Attach(gomock.Any(), feed.DefaultChannel).Return(nil),
		f.listener.EXPECT().Detach(),
		f.store.EXPECT().Clear().Do(func() { close(cleared) }),
	)
	f.listener.EXPECT().Detach().AnyTimes()
	f.store.EXPECT().Clear().AnyTimes()

	f.changes <- signedIn("bob")
	f.changes <- contract.IdentityChange{}
	f.session.Resume(context.Background())
	waitFor(t, cleared)

	req.Equal(chat.Anonymous, f.session.Author())
	f.session.Pause()
}

func TestSession_Resume_IsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newSession(t)
	f.listener.EXPECT().Detach().AnyTimes()
	f.store.EXPECT().Clear().AnyTimes()

	f.session.Resume(context.Background())
	f.session.Resume(context.Background())
	f.session.Pause()
	f.session.Pause()
}

func TestSession_Attach_Failure_Keeps_Session_Alive(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	f := newSession(t)
	failed := make(chan struct{})

	f.listener.EXPECT().Attach(gomock.Any(), feed.DefaultChannel).
		DoAndReturn(func(context.Context, feed.Channel) error {
			close(failed)
			return fmt.Errorf("backend unavailable")
		})
	f.listener.EXPECT().Detach()
	f.store.EXPECT().Clear()

	f.changes <- signedIn("carol")
	f.session.Resume(context.Background())
	waitFor(t, failed)

	req.Equal("carol", f.session.Author())
	f.session.Pause()
}
