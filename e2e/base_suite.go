package e2e

import (
	"fmt"
	"log/slog"
	"time"

	"secure-messenger/auth"
	"secure-messenger/domain/chat"
	"secure-messenger/domain/feed"
	"secure-messenger/infrastructure/hub"
	"secure-messenger/projection"
	"secure-messenger/repositories"
	"secure-messenger/runtime"
	"secure-messenger/services"
	"secure-messenger/storage"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// BaseFeedSuite runs every client of a scenario against one shared local backend.
type BaseFeedSuite struct {
	suite.Suite
	Config Config
	log    *slog.Logger
	db     *badger.DB
	feeds  repositories.FeedRepository
	users  repositories.IUserRepository
	Hub    *hub.Hub
}

// Client is one running messenger: its own identity, store, listener and session.
type Client struct {
	Auth     *services.AuthService
	Chat     *services.ChatService
	Session  *services.Session
	Listener *runtime.FeedListener
	Store    *projection.FeedStore
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseFeedSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	s.log = logs.GetLoggerFromLevel(slog.LevelDebug)
}

func (s *BaseFeedSuite) SetupTest() {
	db, err := badger.Open(badger.DefaultOptions(s.T().TempDir()).WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)
	s.db = db
	s.feeds = repositories.NewFeedRepository(db, s.log)
	s.users = repositories.NewUserRepository(db)
	s.Hub = hub.NewHub(s.log, s.feeds, hub.NewRegistry())
}

func (s *BaseFeedSuite) TearDownTest() {
	if s.Config.DebugJSON {
		s.dump(feed.DefaultChannel)
	}
	s.Hub.Shutdown()
	s.Require().NoError(s.db.Close())
}

// NewClient builds a messenger on the shared backend.
func (s *BaseFeedSuite) NewClient(resubscribe bool) *Client {
	tokens := auth.NewTokenIssuer("e2e-secret", time.Hour)
	store := projection.NewFeedStore()
	c := &Client{
		Auth:     services.NewAuthService(s.log, s.users, tokens),
		Store:    store,
		Listener: runtime.NewFeedListener(s.log, s.Hub, store, s.Config.RestartInterval, resubscribe),
	}
	c.Session = services.NewSession(s.log, c.Auth, c.Listener, store, feed.DefaultChannel, s.Config.RestartInterval)
	photos := storage.NewDiskPhotoStore(s.log, s.T().TempDir())
	c.Chat = services.NewChatService(s.log, s.Hub, photos, c.Session, feed.DefaultChannel)
	return c
}

// Step prints a colorized header for a scenario step
func (s *BaseFeedSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// RequireFeed waits until the store holds exactly the expected records.
func (s *BaseFeedSuite) RequireFeed(store *projection.FeedStore, expected ...chat.Message) {
	s.Require().Eventually(func() bool {
		return store.Len() == len(expected)
	}, s.Config.DeliveryTimeout, 5*time.Millisecond, "feed has %d records", store.Len())
	if len(expected) == 0 {
		s.Require().Empty(store.Snapshot())
		return
	}
	s.Require().Equal(expected, store.Snapshot())
}

func (s *BaseFeedSuite) dump(channel feed.Channel) {
	entries, err := s.feeds.Scan(channel)
	s.Require().NoError(err)
	marshaler := protojson.MarshalOptions{Multiline: true}
	for _, entry := range entries {
		value, err := structpb.NewStruct(entry.Payload)
		s.Require().NoError(err)
		s.T().Logf("%s\n%s", entry.Key, marshaler.Format(value))
	}
}
