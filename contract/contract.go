//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"io"
	"reflect"

	"secure-messenger/domain/chat"
	"secure-messenger/domain/feed"
)

// ISupervisor runs workers until their context is done, restarting them on failure.
type ISupervisor interface {
	Start(ctx context.Context, worker Worker)
	Wait()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Subscription is a live registration on a channel.
// Events yields the backlog first, then live entries, in feed order.
// The channel is closed once the subscription ends; Err tells why.
type Subscription interface {
	Events() <-chan feed.ChangeEvent
	Err() error
	Close()
}

// ChangeFeed delivers ordered change events for a channel.
type ChangeFeed interface {
	Subscribe(ctx context.Context, channel feed.Channel) (Subscription, error)
}

// Appender requests a durable append, eventually visible to every subscriber of the channel.
type Appender interface {
	Append(ctx context.Context, channel feed.Channel, payload map[string]any) (string, error)
}

// ObjectStore uploads a file and returns a durable reference to it.
type ObjectStore interface {
	Upload(ctx context.Context, name string, content io.Reader) (string, error)
}

type Identity struct {
	UserID      string
	DisplayName string
	Token       string
}

// IdentityChange is a notification of the identity provider. SignedIn is false after a sign out.
type IdentityChange struct {
	Identity Identity
	SignedIn bool
}

type IdentityProvider interface {
	Current() (Identity, bool)
	// Watch yields the current state first, then every change until ctx is done.
	Watch(ctx context.Context) <-chan IdentityChange
}

// FeedSink receives decoded records, one call per added entry, in delivery order.
type FeedSink interface {
	Append(message chat.Message)
	Clear()
}

// FeedObserver is notified by the feed store, typically by a rendering surface.
type FeedObserver interface {
	OnAppend(index int, message chat.Message)
	OnClear()
}

// FeedAttacher is the attach/detach side of a feed listener.
type FeedAttacher interface {
	Attach(ctx context.Context, channel feed.Channel) error
	Detach()
}
