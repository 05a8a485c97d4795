package hub

import (
	"sync"

	"secure-messenger/contract"
	"secure-messenger/domain/feed"
)

var _ contract.Subscription = (*subscription)(nil)

// subscription queues events without bound and hands them out in order.
// Appenders never wait on a slow consumer.
type subscription struct {
	id      string
	channel feed.Channel
	out     chan feed.ChangeEvent
	wake    chan struct{}
	done    chan struct{}

	mu    sync.Mutex
	queue []feed.ChangeEvent
	err   error
	stop  func() bool

	once    sync.Once
	onClose func(*subscription)
}

func newSubscription(id string, channel feed.Channel, backlog []feed.ChangeEvent, onClose func(*subscription)) *subscription {
	s := &subscription{
		id:      id,
		channel: channel,
		out:     make(chan feed.ChangeEvent),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		queue:   backlog,
		onClose: onClose,
	}
	go s.run()
	return s
}

func (s *subscription) Events() <-chan feed.ChangeEvent {
	return s.out
}

func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *subscription) Close() {
	s.end(nil)
}

func (s *subscription) push(evt feed.ChangeEvent) {
	s.mu.Lock()
	if s.ended() {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, evt)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// bind ties the subscription to the release of its context hook.
func (s *subscription) bind(stop func() bool) {
	s.mu.Lock()
	s.stop = stop
	ended := s.ended()
	s.mu.Unlock()
	if ended {
		stop()
	}
}

// end stops delivery once; queued events are dropped.
func (s *subscription) end(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.queue = nil
		stop := s.stop
		close(s.done)
		s.mu.Unlock()

		if stop != nil {
			stop()
		}
		if s.onClose != nil {
			s.onClose(s)
		}
	})
}

// ended must be called with mu held.
func (s *subscription) ended() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *subscription) run() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		evt := s.queue[0]
		s.queue[0] = feed.ChangeEvent{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- evt:
		case <-s.done:
			return
		}
	}
}
