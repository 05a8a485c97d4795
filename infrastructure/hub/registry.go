package hub

import (
	"sync"

	"secure-messenger/domain/feed"
)

type Registry struct {
	mu          sync.RWMutex
	subscribers map[feed.Channel]map[string]*subscription // map channel -> subscription id -> subscription
}

func NewRegistry() *Registry {
	return &Registry{
		subscribers: make(map[feed.Channel]map[string]*subscription),
	}
}

// ForChannel retrieves all live subscriptions of a channel.
// Returns nil if nobody listens to it.
func (r *Registry) ForChannel(channel feed.Channel) []*subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.subscribers[channel]
	if !ok {
		return nil
	}
	active := make([]*subscription, 0, len(members))
	for _, sub := range members {
		active = append(active, sub)
	}
	return active
}

// All retrieves every live subscription, whatever the channel.
func (r *Registry) All() []*subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*subscription
	for _, members := range r.subscribers {
		for _, sub := range members {
			all = append(all, sub)
		}
	}
	return all
}

// Subscribe registers a subscription on its channel.
// If the channel does not yet exist in the registry, it is initialized on the fly.
func (r *Registry) Subscribe(sub *subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subscribers[sub.channel]; !ok {
		r.subscribers[sub.channel] = make(map[string]*subscription)
	}
	r.subscribers[sub.channel][sub.id] = sub
}

// Unsubscribe removes a subscription and ensures no empty sets are left
// in the channel map.
func (r *Registry) Unsubscribe(sub *subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.subscribers[sub.channel]; ok {
		delete(members, sub.id)
		if len(members) == 0 {
			delete(r.subscribers, sub.channel)
		}
	}
}

func (r *Registry) Count(channel feed.Channel) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers[channel])
}
