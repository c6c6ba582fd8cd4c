// Package events fans out notifications and chain switch events to the
// dashboard clients of a user.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ruteri/devnet-dashboard-backend/interfaces"
)

// DefaultBufferSize is the per-subscriber queue length. Events are dropped
// for subscribers that fall behind.
const DefaultBufferSize = 16

type subscriber struct {
	user string
	ch   chan interfaces.Event
}

// Hub is an in-process publish/subscribe hub keyed by user. It implements
// interfaces.Notifier.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[int]*subscriber
	nextID      int
	bufferSize  int
	now         func() time.Time
	log         *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[int]*subscriber),
		bufferSize:  DefaultBufferSize,
		now:         time.Now,
		log:         log,
	}
}

// Subscribe returns a channel receiving the events of user. The cancel
// function unregisters the subscriber and closes the channel.
func (h *Hub) Subscribe(user string) (<-chan interfaces.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	sub := &subscriber{user: user, ch: make(chan interfaces.Event, h.bufferSize)}
	h.subscribers[id] = sub

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers, id)
			close(sub.ch)
		})
	}
}

// Publish delivers event to the subscribers of event.User without blocking.
func (h *Hub) Publish(event interfaces.Event) {
	if event.Timestamp == 0 {
		event.Timestamp = h.now().UnixMilli()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers {
		if sub.user != event.User {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			h.log.Warn("Dropping event for slow subscriber", "user", event.User, "type", event.Type)
		}
	}
}

// Notify publishes a notification to user.
func (h *Hub) Notify(ctx context.Context, user string, n interfaces.Notification) {
	h.log.Info("Notification", "user", user, "title", n.Title, "status", n.Status)
	h.Publish(interfaces.Event{
		Type:         interfaces.EventNotification,
		User:         user,
		Notification: &n,
	})
}

// ChainSwitched publishes a chain switch of user.
func (h *Hub) ChainSwitched(ctx context.Context, user string, chain interfaces.Chain) {
	h.log.Debug("Chain switched", "user", user, "chainId", chain.ChainID.String())
	h.Publish(interfaces.Event{
		Type:  interfaces.EventChainSwitched,
		User:  user,
		Chain: &chain,
	})
}
