package service

import (
	"sync"

	"terneo_bridge/internal/logger"
	"terneo_bridge/internal/models"
)

// subscriberBuffer bounds how far a slow consumer may lag before it starts
// losing events.
const subscriberBuffer = 16

// Hub fans bridge events out to live subscribers (websocket sessions).
// Publishing never blocks: a subscriber that cannot keep up loses events.
type Hub struct {
	log *logger.Logger

	mu   sync.RWMutex
	subs map[chan models.BridgeEvent]struct{}
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:  log,
		subs: make(map[chan models.BridgeEvent]struct{}),
	}
}

// Subscribe registers a new consumer and returns its delivery channel.
func (h *Hub) Subscribe() chan models.BridgeEvent {
	ch := make(chan models.BridgeEvent, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a consumer and closes its channel.
func (h *Hub) Unsubscribe(ch chan models.BridgeEvent) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish delivers an event to every subscriber without blocking.
func (h *Hub) Publish(ev models.BridgeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.log.Warnw("event dropped for slow subscriber", "type", ev.Type, "serial", ev.Serial)
		}
	}
}
