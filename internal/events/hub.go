package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Hub subscribes to the invalidation channel once and fans every event out
// to local subscribers, e.g. websocket connections.
type Hub struct {
	rdb     redis.UniversalClient
	channel string
	log     *zap.Logger

	mu     sync.RWMutex
	subs   map[uint64]chan Invalidation
	nextID uint64
}

func NewHub(rdb redis.UniversalClient, channel string, log *zap.Logger) *Hub {
	return &Hub{
		rdb:     rdb,
		channel: channel,
		log:     log,
		subs:    make(map[uint64]chan Invalidation),
	}
}

// Subscribe registers a listener. Events are dropped for a listener whose
// buffer is full. The returned func unregisters it and closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan Invalidation, func()) {
	ch := make(chan Invalidation, buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Run relays events until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	ps := h.rdb.Subscribe(ctx, h.channel)
	defer ps.Close()

	// Wait for the subscription to be confirmed before relaying.
	if _, err := ps.Receive(ctx); err != nil {
		return err
	}
	h.log.Info("invalidation hub subscribed", zap.String("channel", h.channel))

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var ev Invalidation
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				h.log.Warn("invalid invalidation payload", zap.Error(err))
				continue
			}
			h.notify(ev)
		}
	}
}

func (h *Hub) notify(ev Invalidation) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.log.Debug("subscriber buffer full, dropping invalidation", zap.Uint64("subscriber", id))
		}
	}
}
