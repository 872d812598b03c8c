package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/okanji/platform-services-registry-web/internal/events"
	"github.com/okanji/platform-services-registry-web/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Subscriber hands out invalidation feeds.
type Subscriber interface {
	Subscribe(buffer int) (<-chan events.Invalidation, func())
}

type EventsHandler struct {
	hub      Subscriber
	upgrader websocket.Upgrader
}

// NewEventsHandler relays invalidations over websockets. checkOrigin may be
// nil to use the same-origin default.
func NewEventsHandler(hub Subscriber, checkOrigin func(r *http.Request) bool) *EventsHandler {
	return &EventsHandler{
		hub:      hub,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
	}
}

// Stream pushes every invalidation as a JSON text frame until the client goes away.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		return
	}
	defer conn.Close()

	feed, unsubscribe := h.hub.Subscribe(32)
	defer unsubscribe()

	log := logger.L().With(zap.String("caller", caller.Email))
	log.Debug("event stream opened")

	// Reads only serve pongs and close frames.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			log.Debug("event stream closed")
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-feed:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				log.Debug("event stream write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
