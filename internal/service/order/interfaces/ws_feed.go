package interfaces

import (
	"context"
	"net/http"
	"sync"

	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/logger"
	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/mq"

	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards connect from other origins in dev.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans notification events out to connected websocket clients. Back-office
// dashboards subscribe here instead of polling order state.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}

	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]struct{}),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 256),
	}
}

// Run owns the client set; it exits when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				_ = conn.Close()
			}
			h.clients = make(map[*websocket.Conn]struct{})
			h.mu.Unlock()
			return ctx.Err()
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = struct{}{}
			h.mu.Unlock()
		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				_ = conn.Close()
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					// Writer failed; let the read loop clean it up.
					logger.L().Debug().Err(err).Msg("websocket write failed")
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		logger.L().Warn().Msg("websocket broadcast buffer full, dropping event")
	}
}

// ServeWS upgrades the connection and parks a read loop that only watches for
// the client going away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	h.register <- conn

	go func() {
		defer func() { h.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// RunFeed consumes the notifications topic and pushes every event to the hub.
// It runs with its own consumer group so delivery to dashboards does not
// compete with the notification service.
func RunFeed(ctx context.Context, hub *Hub, reader *kafka.Reader) error {
	defer reader.Close()
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.L().Error().Err(err).Msg("order feed read failed")
			continue
		}
		msgCtx := mq.ExtractTraceContext(ctx, &msg)
		logger.Ctx(msgCtx).Debug().
			Str("key", string(msg.Key)).
			Msg("forwarding order event to websocket clients")
		hub.Broadcast(msg.Value)
	}
}
