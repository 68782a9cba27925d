package websockets

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chris/money-movement/pkg/bus"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 16
)

// ErrDuplicateConnection is returned when a connection id is already in use.
var ErrDuplicateConnection = errors.New("connection already registered")

type client struct {
	id   string
	ws   *websocket.Conn
	send chan Message
}

// Hub fans cues out to every connected view. Each connection has its own
// writer goroutine; a connection that falls behind loses cues rather than
// slowing the others down.
type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:  logger.Named("websockets"),
		clients: make(map[string]*client),
	}
}

var (
	_ ConnectionManager = (*Hub)(nil)
	_ Publisher         = (*Hub)(nil)
)

// Attach forwards every cue on the bus to connected views.
func (h *Hub) Attach(subscriber bus.Subscriber) (*bus.Subscription, error) {
	return subscriber.Subscribe(func(topic bus.Topic) {
		_ = h.Publish(context.Background(), Message{Type: topic})
	})
}

// AddConnection registers conn and starts its writer.
func (h *Hub) AddConnection(_ context.Context, connectionID string, conn *websocket.Conn) error {
	c := &client{id: connectionID, ws: conn, send: make(chan Message, sendBuffer)}

	h.mu.Lock()
	if _, ok := h.clients[connectionID]; ok {
		h.mu.Unlock()
		return ErrDuplicateConnection
	}
	h.clients[connectionID] = c
	h.mu.Unlock()

	go h.write(c)
	h.logger.Info("client connected", zap.String("connection_id", connectionID))
	return nil
}

// RemoveConnection stops the writer of connectionID. Unknown ids are ignored.
func (h *Hub) RemoveConnection(_ context.Context, connectionID string) error {
	h.mu.Lock()
	c, ok := h.clients[connectionID]
	if ok {
		delete(h.clients, connectionID)
		close(c.send)
	}
	h.mu.Unlock()

	if ok {
		h.logger.Info("client disconnected", zap.String("connection_id", connectionID))
	}
	return nil
}

// Publish queues message for every connection without blocking.
func (h *Hub) Publish(_ context.Context, message Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- message:
		default:
			h.logger.Warn("connection behind; dropping cue",
				zap.String("connection_id", c.id),
				zap.String("type", string(message.Type)),
			)
		}
	}
	return nil
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) write(c *client) {
	for msg := range c.send {
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteJSON(msg); err != nil {
			h.logger.Warn("failed to write to connection", zap.String("connection_id", c.id), zap.Error(err))
			_ = c.ws.Close()
			// Drain so publishers never see a full buffer for a dead client.
			for range c.send {
			}
			return
		}
	}
}
