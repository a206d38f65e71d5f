package ws

import (
	"context"
	"encoding/json"
	"sync"

	"go-stock-ledger/internal/model"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client is the part of a websocket connection the hub needs.
type Client interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Subscription ties a connection to the user whose stock events it receives.
type Subscription struct {
	Client Client
	UserID uuid.UUID
}

type message struct {
	userID  uuid.UUID
	payload []byte
}

type Hub struct {
	Clients    map[Client]uuid.UUID
	Register   chan Subscription
	Unregister chan Client
	Broadcast  chan message
	mutex      sync.Mutex
	logger     *zap.Logger
	done       chan struct{} // closed when Run returns
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		Clients:    make(map[Client]uuid.UUID),
		Register:   make(chan Subscription),
		Unregister: make(chan Client),
		Broadcast:  make(chan message, 256),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Subscribe hands a connection to the hub. After Run has returned the
// connection is closed instead.
func (h *Hub) Subscribe(sub Subscription) {
	select {
	case h.Register <- sub:
	case <-h.done:
		sub.Client.Close()
	}
}

// Leave removes a connection. It never blocks once Run has returned.
func (h *Hub) Leave(conn Client) {
	select {
	case h.Unregister <- conn:
	case <-h.done:
	}
}

// Run serves the hub until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.Clients {
				conn.Close()
				delete(h.Clients, conn)
			}
			h.mutex.Unlock()
			return

		case sub := <-h.Register:
			h.mutex.Lock()
			h.Clients[sub.Client] = sub.UserID
			h.mutex.Unlock()
			h.logger.Debug("New WS Client Connected", zap.String("user_id", sub.UserID.String()))

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case msg := <-h.Broadcast:
			h.mutex.Lock()
			for conn, userID := range h.Clients {
				if userID != msg.userID {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg.payload); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Publish queues the event for the clients of event.UserID. A full queue drops
// the event rather than blocking the ledger.
func (h *Hub) Publish(_ context.Context, event model.StockEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	select {
	case h.Broadcast <- message{userID: event.UserID, payload: payload}:
	default:
		h.logger.Warn("WS broadcast queue full, dropping stock event",
			zap.String("product_id", event.ProductID.String()),
			zap.String("action", string(event.Action)),
		)
	}
	return nil
}

// ClientCount is the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}
