package notify

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event is one entry on the side channel: transfer lifecycle notifications and
// persistence failures are decoupled from the mutation that triggered them.
type Event struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	ItemIDs   []string  `json:"itemIds,omitempty"`
	StoreID   string    `json:"storeId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	EventStockUploaded      = "stock_uploaded"
	EventLotRequested       = "lot_requested"
	EventReceiptConfirmed   = "receipt_confirmed"
	EventItemWithdrawn      = "item_withdrawn"
	EventPersistenceFailure = "persistence_failure"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans events out to every connected websocket client. A slow client drops
// its own events instead of blocking publishers.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *zap.Logger
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

// Publish broadcasts an event to all connected clients. Never blocks.
func (h *Hub) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- event:
		default:
			h.logger.Warn("dropping event for slow websocket client",
				zap.String("type", event.Type))
		}
	}
}

// ServeWS upgrades the request and streams events until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		conn: conn,
		send: make(chan Event, 16),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("websocket client connected", zap.String("remote", conn.RemoteAddr().String()))

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		conn.Close()
	}()

	// Drain the read side so close frames are processed.
	done := make(chan struct{})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(done)
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case event := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Warn("writing event to websocket client failed", zap.Error(err))
				return
			}
		}
	}
}
