package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"blog/core/logger"
	"blog/core/router"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// Message is the envelope pushed to every connected client
type Message struct {
	Event string    `json:"event"`
	Data  any       `json:"data"`
	Time  time.Time `json:"time"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans messages out to connected admin clients. Slow clients whose send
// buffer is full are disconnected rather than blocking the broadcaster.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	logger   logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

// InitWebSocketModule mounts the /ws endpoint on group and returns the hub
func InitWebSocketModule(group *router.RouterGroup, log logger.Logger) *Hub {
	hub := NewHub(log)
	group.GET("/ws", hub.Handle)
	return hub
}

// Handle upgrades the request and registers the connection
func (h *Hub) Handle(c *router.Context) error {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already answered the request
		h.logger.Warn("websocket upgrade failed", logger.String("error", err.Error()))
		return nil
	}

	cl := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	go cl.writePump()
	go cl.readPump()
	return nil
}

// Broadcast sends event to every client
func (h *Hub) Broadcast(event string, data any) {
	if h == nil {
		return
	}
	payload, err := json.Marshal(Message{Event: event, Data: data, Time: time.Now().UTC()})
	if err != nil {
		h.logger.Error("failed to encode websocket message",
			logger.String("event", event),
			logger.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	var slow []*client
	for cl := range h.clients {
		select {
		case cl.send <- payload:
		default:
			slow = append(slow, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range slow {
		h.unregister(cl)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
}

// readPump only drains control frames; admin clients never send data
func (cl *client) readPump() {
	defer func() {
		cl.hub.unregister(cl)
		cl.conn.Close()
	}()
	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (cl *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()
	for {
		select {
		case message, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
