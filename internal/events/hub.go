package events

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientSendSize = 64
)

type client struct {
	id       string
	conn     *websocket.Conn
	send     chan []byte
	campaign string // empty means every campaign

	mu     sync.Mutex
	closed bool
}

// trySend reports false when the client's buffer is full.
func (c *client) trySend(body []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- body:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub fans events out to websocket subscribers.
type Hub struct {
	upgrader websocket.Upgrader
	clients  sync.Map // map[string]*client
	count    int64
}

// NewHub creates a hub. checkOrigin may be nil to accept any origin.
func NewHub(checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	return int(atomic.LoadInt64(&h.count))
}

// ServeWS upgrades the request and streams events until the client goes away. The optional
// campaign query parameter narrows the stream to one campaign.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &client{
		id:       uuid.NewString(),
		conn:     conn,
		send:     make(chan []byte, clientSendSize),
		campaign: r.URL.Query().Get("campaign"),
	}
	h.clients.Store(c.id, c)
	atomic.AddInt64(&h.count, 1)

	log.WithFields(log.Fields{
		"client":   c.id,
		"campaign": c.campaign,
		"remote":   r.RemoteAddr,
	}).Info("event subscriber connected")

	go h.writePump(c)
	h.readPump(c)
}

// Broadcast queues evt for every matching subscriber. Slow subscribers are dropped.
func (h *Hub) Broadcast(evt Event) {
	body, err := json.Marshal(evt)
	if err != nil {
		log.WithError(err).Error("failed to marshal event")
		return
	}

	h.clients.Range(func(_, value interface{}) bool {
		c := value.(*client)
		if c.campaign != "" && c.campaign != evt.Campaign {
			return true
		}
		if !c.trySend(body) {
			log.WithField("client", c.id).Warn("subscriber too slow, disconnecting")
			h.remove(c)
		}
		return true
	})
}

func (h *Hub) remove(c *client) {
	if _, loaded := h.clients.LoadAndDelete(c.id); loaded {
		atomic.AddInt64(&h.count, -1)
		c.close()
	}
}

// readPump only exists to notice disconnects and answer pings.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
		log.WithField("client", c.id).Info("event subscriber disconnected")
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case body, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, body); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
