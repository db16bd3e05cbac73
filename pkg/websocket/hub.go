// Package websocket pushes committed House events to browser and bot clients.
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Hub fans House events out to connected clients. A client receives every
// event unless it subscribed to specific bets.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan *types.Event
	register   chan *client
	unregister chan *client
	done       chan struct{} // closed when Run returns
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	sendBuffer int
	logger     *zap.Logger
}

// Config holds hub configuration.
type Config struct {
	BroadcastBuffer int // events queued before Publish starts dropping
	SendBuffer      int // messages queued per client before it is skipped
	Logger          *zap.Logger
}

type client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	subs        map[types.BetID]bool
	mu          sync.RWMutex
	connectedAt time.Time
}

// subscribeMsg narrows or widens the bets a client follows.
type subscribeMsg struct {
	Action string   `json:"action"` // "subscribe" or "unsubscribe"
	Bets   []string `json:"bets"`
}

// New creates a hub. Call Run before serving connections.
func New(cfg Config) *Hub {
	broadcastBuffer := cfg.BroadcastBuffer
	if broadcastBuffer <= 0 {
		broadcastBuffer = 256
	}

	sendBuffer := cfg.SendBuffer
	if sendBuffer <= 0 {
		sendBuffer = 64
	}

	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan *types.Event, broadcastBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		sendBuffer: sendBuffer,
		logger:     cfg.Logger,
	}
}

// Run handles registration and broadcasting until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("websocket-hub-started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			ActiveConnections.Set(0)
			h.logger.Info("websocket-hub-stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			count := len(h.clients)
			h.mu.Unlock()
			ActiveConnections.Set(float64(count))
			h.logger.Info("websocket-client-connected", zap.Int("clients", count))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				ConnectionDuration.Observe(time.Since(c.connectedAt).Seconds())
			}
			count := len(h.clients)
			h.mu.Unlock()
			ActiveConnections.Set(float64(count))
			h.logger.Info("websocket-client-disconnected", zap.Int("clients", count))

		case event := <-h.broadcast:
			h.fanOut(event)
		}
	}
}

// Publish queues an event for broadcast. It never blocks the House: when
// the queue is full the event is dropped and counted.
func (h *Hub) Publish(_ context.Context, event *types.Event) {
	select {
	case h.broadcast <- event:
	default:
		MessagesDroppedTotal.WithLabelValues("broadcast_full").Inc()
		h.logger.Warn("websocket-event-dropped",
			zap.String("event-type", string(event.Type)),
			zap.String("bet-id", event.BetID.Hex()))
	}
}

// HandleWS upgrades the request and registers the client.
// GET /ws/events
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket-upgrade-failed", zap.Error(err))
		return
	}

	c := &client{
		hub:         h,
		conn:        conn,
		send:        make(chan []byte, h.sendBuffer),
		subs:        make(map[types.BetID]bool),
		connectedAt: time.Now(),
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

func (h *Hub) fanOut(event *types.Event) {
	payload, err := json.Marshal(types.NewEventView(event))
	if err != nil {
		h.logger.Error("websocket-marshal-failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.follows(event.BetID) {
			continue
		}
		select {
		case c.send <- payload:
			MessagesSentTotal.WithLabelValues(string(event.Type)).Inc()
		default:
			MessagesDroppedTotal.WithLabelValues("client_slow").Inc()
		}
	}
}

// follows reports whether the client wants events of a bet. Events that are
// not about a bet go to everyone.
func (c *client) follows(id types.BetID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.subs) == 0 || id == (types.BetID{}) {
		return true
	}
	return c.subs[id]
}

func (c *client) handleSubscription(msg *subscribeMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, raw := range msg.Bets {
		id := common.HexToHash(raw)
		switch msg.Action {
		case "subscribe":
			c.subs[id] = true
		case "unsubscribe":
			delete(c.subs, id)
		}
	}
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("websocket-unexpected-close", zap.Error(err))
			}
			return
		}

		var msg subscribeMsg
		err = json.Unmarshal(message, &msg)
		if err != nil {
			c.hub.logger.Debug("websocket-bad-message", zap.Error(err))
			continue
		}
		c.handleSubscription(&msg)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			err := c.conn.WriteMessage(websocket.TextMessage, message)
			if err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			if err != nil {
				return
			}
		}
	}
}
