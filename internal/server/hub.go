package server

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gabo-game/gabo-server/internal/session"
)

const (
	maxMessageSize = 8 << 10
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	sendBuffer     = 256
)

// Client is one WebSocket connection.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub tracks connected clients and routes their messages to the session
// manager.
type Hub struct {
	sessions   *session.Manager
	logger     *zap.Logger
	upgrader   websocket.Upgrader
	writeWait  time.Duration
	clients    map[string]*Client
	mu         sync.RWMutex
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewHub creates a hub. An empty allowedOrigins, or one containing "*",
// accepts every origin.
func NewHub(sessions *session.Manager, allowedOrigins []string, writeWait time.Duration, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if writeWait <= 0 {
		writeWait = 10 * time.Second
	}
	return &Hub{
		sessions:  sessions,
		logger:    logger,
		writeWait: writeWait,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(allowedOrigins, r.Header.Get("Origin"))
			},
		},
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func originAllowed(allowed []string, origin string) bool {
	if len(allowed) == 0 || origin == "" {
		return true
	}
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}

// Run processes registrations until ctx is done, then tells every client
// the server is going away.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.ID] = c
			h.mu.Unlock()
			h.logger.Info("client connected", zap.String("client_id", c.ID))
			h.sendTo(c, ServerMessage{
				Type:      MsgWelcome,
				Data:      map[string]string{"message": "Connected to the Gabo server"},
				Timestamp: time.Now().UTC().Format(time.RFC3339),
				ClientID:  c.ID,
			})

		case c := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[c.ID]
			if ok {
				delete(h.clients, c.ID)
				close(c.send)
			}
			h.mu.Unlock()
			if ok {
				h.logger.Info("client disconnected", zap.String("client_id", c.ID))
				for _, gameID := range h.sessions.LeaveAll(c.ID) {
					h.broadcastToGame(gameID, newMessage(MsgPlayerLeft, gameID, map[string]string{"playerId": c.ID}), c.ID)
				}
			}
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	msg, _ := json.Marshal(newMessage(MsgServerShutdown, "", map[string]string{"message": "Server is shutting down"}))
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
		close(c.send)
		delete(h.clients, id)
	}
	h.logger.Info("hub stopped")
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and starts the client pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &Client{ID: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer), hub: h}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (h *Hub) sendTo(c *Client, msg ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	select {
	case c.send <- payload:
	default:
		h.logger.Warn("client send buffer full, dropping message",
			zap.String("client_id", c.ID),
			zap.String("type", msg.Type),
		)
	}
}

// sendToClient delivers msg to clientID if it is connected.
func (h *Hub) sendToClient(clientID string, msg ServerMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[clientID]; ok {
		h.sendTo(c, msg)
	}
}

func (h *Hub) broadcastAll(msg ServerMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		h.sendTo(c, msg)
	}
}

// broadcastToGame sends msg to every member of gameID except exclude.
func (h *Hub) broadcastToGame(gameID string, msg ServerMessage, exclude string) {
	s, ok := h.sessions.GetSession(gameID)
	if !ok {
		return
	}
	members := s.MemberIDs()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range members {
		if id == exclude {
			continue
		}
		if c, ok := h.clients[id]; ok {
			h.sendTo(c, msg)
		}
	}
}

func (c *Client) readPump() {
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
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", zap.String("client_id", c.ID), zap.Error(err))
			}
			return
		}
		c.hub.handleMessage(c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
