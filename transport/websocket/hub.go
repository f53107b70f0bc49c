package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/deadman360/gridpointer/pointer/loop"
	"github.com/deadman360/gridpointer/pointer/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Per-client outbound buffer. Position frames arrive at up to the
	// loop's tick rate; a client that cannot keep up is dropped.
	clientSendBuffer = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The daemon binds to loopback; remote deployments should front
		// this with a reverse proxy that enforces origins.
		return true
	},
}

// Frame is an outgoing WebSocket message.
type Frame struct {
	Type   string       `json:"type"`
	Status *loop.Status `json:"status,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// Action is an incoming client request.
type Action struct {
	Action    string `json:"action"`
	Direction string `json:"direction,omitempty"`
	Dash      bool   `json:"dash,omitempty"`
}

// Client represents one WebSocket connection.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of active clients and fans position frames out to
// them.
type Hub struct {
	svc service.PointerService
	log *zap.SugaredLogger

	clients    map[*Client]bool
	broadcast  chan *Frame
	register   chan *Client
	unregister chan *Client
}

// NewHub creates a hub forwarding client actions to svc.
func NewHub(svc service.PointerService, logger *zap.SugaredLogger) *Hub {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Hub{
		svc:        svc,
		log:        logger,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Frame, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop; it returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.dropClient(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.log.Infow("websocket client connected", "client", client.id, "total", len(h.clients))

		case client := <-h.unregister:
			h.dropClient(client)

		case frame := <-h.broadcast:
			h.fanOut(frame)
		}
	}
}

// Notify implements loop.Observer. It never blocks: when the broadcast
// buffer is full the frame is dropped, favoring the tick cadence over
// observer completeness.
func (h *Hub) Notify(status loop.Status) {
	frame := &Frame{Type: "position", Status: &status}
	select {
	case h.broadcast <- frame:
	default:
	}
}

// ServeWS upgrades an HTTP request into a hub-managed connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
	}
	h.register <- client

	// Seed the client with the current status so it can render before the
	// first movement.
	if status, err := h.svc.Status(r.Context()); err == nil {
		if data, err := json.Marshal(&Frame{Type: "status", Status: &status}); err == nil {
			client.send <- data
		}
	}

	go client.writePump()
	go client.readPump()
}

func (h *Hub) dropClient(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.log.Infow("websocket client disconnected", "client", client.id, "remaining", len(h.clients))
	}
}

func (h *Hub) fanOut(frame *Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.log.Warnw("failed to marshal frame", "error", err)
		return
	}

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// Client's send channel is full, close it.
			h.dropClient(client)
		}
	}
}

// handleAction dispatches one incoming client request to the service.
func (c *Client) handleAction(raw []byte) {
	var action Action
	if err := json.Unmarshal(raw, &action); err != nil {
		c.sendError("invalid message")
		return
	}

	ctx := context.Background()
	switch action.Action {
	case "move", "dash":
		dash := action.Dash || action.Action == "dash"
		if _, err := c.hub.svc.Move(ctx, action.Direction, dash); err != nil {
			c.sendError(err.Error())
		}
	case "click":
		if err := c.hub.svc.Click(ctx); err != nil {
			c.sendError(err.Error())
		}
	default:
		c.sendError("unknown action: " + action.Action)
	}
}

func (c *Client) sendError(msg string) {
	data, err := json.Marshal(&Frame{Type: "error", Error: msg})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// readPump pumps client actions from the connection into the service.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warnw("websocket read error", "client", c.id, "error", err)
			}
			break
		}
		c.handleAction(raw)
	}
}

// writePump pumps frames from the hub to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush any queued frames into the same WebSocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
