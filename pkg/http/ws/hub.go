package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Hub tracks the single live play connection. Registering a new connection
// evicts the previous one, so at most one session is ever being played.
type Hub struct {
	mu        sync.RWMutex
	sessionID uuid.UUID
	conn      *Connection
	logger    zerolog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{logger: logger}
}

// RegisterConnection makes conn the active connection, closing any other.
func (h *Hub) RegisterConnection(sessionID uuid.UUID, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conn != nil && h.conn != conn {
		h.logger.Info().Str("session_id", h.sessionID.String()).Msg("evicting previous connection")
		h.conn.Close()
	}
	h.sessionID = sessionID
	h.conn = conn
	h.logger.Info().Str("session_id", sessionID.String()).Msg("connection registered")
}

// UnregisterConnection removes conn if it is still the active one.
func (h *Hub) UnregisterConnection(sessionID uuid.UUID, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()
	if h.conn == conn {
		h.conn = nil
		h.sessionID = uuid.Nil
		h.logger.Info().Str("session_id", sessionID.String()).Msg("connection unregistered")
	}
}

// Active reports the session currently holding the connection slot.
func (h *Hub) Active() (uuid.UUID, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessionID, h.conn != nil
}

const (
	// DefaultPongWait is how long the peer may stay silent before the read
	// pump gives up. Pings go out at 9/10 of it.
	DefaultPongWait = 60 * time.Second
	writeWait       = 10 * time.Second
)

// Connection represents a WebSocket connection with send queue.
type Connection struct {
	conn     *websocket.Conn
	sendCh   chan Message
	mu       sync.Mutex
	closed   bool
	pongWait time.Duration
	logger   zerolog.Logger
}

// NewConnection wraps a WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
		conn:     conn,
		sendCh:   make(chan Message, 256),
		pongWait: DefaultPongWait,
		logger:   logger,
	}
}

// SetPongWait changes the read deadline. Call it before starting the pumps.
func (c *Connection) SetPongWait(d time.Duration) {
	if d > 0 {
		c.pongWait = d
	}
}

func (c *Connection) pingPeriod() time.Duration {
	return c.pongWait * 9 / 10
}

// Send queues a message for delivery.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.sendCh)
	c.conn.Close()
}

// WritePump sends messages from the send queue and pings the peer so an idle
// player keeps the read deadline alive through pongs.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(c.pingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sendCh:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Warn().Err(err).Msg("write error")
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Debug().Err(err).Msg("ping failed")
				return
			}
		}
	}
}

// ReadPump receives messages and calls the handler until the peer goes away.
func (c *Connection) ReadPump(handler func(Message) error) {
	defer c.conn.Close()

	// Read deadline is extended on every pong and client message.
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			break
		}
		// Client traffic counts as liveness.
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))

		if err := handler(msg); err != nil {
			c.logger.Warn().Err(err).Msg("message handler error")
		}
	}
}

var (
	ErrConnectionClosed = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull    = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
