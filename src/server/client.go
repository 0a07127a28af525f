package server

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

var (
	errNotRegistered = errors.New("connection not registered")
	errClosed        = errors.New("connection closed")
	errSlowConsumer  = errors.New("send buffer full")
)

// -----------------------------------------------------------------------------
// Client Structure
// -----------------------------------------------------------------------------

// Client is one WebSocket connection. The hub reaches it through Deliver;
// the write pump is the only goroutine writing to conn.
type Client struct {
	id      string
	gateway *DeliveryGateway
	conn    *websocket.Conn

	mu     sync.Mutex
	send   chan interface{}
	closed bool
}

func newClient(id string, gw *DeliveryGateway, conn *websocket.Conn) *Client {
	return &Client{
		id:      id,
		gateway: gw,
		conn:    conn,
		send:    make(chan interface{}, sendBuffer),
	}
}

func (c *Client) ID() string {
	return c.id
}

// Deliver queues payload without blocking. A full buffer counts as a failed delivery.
func (c *Client) Deliver(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return errSlowConsumer
	}
}

// Close stops the write pump, which sends a close frame and closes the socket.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// -----------------------------------------------------------------------------
// readPump - handles incoming messages from client
// Act as a Watchdog for the connection
// -----------------------------------------------------------------------------

func (c *Client) readPump() {
	defer func() {
		c.gateway.Hub.UnsubscribeAll(c.id)
		c.conn.Close()
		c.gateway.Logger.Info("Client %s disconnected", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.gateway.Logger.Info("WebSocket error: %v", err)
			}
			break
		}
		c.gateway.HandleClientMessage(c, message)
	}
}

// -----------------------------------------------------------------------------
// writePump - sends messages to client
// -----------------------------------------------------------------------------

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
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.gateway.Logger.Info("Write error on %s: %v", c.id, err)
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
