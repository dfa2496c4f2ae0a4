// Package ws carries the live bidirectional connections: handshake
// authentication, per-connection read/write pumps, and dispatch of
// inbound events into the relay core.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chat-relay/domain"
	"chat-relay/domain/event"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 8192
)

// Client is one authenticated live connection. It implements
// contract.EventSink: the relay hands it events, the write pump
// serializes them onto the socket, so acks and echoes stay ordered.
type Client struct {
	id       uuid.UUID
	identity domain.Identity
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	once     sync.Once
	log      *slog.Logger
	onClose  func(*Client)
	router   *Router
}

func newClient(conn *websocket.Conn, identity domain.Identity, bufferSize int,
	router *Router, log *slog.Logger, onClose func(*Client)) *Client {
	id := uuid.New()
	return &Client{
		id:       id,
		identity: identity,
		conn:     conn,
		send:     make(chan []byte, bufferSize),
		done:     make(chan struct{}),
		log:      log.With(slog.String("conn_id", id.String()), slog.String("user_id", identity.ID)),
		onClose:  onClose,
		router:   router,
	}
}

// ID returns the connection id used to match registry entries on
// teardown.
func (c *Client) ID() uuid.UUID { return c.id }

// Identity returns the verified identity bound at the handshake.
func (c *Client) Identity() domain.Identity { return c.identity }

// Consume queues an outbound event. It never blocks the relay: a full
// buffer or a closing connection drops the event.
func (c *Client) Consume(_ context.Context, e event.DomainEvent) error {
	frame, err := json.Marshal(Outbound{Event: e.EventName(), Data: e})
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return fmt.Errorf("connection closing")
	case c.send <- frame:
		return nil
	default:
		return fmt.Errorf("send buffer full")
	}
}

// reply queues a frame built by the router (acks take the same ordered
// path as events).
func (c *Client) reply(frame []byte) {
	select {
	case <-c.done:
	case c.send <- frame:
	default:
		c.log.Warn("ack dropped, send buffer full")
	}
}

func (c *Client) run(ctx context.Context) {
	go c.writePump()
	c.readPump(ctx)
}

// readPump reads inbound frames and dispatches them until the
// connection dies. It owns teardown: deregistration happens here,
// exactly once, with this connection's id.
func (c *Client) readPump(ctx context.Context) {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("websocket read failed", "error", err)
			}
			return
		}
		c.router.Dispatch(ctx, c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
		if c.onClose != nil {
			c.onClose(c)
		}
		c.log.Info("connection closed")
	})
}
