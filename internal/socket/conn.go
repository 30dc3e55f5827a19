// Package socket maintains the persistent event connection to the chat
// backend. A Conn is created once per login and passed by reference to
// every state owner that needs it; there is no package-level instance.
package socket

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vinhng/zolaterm/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBufSize    = 256
	eventBufSize   = 256
)

// ErrClosed is returned by Emit after the connection has shut down.
var ErrClosed = errors.New("socket: connection closed")

// Conn wraps a websocket connection with a write queue and a read loop
// that decodes event envelopes. Lifecycle: Dial -> Emit/Events -> Close.
type Conn struct {
	conn   *websocket.Conn
	send   chan []byte
	events chan Event

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// Dial connects to the socket endpoint and starts the pumps.
func Dial(url string, header map[string][]string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		return nil, fmt.Errorf("socket: dial %s: %w", url, err)
	}
	c := &Conn{
		conn:   ws,
		send:   make(chan []byte, sendBufSize),
		events: make(chan Event, eventBufSize),
		done:   make(chan struct{}),
	}
	c.wg.Add(2)
	go c.writePump()
	go c.readPump()
	return c, nil
}

// Events returns the inbound push channel. It is closed when the
// connection dies, which the consumer treats as disconnected.
func (c *Conn) Events() <-chan Event {
	return c.events
}

// Emit queues an event for transmission. Fire-and-forget: a nil return
// means the frame was queued, not that the server received it.
func (c *Conn) Emit(event string, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("socket: marshal %s: %w", event, err)
		}
		raw = data
	}
	frame, err := json.Marshal(Envelope{Event: event, Payload: raw})
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClosed
	case c.send <- frame:
		return nil
	default:
		// Send buffer full means the writer is stuck; treat as dead.
		return ErrClosed
	}
}

// Close shuts the connection down. Safe to call multiple times from any
// goroutine.
func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Wait blocks until both pumps have exited.
func (c *Conn) Wait() {
	c.wg.Wait()
}

// readPump reads frames, decodes envelopes, and delivers them on the
// events channel. Exits (and closes the channel) on any read error.
func (c *Conn) readPump() {
	defer c.wg.Done()
	defer func() {
		c.Close()
		close(c.events)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Errorf("socket: set read deadline: %v", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Errorf("socket: read: %v", err)
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			logger.Errorf("socket: bad frame: %v", err)
			continue
		}
		select {
		case c.events <- Event{Name: env.Event, Payload: env.Payload}:
		case <-c.done:
			return
		}
	}
}

// writePump drains the send queue and keeps the connection alive with
// pings. Exits on write error or Close.
func (c *Conn) writePump() {
	defer c.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			deadline := time.Now().Add(writeWait)
			_ = c.conn.SetWriteDeadline(deadline)
			_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		case frame := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
