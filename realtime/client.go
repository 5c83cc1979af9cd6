// Package realtime is the client end of the per-owner notification
// channel: a websocket the backend pushes booking-notification events
// through. The channel is an external collaborator; this client only
// dials, reads, dispatches, and reconnects. Wiring events into the
// notifications store is the consumer's call, typically via
// notifications.Store.Apply.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/cleanhub/cleanhub-go/gateway"
	"github.com/cleanhub/cleanhub-go/store"
	"github.com/cleanhub/cleanhub-go/store/notifications"
)

// Event types pushed by the backend.
const (
	EventNotificationNew = "notification:new"
	EventBookingUpdated  = "booking:updated"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

var ErrClosed = errors.New("realtime client closed")

// Event is one message from the notification channel.
type Event struct {
	Type         string                      `json:"type"`
	Notification *notifications.Notification `json:"notification,omitempty"`
	BookingID    store.ID                    `json:"booking_id,omitempty"`
}

// Handler receives decoded events. It runs on the read loop; slow
// handlers delay subsequent events.
type Handler func(Event)

// Client maintains the websocket connection for one owner channel.
type Client struct {
	baseURL string
	tokens  gateway.TokenSource
	handler Handler
	dialer  *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// New creates a realtime client. baseURL is the ws:// or wss://
// endpoint root; tokens supplies the bearer token at dial time.
func New(baseURL string, tokens gateway.TokenSource, handler Handler) *Client {
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		handler: handler,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Listen dials the owner's channel and dispatches events until ctx is
// cancelled or Close is called. Dropped connections are redialed with
// capped exponential backoff.
func (c *Client) Listen(ctx context.Context, ownerID store.ID) error {
	url := c.baseURL + "/notifications/" + ownerID.String()
	backoff := initialBackoff

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.isClosed() {
			return ErrClosed
		}

		header := http.Header{}
		if c.tokens != nil {
			if token := c.tokens.Token(); token != "" {
				header.Set("Authorization", "Bearer "+token)
			}
		}

		conn, _, err := c.dialer.DialContext(ctx, url, header)
		if err != nil {
			log.Warn().Err(err).Str("url", url).Dur("backoff", backoff).Msg("Realtime dial failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		if !c.setConn(conn) {
			conn.Close()
			return ErrClosed
		}
		backoff = initialBackoff
		log.Debug().Str("owner_id", ownerID.String()).Msg("Realtime channel connected")

		err = c.readPump(ctx, conn)
		c.setConn(nil)
		if c.isClosed() {
			return ErrClosed
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("Realtime connection dropped, reconnecting")
	}
}

// Close tears down the connection and stops any Listen loop.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) readPump(ctx context.Context, conn *websocket.Conn) error {
	// Unblock ReadMessage when the context goes away.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			log.Warn().Err(err).Msg("Realtime event decode failed, skipping")
			continue
		}
		if c.handler != nil {
			c.handler(event)
		}
	}
}

func (c *Client) setConn(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.conn = conn
	return true
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
