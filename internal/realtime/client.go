// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package realtime

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/stellartours/reservasync/internal/logging"
	"github.com/stellartours/reservasync/internal/metrics"
	"github.com/stellartours/reservasync/internal/models"
	"github.com/stellartours/reservasync/internal/validation"
)

// EventReservationUpdated is the platform's event name for reservation
// changes. Its payload is the reservation ID plus the changed fields.
const EventReservationUpdated = "reserva_actualizada"

// envelope is the wire frame for every pushed event.
type envelope struct {
	Event string          `json:"evento"`
	Data  json.RawMessage `json:"datos"`
}

// TokenFunc supplies the session token appended to the dial URL.
type TokenFunc func() (string, error)

// Config holds the realtime client settings.
type Config struct {
	// URL is the event stream endpoint, ws:// or wss://.
	URL string

	// Token supplies the session token per dial. Optional.
	Token TokenFunc

	// HandshakeTimeout bounds the WebSocket handshake. Defaults to 10s.
	HandshakeTimeout time.Duration
}

// Client consumes the booking platform's realtime event stream.
//
// Key features:
//   - Automatic reconnection with exponential backoff (1s doubling to a
//     32s cap, reset on any successful read)
//   - Thread-safe handler registration per event name
//   - Ping/pong keepalive (30-second interval)
//   - Graceful shutdown via Close
//
// The listener and keepalive goroutines start once, on the first
// successful Connect. Reconnection after a drop redials on the listener
// goroutine itself, so there is exactly one reader per connection no
// matter how many times the stream drops.
//
// Handlers run on the listener goroutine; they must return quickly and
// never block on the network.
type Client struct {
	url              string
	token            TokenFunc
	handshakeTimeout time.Duration

	conn      *websocket.Conn
	connMu    sync.RWMutex
	started   bool
	stopChan  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	handlerMu sync.RWMutex
	handlers  map[string][]func(json.RawMessage)
}

// NewClient creates a realtime client for the event stream endpoint in
// cfg. The client is not connected until Connect is called.
func NewClient(cfg Config) *Client {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	return &Client{
		url:              cfg.URL,
		token:            cfg.Token,
		handshakeTimeout: cfg.HandshakeTimeout,
		stopChan:         make(chan struct{}),
		handlers:         make(map[string][]func(json.RawMessage)),
	}
}

// Subscribe registers a handler for raw payloads of the named event.
// Multiple handlers per event are invoked in registration order.
func (c *Client) Subscribe(event string, fn func(json.RawMessage)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.handlers[event] = append(c.handlers[event], fn)
}

// SubscribeUpdates registers a typed handler for reservation update
// events. Payloads that fail to decode or validate are counted and
// dropped; a malformed event must never reach the store.
func (c *Client) SubscribeUpdates(fn func(models.UpdateEvent)) {
	c.Subscribe(EventReservationUpdated, func(data json.RawMessage) {
		var ev models.UpdateEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			metrics.RealtimeErrors.WithLabelValues("parse").Inc()
			logging.Error().Err(err).Msg("Failed to parse reservation update event")
			return
		}
		if verr := validation.ValidateStruct(&ev); verr != nil {
			metrics.RealtimeErrors.WithLabelValues("validation").Inc()
			logging.Warn().Err(verr).Int64("id", ev.ID).Msg("Discarding invalid reservation update event")
			return
		}
		fn(ev)
	})
}

// Connect establishes the WebSocket connection and, on the first
// successful call, starts the listener and keepalive goroutines. Calling
// Connect on a connected client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		return nil
	}

	conn, err := c.dialLocked(ctx)
	if err != nil {
		return err
	}
	c.conn = conn

	if !c.started {
		c.started = true
		c.wg.Add(2)
		go c.listen(ctx)
		go c.pingLoop(ctx)
	}

	return nil
}

// dialLocked performs one WebSocket handshake and returns the new
// connection without installing it. Caller holds connMu.
func (c *Client) dialLocked(ctx context.Context) (*websocket.Conn, error) {
	wsURL, err := c.buildWebSocketURL()
	if err != nil {
		return nil, fmt.Errorf("build websocket url: %w", err)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout:  c.handshakeTimeout,
		EnableCompression: true,
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		metrics.RealtimeErrors.WithLabelValues("dial").Inc()
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	metrics.RealtimeConnected.Set(1)
	logging.Info().Str("url", c.url).Msg("Realtime stream connected")
	return conn, nil
}

// redial re-establishes a dropped connection without spawning goroutines.
// Only the listener calls this.
func (c *Client) redial(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		return nil
	}
	conn, err := c.dialLocked(ctx)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

// buildWebSocketURL parses the configured endpoint, injecting the session
// token as a query parameter.
func (c *Client) buildWebSocketURL() (string, error) {
	wsURL, err := url.Parse(c.url)
	if err != nil {
		return "", fmt.Errorf("parse stream url: %w", err)
	}
	if wsURL.Scheme != "ws" && wsURL.Scheme != "wss" {
		return "", fmt.Errorf("stream url must use ws or wss scheme, got %q", wsURL.Scheme)
	}

	if c.token != nil {
		token, err := c.token()
		if err != nil {
			return "", fmt.Errorf("token source: %w", err)
		}
		if token != "" {
			q := wsURL.Query()
			q.Set("token", token)
			wsURL.RawQuery = q.Encode()
		}
	}

	return wsURL.String(), nil
}

// listen reads frames and routes them to handlers, reconnecting with
// exponential backoff whenever the connection drops. Runs until the
// context is canceled or Close is called.
func (c *Client) listen(ctx context.Context) {
	defer c.wg.Done()

	reconnectDelay := 1 * time.Second
	maxReconnectDelay := 32 * time.Second

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Realtime listener stopping (context canceled)")
			return
		case <-c.stopChan:
			logging.Info().Msg("Realtime listener stopping (stop signal received)")
			return
		default:
			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()

			if conn == nil {
				logging.Info().Dur("delay", reconnectDelay).Msg("Realtime connection lost, reconnecting")
				select {
				case <-time.After(reconnectDelay):
				case <-ctx.Done():
					return
				case <-c.stopChan:
					return
				}

				reconnectDelay *= 2
				if reconnectDelay > maxReconnectDelay {
					reconnectDelay = maxReconnectDelay
				}

				metrics.RealtimeReconnects.Inc()
				if err := c.redial(ctx); err != nil {
					logging.Error().Err(err).Msg("Realtime reconnection failed")
					continue
				}

				reconnectDelay = 1 * time.Second
				continue
			}

			if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
				logging.Warn().Err(err).Msg("Realtime: failed to set read deadline")
			}
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logging.Info().Msg("Realtime stream closed normally")
					c.closeConnection()
					continue
				}

				if ctx.Err() != nil {
					return
				}

				metrics.RealtimeErrors.WithLabelValues("read").Inc()
				logging.Warn().Err(err).Msg("Realtime read error")
				c.closeConnection()
				continue
			}

			reconnectDelay = 1 * time.Second

			c.handleMessage(message)
		}
	}
}

// handleMessage parses one frame and dispatches it to the handlers
// registered for its event name. Unknown events are counted and ignored.
func (c *Client) handleMessage(data []byte) {
	var ev envelope
	if err := json.Unmarshal(data, &ev); err != nil {
		metrics.RealtimeErrors.WithLabelValues("parse").Inc()
		logging.Error().Err(err).Msg("Failed to parse realtime frame")
		return
	}

	metrics.RealtimeEventsReceived.WithLabelValues(ev.Event).Inc()

	c.handlerMu.RLock()
	handlers := c.handlers[ev.Event]
	c.handlerMu.RUnlock()

	if len(handlers) == 0 {
		logging.Debug().Str("event", ev.Event).Msg("No handler for realtime event")
		return
	}

	for _, fn := range handlers {
		fn(ev.Data)
	}
}

// pingLoop sends a ping every 30 seconds so dead connections are
// detected within the read deadline.
func (c *Client) pingLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()

			if conn == nil {
				continue
			}

			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				logging.Warn().Err(err).Msg("Realtime ping failed")
				c.closeConnection()
			}
		}
	}
}

// closeConnection closes the connection and flags the stream as down.
// Safe for concurrent calls.
func (c *Client) closeConnection() {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(1*time.Second),
		)
		if err := c.conn.Close(); err != nil {
			logging.Debug().Err(err).Msg("Realtime: failed to close connection")
		}
		c.conn = nil
		metrics.RealtimeConnected.Set(0)
		logging.Info().Msg("Realtime connection closed")
	}
}

// Close gracefully shuts down the client: stops the goroutines, closes
// the connection and waits for everything to finish. Safe to call more
// than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.closeConnection()
		c.wg.Wait()

		logging.Info().Msg("Realtime client shut down")
	})
	return nil
}

// IsConnected reports whether the stream is currently established.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn != nil
}
