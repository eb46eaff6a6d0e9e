// Package feed implements the MarketStream interface over a single
// WebSocket connection to an external tick source.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"OptionPulse/internal/domain/models"
)

// Client is a WebSocket market stream for one instrument. Frames for other
// instruments and non-positive prices are dropped before normalization.
type Client struct {
	url          string
	apiKey       string
	symbol       string
	pingInterval time.Duration

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
}

// New creates a market stream client.
func New(url, apiKey, symbol string, pingInterval time.Duration) *Client {
	if pingInterval <= 0 {
		pingInterval = 10 * time.Second
	}
	return &Client{url: url, apiKey: apiKey, symbol: symbol, pingInterval: pingInterval}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := c.url
	if c.apiKey != "" {
		u = fmt.Sprintf("%s?token=%s", c.url, c.apiKey)
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("feed connect: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	return nil
}

// Subscribe subscribes to the configured symbol.
func (c *Client) Subscribe(ctx context.Context) error {
	c.mu.RLock()
	conn, connected := c.conn, c.connected
	c.mu.RUnlock()
	if conn == nil || !connected {
		return fmt.Errorf("feed not connected")
	}
	msg := map[string]string{"type": "subscribe", "symbol": c.symbol}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe %s: %w", c.symbol, err)
	}
	return nil
}

type wireTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type wireMessage struct {
	Type string      `json:"type"`
	Data []wireTrade `json:"data"`
}

// Read streams normalized ticks and errors. Both channels close when the
// read loop exits; a read error terminates the loop and the caller decides
// whether to reconnect.
func (c *Client) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	ticks := make(chan *models.Tick, 256)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.mu.RLock()
				conn := c.conn
				c.mu.RUnlock()
				if conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			c.mu.RLock()
			conn := c.conn
			c.mu.RUnlock()
			if conn == nil {
				errs <- fmt.Errorf("feed conn nil")
				return
			}
			_, b, err := conn.ReadMessage()
			if err != nil {
				errs <- fmt.Errorf("feed read: %w", err)
				return
			}
			var m wireMessage
			if err := json.Unmarshal(b, &m); err != nil {
				// ignore non-trade frames
				continue
			}
			if m.Type != "trade" {
				continue
			}
			for _, d := range m.Data {
				if d.S != c.symbol || d.P <= 0 {
					continue
				}
				tick := &models.Tick{
					Symbol: d.S,
					Price:  d.P,
					Volume: d.V,
					At:     time.UnixMilli(d.T),
				}
				select {
				case ticks <- tick:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return ticks, errs
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
