package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"ConsensusBot/internal/domain/models"
	drepo "ConsensusBot/internal/domain/repository"
	"ConsensusBot/pkg/logger"
)

// Client implements a MarketStream backed by the Finnhub trade WebSocket.
type Client struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	mu        sync.Mutex // guards conn and serialises writes
	conn      *websocket.Conn
	connected atomic.Bool
}

var _ drepo.MarketStream = (*Client)(nil)

// New creates a new Finnhub MarketStream.
func New(apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration, l *logger.Logger) *Client {
	if l == nil {
		l = logger.NewNop()
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            l.With("finnhub"),
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := c.websocketURL
	if c.apiKey != "" {
		u = fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("finnhub connect: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.connected.Store(true)
	c.log.Info("connected", logger.String("url", c.websocketURL))
	return nil
}

// Subscribe subscribes to configured symbols.
func (c *Client) Subscribe(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || !c.connected.Load() {
		return fmt.Errorf("finnhub not connected")
	}
	for _, s := range c.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": s}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
		c.log.Debug("subscribed", logger.String("symbol", s))
	}
	return nil
}

type fhTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type fhMessage struct {
	Type string    `json:"type"`
	Data []fhTrade `json:"data"`
}

// Read streams samples and errors. Both channels close when the read loop ends.
func (c *Client) Read(ctx context.Context) (<-chan *models.Sample, <-chan error) {
	samples := make(chan *models.Sample, 1024)
	errs := make(chan error, 1)

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	done := make(chan struct{})
	go c.pingLoop(ctx, conn, done)

	go func() {
		defer close(done)
		defer close(samples)
		defer close(errs)
		if conn == nil {
			errs <- fmt.Errorf("finnhub conn nil")
			return
		}
		for {
			if ctx.Err() != nil {
				return
			}
			_, b, err := conn.ReadMessage()
			if err != nil {
				c.connected.Store(false)
				errs <- fmt.Errorf("finnhub read: %w", err)
				return
			}
			var m fhMessage
			if err := json.Unmarshal(b, &m); err != nil || m.Type != "trade" {
				continue
			}
			for _, d := range m.Data {
				s := &models.Sample{Symbol: d.S, Price: d.P, Volume: d.V, Timestamp: time.UnixMilli(d.T).UTC()}
				select {
				case samples <- s:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return samples, errs
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	if conn == nil {
		return
	}
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			c.mu.Lock()
			_ = conn.WriteMessage(websocket.PingMessage, nil)
			c.mu.Unlock()
		}
	}
}

// Reconnect closes, waits reconnectDelay and dials again.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	select {
	case <-time.After(c.reconnectDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected.Store(false)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected.Load() }
