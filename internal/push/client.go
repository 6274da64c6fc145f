package push

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mtafreight/dispatch-gateway/pkg/config"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
	"github.com/mtafreight/dispatch-gateway/pkg/metrics"
)

var (
	errHubRequired    = errors.New("push hub is required")
	errLoggerRequired = errors.New("push logger is required")
	errURLRequired    = errors.New("push url is required")
	errSendQueueFull  = errors.New("push send queue full")
)

const outboundQueueSize = 64

// Client maintains the websocket connection to the backend push channel.
// It redials with capped backoff and runs the registered resync hooks
// after every reconnection so the caches recover missed events.
type Client struct {
	cfg     config.PushConfig
	hub     *Hub
	logger  *logger.Logger
	metrics *metrics.GatewayMetrics

	mu          sync.Mutex
	onReconnect []func(context.Context)
}

// NewClient validates the wiring and returns a push client.
func NewClient(cfg config.PushConfig, hub *Hub, logg *logger.Logger, m *metrics.GatewayMetrics) (*Client, error) {
	if hub == nil {
		return nil, errHubRequired
	}
	if logg == nil {
		return nil, errLoggerRequired
	}
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errURLRequired
	}
	return &Client{cfg: cfg, hub: hub, logger: logg, metrics: m}, nil
}

// OnReconnect registers a hook run after each successful reconnection.
func (c *Client) OnReconnect(hook func(context.Context)) {
	if hook == nil {
		return
	}
	c.mu.Lock()
	c.onReconnect = append(c.onReconnect, hook)
	c.mu.Unlock()
}

// Run dials the channel and serves it until the context is canceled.
func (c *Client) Run(ctx context.Context) error {
	backoff := c.cfg.ReconnectMin
	if backoff <= 0 {
		backoff = time.Second
	}
	connects := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := c.dial(ctx)
		if err != nil {
			c.logger.Warn(ctx, "push channel dial failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = c.nextBackoff(backoff)
			continue
		}

		backoff = c.cfg.ReconnectMin
		if backoff <= 0 {
			backoff = time.Second
		}
		connects++
		c.logger.Info(ctx, "push channel connected")
		if connects > 1 {
			c.metrics.IncReconnect()
			c.runReconnectHooks(ctx)
		}

		c.serve(ctx, conn)
		c.hub.SetSender(nil)
		if err := ctx.Err(); err != nil {
			return err
		}
		c.logger.Warn(ctx, "push channel disconnected")
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// serve pumps the connection until it breaks or the context ends.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	outbound := make(chan Message, outboundQueueSize)
	c.hub.SetSender(func(msg Message) error {
		select {
		case outbound <- msg:
			return nil
		default:
			return errSendQueueFull
		}
	})

	done := make(chan struct{})
	go c.writePump(ctx, conn, outbound, done)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if msg.Event == "" {
			c.metrics.IncEventDropped("")
			continue
		}
		c.hub.Dispatch(msg)
	}
	close(done)
}

func (c *Client) writePump(ctx context.Context, conn *websocket.Conn, outbound <-chan Message, done <-chan struct{}) {
	pingInterval := c.cfg.PingInterval
	if pingInterval <= 0 {
		pingInterval = 25 * time.Second
	}
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
			return
		case <-done:
			return
		case msg := <-outbound:
			conn.SetWriteDeadline(time.Now().Add(c.writeTimeout()))
			if err := conn.WriteJSON(msg); err != nil {
				conn.Close()
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(c.writeTimeout())
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				conn.Close()
				return
			}
		}
	}
}

func (c *Client) writeTimeout() time.Duration {
	if c.cfg.WriteTimeout > 0 {
		return c.cfg.WriteTimeout
	}
	return 10 * time.Second
}

func (c *Client) nextBackoff(current time.Duration) time.Duration {
	max := c.cfg.ReconnectMax
	if max <= 0 {
		max = 30 * time.Second
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func (c *Client) runReconnectHooks(ctx context.Context) {
	c.mu.Lock()
	hooks := make([]func(context.Context), len(c.onReconnect))
	copy(hooks, c.onReconnect)
	c.mu.Unlock()

	for _, hook := range hooks {
		hook(ctx)
	}
}
