// Package bridge implements terminal.Terminal over a websocket session
// with a terminal gateway. Every call is one request/response pair
// correlated by id, so a single connection serves concurrent callers.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/avolkov/termlink/terminal"
)

var log = logrus.WithField("pkg", "bridge")

const (
	defaultDialTimeout = 5 * time.Second
	defaultCallTimeout = 3 * time.Second
)

// Config holds the gateway connection settings. CallTimeout bounds
// calls whose context carries no deadline of its own.
type Config struct {
	Endpoint    string
	Token       string
	DialTimeout time.Duration
	CallTimeout time.Duration
}

// Client is a websocket-backed Terminal. It is safe for concurrent use;
// writes are serialized and responses are routed to their callers by id.
type Client struct {
	conn        *websocket.Conn
	callTimeout time.Duration

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan response
	err     error

	done chan struct{}
}

var _ terminal.Terminal = (*Client)(nil)

// Dial connects to the gateway and starts the read loop. The token, if
// set, travels as a bearer Authorization header on the handshake.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("bridge: endpoint required")
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	callTimeout := cfg.CallTimeout
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}

	header := http.Header{}
	if cfg.Token != "" {
		header.Set("Authorization", "Bearer "+cfg.Token)
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, cfg.Endpoint, header)
	if err != nil {
		return nil, &terminal.TransportError{Op: "dial " + cfg.Endpoint, Err: err}
	}

	c := &Client{
		conn:        conn,
		callTimeout: callTimeout,
		pending:     make(map[string]chan response),
		done:        make(chan struct{}),
	}
	go c.readLoop()

	log.WithField("endpoint", cfg.Endpoint).Info("terminal bridge connected")
	return c, nil
}

// Close sends a close frame and tears down the connection. In-flight
// calls fail with a transport error.
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.conn.Close()
}

// readLoop routes responses to their registered callers until the
// connection dies. It owns all reads on the socket.
func (c *Client) readLoop() {
	for {
		var resp response
		if err := c.conn.ReadJSON(&resp); err != nil {
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			close(c.done)
			return
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()

		if !ok {
			log.WithField("id", resp.ID).Warn("response without a waiting call")
			continue
		}
		ch <- resp
	}
}

// call sends one request and waits for its response. Gateway errors map
// to terminal sentinels; channel failures and timeouts surface as
// *terminal.TransportError so pollers know the outcome is unknown.
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	if c.callTimeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
			defer cancel()
		}
	}

	req := request{ID: uuid.NewString(), Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("bridge: encode %s params: %w", method, err)
		}
		req.Params = raw
	}

	// Buffered so the read loop never blocks on a caller that already
	// gave up.
	ch := make(chan response, 1)

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return &terminal.TransportError{Op: method, Err: err}
	}
	c.pending[req.ID] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.drop(req.ID)
		return &terminal.TransportError{Op: method, Err: err}
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return gatewayError(method, resp.Error)
		}
		if result != nil {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("bridge: decode %s result: %w", method, err)
			}
		}
		return nil
	case <-ctx.Done():
		c.drop(req.ID)
		return &terminal.TransportError{Op: method, Err: ctx.Err()}
	case <-c.done:
		c.drop(req.ID)
		c.mu.Lock()
		err := c.err
		c.mu.Unlock()
		return &terminal.TransportError{Op: method, Err: err}
	}
}

func (c *Client) drop(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// gatewayError maps the gateway's application errors onto the sentinels
// callers test with errors.Is. Unknown codes pass through verbatim.
func gatewayError(method string, e *rpcError) error {
	switch e.Code {
	case codeInstrumentUnavailable:
		return fmt.Errorf("%s: %w: %s", method, terminal.ErrInstrumentUnavailable, e.Message)
	case codeTicketNotFound:
		return fmt.Errorf("%s: %w: %s", method, terminal.ErrTicketNotFound, e.Message)
	}
	return fmt.Errorf("bridge: %s: gateway error %d: %s", method, e.Code, e.Message)
}
