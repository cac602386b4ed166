package transcriber

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/foxseedlab/jimakun/internal/transcriber"
	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout      = 10 * time.Second
	wsCloseGracePeriod  = time.Second
	realtimeBetaHeader  = "OpenAI-Beta"
	realtimeBetaVersion = "realtime=v1"
)

// wsConn adapts a gorilla websocket to transcriber.Conn. Writes are
// serialized; one goroutine may read while another writes.
type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	closing atomic.Bool
	once    sync.Once
}

func dialRealtime(ctx context.Context, url, apiKey string, handshakeTimeout time.Duration) (*wsConn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+apiKey)
	header.Set(realtimeBetaHeader, realtimeBetaVersion)

	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("handshake rejected with status %d: %w", resp.StatusCode, err)
		}
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

func (c *wsConn) Send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closing.Load() {
		return transcriber.ErrConnClosed
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return c.classify(err)
	}
	return c.classify(c.conn.WriteJSON(v))
}

func (c *wsConn) Receive() ([]byte, error) {
	for {
		kind, msg, err := c.conn.ReadMessage()
		if err != nil {
			return nil, c.classify(err)
		}
		if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
			return msg, nil
		}
	}
}

// Close sends a normal close frame and tears the socket down, which unblocks
// a pending Receive.
func (c *wsConn) Close() error {
	var err error
	c.once.Do(func() {
		c.closing.Store(true)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsCloseGracePeriod))
		err = c.conn.Close()
	})
	return err
}

func (c *wsConn) classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case c.closing.Load(),
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived),
		errors.Is(err, websocket.ErrCloseSent),
		errors.Is(err, net.ErrClosed):
		return fmt.Errorf("%w: %v", transcriber.ErrConnClosed, err)
	}
	return err
}
