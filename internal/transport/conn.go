// Package transport carries wire frames between the WebInsight contexts and
// implements the request/response contract on top of them: every request is
// resolved exactly once, and every failure mode (timeout, disconnect, unknown
// kind, handler panic) surfaces as an ordinary failure response.
package transport

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// Conn is a framed, bidirectional link to one peer.
type Conn interface {
	// ReadFrame blocks until the next frame arrives or the link fails.
	ReadFrame() (wire.Frame, error)

	// WriteFrame sends one frame. Safe for concurrent use.
	WriteFrame(f wire.Frame) error

	// Close tears the link down. Blocked reads and writes fail afterwards.
	Close() error
}

// WSConn adapts a gorilla websocket connection to the Conn interface.
type WSConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NewWSConn wraps an already-established websocket connection.
func NewWSConn(conn *websocket.Conn) *WSConn {
	return &WSConn{conn: conn}
}

// ReadFrame reads one JSON frame from the socket.
func (c *WSConn) ReadFrame() (wire.Frame, error) {
	var f wire.Frame
	if err := c.conn.ReadJSON(&f); err != nil {
		return wire.Frame{}, err
	}
	return f, nil
}

// WriteFrame writes one JSON frame to the socket. The gorilla connection
// allows one writer at a time, so writes are serialized here.
func (c *WSConn) WriteFrame(f wire.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(f)
}

// Close closes the underlying socket.
func (c *WSConn) Close() error {
	return c.conn.Close()
}

// Dial connects to the hub's websocket endpoint, authenticating with a
// bearer token.
func Dial(ctx context.Context, wsURL, token string) (*WSConn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return NewWSConn(conn), nil
}
