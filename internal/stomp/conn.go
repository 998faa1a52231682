package stomp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Subprotocols offered during the WebSocket upgrade.
var Subprotocols = []string{"v12.stomp", "v11.stomp", "v10.stomp"}

const (
	acceptVersion    = "1.0,1.1,1.2"
	writeWait        = 10 * time.Second
	defaultHandshake = 15 * time.Second
)

// ErrClosed is returned by Receive once the connection has been closed
// locally.
var ErrClosed = errors.New("stomp: connection closed")

// ServerError is an ERROR frame received from the broker.
type ServerError struct {
	Message string
	Body    string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return "stomp: server error: " + e.Message
	}
	return fmt.Sprintf("stomp: server error: %s: %s", e.Message, e.Body)
}

// Options tune Dial.
type Options struct {
	// HandshakeTimeout bounds the WebSocket upgrade plus the CONNECT /
	// CONNECTED exchange. Reads after that block without deadline.
	HandshakeTimeout time.Duration
	// Host is sent as the STOMP "host" header; defaults to "/".
	Host string
	// Headers are extra CONNECT headers, e.g. an auth token.
	Headers map[string]string
	// Dialer overrides the WebSocket dialer (tests, proxies).
	Dialer *websocket.Dialer
}

// Conn is a STOMP session over a single WebSocket.
type Conn struct {
	ws        *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
	version   string

	// queued holds frames that arrived in the same WebSocket message as
	// the one last returned. Only the reading goroutine touches it.
	queued []*Frame
}

// Dial opens the WebSocket and performs the STOMP CONNECT handshake.
func Dial(ctx context.Context, url string, opts Options) (*Conn, error) {
	timeout := opts.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshake
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	if opts.Dialer != nil {
		dialer = *opts.Dialer
	}
	dialer.Subprotocols = Subprotocols

	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("stomp: dial %s: %w", url, err)
	}
	c := &Conn{ws: ws, closed: make(chan struct{})}

	// A cancelled context must interrupt the blocking CONNECTED read.
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	host := opts.Host
	if host == "" {
		host = "/"
	}
	connect := NewFrame(CmdConnect,
		"accept-version", acceptVersion,
		"host", host,
		"heart-beat", "0,0",
	)
	for k, v := range opts.Headers {
		connect.Set(k, v)
	}
	if err := c.send(connect); err != nil {
		_ = c.Close()
		return nil, err
	}

	deadline, _ := ctx.Deadline()
	_ = ws.SetReadDeadline(deadline)
	f, err := c.next()
	if err != nil {
		_ = c.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("stomp: awaiting CONNECTED: %w", ctxErr)
		}
		return nil, fmt.Errorf("stomp: awaiting CONNECTED: %w", err)
	}
	switch f.Command {
	case CmdConnected:
		c.version, _ = f.Get("version")
	case CmdError:
		_ = c.Close()
		return nil, serverError(f)
	default:
		_ = c.Close()
		return nil, fmt.Errorf("stomp: unexpected %s frame during handshake", f.Command)
	}
	// long-lived stream from here on
	_ = ws.SetReadDeadline(time.Time{})
	return c, nil
}

// Version is the protocol version the broker agreed to.
func (c *Conn) Version() string { return c.version }

// Subscribe registers interest in destination.
func (c *Conn) Subscribe(destination, id, ack string) error {
	if ack == "" {
		ack = "auto"
	}
	return c.send(NewFrame(CmdSubscribe, "id", id, "destination", destination, "ack", ack))
}

// Receive blocks until the next MESSAGE frame. Heart-beats and receipts are
// skipped; an ERROR frame is returned as *ServerError.
func (c *Conn) Receive() (*Frame, error) {
	for {
		f, err := c.next()
		if err != nil {
			return nil, err
		}
		switch f.Command {
		case CmdMessage:
			return f, nil
		case CmdError:
			return nil, serverError(f)
		}
	}
}

// Disconnect sends DISCONNECT and closes the socket.
func (c *Conn) Disconnect() error {
	err := c.send(NewFrame(CmdDisconnect))
	if cerr := c.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close tears down the socket without a DISCONNECT frame. Safe to call
// more than once; a blocked Receive returns promptly.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.ws.Close()
	})
	return err
}

func (c *Conn) send(f *Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, f.Marshal()); err != nil {
		return fmt.Errorf("stomp: send %s: %w", f.Command, err)
	}
	return nil
}

func (c *Conn) next() (*Frame, error) {
	if len(c.queued) > 0 {
		f := c.queued[0]
		c.queued = c.queued[1:]
		return f, nil
	}
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.closed:
				return nil, ErrClosed
			default:
				return nil, err
			}
		}
		frames, err := Decode(data)
		if err != nil {
			return nil, err
		}
		if len(frames) == 0 {
			continue // heart-beat
		}
		c.queued = append(c.queued, frames[1:]...)
		return frames[0], nil
	}
}

func serverError(f *Frame) error {
	msg, _ := f.Get("message")
	return &ServerError{Message: msg, Body: string(f.Body)}
}
