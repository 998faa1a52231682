// Package stomptest provides an in-process STOMP-over-WebSocket broker for
// tests.
package stomptest

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"mixergy_bridge/internal/stomp"
)

// Session is one client connection accepted by the broker.
type Session struct {
	Connect     *stomp.Frame
	Destination string
	ID          string

	ws *websocket.Conn
	mu sync.Mutex
}

// Send delivers a MESSAGE frame to the session's subscription.
func (s *Session) Send(body string) error {
	f := stomp.NewFrame(stomp.CmdMessage,
		"subscription", s.ID,
		"destination", s.Destination,
		"message-id", time.Now().Format(time.RFC3339Nano),
		"content-type", "application/json",
	)
	f.Body = []byte(body)
	return s.write(f.Marshal())
}

// Heartbeat writes a bare EOL.
func (s *Session) Heartbeat() error {
	return s.write([]byte("\n"))
}

// Drop closes the socket without a STOMP goodbye, simulating a network
// failure.
func (s *Session) Drop() {
	_ = s.ws.Close()
}

func (s *Session) write(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.WriteMessage(websocket.TextMessage, b)
}

// Broker accepts STOMP clients on an httptest server.
type Broker struct {
	server *httptest.Server

	mu       sync.Mutex
	connects []*stomp.Frame
	reject   string
	hold     bool

	subscribed chan *Session
}

// NewBroker starts a broker. Callers must Close it.
func NewBroker() *Broker {
	b := &Broker{subscribed: make(chan *Session, 16)}
	b.server = httptest.NewServer(http.HandlerFunc(b.serve))
	return b
}

// URL is the ws:// address of the broker.
func (b *Broker) URL() string {
	return "ws" + strings.TrimPrefix(b.server.URL, "http")
}

// Close shuts the broker down.
func (b *Broker) Close() {
	b.server.CloseClientConnections()
	b.server.Close()
}

// Reject makes subsequent CONNECT frames fail with an ERROR frame. An empty
// message accepts connections again.
func (b *Broker) Reject(message string) {
	b.mu.Lock()
	b.reject = message
	b.mu.Unlock()
}

// Hold makes subsequent CONNECT frames go unanswered until the client
// gives up, leaving it stuck in the handshake.
func (b *Broker) Hold(hold bool) {
	b.mu.Lock()
	b.hold = hold
	b.mu.Unlock()
}

// Connects returns the CONNECT frames seen so far.
func (b *Broker) Connects() []*stomp.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*stomp.Frame, len(b.connects))
	copy(out, b.connects)
	return out
}

// WaitSubscribe blocks until a client subscribes or timeout elapses.
func (b *Broker) WaitSubscribe(timeout time.Duration) (*Session, error) {
	select {
	case s := <-b.subscribed:
		return s, nil
	case <-time.After(timeout):
		return nil, errors.New("stomptest: no subscription before timeout")
	}
}

var upgrader = websocket.Upgrader{
	Subprotocols: stomp.Subprotocols,
	CheckOrigin:  func(*http.Request) bool { return true },
}

func (b *Broker) serve(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = ws.Close() }()

	sess := &Session{ws: ws}
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		frames, err := stomp.Decode(data)
		if err != nil {
			return
		}
		for _, f := range frames {
			switch f.Command {
			case stomp.CmdConnect:
				b.mu.Lock()
				b.connects = append(b.connects, f)
				reject, hold := b.reject, b.hold
				b.mu.Unlock()
				sess.Connect = f
				if reject != "" {
					_ = sess.write(stomp.NewFrame(stomp.CmdError, "message", reject).Marshal())
					return
				}
				if hold {
					continue
				}
				_ = sess.write(stomp.NewFrame(stomp.CmdConnected, "version", "1.2", "heart-beat", "0,0").Marshal())
			case stomp.CmdSubscribe:
				sess.Destination, _ = f.Get("destination")
				sess.ID, _ = f.Get("id")
				b.subscribed <- sess
			case stomp.CmdDisconnect:
				return
			}
		}
	}
}
