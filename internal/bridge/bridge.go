// Package bridge is the WebSocket link to the browser extension. The
// extension connects to a localhost server, pushes state (snapshots,
// keyboard commands, install events), and answers queries and mutation
// commands by message ID.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lotas/tabgruppen/internal/applog"
	"nhooyr.io/websocket"
)

// ErrNotConnected is returned when a request is made with no extension
// connected.
var ErrNotConnected = errors.New("extension not connected")

// IncomingMsg is a message from the extension.
type IncomingMsg struct {
	// Push messages: "snapshot", "command", "installed".
	Type    string          `json:"type,omitempty"`
	Tabs    json.RawMessage `json:"tabs,omitempty"`
	Groups  json.RawMessage `json:"groups,omitempty"`
	Tab     json.RawMessage `json:"tab,omitempty"`
	Command string          `json:"command,omitempty"`

	// Reply fields, correlated by ID.
	ID      string `json:"id,omitempty"`
	OK      *bool  `json:"ok,omitempty"`
	Error   string `json:"error,omitempty"`
	GroupID int    `json:"groupId,omitempty"`
}

// OutgoingMsg is a query or command to the extension.
type OutgoingMsg struct {
	ID      string `json:"id"`
	Action  string `json:"action"`
	TabID   int    `json:"tabId,omitempty"`
	TabIDs  []int  `json:"tabIds,omitempty"`
	GroupID int    `json:"groupId,omitempty"`
	Title   string `json:"title,omitempty"`
	Color   string `json:"color,omitempty"`
}

// Server manages the WebSocket connection to the extension. A single
// connection is held; a new one replaces it.
type Server struct {
	port    int
	msgs    chan IncomingMsg
	mu      sync.Mutex
	conn    *websocket.Conn
	connCtx context.Context
	pending map[string]chan IncomingMsg
}

// New creates a new Server. Port 0 means the caller manages the listener.
func New(port int) *Server {
	return &Server{
		port:    port,
		msgs:    make(chan IncomingMsg, 64),
		pending: make(map[string]chan IncomingMsg),
	}
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Messages returns the channel of push messages from the extension.
// Replies to in-flight requests are routed to their requester instead.
func (s *Server) Messages() <-chan IncomingMsg {
	return s.msgs
}

// Connected reports whether an extension is connected.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Send sends a message to the connected extension without waiting for a
// reply.
func (s *Server) Send(msg OutgoingMsg) error {
	s.mu.Lock()
	conn := s.conn
	ctx := s.connCtx
	s.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	applog.Info("bridge.send", "action", msg.Action, "id", msg.ID)
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// Request sends a message and waits for the reply carrying the same ID.
// A fresh UUID is assigned when the message has none. The reply's Error
// field, if set, is returned as an error.
func (s *Server) Request(ctx context.Context, msg OutgoingMsg) (IncomingMsg, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	ch := make(chan IncomingMsg, 1)
	s.mu.Lock()
	s.pending[msg.ID] = ch
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, msg.ID)
		s.mu.Unlock()
	}()

	if err := s.Send(msg); err != nil {
		return IncomingMsg{}, err
	}

	select {
	case reply := <-ch:
		if reply.OK != nil && !*reply.OK {
			return reply, fmt.Errorf("%s: %s", msg.Action, reply.Error)
		}
		return reply, nil
	case <-ctx.Done():
		return IncomingMsg{}, fmt.Errorf("%s: %w", msg.Action, ctx.Err())
	}
}

// Handler returns an http.Handler that accepts WebSocket upgrades.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			applog.Error("bridge.accept", err)
			return
		}

		conn.SetReadLimit(16 << 20) // snapshots with many tabs can be large

		ctx := r.Context()
		s.mu.Lock()
		if s.conn != nil {
			applog.Info("bridge.replaced")
			s.conn.CloseNow()
		}
		s.conn = conn
		s.connCtx = ctx
		s.mu.Unlock()

		applog.Info("bridge.connected", "remote", r.RemoteAddr)

		defer func() {
			s.mu.Lock()
			if s.conn == conn {
				s.conn = nil
				s.connCtx = nil
			}
			s.mu.Unlock()
			conn.CloseNow()
			applog.Info("bridge.disconnected")
		}()

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var msg IncomingMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				applog.Error("bridge.parse", err)
				continue
			}

			// Replies go to their waiting requester; everything else is
			// a push message.
			if msg.ID != "" {
				s.mu.Lock()
				ch, ok := s.pending[msg.ID]
				s.mu.Unlock()
				if ok {
					ch <- msg
					continue
				}
			}
			applog.Info("bridge.recv", "type", msg.Type)
			select {
			case s.msgs <- msg:
			default:
			}
		}
	})
}

// ListenAndServe starts the WebSocket server on the configured port.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", s.Handler())

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	applog.Info("bridge.start", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	return srv.ListenAndServe()
}

// WaitConnected blocks until an extension connects or the timeout elapses.
func (s *Server) WaitConnected(timeout time.Duration) error {
	deadline := time.After(timeout)
	for !s.Connected() {
		select {
		case <-deadline:
			return fmt.Errorf("waiting for extension: %w", ErrNotConnected)
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil
}
