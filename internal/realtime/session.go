package realtime

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

// Session is one live connection of a user. A user may hold several
// sessions at once (multiple devices or tabs); the hub fans a publish
// out to all of them.
type Session struct {
	ID     string
	userID uint
	conn   *websocket.Conn
	send   chan Message
	done   chan struct{}
	once   sync.Once
}

// NewSession wraps an upgraded websocket connection. conn may be nil in
// tests; Run requires a real connection.
func NewSession(conn *websocket.Conn) *Session {
	return &Session{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan Message, sendBuffer),
		done: make(chan struct{}),
	}
}

// UserID returns the identity the session is registered under.
func (s *Session) UserID() uint { return s.userID }

// Receive exposes the delivery channel. The write pump drains it; tests
// read from it directly.
func (s *Session) Receive() <-chan Message { return s.send }

// Close marks the session dead. Idempotent.
func (s *Session) Close() {
	s.once.Do(func() { close(s.done) })
}

// push enqueues a message without blocking. Messages to a closed session
// or a full buffer are dropped; delivery here is best-effort by contract.
func (s *Session) push(msg Message) {
	select {
	case <-s.done:
	default:
		select {
		case s.send <- msg:
		default:
		}
	}
}

// Run services the connection until it closes, then removes the session
// from the hub. Blocks; call from the connection handler goroutine.
func (s *Session) Run(hub *Hub) {
	defer func() {
		hub.Leave(s)
		s.Close()
		s.conn.Close()
	}()

	go s.writePump()

	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Clients only listen on this channel; the read loop exists to
	// detect disconnects and answer pings.
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("realtime: session %s read error: %v", s.ID, err)
			}
			return
		}
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
