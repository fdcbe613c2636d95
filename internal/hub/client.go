// Package hub manages websocket subscribers and fans account events out to
// them. Each subscriber owns a bounded send queue; a subscriber that cannot
// keep up loses messages instead of stalling the broadcast.
package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/solana-scanner/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Subscriber is one connected websocket client
type Subscriber struct {
	ID   string
	conn *websocket.Conn
	send chan []byte

	closeMu sync.Mutex
	closed  bool

	cleanup func(*Subscriber)
	logger  *logging.Logger
}

func newSubscriber(conn *websocket.Conn, buffer int, cleanup func(*Subscriber)) *Subscriber {
	id := uuid.New().String()
	return &Subscriber{
		ID:      id,
		conn:    conn,
		send:    make(chan []byte, buffer),
		cleanup: cleanup,
		logger:  logging.Global().WithFields(map[string]any{"component": "hub", "subscriber": id}),
	}
}

// enqueue attempts a non-blocking delivery and reports whether the message
// was accepted. The lock is held across the send so a concurrent close
// cannot close the queue between the check and the send.
func (s *Subscriber) enqueue(data []byte) bool {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return false
	}

	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

// writePump drains the send queue onto the connection and keeps the
// connection alive with pings. Runs until the queue closes or a write fails.
func (s *Subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.WithError(err).Debug("Write failed, dropping subscriber")
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes inbound messages and hands them to the hub. Runs until
// the peer disconnects.
func (s *Subscriber) readPump(handler func(*Subscriber, []byte)) {
	defer s.close()

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				s.logger.WithError(err).Warn("Unexpected websocket close")
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		handler(s, message)
	}
}

// close tears the subscriber down exactly once
func (s *Subscriber) close() {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return
	}
	s.closed = true
	close(s.send)
	s.closeMu.Unlock()

	if s.conn != nil {
		s.conn.Close()
	}

	if s.cleanup != nil {
		s.cleanup(s)
	}
}
