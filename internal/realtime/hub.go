// Package realtime pushes change events to connected front-desk screens
// over websocket so they know to reload.
package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"clinicdesk/internal/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

type subscriber struct {
	conn   *websocket.Conn
	send   chan events.Event
	userID int64
}

// Hub is an events.Publisher that fans events out to websocket
// subscribers. A subscriber that falls behind is dropped.
type Hub struct {
	mu       sync.RWMutex
	subs     map[*subscriber]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger
	closed   bool
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		subs: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log,
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) Publish(_ context.Context, e events.Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.send <- e:
		default:
			h.log.Warn("[realtime] subscriber too slow, dropping", zap.Int64("user_id", s.userID))
			h.drop(s)
		}
	}
	return nil
}

// Close disconnects every subscriber. Later Serve calls are refused.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		h.drop(s)
	}
	h.closed = true
	return nil
}

// Serve upgrades the request and streams events until the peer goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID int64) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	s := &subscriber{conn: conn, send: make(chan events.Event, sendBuffer), userID: userID}
	if !h.register(s) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		return conn.Close()
	}
	h.log.Info("[realtime] subscribed", zap.Int64("user_id", userID))

	go h.writeLoop(s)
	h.readLoop(s)
	return nil
}

func (h *Hub) register(s *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.subs[s] = struct{}{}
	return true
}

func (h *Hub) unregister(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(s)
}

// drop requires h.mu held.
func (h *Hub) drop(s *subscriber) {
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.send)
}

// readLoop only watches for close and pong frames; the feed is one-way.
func (h *Hub) readLoop(s *subscriber) {
	defer func() {
		h.unregister(s)
		_ = s.conn.Close()
		h.log.Info("[realtime] unsubscribed", zap.Int64("user_id", s.userID))
	}()
	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()
	for {
		select {
		case e, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
