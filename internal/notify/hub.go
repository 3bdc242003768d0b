// Package notify fans real-time events out to connected sessions. Delivery
// is at-most-once: a session that is not connected, or whose queue is full,
// misses the event.
package notify

import (
	"encoding/json"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// QueueSize is the number of undelivered frames a session may hold.
const QueueSize = 64

// Notifier is what the services publish through.
type Notifier interface {
	PublishToUser(userID int64, event string, payload any)
	PublishGlobal(event string, payload any)
}

// Envelope is the frame written to the socket.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Session is one connected client. Frames are read from Outbound until it
// is closed.
type Session struct {
	UserID int64
	room   string
	out    chan []byte
	once   sync.Once
}

// Outbound yields encoded frames for this session.
func (s *Session) Outbound() <-chan []byte { return s.out }

func (s *Session) close() { s.once.Do(func() { close(s.out) }) }

// Hub tracks sessions per user room plus the global set.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Session]struct{}
	all    map[*Session]struct{}
	closed bool
	log    *zap.Logger
}

var _ Notifier = (*Hub)(nil)

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		rooms: make(map[string]map[*Session]struct{}),
		all:   make(map[*Session]struct{}),
		log:   log,
	}
}

// Room returns the room name of a user.
func Room(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

// Join registers a session in the user's room. It returns nil once the hub is closed.
func (h *Hub) Join(userID int64) *Session {
	s := &Session{UserID: userID, room: Room(userID), out: make(chan []byte, QueueSize)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	if h.rooms[s.room] == nil {
		h.rooms[s.room] = make(map[*Session]struct{})
	}
	h.rooms[s.room][s] = struct{}{}
	h.all[s] = struct{}{}
	h.log.Debug("ws_session_joined", zap.String("room", s.room), zap.Int("sessions", len(h.all)))
	return s
}

// Leave unregisters s and closes its queue. Calling it twice is harmless.
func (h *Hub) Leave(s *Session) {
	if s == nil {
		return
	}
	h.mu.Lock()
	if members, ok := h.rooms[s.room]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, s.room)
		}
	}
	delete(h.all, s)
	h.mu.Unlock()

	s.close()
}

// PublishToUser delivers to every session of userID.
func (h *Hub) PublishToUser(userID int64, event string, payload any) {
	frame, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.rooms[Room(userID)] {
		h.deliver(s, event, frame)
	}
}

// PublishGlobal delivers to every connected session.
func (h *Hub) PublishGlobal(event string, payload any) {
	frame, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.all {
		h.deliver(s, event, frame)
	}
}

// deliver must be called with at least the read lock held.
func (h *Hub) deliver(s *Session, event string, frame []byte) {
	select {
	case s.out <- frame:
	default:
		h.log.Warn("ws_event_dropped", zap.String("room", s.room), zap.String("event", event))
	}
}

func (h *Hub) encode(event string, payload any) ([]byte, bool) {
	b, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		h.log.Error("ws_event_encode_failed", zap.String("event", event), zap.Error(err))
		return nil, false
	}
	return b, true
}

// Connected reports the number of sessions in a user's room.
func (h *Hub) Connected(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[Room(userID)])
}

// Close disconnects every session. Later Joins return nil.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := h.all
	h.rooms = make(map[string]map[*Session]struct{})
	h.all = make(map[*Session]struct{})
	h.closed = true
	h.mu.Unlock()

	for s := range sessions {
		s.close()
	}
}
