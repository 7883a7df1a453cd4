package core

import (
	"sync"

	"github.com/ansari/parlor/internal/domain"
	"github.com/rs/zerolog/log"
)

// Room is a threadsafe in-memory room: its member set, its replay buffer
// and the chat identifier its archive is keyed by. It never closes
// adapter-owned transport resources.
type Room struct {
	code   domain.RoomCode
	chatID domain.ChatID

	mu           sync.Mutex
	members      map[SessionID]Sender
	history      []domain.Event
	historyLimit int
	closed       bool
}

func newRoom(code domain.RoomCode, chatID domain.ChatID, historyLimit int) *Room {
	return &Room{
		code:         code,
		chatID:       chatID,
		members:      make(map[SessionID]Sender),
		historyLimit: historyLimit,
	}
}

func (r *Room) Code() domain.RoomCode { return r.code }
func (r *Room) ChatID() domain.ChatID { return r.chatID }

func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// History returns a copy of the replay buffer for the room view.
func (r *Room) History() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Event, len(r.history))
	copy(out, r.history)
	return out
}

// join fails once the room is mid-teardown so a late connect cannot
// resurrect a room the registry is about to drop.
func (r *Room) join(sid SessionID, s Sender) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomNotExist
	}
	r.members[sid] = s
	return nil
}

// leave reports the remaining member count. Removing an unknown session
// is a no-op with the current count, so double-disconnects are harmless.
func (r *Room) leave(sid SessionID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, sid)
	return len(r.members)
}

func (r *Room) close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// Publish fans ev out to every member, optionally records it in the replay
// buffer, and runs persist while still holding the room lock. One lock span
// keeps the order members observe, the buffer order and the archive order
// identical for the room. Sends are non-blocking, so a slow peer or the
// store can never stall the others.
func (r *Room) Publish(ev domain.Event, frame Frame, record bool, persist func(domain.Event)) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	sent := 0
	for sid, m := range r.members {
		if err := m.TrySend(frame); err != nil {
			log.Warn().Str("module", "core.room").Str("room", string(r.code)).Str("sid", string(sid)).Err(err).Msg("dropped frame")
			continue
		}
		sent++
	}
	if record {
		r.history = append(r.history, ev)
		if r.historyLimit > 0 && len(r.history) > r.historyLimit {
			r.history = r.history[len(r.history)-r.historyLimit:]
		}
	}
	if persist != nil {
		persist(ev)
	}
	return sent
}
