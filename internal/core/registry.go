package core

import (
	"errors"
	"sync"

	"github.com/ansari/parlor/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	ErrRoomExists   = errors.New("room already exists")
	ErrRoomNotExist = errors.New("room does not exist")
)

// Registry is the process-wide table of live rooms. A room appears when its
// first member is about to join and disappears when the last one leaves;
// nothing here survives a restart, by contract the archive does.
type Registry struct {
	mu           sync.RWMutex
	rooms        map[domain.RoomCode]*Room
	historyLimit int
	maxAttempts  int
}

func NewRegistry(historyLimit, maxAttempts int) *Registry {
	return &Registry{
		rooms:        make(map[domain.RoomCode]*Room),
		historyLimit: historyLimit,
		maxAttempts:  maxAttempts,
	}
}

// Create registers a new room. With an empty preferred code one is generated,
// unique among live rooms; a taken preferred code is ErrRoomExists.
func (g *Registry) Create(preferred domain.RoomCode, codeLen int, chatID domain.ChatID) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	code := preferred
	if code == "" {
		generated, err := GenerateCode(codeLen, g.maxAttempts, func(c string) (bool, error) {
			_, ok := g.rooms[domain.RoomCode(c)]
			return ok, nil
		})
		if err != nil {
			return nil, err
		}
		code = domain.RoomCode(generated)
	} else if _, ok := g.rooms[code]; ok {
		return nil, ErrRoomExists
	}

	room := newRoom(code, chatID, g.historyLimit)
	g.rooms[code] = room
	log.Info().Str("module", "core.registry").Str("room", string(code)).Str("chat_id", string(chatID)).Msg("room created")
	return room, nil
}

func (g *Registry) Exists(code domain.RoomCode) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.rooms[code]
	return ok
}

func (g *Registry) Get(code domain.RoomCode) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[code]
	return room, ok
}

// Join binds a session's sender to the room. It fails with ErrRoomNotExist
// when the room is gone or closing, never resurrecting a dying room.
func (g *Registry) Join(code domain.RoomCode, sid SessionID, s Sender) (*Room, error) {
	g.mu.RLock()
	room, ok := g.rooms[code]
	g.mu.RUnlock()
	if !ok {
		return nil, ErrRoomNotExist
	}
	if err := room.join(sid, s); err != nil {
		return nil, err
	}
	return room, nil
}

// Leave removes the session from the room and tears the room down when it
// was the last member. The registry lock serializes teardown against joins,
// so a concurrent Join either lands before removal or gets ErrRoomNotExist.
func (g *Registry) Leave(code domain.RoomCode, sid SessionID) (room *Room, removed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.rooms[code]
	if !ok {
		return nil, false
	}
	if remaining := room.leave(sid); remaining <= 0 {
		room.close()
		delete(g.rooms, code)
		log.Info().Str("module", "core.registry").Str("room", string(code)).Msg("room removed")
		return room, true
	}
	return room, false
}
