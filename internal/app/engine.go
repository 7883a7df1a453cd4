// Package app wires the room registry and the log store into the
// connect/disconnect/message protocol. Transport stays in the adapters.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ansari/parlor/internal/core"
	"github.com/ansari/parlor/internal/domain"
)

// ErrNotBound marks a realtime event that arrived without a valid session
// binding. It is a protocol violation: dropped, never surfaced to the user.
var ErrNotBound = errors.New("session not bound to a room")

type Engine struct {
	Rooms *core.Registry
	Logs  core.ChatLog

	ChatIDLen   int
	MaxAttempts int
}

// Connect admits a bound session into its room, announces it, archives the
// alert and grants the member log access when it is authenticated.
func (e *Engine) Connect(ctx context.Context, b domain.Binding, sid core.SessionID, s core.Sender) error {
	if !b.Complete() {
		return ErrNotBound
	}
	room, err := e.Rooms.Join(b.Room, sid, s)
	if err != nil {
		return err
	}
	log.Info().Str("module", "app.engine").Str("sid", string(sid)).Str("name", b.Name).Str("room", string(b.Room)).Msg("member connected")

	e.publish(ctx, room, domain.Event{Name: b.Name, Message: domain.AlertEntered}, false)

	if b.Authenticated() {
		if err := e.Logs.GrantAccess(ctx, b.Username, room.ChatID()); err != nil {
			log.Error().Err(err).Str("module", "app.engine").Str("username", b.Username).Msg("grant access failed")
		}
	}
	return nil
}

// Disconnect always runs to completion, even when the transport is already
// gone. The chat identifier is resolved before the membership change so a
// concurrent teardown cannot strand the departure alert; when the room is
// already removed the whole event degrades to a no-op.
func (e *Engine) Disconnect(ctx context.Context, b domain.Binding, sid core.SessionID) {
	if !b.Complete() {
		return
	}
	room, ok := e.Rooms.Get(b.Room)
	if !ok {
		log.Debug().Str("module", "app.engine").Str("room", string(b.Room)).Msg("disconnect for removed room")
		return
	}

	_, removed := e.Rooms.Leave(b.Room, sid)
	log.Info().Str("module", "app.engine").Str("sid", string(sid)).Str("name", b.Name).Str("room", string(b.Room)).Bool("room_removed", removed).Msg("member disconnected")

	// The captured room still carries the chat id; with the room gone the
	// fanout reaches nobody but the departure is archived all the same.
	e.publish(ctx, room, domain.Event{Name: b.Name, Message: domain.AlertLeft}, false)
}

// Message relays a chat message to the room, records it in the replay
// buffer and archives it. Messages into a room that no longer exists are
// dropped silently.
func (e *Engine) Message(ctx context.Context, b domain.Binding, text string) {
	if !b.Complete() {
		return
	}
	room, ok := e.Rooms.Get(b.Room)
	if !ok {
		log.Debug().Str("module", "app.engine").Str("room", string(b.Room)).Msg("message for removed room dropped")
		return
	}
	e.publish(ctx, room, domain.Event{Name: b.Name, Message: text}, true)
}

// publish serializes fanout, replay-buffer append and archive append under
// the room lock, so every member and the archive agree on the per-room order.
func (e *Engine) publish(ctx context.Context, room *core.Room, ev domain.Event, record bool) {
	frame, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.engine").Msg("marshal event")
		return
	}
	room.Publish(ev, frame, record, func(ev domain.Event) {
		entry := domain.LogEntry{
			ChatID:  room.ChatID(),
			Name:    ev.Name,
			Message: ev.Message,
			Time:    time.Now(),
		}
		if err := e.Logs.Append(ctx, entry); err != nil {
			// Persistence is best-effort relative to delivery; the
			// broadcast already happened, so only operators hear about it.
			log.Error().Err(err).Str("module", "app.engine").Str("chat_id", string(room.ChatID())).Msg("archive append failed")
		}
	})
}
