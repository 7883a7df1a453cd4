package core

import (
	"context"

	"github.com/ansari/parlor/internal/domain"
)

// Frame is a marshaled payload ready for the wire.
type Frame []byte

type SessionID string

// Sender abstracts a member's transport endpoint.
// Owned by the adapter; the adapter must Close() it.
type Sender interface {
	TrySend(Frame) error
	Close()
}

// ChatLog is the slice of the persistent store the realtime core writes to.
// The full store (users, log browsing) lives behind the HTTP adapters.
type ChatLog interface {
	Append(ctx context.Context, entry domain.LogEntry) error
	GrantAccess(ctx context.Context, username string, chatID domain.ChatID) error
	ChatIDExists(ctx context.Context, chatID domain.ChatID) (bool, error)
}
