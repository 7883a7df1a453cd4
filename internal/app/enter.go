package app

import (
	"context"
	"errors"

	"github.com/ansari/parlor/internal/core"
	"github.com/ansari/parlor/internal/domain"
)

type Intent string

const (
	IntentCreate Intent = "create"
	IntentJoin   Intent = "join"
)

var (
	ErrMissingName = errors.New("please enter a name")
	ErrMissingCode = errors.New("please enter a room code")
	ErrBadIntent   = errors.New("intent must be create or join")
)

// EnterRequest is the typed form of the room-entry exchange. Fields are
// validated here, before anything reaches the registry.
type EnterRequest struct {
	Name   string          `json:"name"`
	Code   domain.RoomCode `json:"code"`
	Intent Intent          `json:"intent"`
}

// Enter runs the Unbound -> Bound transition: it validates the request,
// creates the room on create intent (generating a code when none was
// supplied) and returns the final room code the session should bind to.
func (e *Engine) Enter(ctx context.Context, req EnterRequest, codeLen int) (domain.RoomCode, error) {
	if err := domain.ValidateName(req.Name); err != nil {
		if errors.Is(err, domain.ErrNameEmpty) {
			return "", ErrMissingName
		}
		return "", err
	}

	switch req.Intent {
	case IntentJoin:
		if req.Code == "" {
			return "", ErrMissingCode
		}
		if !e.Rooms.Exists(req.Code) {
			return "", core.ErrRoomNotExist
		}
		return req.Code, nil

	case IntentCreate:
		chatID, err := e.newChatID(ctx)
		if err != nil {
			return "", err
		}
		room, err := e.Rooms.Create(req.Code, codeLen, chatID)
		if err != nil {
			return "", err
		}
		return room.Code(), nil

	default:
		return "", ErrBadIntent
	}
}

// newChatID draws a chat identifier unique across the whole archive, so
// logs of long-dead rooms can never collide with a new room's archive.
func (e *Engine) newChatID(ctx context.Context) (domain.ChatID, error) {
	id, err := core.GenerateCode(e.ChatIDLen, e.MaxAttempts, func(c string) (bool, error) {
		return e.Logs.ChatIDExists(ctx, domain.ChatID(c))
	})
	if err != nil {
		return "", err
	}
	return domain.ChatID(id), nil
}
