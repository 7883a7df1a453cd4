// Package http is the request/response surface: room entry, auth, log
// browsing and feedback. The realtime phase lives in the ws package.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ansari/parlor/internal/adapters/ws"
	"github.com/ansari/parlor/internal/app"
	"github.com/ansari/parlor/internal/core"
	"github.com/ansari/parlor/internal/domain"
	"github.com/ansari/parlor/internal/mail"
	"github.com/ansari/parlor/internal/store"
)

type Handlers struct {
	Engine  *app.Engine
	Store   *store.Store
	Mailer  mail.Mailer
	CodeLen int
}

// Session is the entry-page equivalent: landing here clears any room
// binding, whatever state the client was in. Login state is preserved.
func (h *Handlers) Session(c *gin.Context) {
	s := sessions.Default(c)
	s.Delete(ws.SessionKeyRoom)
	s.Delete(ws.SessionKeyName)
	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
	}

	resp := gin.H{}
	if username, ok := s.Get(ws.SessionKeyUsername).(string); ok {
		resp["username"] = username
	}
	c.JSON(http.StatusOK, resp)
}

// Enter runs the room-entry exchange and binds the session on success.
func (h *Handlers) Enter(c *gin.Context) {
	var req app.EnterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	code, err := h.Engine.Enter(c.Request.Context(), req, h.CodeLen)
	if err != nil {
		status, msg := entryError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	s := sessions.Default(c)
	s.Set(ws.SessionKeyRoom, string(code))
	s.Set(ws.SessionKeyName, req.Name)
	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": code})
}

// RoomState replays the room view for a bound session: code, name and the
// buffered history. An unbound or stale session is sent back to the entry page.
func (h *Handlers) RoomState(c *gin.Context) {
	b := ws.BindingFrom(c)
	if !b.Complete() {
		c.JSON(http.StatusForbidden, gin.H{"error": "not in a room"})
		return
	}
	room, ok := h.Engine.Rooms.Get(b.Room)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Room does not exist"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    room.Code(),
		"name":    b.Name,
		"history": room.History(),
	})
}

func entryError(err error) (int, string) {
	switch {
	case errors.Is(err, app.ErrMissingName):
		return http.StatusBadRequest, "Please enter a name"
	case errors.Is(err, app.ErrMissingCode):
		return http.StatusBadRequest, "Please enter a room code"
	case errors.Is(err, app.ErrBadIntent):
		return http.StatusBadRequest, "bad request"
	case errors.Is(err, domain.ErrNameTooLong):
		return http.StatusBadRequest, "Name is too long"
	case errors.Is(err, core.ErrRoomNotExist):
		return http.StatusBadRequest, "Room does not exist"
	case errors.Is(err, core.ErrRoomExists):
		return http.StatusConflict, "Room already exists"
	default:
		log.Error().Err(err).Str("module", "adapters.http").Msg("enter failed")
		return http.StatusInternalServerError, "internal error"
	}
}
