package ws

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/ansari/parlor/internal/domain"
)

// Session keys shared by the entry handlers and the realtime layer.
const (
	SessionKeyRoom     = "room"
	SessionKeyName     = "name"
	SessionKeyUsername = "username"
	SessionKeyUserID   = "user_id"
)

// BindingFrom rebuilds the per-connection binding from the cookie session.
// Missing keys leave zero values; callers decide what incomplete means.
func BindingFrom(c *gin.Context) domain.Binding {
	s := sessions.Default(c)
	var b domain.Binding
	if v, ok := s.Get(SessionKeyName).(string); ok {
		b.Name = v
	}
	if v, ok := s.Get(SessionKeyRoom).(string); ok {
		b.Room = domain.RoomCode(v)
	}
	if v, ok := s.Get(SessionKeyUsername).(string); ok {
		b.Username = v
	}
	return b
}
