// Package ws carries the realtime phase: it upgrades bound sessions,
// re-validates the binding independently of the entry step, and feeds
// connect/disconnect/message events into the broadcast engine.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ansari/parlor/internal/app"
	"github.com/ansari/parlor/internal/core"
	"github.com/ansari/parlor/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type ChatWSController struct {
	Engine     *app.Engine
	ReadLimit  int64
	PingPeriod time.Duration
}

func NewChatWSController(engine *app.Engine, readLimit int64, pingPeriod time.Duration) *ChatWSController {
	return &ChatWSController{Engine: engine, ReadLimit: readLimit, PingPeriod: pingPeriod}
}

// HandleChat admits a connection into its bound room. A client that skipped
// the entry exchange has no usable binding and is rejected before upgrade.
func (ctl *ChatWSController) HandleChat(ctx context.Context, c *gin.Context) {
	b := BindingFrom(c)
	ct := c.GetString("client_token")

	if !b.Complete() || !ctl.Engine.Rooms.Exists(b.Room) {
		log.Warn().Str("module", "ws").Str("ct", ct).Str("room", string(b.Room)).Msg("rejecting unbound connection")
		c.Status(http.StatusForbidden)
		return
	}

	// Each connection gets its own session id. The client token is stable
	// per browser, so keying membership on it would collapse two tabs into
	// one slot; it stays in the logs for correlation only.
	sid := core.SessionID(uuid.NewString())

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		sock.SetReadLimit(ctl.ReadLimit)
	}

	conn := newConn(sock, ctl.PingPeriod)
	if err := ctl.Engine.Connect(ctx, b, sid, conn); err != nil {
		// The room may have been torn down between the check and the join.
		log.Warn().Err(err).Str("module", "ws").Str("sid", string(sid)).Msg("connect refused")
		conn.Close()
		return
	}
	log.Info().Str("module", "ws").Str("sid", string(sid)).Str("ct", ct).Str("name", b.Name).Str("room", string(b.Room)).Msg("connected")

	ctx, cancel := context.WithCancel(ctx)
	go conn.writePump(ctx)
	go ctl.readPump(ctx, cancel, b, sid, conn)
}

func (ctl *ChatWSController) readPump(ctx context.Context, cancel context.CancelFunc, b domain.Binding, sid core.SessionID, c *Conn) {
	defer func() {
		// The disconnect must run to completion even though the transport
		// is gone, so it gets a fresh context.
		ctl.Engine.Disconnect(context.Background(), b, sid)
		c.Close()
		cancel()
		log.Info().Str("module", "ws").Str("sid", string(sid)).Msg("readPump closed")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "ws").Str("sid", string(sid)).Msg("readPump read error")
				return
			}
			ctl.handleFrame(ctx, b, c, data)
		}
	}
}

func (ctl *ChatWSController) handleFrame(ctx context.Context, b domain.Binding, c *Conn, data []byte) {
	var env struct {
		Type string `json:"type"`
		Data string `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("bad json")
		return
	}

	switch env.Type {
	case "message":
		ctl.Engine.Message(ctx, b, env.Data)
	case "ping":
		ctl.sendJSON(c, map[string]any{"type": "pong"})
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown frame")
	}
}

func (ctl *ChatWSController) sendJSON(c *Conn, v any) {
	bts, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(bts)
}
