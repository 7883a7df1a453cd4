package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ansari/parlor/internal/adapters/ws"
	"github.com/ansari/parlor/internal/app"
	"github.com/ansari/parlor/internal/config"
	"github.com/ansari/parlor/internal/mail"
	"github.com/ansari/parlor/internal/store"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware gives every browser a stable token for log
// correlation across requests and websocket connections.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, engine *app.Engine, st *store.Store, mailer mail.Mailer) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	sessionStore := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ParlorSession", sessionStore))
	r.Use(ClientTokenMiddleware())

	h := &Handlers{
		Engine:  engine,
		Store:   st,
		Mailer:  mailer,
		CodeLen: cfg.RoomCodeLength,
	}
	chatCtl := ws.NewChatWSController(engine, cfg.ReadLimit, cfg.PingPeriod)

	log.Info().Str("module", "adapters.http").Msg("router setup")

	api := r.Group("/api")

	api.GET("/session", h.Session)
	api.POST("/enter", h.Enter)
	api.GET("/room", h.RoomState)

	api.POST("/register", h.Register)
	api.POST("/login", h.Login)
	api.POST("/logout", h.Logout)

	api.GET("/logs", h.ListLogs)
	api.GET("/logs/:chatID", h.ViewLog)
	api.DELETE("/logs/:chatID", h.DeleteLog)

	api.POST("/feedback", h.Feedback)

	api.GET("/ws/chat", func(c *gin.Context) {
		chatCtl.HandleChat(ctx, c)
	})

	return r
}
