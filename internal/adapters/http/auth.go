package http

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/ansari/parlor/internal/adapters/ws"
	"github.com/ansari/parlor/internal/store"
)

type registerRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if req.Username == "" || req.Password == "" || req.Confirmation == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing username and/or password"})
		return
	}
	if req.Password != req.Confirmation {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	user, err := h.Store.CreateUser(c.Request.Context(), req.Username, string(hash))
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username already in use"})
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Msg("create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	// Registration logs the user in, like login does.
	s := sessions.Default(c)
	s.Set(ws.SessionKeyUsername, user.Username)
	s.Set(ws.SessionKeyUserID, user.ID)
	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
	}

	log.Info().Str("module", "adapters.http").Str("username", user.Username).Msg("user registered")
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "username": user.Username})
}

func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing username and/or password"})
		return
	}

	user, err := h.Store.FindUser(c.Request.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			log.Error().Err(err).Str("module", "adapters.http").Msg("find user")
		}
		// Same answer for unknown user and bad password.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect username and/or password"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Hash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect username and/or password"})
		return
	}

	s := sessions.Default(c)
	s.Set(ws.SessionKeyUsername, user.Username)
	s.Set(ws.SessionKeyUserID, user.ID)
	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	log.Info().Str("module", "adapters.http").Str("username", user.Username).Msg("user logged in")
	c.JSON(http.StatusOK, gin.H{"username": user.Username})
}

func (h *Handlers) Logout(c *gin.Context) {
	s := sessions.Default(c)
	s.Delete(ws.SessionKeyUsername)
	s.Delete(ws.SessionKeyUserID)
	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
	}
	c.Status(http.StatusNoContent)
}

// requireUser aborts with 401 unless the session belongs to a registered user.
func requireUser(c *gin.Context) (string, bool) {
	s := sessions.Default(c)
	username, ok := s.Get(ws.SessionKeyUsername).(string)
	if !ok || username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return "", false
	}
	return username, true
}
