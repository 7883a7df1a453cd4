package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ansari/parlor/internal/domain"
)

// ListLogs returns the chats the logged-in user may browse.
func (h *Handlers) ListLogs(c *gin.Context) {
	username, ok := requireUser(c)
	if !ok {
		return
	}

	chats, err := h.Store.ChatsForUser(c.Request.Context(), username)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("username", username).Msg("list chats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// ViewLog returns one archived chat, granted chats only.
func (h *Handlers) ViewLog(c *gin.Context) {
	username, ok := requireUser(c)
	if !ok {
		return
	}
	chatID := domain.ChatID(c.Param("chatID"))

	granted, err := h.Store.HasAccess(c.Request.Context(), username, chatID)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("check access")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !granted {
		c.JSON(http.StatusForbidden, gin.H{"error": "no access to this chat"})
		return
	}

	logs, err := h.Store.LogsForChat(c.Request.Context(), chatID)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("load logs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat_id": chatID, "logs": logs})
}

// DeleteLog revokes the caller's grant; the entries themselves are kept.
func (h *Handlers) DeleteLog(c *gin.Context) {
	username, ok := requireUser(c)
	if !ok {
		return
	}
	chatID := domain.ChatID(c.Param("chatID"))

	if err := h.Store.RevokeAccess(c.Request.Context(), chatID, username); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("revoke access")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	log.Info().Str("module", "adapters.http").Str("username", username).Str("chat_id", string(chatID)).Msg("grant revoked")
	c.Status(http.StatusNoContent)
}
