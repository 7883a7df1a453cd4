package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ansari/parlor/internal/mail"
)

type feedbackRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Feedback forwards the form to the mailer. Delivery failures are an
// operator problem, not the visitor's, so the request still succeeds.
func (h *Handlers) Feedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	fb := mail.Feedback{Name: req.Name, Email: req.Email, Message: req.Message}
	if err := h.Mailer.Send(c.Request.Context(), fb); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("feedback delivery failed")
	}
	c.Status(http.StatusAccepted)
}
