package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"crmconsole/backend/internal/models"
)

// inboundPayload is what the upstream automation posts for every customer
// or automation row it produces.
type inboundPayload struct {
	SessionID string        `json:"session_id" binding:"required"`
	Name      string        `json:"name"`
	Kind      string        `json:"kind"`
	Content   string        `json:"content" binding:"required"`
	Tags      models.TagSet `json:"tags"`
}

// IngestMessage is the inbound webhook: it persists rows produced outside
// the console (customer messages, automation replies). A genuine customer
// row creates the conversation on first contact, advances
// lastCustomerMessageAt and un-pauses the conversation.
func (h *Handler) IngestMessage(c *gin.Context) {
	var p inboundPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid inbound payload"})
		return
	}
	if p.Kind == "" {
		p.Kind = models.KindHuman
	}

	msg := &models.Message{
		SessionID: p.SessionID,
		Kind:      p.Kind,
		Content:   p.Content,
		Tags:      p.Tags,
	}

	if msg.IsCustomer() {
		if _, err := h.Store.EnsureConversation(p.SessionID, p.Name); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create conversation"})
			return
		}
	}

	if err := h.Store.AppendMessage(msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to persist message"})
		return
	}

	if msg.IsCustomer() {
		if err := h.Store.TouchCustomerActivity(p.SessionID, msg.CreatedAt); err != nil {
			log.Error().Err(err).Str("sessionID", p.SessionID).Msg("Failed to update customer activity")
		}
	}

	c.JSON(http.StatusCreated, gin.H{"id": msg.ID, "created_at": msg.CreatedAt})
}
