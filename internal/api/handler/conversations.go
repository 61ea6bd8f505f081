package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crmconsole/backend/internal/convo"
)

// ListConversations returns the sidebar list, most recent activity first.
func (h *Handler) ListConversations(c *gin.Context) {
	convs, err := h.Store.ListConversations()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// GetHistory returns a conversation's reconciled history as render-ready
// nodes: echoes filtered out, consecutive automation images grouped.
func (h *Handler) GetHistory(c *gin.Context) {
	sessionID := c.Param("id")

	rows, err := h.Store.ListBySession(sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	filtered := convo.FilterHistory(rows)
	nodes := convo.GroupImages(convo.NodesFromMessages(filtered))
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "messages": nodes})
}

// GetWindowState reports whether free-form replies are currently allowed.
func (h *Handler) GetWindowState(c *gin.Context) {
	sessionID := c.Param("id")

	state, err := h.Engine.WindowStateFor(sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute window state"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "window": state})
}
