package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"crmconsole/backend/internal/convo"
	"crmconsole/backend/internal/models"
	"crmconsole/backend/internal/storage"
)

// SendMessage dispatches a composed payload: free text, a media reference,
// or a selected template. A locked window without a template is rejected
// locally before anything is persisted or sent; the client keeps the draft
// and may retry with a template.
func (h *Handler) SendMessage(c *gin.Context) {
	var req models.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid send payload"})
		return
	}
	req.SessionID = c.Param("id")

	msg, err := h.Engine.Send(req)
	switch {
	case errors.Is(err, convo.ErrTemplateRequired):
		c.JSON(http.StatusConflict, gin.H{
			"error":             "Session window closed",
			"template_required": true,
		})
	case errors.Is(err, convo.ErrEmptyPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is empty"})
	case errors.Is(err, storage.ErrTemplateNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown template"})
	case err != nil:
		// Recoverable: nothing was persisted, the client keeps its input.
		c.JSON(http.StatusBadGateway, gin.H{"error": "Send failed, please retry"})
	default:
		c.JSON(http.StatusCreated, gin.H{"message": msg})
	}
}

// SendNote persists an internal annotation visible only in the console.
func (h *Handler) SendNote(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid note payload"})
		return
	}

	msg, err := h.Engine.SendNote(c.Param("id"), req.Text)
	if errors.Is(err, convo.ErrEmptyPayload) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Note is empty"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Note failed, please retry"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// SendAttachment uploads a blob, then dispatches the returned URL as a
// media message with the matching tag flag.
func (h *Handler) SendAttachment(c *gin.Context) {
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Attachment storage is not configured"})
		return
	}
	sessionID := c.Param("id")

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	url, err := h.Uploader.Upload(c.Request.Context(), sessionID, header.Filename, contentType, data)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upload failed, please retry"})
		return
	}

	req := models.SendRequest{
		SessionID: sessionID,
		MediaURL:  url,
		MediaTags: tagsForContentType(contentType),
	}
	msg, err := h.Engine.Send(req)
	if errors.Is(err, convo.ErrTemplateRequired) {
		c.JSON(http.StatusConflict, gin.H{"error": "Session window closed", "template_required": true})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Send failed, please retry"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg, "url": url})
}

func tagsForContentType(contentType string) models.TagSet {
	switch {
	case strings.HasPrefix(contentType, "audio/"):
		return models.TagSet{Audio: true}
	case strings.HasPrefix(contentType, "video/"):
		return models.TagSet{Video: true}
	case strings.HasPrefix(contentType, "image/"):
		return models.TagSet{Fotos: true}
	default:
		return models.TagSet{}
	}
}
