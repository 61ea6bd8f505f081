package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"crmconsole/backend/internal/storage"
)

// templateSummary is the listing shape: body text only ships on selection.
type templateSummary struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Language string `json:"language"`
}

// ListTemplates returns name, category and language of every template.
func (h *Handler) ListTemplates(c *gin.Context) {
	tpls, err := h.Store.ListTemplates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list templates"})
		return
	}

	summaries := make([]templateSummary, len(tpls))
	for i, t := range tpls {
		summaries[i] = templateSummary{Name: t.Name, Category: t.Category, Language: t.Language}
	}
	c.JSON(http.StatusOK, gin.H{"templates": summaries})
}

// GetTemplate returns the full template, body and variables included.
func (h *Handler) GetTemplate(c *gin.Context) {
	tpl, err := h.Store.GetTemplate(c.Param("name"))
	if errors.Is(err, storage.ErrTemplateNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown template"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load template"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": tpl})
}
