// Package handler exposes the console's HTTP and WebSocket surface.
package handler

import (
	"crmconsole/backend/internal/assets"
	"crmconsole/backend/internal/convo"
	"crmconsole/backend/internal/storage"
)

// Handler bundles the dependencies of the HTTP and WebSocket endpoints.
type Handler struct {
	Engine    *convo.Engine
	Store     storage.Store
	Uploader  assets.Uploader
	jwtSecret []byte
}

// NewHandler wires the handler set.
func NewHandler(engine *convo.Engine, store storage.Store, uploader assets.Uploader, jwtSecret string) *Handler {
	return &Handler{
		Engine:    engine,
		Store:     store,
		Uploader:  uploader,
		jwtSecret: []byte(jwtSecret),
	}
}
