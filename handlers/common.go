package handlers

import (
	"context"
	"time"

	"sebasongjog/config"
	"sebasongjog/database"
	"sebasongjog/websocket"
)

// Handler holds the scoped dependencies every endpoint needs. The database
// handle is acquired once at startup and passed in; there is no global.
type Handler struct {
	db  *database.DB
	hub *websocket.Hub
	cfg *config.Config
}

func New(db *database.DB, hub *websocket.Hub, cfg *config.Config) *Handler {
	return &Handler{db: db, hub: hub, cfg: cfg}
}

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
