package ws

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/tolkvo/callengine/internal/core/domain"
)

// Hub fans session snapshots out to connected UI clients.
// Implements port.SnapshotGateway.
type Hub struct {
	clients    map[Client]bool
	broadcast  chan domain.SessionSnapshot
	register   chan Client
	unregister chan Client
	quit       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[Client]bool),
		broadcast:  make(chan domain.SessionSnapshot, 16),
		register:   make(chan Client),
		unregister: make(chan Client),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) Publish(ctx context.Context, snap domain.SessionSnapshot) error {
	select {
	case h.broadcast <- snap:
	default:
		log.Warn().Str("session_id", snap.ID.String()).Msg("broadcast channel full, dropping snapshot")
	}
	return nil
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			log.Info().Str("client_id", client.ID()).Msg("snapshot client registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
				log.Info().Str("client_id", client.ID()).Msg("snapshot client unregistered")
			}

		case snap := <-h.broadcast:
			for client := range h.clients {
				if err := client.SendSnapshot(snap); err != nil {
					log.Error().Err(err).Str("client_id", client.ID()).Msg("error sending snapshot")
					client.Close()
					delete(h.clients, client)
				}
			}
		}
	}
}

func (h *Hub) Register(c Client) {
	h.register <- c
}

func (h *Hub) Unregister(c Client) {
	h.unregister <- c
}

func (h *Hub) Stop() {
	close(h.quit)
}
