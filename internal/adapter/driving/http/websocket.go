package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tolkvo/callengine/internal/core/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict origins once the web client's host is fixed
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsClient struct {
	id   string
	conn *websocket.Conn
}

func (c *wsClient) ID() string {
	return c.id
}

func (c *wsClient) SendSnapshot(snap domain.SessionSnapshot) error {
	return c.conn.WriteJSON(toSnapshotDTO(snap))
}

func (c *wsClient) Close() error {
	return c.conn.Close()
}

// ServeWS upgrades the connection and streams session snapshots to the
// client until it goes away. The stream is one-way.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("error while upgrading ws")
		return
	}

	client := &wsClient{
		id:   uuid.NewString(),
		conn: conn,
	}

	l := log.With().Str("client_id", client.id).Logger()
	l.Info().Msg("snapshot stream client connected")

	h.Hub.Register(client)

	defer func() {
		l.Info().Msg("snapshot stream client disconnected")
		h.Hub.Unregister(client)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				l.Error().Err(err).Msg("unexpected close error")
			}
			break
		}
	}
}
