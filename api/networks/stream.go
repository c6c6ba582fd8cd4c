package networks

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ruteri/devnet-dashboard-backend/api"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleEvents upgrades the connection and streams the requesting user's
// events as JSON text messages until either side closes.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	user := api.UserFromRequest(r)

	events, cancel := h.hub.Subscribe(user)
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Failed to upgrade websocket connection", "err", err, "user", user)
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go readPump(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	h.log.Debug("Event stream opened", "user", user)
	for {
		select {
		case <-closed:
			h.log.Debug("Event stream closed", "user", user)
			return
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.log.Warn("Failed to write event", "err", err, "user", user)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and closes done when the peer goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
