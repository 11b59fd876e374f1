package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zoravur/tabletop-sync/internal/auth"
	"github.com/zoravur/tabletop-sync/internal/protocol"
	"github.com/zoravur/tabletop-sync/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSHandler holds shared resources injected from app.Server
type WSHandler struct {
	Coordinator *session.Coordinator
}

// HandleWS upgrades the connection and hands it to the coordinator. A
// roomId query parameter joins that room straight away, which saves
// clients a join frame on page load.
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	log := Logger(r.Context())

	var initial protocol.RoomID
	if v := r.URL.Query().Get("roomId"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			http.Error(w, "invalid roomId", http.StatusBadRequest)
			return
		}
		initial = protocol.RoomID(n)
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	id, _ := auth.FromContext(r.Context())
	conn := h.Coordinator.Accept(ws, id)
	if initial > 0 {
		if err := h.Coordinator.JoinRoom(conn, initial); err == nil {
			conn.Send(protocol.Event{Type: protocol.KindJoined, RoomID: initial})
		}
	}

	conn.Run(r.Context())
}
