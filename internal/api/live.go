package api

import (
	"net/http"

	"github.com/zoravur/tabletop-sync/internal/protocol"
)

// ConnCounter reports accepted connections; *session.Coordinator.
type ConnCounter interface {
	Connections() int
}

type liveView struct {
	Connections int                 `json:"connections"`
	Rooms       int                 `json:"rooms"`
	Members     int                 `json:"members"`
	Detail      []protocol.RoomView `json:"detail"`
}

func handleLive(w http.ResponseWriter, _ *http.Request, reg *protocol.Registry, conns ConnCounter) {
	rooms, members := reg.Stats()
	writeJSON(w, http.StatusOK, liveView{
		Connections: conns.Connections(),
		Rooms:       rooms,
		Members:     members,
		Detail:      reg.SnapshotView(),
	})
}
