package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zoravur/tabletop-sync/internal/auth"
	"github.com/zoravur/tabletop-sync/internal/protocol"
)

type Deps struct {
	Handlers *Handlers
	WS       *WSHandler
	Registry *protocol.Registry
	Verifier auth.Verifier
}

func SetupRoutes(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(LoggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(d.Verifier))

		r.Get("/ws", d.WS.HandleWS)

		r.Route("/api", func(r chi.Router) {
			h := d.Handlers

			r.Get("/rooms", h.listRooms)
			r.Post("/rooms", h.createRoom)
			r.Get("/rooms/{roomID}", h.getRoom)
			r.Get("/rooms/{roomID}/characters", h.listRoomCharacters)

			r.Get("/characters", h.listCharacters)
			r.Post("/characters", h.createCharacter)
			r.Get("/characters/{characterID}", h.getCharacter)
			r.Patch("/characters/{characterID}", h.updateCharacter)
			r.Delete("/characters/{characterID}", h.deleteCharacter)
			r.Get("/characters/{characterID}/items", h.listItems)
			r.Post("/characters/{characterID}/items", h.createItem)
			r.Delete("/items/{itemID}", h.deleteItem)

			r.Post("/roll", h.roll)

			r.Get("/live", func(w http.ResponseWriter, r *http.Request) {
				handleLive(w, r, d.Registry, d.WS.Coordinator)
			})
		})
	})

	return r
}
