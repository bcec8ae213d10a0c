package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the HTTP surface: administrative JSON endpoints
// plus the WebSocket upgrade path.
func NewRouter(h *Handlers, wsHandler http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/ws", wsHandler)

	r.Group(func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Get("/health", h.Health())
		r.Post("/seat-player", h.SeatPlayer())
		r.Post("/agent-action", h.AgentAction())
		r.Get("/game/{gameId}/state", h.GameState())
	})
	return r
}
