// Package httpapi serves the administrative HTTP surface: seating
// players, agent actions, state reads, and health.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"holdem-server/internal/hand"
	"holdem-server/internal/tablesession"
)

type Handlers struct {
	manager *tablesession.Manager
	pinger  Pinger
}

// Pinger is the health probe into the cache backend; nil means no
// backend to check (test mode).
type Pinger interface {
	Ping(ctx context.Context) error
}

func NewHandlers(manager *tablesession.Manager, pinger Pinger) *Handlers {
	return &Handlers{manager: manager, pinger: pinger}
}

func (h *Handlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.pinger != nil {
			if err := h.pinger.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "cache": "down"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// SeatPlayer handles POST /seat-player.
func (h *Handlers) SeatPlayer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tablesession.SeatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		res, err := h.manager.SeatPlayer(r.Context(), req)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// AgentAction handles POST /agent-action. The (userId, gameId) pair
// must resolve to exactly one seat; anything else is the caller's
// error.
func (h *Handlers) AgentAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"userId"`
			GameID string `json:"gameId"`
			Action string `json:"action"`
			Amount int64  `json:"amount,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.UserID == "" || req.GameID == "" {
			writeError(w, http.StatusBadRequest, "userId and gameId are required")
			return
		}
		sess, ok := h.manager.Get(req.GameID)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown game")
			return
		}
		if !sess.HostsUser(req.UserID) {
			writeError(w, http.StatusNotFound, "user has no seat in this game")
			return
		}
		if err := sess.SubmitAction(r.Context(), req.UserID, hand.ActionType(req.Action), req.Amount); err != nil {
			writeAppError(w, err)
			return
		}
		state, err := sess.StateFor(req.UserID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"state": state})
	}
}

// GameState handles GET /game/{gameId}/state?userId=...
func (h *Handlers) GameState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameId")
		userID := r.URL.Query().Get("userId")
		sess, ok := h.manager.Get(gameID)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown game")
			return
		}
		state, err := sess.StateFor(userID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"state": state})
	}
}
