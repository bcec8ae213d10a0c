package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"

	"holdem-server/internal/apperrors"
	"holdem-server/internal/logging"
)

func APILogMiddleware() func(http.Handler) http.Handler {
	return httplog.RequestLogger(
		slog.New(slog.NewJSONHandler(logging.Writer(), &slog.HandlerOptions{})),
		&httplog.Options{
			Level:  slog.LevelInfo,
			Schema: httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
			LogExtraAttrs: func(req *http.Request, _ string, _ int) []slog.Attr {
				rc := chi.RouteContext(req.Context())
				route := req.URL.Path
				if rc != nil && rc.RoutePattern() != "" {
					route = rc.RoutePattern()
				}
				return []slog.Attr{
					slog.String("request_id", chimw.GetReqID(req.Context())),
					slog.String("method", req.Method),
					slog.String("route", route),
					slog.String("path", req.URL.Path),
				}
			},
		},
	)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]any{"error": reason})
}

// writeAppError maps the error taxonomy onto HTTP statuses: capacity
// and precondition failures are the caller's fault, unknown resources
// are 404, everything else is internal.
func writeAppError(w http.ResponseWriter, err error) {
	reason := apperrors.ReasonOf(err)
	switch {
	case errors.Is(err, apperrors.ErrCapacity), errors.Is(err, apperrors.ErrInvalidAction), errors.Is(err, apperrors.ErrTimeout):
		writeError(w, http.StatusBadRequest, reason)
	case errors.Is(err, apperrors.ErrNotFound):
		writeError(w, http.StatusNotFound, reason)
	case errors.Is(err, apperrors.ErrAuthentication):
		writeError(w, http.StatusUnauthorized, reason)
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
