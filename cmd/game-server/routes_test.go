package main

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"holdem-server/internal/cache"
	"holdem-server/internal/directory"
	"holdem-server/internal/httpapi"
	"holdem-server/internal/ledger"
	"holdem-server/internal/registry"
	"holdem-server/internal/tablesession"
	"holdem-server/internal/wsgateway"
)

func buildTestRouter() *chi.Mux {
	dir := directory.NewLocal("s")
	gateway := wsgateway.NewServer(registry.New(), dir)
	manager := tablesession.NewManager(tablesession.Deps{
		Cache:     cache.NewMemory(),
		Ledger:    ledger.New(dir),
		Directory: dir,
		Notifier:  gateway,
		Cfg:       tablesession.Config{},
	})
	gateway.SetManager(manager)
	return httpapi.NewRouter(httpapi.NewHandlers(manager, nil), gateway.HandleWS)
}

func TestRouterExposesExpectedRoutes(t *testing.T) {
	r := buildTestRouter()

	want := map[string]bool{
		"GET /health":              false,
		"POST /seat-player":        false,
		"POST /agent-action":       false,
		"GET /game/{gameId}/state": false,
		"GET /ws":                  false,
	}
	err := chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		key := method + " " + route
		if _, ok := want[key]; ok {
			want[key] = true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	for key, seen := range want {
		if !seen {
			t.Errorf("route %s not registered", key)
		}
	}
}
