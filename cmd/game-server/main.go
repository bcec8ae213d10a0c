package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"holdem-server/internal/cache"
	"holdem-server/internal/config"
	"holdem-server/internal/directory"
	"holdem-server/internal/httpapi"
	"holdem-server/internal/ledger"
	"holdem-server/internal/logging"
	"holdem-server/internal/registry"
	"holdem-server/internal/tablesession"
	"holdem-server/internal/wsgateway"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	ctx := context.Background()

	var (
		cacheGW cache.Gateway
		pinger  httpapi.Pinger
	)
	if cfg.Server.Mode == config.ModeTest {
		cacheGW = cache.NewMemory()
	} else {
		pg, err := cache.NewPG(ctx, cfg.Cache.DSN())
		if err != nil {
			log.Fatal().Err(err).Msg("cache init failed")
		}
		if err := pg.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("cache ping failed")
		}
		defer pg.Close()
		cacheGW = pg
		pinger = pg
	}

	var dir directory.Client
	if cfg.Server.Mode == config.ModeTest {
		dir = directory.NewLocal(cfg.Server.AuthTokenSecret)
	} else {
		dir = directory.NewHTTPClient(cfg.Server.DirectoryURL, 5*time.Second)
	}

	reg := registry.New()
	gateway := wsgateway.NewServer(reg, dir)
	manager := tablesession.NewManager(tablesession.Deps{
		Cache:     cacheGW,
		Ledger:    ledger.New(dir),
		Directory: dir,
		Notifier:  gateway,
		Cfg: tablesession.Config{
			ReconnectGrace:          cfg.Server.ReconnectGrace(),
			DefaultActionTimeoutSec: cfg.Server.DefaultActionTimeoutSec,
		},
	})
	gateway.SetManager(manager)

	handlers := httpapi.NewHandlers(manager, pinger)
	router := httpapi.NewRouter(handlers, gateway.HandleWS)
	logRoutes(router)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("mode", cfg.Server.Mode).Msg("game server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
