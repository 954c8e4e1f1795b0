package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/autobattler-backend/internal/catalog"
	"github.com/DoyleJ11/autobattler-backend/internal/config"
	"github.com/DoyleJ11/autobattler-backend/internal/httpapi"
	"github.com/DoyleJ11/autobattler-backend/internal/hub"
	"github.com/DoyleJ11/autobattler-backend/internal/lobby"
	"github.com/DoyleJ11/autobattler-backend/internal/logging"
	"github.com/DoyleJ11/autobattler-backend/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	var rec store.Recorder = store.NopRecorder{}
	if cfg.DatabaseURL != "" {
		db, err := store.Open(cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		defer db.Close()
		rec = db
	} else {
		log.Info("no DATABASE_URL, round history disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Build the router *with* the hub injected
	h := hub.NewHub(ctx, func(ctx context.Context, code string) *lobby.Lobby {
		return lobby.NewLobby(ctx, lobby.Config{
			Code:     code,
			Rules:    cfg.Rules,
			Catalog:  cat,
			Recorder: rec,
			Tick:     cfg.TickInterval,
		}, log)
	}, log)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.SetupRoutes(httpapi.Deps{Hub: h, Catalog: cat, Recorder: rec, Log: log}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		// Lobbies close their clients' outboxes, which ends the websocket
		// handlers the HTTP server cannot close itself.
		h.Inbox() <- hub.ShutdownHub{}
		<-h.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}
