package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/autobattler-backend/internal/catalog"
	"github.com/DoyleJ11/autobattler-backend/internal/hub"
	"github.com/DoyleJ11/autobattler-backend/internal/store"
	"github.com/DoyleJ11/autobattler-backend/internal/ws"
)

type Deps struct {
	Hub      *hub.Hub
	Catalog  catalog.Provider
	Recorder store.Recorder
	Log      *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Post("/games", CreateGame(d.Hub, d.Log))
	r.Get("/games/{code}", GameState(d.Hub))
	r.Get("/games/{code}/rounds", Rounds(d.Recorder, d.Log))
	r.Get("/heroes", Heroes(d.Catalog))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(d.Hub, d.Log))
	return r
}
