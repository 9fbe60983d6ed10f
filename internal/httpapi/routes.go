package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"contactgame/internal/hub"
	"contactgame/internal/ws"
)

func SetupRoutes(h *hub.Hub, log *zap.Logger, staticDir string) http.Handler {
	r := chi.NewRouter()

	r.Post("/lobbies", SuggestCode(h))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log))
	if staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(staticDir)))
	}
	return r
}
