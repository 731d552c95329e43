package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pinta2/pinta2-backend/internal/hub"
	"github.com/pinta2/pinta2-backend/internal/ws"
)

// SetupRoutes wires the minimal HTTP surface: health, the websocket
// upgrade, and the static client bundle. All gameplay runs over the
// websocket channel.
func SetupRoutes(h *hub.Hub, staticDir string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log))
	r.Handle("/*", http.FileServer(http.Dir(staticDir)))
	return r
}
