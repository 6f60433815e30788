package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/scene2story/scene2story/internal/metrics"
)

// NewRouter wires every endpoint onto a chi router. The frontend origins
// allowed by CORS come from configuration.
func NewRouter(app *App, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(corsOrigins))

	r.Get("/health", HealthHandler)
	r.Handle("/metrics", metrics.Handler())

	r.Post("/process/upload", app.ProcessUploadHandler)
	r.Post("/process/youtube", app.ProcessYouTubeHandler)

	r.Get("/sessions", app.ListSessionsHandler)
	r.Get("/sessions/{sessionID}", app.GetSessionHandler)

	r.Post("/generate-storyboard/{sessionID}", app.GenerateStoryboardHandler)
	r.Get("/storyboard/{sessionID}", app.ServeStoryboardHandler)
	r.Get("/frame/{sessionID}/{filename}", app.ServeFrameHandler)

	return r
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(strings.TrimSpace(o), "/")] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && allowed[strings.TrimRight(origin, "/")] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
