// Package server is the HTTP API over the active session, workout
// history, exercise catalog, and accounts.
package server

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"tailscale.com/client/local"

	"github.com/claude/liftlog/internal/auth"
	"github.com/claude/liftlog/internal/catalog"
	"github.com/claude/liftlog/internal/history"
	"github.com/claude/liftlog/internal/session"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	mgr    *session.Manager
	hist   *history.Store
	cat    *catalog.Catalog
	auth   *auth.Service
	log    *slog.Logger
	apiKey string
	router chi.Router
	ts     *local.Client
}

// New creates a new Server with all routes configured.
func New(mgr *session.Manager, hist *history.Store, cat *catalog.Catalog, authSvc *auth.Service, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		mgr:    mgr,
		hist:   hist,
		cat:    cat,
		auth:   authSvc,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale enables WhoIs-based identity resolution when serving
// over tsnet.
func (s *Server) SetTailscale(lc *local.Client) {
	s.ts = lc
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.Identity)

	// Accounts
	s.router.Post("/api/v1/auth/signup", s.handleSignUp)
	s.router.Post("/api/v1/auth/signin", s.handleSignIn)
	s.router.Post("/api/v1/auth/signout", s.handleSignOut)
	s.router.Get("/api/v1/me", s.handleMe)

	// Active session
	s.router.Route("/api/v1/session", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Post("/start", s.handleStartSession)
		r.Post("/finish", s.handleFinishSession)
		r.Post("/cancel", s.handleCancelSession)
		r.Patch("/", s.handlePatchSession)
		r.Post("/exercises", s.handleAddExercise)
		r.Post("/exercises/reorder", s.handleReorderExercises)
		r.Delete("/exercises/{exerciseID}", s.handleRemoveExercise)
		r.Post("/exercises/{idx}/sets", s.handleAddSet)
		r.Post("/exercises/{idx}/sets/reorder", s.handleReorderSets)
		r.Put("/exercises/{idx}/sets/{setIdx}", s.handleSetValue)
		r.Post("/exercises/{idx}/sets/{setIdx}/toggle", s.handleToggleSet)
		r.Delete("/exercises/{idx}/sets/{setIdx}", s.handleRemoveSet)
	})

	// History
	s.router.Get("/api/v1/workouts", s.handleListWorkouts)
	s.router.Delete("/api/v1/workouts/{id}", s.handleDeleteWorkout)
	s.router.Get("/api/v1/previous", s.handlePreviousPerformance)
	s.router.Get("/api/v1/progress", s.handleProgress)
	s.router.Get("/api/v1/progress/series", s.handleProgressSeries)
	s.router.Get("/api/v1/exercises/names", s.handleExerciseNames)

	// Bulk import (API key required)
	s.router.Route("/api/v1/import", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/", s.handleImportHistory)
	})

	// Catalog and templates
	s.router.Get("/api/v1/catalog/search", s.handleCatalogSearch)
	s.router.Get("/api/v1/templates", s.handleTemplates)
}

// SetMCP mounts an MCP transport handler.
func (s *Server) SetMCP(h http.Handler) {
	s.router.Mount("/mcp", h)
}

// SetFrontend mounts the embedded SPA filesystem.
// Unmatched routes serve index.html for client-side routing.
func (s *Server) SetFrontend(webFS fs.FS) {
	fileServer := http.FileServerFS(webFS)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		f, err := webFS.Open(r.URL.Path[1:]) // strip leading /
		if err == nil {
			f.Close()
			fileServer.ServeHTTP(w, r)
			return
		}
		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	})
}
