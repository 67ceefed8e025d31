// Package server exposes the batch resize workflow over a local HTTP
// workbench.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pixelfit/pixelfit/internal/db"
	"github.com/pixelfit/pixelfit/internal/history"
	"github.com/pixelfit/pixelfit/internal/workflow"
)

// Config holds server configuration.
type Config struct {
	Addr      string
	OutputDir string // where saved archives are written
	AllowAll  bool   // allow all CORS origins (dev mode)
}

// Server is the workbench: the workflow controller behind a chi router.
type Server struct {
	cfg        Config
	db         *db.DB
	workflow   *workflow.Controller
	history    *history.Store
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a workbench server. The controller is owned by the caller.
func New(cfg Config, database *db.DB, wf *workflow.Controller) *Server {
	s := &Server{
		cfg:      cfg,
		db:       database,
		workflow: wf,
		history:  history.NewStore(database),
		logger:   slog.Default(),
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/", serveIndex)

	r.Get("/api/state", s.handleState)
	r.Post("/api/files", s.handleSelect)
	r.Put("/api/files/{index}/folder", s.handleSetFolder)
	r.Post("/api/process", s.handleProcess)
	r.Get("/api/download", s.handleDownload)
	r.Post("/api/download", s.handleSave)
	r.Get("/api/events", s.handleEvents)
	history.RegisterRoutes(r, s.history)

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Database returns the database connection.
func (s *Server) Database() *db.DB { return s.db }

// ServerConfig returns the server configuration.
func (s *Server) ServerConfig() Config { return s.cfg }

// Start begins listening on the configured address.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("workbench listening", "addr", s.cfg.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
