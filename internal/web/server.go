package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/restbase/restbase/internal/config"
	"github.com/restbase/restbase/internal/database"
	"github.com/restbase/restbase/internal/web/handlers"
	"github.com/restbase/restbase/internal/web/middleware"
)

//go:embed static/*
var staticFS embed.FS

// Server represents the web server
type Server struct {
	store      *database.Store
	settings   *config.Settings
	allowedNet *net.IPNet
	router     *chi.Mux
	handlers   *handlers.Handlers
}

// NewServer creates a new web server
func NewServer(store *database.Store, settings *config.Settings, allowedNet *net.IPNet) *Server {
	s := &Server{
		store:      store,
		settings:   settings,
		allowedNet: allowedNet,
		router:     chi.NewRouter(),
		handlers:   handlers.New(store, settings.IsProduction()),
	}

	s.setupRoutes()

	return s
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	r := s.router

	// Global middleware
	r.Use(chimiddleware.RequestID)
	// AllowSubnet must come BEFORE RealIP so we check the actual connection source
	r.Use(middleware.AllowSubnet(s.allowedNet))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)

	h := s.handlers

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.NotFound)

	r.Get("/healthz", h.Healthz)

	// Data API. The HTTP-level timeout sits above the per-statement query
	// timeout so the statement layer reports timeouts first.
	r.Route("/resource", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(s.settings.QueryTimeout + 10*time.Second))

		r.Get("/", h.ListTables)

		r.Route("/ddl", func(r chi.Router) {
			r.Post("/table", h.CreateTable)
			r.Delete("/table/{table}", h.DropTable)
			r.Post("/column/{table}", h.AddColumn)
			r.Get("/columns/{table}", h.ListColumns)
		})

		r.Get("/paginated/{table}", h.PaginateRows)

		r.Get("/{table}", h.ListRows)
		r.Post("/{table}", h.CreateRow)
		r.Get("/{table}/{id}", h.GetRow)
		r.Patch("/{table}/{id}", h.UpdateRow)
		r.Delete("/{table}/{id}", h.DeleteRow)
	})

	// Static landing page
	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup static files")
	}
	r.Handle("/", http.FileServer(http.FS(staticContent)))
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the web server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	var addr string
	if s.settings.Bind != "" {
		addr = fmt.Sprintf("%s:%d", s.settings.Bind, s.settings.Port)
	} else {
		addr = fmt.Sprintf(":%d", s.settings.Port)
	}

	server := &http.Server{
		Addr:    addr,
		Handler: s.router,
		// ReadTimeout is for reading request body
		ReadTimeout: 15 * time.Second,
		// WriteTimeout must cover the slowest allowed statement
		WriteTimeout: s.settings.QueryTimeout + 30*time.Second,
		// IdleTimeout for keep-alive connections between requests
		IdleTimeout: 120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}
