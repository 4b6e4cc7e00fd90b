// Package rest exposes the platform over HTTP with JSON bodies and
// bearer-token authentication.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/filemill/internal/files"
	"github.com/dmitrijs2005/filemill/internal/logging"
	"github.com/dmitrijs2005/filemill/internal/session"
	"github.com/dmitrijs2005/filemill/internal/tools"
	"github.com/dmitrijs2005/filemill/internal/users"
)

// Server holds the HTTP surface over the domain services. One session
// gate exists per issued token; the middleware resolves it per request.
type Server struct {
	addr          string
	secretKey     string
	tokenValidity time.Duration

	sessions *session.Manager
	users    *users.Service
	files    *files.Service
	registry *tools.Registry

	validate *validator.Validate
	logger   logging.Logger

	httpServer *http.Server
}

func NewServer(addr, secretKey string, tokenValidity time.Duration,
	sessions *session.Manager, us *users.Service, fs *files.Service,
	registry *tools.Registry, logger logging.Logger) *Server {
	s := &Server{
		addr:          addr,
		secretKey:     secretKey,
		tokenValidity: tokenValidity,
		sessions:      sessions,
		users:         us,
		files:         fs,
		registry:      registry,
		validate:      validator.New(),
		logger:        logger.With("module", "rest"),
	}
	s.httpServer = &http.Server{Addr: addr, Handler: s.Router()}
	return s
}

// Router builds the route table. Exposed separately so tests can mount
// it on httptest.Server.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/api/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Post("/api/logout", s.handleLogout)

		r.Post("/api/users", s.handleAddUser)
		r.Delete("/api/users/{email}", s.handleDeleteUser)
		r.Get("/api/users/admins", s.handleAdminEmails)
		r.Get("/api/users/common", s.handleCommonEmails)

		r.Post("/api/files", s.handleAddFile)
		r.Get("/api/files", s.handleFileMetadata)
		r.Get("/api/files/content", s.handleGetFile)
		r.Delete("/api/files", s.handleDeleteFile)

		r.Get("/api/outputs", s.handleOutputMetadata)
		r.Get("/api/outputs/content", s.handleGetOutput)
		r.Delete("/api/outputs", s.handleDeleteOutput)

		r.Get("/api/tools", s.handleListTools)
		r.Post("/api/process", s.handleProcess)
	})

	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
