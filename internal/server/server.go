// Package server exposes the RPC surface, the websocket push channel and the
// health endpoints over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"tokyojung/internal/auth"
	"tokyojung/internal/config"
	"tokyojung/internal/events"
	"tokyojung/internal/menu"
	"tokyojung/internal/orders"
	"tokyojung/internal/reports"
	"tokyojung/internal/users"
	"tokyojung/pkg/log"
)

const shutdownTimeout = 10 * time.Second

// Deps carries the services the surface routes into.
type Deps struct {
	Auth    *auth.Service
	Menu    *menu.Service
	Orders  *orders.Service
	Reports *reports.Service
	Users   *users.Service
	Hub     *events.Hub
	Pool    *pgxpool.Pool
}

type Server struct {
	cfg        *config.Config
	auth       *auth.Service
	menu       *menu.Service
	orders     *orders.Service
	reports    *reports.Service
	users      *users.Service
	hub        *events.Hub
	pool       *pgxpool.Pool
	procedures map[string]procedure
	logger     zerolog.Logger
	srv        *http.Server
}

func New(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:     cfg,
		auth:    deps.Auth,
		menu:    deps.Menu,
		orders:  deps.Orders,
		reports: deps.Reports,
		users:   deps.Users,
		hub:     deps.Hub,
		pool:    deps.Pool,
		logger:  log.WithComponent("server"),
	}
	s.procedures = s.registry()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}
	if len(corsOpts.AllowedOrigins) == 0 {
		// Browsers reject credentialed responses carrying a wildcard origin,
		// so the open default must not advertise credentials.
		corsOpts.AllowedOrigins = []string{"*"}
		corsOpts.AllowCredentials = false
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/", s.handleRoot)
	r.Get("/api/health", s.handleHealth)
	r.Get("/rpc/{procedure}", s.handleRPC)
	r.Post("/rpc/{procedure}", s.handleRPC)
	r.Get("/events", s.handleEvents)

	s.srv = &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info().Msg("server shut down gracefully")
		return nil
	case err := <-errCh:
		return err
	}
}
