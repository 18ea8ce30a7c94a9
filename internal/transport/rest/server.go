package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/writing/internal/config"
	"github.com/heartmarshall/writing/internal/transport/middleware"
)

// OpsServer serves probes and metrics of a long-running command.
type OpsServer struct {
	srv     *http.Server
	timeout time.Duration
	log     *slog.Logger
}

// NewRouter mounts the probes and, when metrics is non-nil, /metrics.
func NewRouter(log *slog.Logger, health *HealthHandler, metrics http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	r.Get("/live", health.Live)
	r.Get("/ready", health.Ready)
	r.Get("/health", health.Health)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	return r
}

// NewOpsServer creates the server on cfg.ListenAddr.
func NewOpsServer(log *slog.Logger, cfg config.OpsConfig, handler http.Handler) *OpsServer {
	return &OpsServer{
		srv: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		timeout: cfg.ShutdownTimeout,
		log:     log.With("component", "ops_server"),
	}
}

// Run serves until ctx is done and then shuts down gracefully.
func (s *OpsServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("ops server listening", slog.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("ops server stopped")
	return nil
}
