package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"interpreter-booking/internal/infra/redis"
)

// Server exposes the operational surface: liveness, readiness and metrics.
type Server struct {
	pool   *pgxpool.Pool
	cache  redis.RedisClient
	logger zerolog.Logger
}

func NewServer(pool *pgxpool.Pool, cache redis.RedisClient, logger *zerolog.Logger) *Server {
	return &Server{
		pool:   pool,
		cache:  cache,
		logger: logger.With().Str("component", "ops_server").Logger(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.pool.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("readiness: database unreachable")
		http.Error(w, "database unreachable", http.StatusServiceUnavailable)
		return
	}
	if err := s.cache.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("readiness: redis unreachable")
		http.Error(w, "redis unreachable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Listen serves the router until ctx is cancelled.
func (s *Server) Listen(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Router(),
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("ops server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}
