package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/wordrun/wordrun-platform/internal/auth"
	"github.com/wordrun/wordrun-platform/internal/config"
	"github.com/wordrun/wordrun-platform/internal/logging"
)

// Handlers carries the route handlers the server mounts. Any nil handler
// leaves its routes unmounted.
type Handlers struct {
	Auth       *auth.HTTPHandlers
	SoloStart  http.HandlerFunc
	SoloGet    http.HandlerFunc
	SoloGuess  http.HandlerFunc
	SoloQuit   http.HandlerFunc
	Records    http.HandlerFunc
	RoomSocket http.HandlerFunc
}

// NewHTTPServer wires the API routes (health, metrics, auth, runs, ws).
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redis *redis.Client, authSvc *auth.Service, handlers Handlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pool, redis); err != nil {
			reqLogger := logging.FromContext(r.Context())
			reqLogger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	withAuth := func(h http.Handler) http.Handler { return h }
	if authSvc != nil {
		withAuth = auth.AuthMiddleware(authSvc, logger)
	}
	protect := func(h http.HandlerFunc) http.Handler {
		return withAuth(auth.RequireAuth(h))
	}

	if handlers.Auth != nil {
		mux.HandleFunc("/v1/auth/register", handlers.Auth.Register)
		mux.HandleFunc("/v1/auth/login", handlers.Auth.Login)
		mux.HandleFunc("/v1/auth/guest", handlers.Auth.CreateGuest)
		mux.Handle("/v1/auth/convert", protect(handlers.Auth.ConvertGuest))
		mux.HandleFunc("/v1/auth/refresh", handlers.Auth.RefreshToken)
		mux.HandleFunc("/v1/oauth/{provider}/start", handlers.Auth.OAuthStart)
		mux.HandleFunc("/v1/oauth/{provider}/callback", handlers.Auth.OAuthCallback)
		mux.Handle("/v1/users/me", protect(handlers.Auth.GetMe))
	}

	// Solo run endpoints
	if handlers.SoloStart != nil {
		mux.Handle("/v1/runs/solo/start", protect(handlers.SoloStart))
		mux.Handle("/v1/runs/solo", protect(handlers.SoloGet))
		mux.Handle("/v1/runs/solo/guess", protect(handlers.SoloGuess))
		mux.Handle("/v1/runs/solo/abandon", protect(handlers.SoloQuit))
	}

	// Record list
	if handlers.Records != nil {
		mux.HandleFunc("/v1/records", handlers.Records)
	}

	// Coop rooms ride a single WebSocket
	if handlers.RoomSocket != nil {
		mux.HandleFunc("/ws/rooms", handlers.RoomSocket)
	} else {
		mux.HandleFunc("/ws/rooms", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "WebSocket handler not yet integrated", http.StatusNotImplemented)
		})
	}

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: withRequestLogger(logger, mux),
	}
}

// withRequestLogger seeds each request context with a request-scoped
// logger so call sites can log without plumbing one through.
func withRequestLogger(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLogger := logger.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		next.ServeHTTP(w, r.WithContext(logging.IntoContext(r.Context(), reqLogger)))
	})
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redis *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := redis.Ping(ctx).Err(); err != nil {
		return err
	}
	return nil
}
