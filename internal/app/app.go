package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/wordrun/wordrun-platform/internal/auth"
	"github.com/wordrun/wordrun-platform/internal/auth/jwt"
	"github.com/wordrun/wordrun-platform/internal/config"
	"github.com/wordrun/wordrun-platform/internal/db/repository"
	"github.com/wordrun/wordrun-platform/internal/logging"
	"github.com/wordrun/wordrun-platform/internal/progress"
	"github.com/wordrun/wordrun-platform/internal/run"
	"github.com/wordrun/wordrun-platform/internal/server"
	"github.com/wordrun/wordrun-platform/internal/words"
	"github.com/wordrun/wordrun-platform/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	snapshotWorker *progress.SnapshotWorker
	bgCancels      []context.CancelFunc
}

// New bootstraps config, logger, Postgres, Redis and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	userRepo := repository.NewUserRepository(pool)
	runRepo := repository.NewRunRepository(pool)
	roomRepo := repository.NewRoomRepository(pool)

	tokenCfg := jwt.TokenConfig{
		AccessSecret:  []byte(cfg.Security.JWTSecret),
		RefreshSecret: []byte(cfg.Security.JWTSecret + "_refresh"),
		Issuer:        cfg.Name,
	}
	authSvc := auth.NewService(userRepo, auth.ServiceOptions{TokenConfig: tokenCfg}, logger)

	var oauthSvc *auth.OAuthService
	if cfg.OAuth.GoogleClientID != "" && cfg.OAuth.GoogleClientSecret != "" {
		redirectURL := cfg.OAuth.GoogleRedirectURL
		if redirectURL == "" {
			redirectURL = fmt.Sprintf("http://%s/v1/oauth/google/callback", cfg.HTTPAddr)
		}
		oauthSvc = auth.NewOAuthService(
			cfg.OAuth.GoogleClientID,
			cfg.OAuth.GoogleClientSecret,
			redirectURL,
			logger,
		)
		logger.Info().Msg("OAuth service initialized")
	} else {
		logger.Warn().Msg("OAuth not configured (missing GOOGLE_OAUTH_CLIENT_ID or GOOGLE_OAUTH_CLIENT_SECRET)")
	}
	authHandlers := auth.NewHTTPHandlers(authSvc, oauthSvc, logger)

	// Word pool
	wordSvc, err := words.New(words.Options{
		DictionaryPath: cfg.Words.DictionaryPath,
		WordLength:     cfg.Words.WordLength,
	})
	if err != nil {
		return nil, fmt.Errorf("load word list: %w", err)
	}
	logger.Info().Int("pool_size", wordSvc.Total()).Msg("word list loaded")

	// Progress / records
	progressSvc := progress.NewService(userRepo, redisClient, logger, progress.ServiceOptions{
		TopN: cfg.Records.SnapshotTopN,
	})
	recordsHandler := progress.NewHTTPHandler(progressSvc, logger)
	var snapshotWorker *progress.SnapshotWorker
	if interval := cfg.Records.SnapshotInterval; interval > 0 {
		snapshotWorker = progress.NewSnapshotWorker(progressSvc, interval, cfg.Records.SnapshotTopN, logger)
	}

	// Run engines
	stateMgr := run.NewStateManager(redisClient, logger)
	roomMgr := run.NewRoomManager(roomRepo, logger)
	soloSvc := run.NewSoloService(run.SoloOptions{
		State:       stateMgr,
		Store:       runRepo,
		Words:       wordSvc,
		Progress:    progressSvc,
		Logger:      logger,
		MaxAttempts: cfg.Game.SoloMaxAttempts,
	})
	coopSvc := run.NewCoopService(run.CoopOptions{
		State:       stateMgr,
		Store:       runRepo,
		Words:       wordSvc,
		Progress:    progressSvc,
		Rooms:       roomMgr,
		Logger:      logger,
		MaxAttempts: cfg.Game.CoopMaxAttempts,
	})

	wsHub := ws.NewHub(logger)
	roomHandler := run.NewHandler(coopSvc, wsHub, authSvc, logger)
	soloHandler := run.NewSoloHandler(soloSvc, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, authSvc, server.Handlers{
		Auth:       authHandlers,
		SoloStart:  soloHandler.HandleStart,
		SoloGet:    soloHandler.HandleCurrent,
		SoloGuess:  soloHandler.HandleGuess,
		SoloQuit:   soloHandler.HandleAbandon,
		Records:    recordsHandler.HandleGet,
		RoomSocket: roomHandler.HandleWebSocket,
	})

	return &Application{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		http:           apiServer,
		snapshotWorker: snapshotWorker,
		bgCancels:      make([]context.CancelFunc, 0, 1),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.snapshotWorker != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.snapshotWorker.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("record snapshot worker stopped")
			}
		}()
	}
}
