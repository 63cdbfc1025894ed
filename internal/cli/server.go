package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"study-portal-service/internal/app"
	"study-portal-service/internal/config"
	"study-portal-service/internal/content"
	"study-portal-service/internal/infra/memory"
	pgstore "study-portal-service/internal/infra/postgres"
	redisstore "study-portal-service/internal/infra/redis"
	"study-portal-service/internal/logging"
	"study-portal-service/internal/metrics"
	"study-portal-service/internal/roles"
	transport "study-portal-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the study portal server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	catalog, err := content.Load(cfg.Content.Path)
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	rewards := catalog.Rewards
	if len(cfg.Rewards) > 0 {
		rewards = cfg.Rewards
	}
	// Fail at startup rather than on the first submission.
	if err := catalog.CheckRewards(rewards); err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg.Postgres.URL, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	deps := app.Dependencies{
		Rewards: rewards,
		Roles:   roles.NewDirectory(cfg.Roles.Admins, cfg.Roles.Moderators),
		Logger:  logger,
	}

	var loader memory.ContentLoader = catalog
	if pool != nil {
		loader = pgstore.NewContentLoader(pool)
	}

	contentTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if redisClient != nil {
		repo := redisstore.NewContentRepository(redisClient, loader, contentTTL)
		deps.Quizzes, deps.Checklists = repo, repo
		deps.Feeds = redisstore.NewFeedStore(redisClient, redisTTL)
	} else {
		repo := memory.NewContentRepository(loader, contentTTL)
		deps.Quizzes, deps.Checklists = repo, repo
		deps.Feeds = memory.NewFeedStore()
	}

	switch {
	case pool != nil:
		deps.Completions = pgstore.NewCompletionStore(pool)
		deps.Experience = pgstore.NewExperienceStore(pool)
	case redisClient != nil:
		deps.Completions = redisstore.NewCompletionStore(redisClient)
		deps.Experience = redisstore.NewExperienceStore(redisClient)
	default:
		logger.Warn("no persistent store configured, progress is kept in memory")
		deps.Completions = memory.NewCompletionStore()
		deps.Experience = memory.NewExperienceStore()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Metrics = metrics.New(reg)

	service := app.NewStudyService(deps)
	wsHandler := transport.NewWSHandler(service, logger)
	api := transport.NewAPI(service, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", healthHandler(redisClient, pool))
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	r.Get("/ws", wsHandler.ServeWS)
	r.Mount("/api", api.Routes())

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting study portal", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func healthHandler(redisClient *redis.Client, pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				http.Error(w, "redis: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				http.Error(w, "postgres: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.Write([]byte("ok"))
	}
}
