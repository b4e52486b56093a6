package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/AngelCh415/adinsights/internal/config"
	"github.com/AngelCh415/adinsights/internal/httpx"
	"github.com/AngelCh415/adinsights/internal/ingest"
	"github.com/AngelCh415/adinsights/internal/metrics"
	"github.com/AngelCh415/adinsights/internal/store"
)

func main() {
	cfg := config.FromEnv()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	campaigns := store.NewMemoryStore()
	if cfg.SeedDemo {
		n := store.SeedDemo(campaigns)
		logger.Info("seeded demo campaigns", slog.Int("count", n))
	}

	insightStore, closeStore, err := openInsightStore(ctx, cfg, campaigns)
	if err != nil {
		logger.Error("open insight store", slog.String("backend", cfg.StoreBackend), slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	cl := ingest.NewHTTPClient(cfg.HTTPTimeout)
	etl := ingest.NewETL(cl, campaigns, logger, cfg)
	mSvc := metrics.NewService(campaigns)

	if cfg.IngestSchedule != "" {
		sched := ingest.NewScheduler(etl, logger, time.Minute)
		if err := sched.Start(cfg.IngestSchedule); err != nil {
			logger.Error("invalid INGEST_SCHEDULE", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer sched.Stop()
	}

	r := httpx.NewRouter(httpx.Deps{
		Log:       logger,
		Config:    cfg,
		Campaigns: campaigns,
		Insights:  insightStore,
		ETL:       etl,
		Metrics:   mSvc,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", slog.String("err", err.Error()))
		}
	}()

	logger.Info("starting server", slog.String("port", cfg.Port), slog.String("store", cfg.StoreBackend))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// openInsightStore picks the insight backend. Campaigns always live in memory.
func openInsightStore(ctx context.Context, cfg config.Config, mem *store.MemoryStore) (store.InsightStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		pg := store.NewPostgresStore(db)
		if err := pg.EnsureSchema(pctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return pg, func() { db.Close() }, nil
	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewClient(opts)
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pctx).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		return store.NewRedisStore(client), func() { client.Close() }, nil
	default:
		return mem, func() {}, nil
	}
}
