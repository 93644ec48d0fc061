package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/complyon/kycengine/internal/api"
	"github.com/complyon/kycengine/internal/config"
	"github.com/complyon/kycengine/internal/metrics"
	"github.com/complyon/kycengine/internal/report"
	"github.com/complyon/kycengine/internal/risk"
	"github.com/complyon/kycengine/internal/screening"
	"github.com/complyon/kycengine/internal/service"
	"github.com/complyon/kycengine/internal/watchlist"
	"github.com/complyon/kycengine/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()
	sugar := zapLogger.Sugar()

	tables, err := config.LoadRiskTables(cfg.Risk.TablesPath)
	if err != nil {
		zapLogger.Fatal("Failed to load risk tables", zap.Error(err))
	}

	store := screening.NewStore(sugar)
	loader := watchlist.NewLoader(sugar)

	// Persistence is optional; without it the service runs purely
	// in-memory and keeps no screening history.
	var repo *watchlist.Repository
	if cfg.Watchlist.DSN != "" {
		repo, err = watchlist.Open(cfg.Watchlist.Driver, cfg.Watchlist.DSN)
		if err != nil {
			zapLogger.Fatal("Failed to open watchlist database", zap.Error(err))
		}
		seedStore(sugar, store, repo)
	}

	for _, f := range cfg.Watchlist.Files {
		res, err := loader.LoadFile(f.Path, f.Format)
		if err != nil {
			zapLogger.Fatal("Failed to load watchlist file",
				zap.String("path", f.Path), zap.Error(err))
		}
		stats := store.Merge(res.Entries)
		sugar.Infow("watchlist file loaded",
			"path", f.Path, "format", f.Format,
			"added", stats.Added, "updated", stats.Updated, "skipped", res.Skipped)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var updater *watchlist.Updater
	if len(cfg.Watchlist.Sources) > 0 {
		updaterCfg := watchlist.DefaultUpdaterConfig()
		if cfg.Watchlist.RefreshInterval > 0 {
			updaterCfg.Interval = cfg.Watchlist.RefreshInterval
		}
		updater = watchlist.NewUpdater(store, repo, cfg.Watchlist.Sources, updaterCfg, sugar)
		go updater.Start(ctx)
	}

	var cache service.Cache
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		cache = service.NewRedisCache(client, cfg.Screening.CacheTTL, sugar)
	} else if cfg.Screening.CacheTTL > 0 {
		cache = service.NewMemoryCache(cfg.Screening.CacheTTL)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	riskEngine := risk.NewEngineWithTables(sugar, tables)
	assembler := report.NewAssembler(nil, sugar)
	svc := service.New(store, riskEngine, assembler, cache, m, sugar)

	var writer report.Writer
	if cfg.Report.Dir != "" {
		writer, err = report.NewFileWriter(cfg.Report.Dir, sugar)
		if err != nil {
			zapLogger.Fatal("Failed to prepare report directory", zap.Error(err))
		}
	}

	apiServer := api.NewServer(zapLogger, svc, updater, repo, writer, registry, api.Defaults{
		Fuzzy:              cfg.Screening.Fuzzy,
		SanctionsThreshold: cfg.Screening.SanctionsThreshold,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      apiServer.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		sugar.Infow("starting screening server", "addr", cfg.Server.Addr, "watchlist_entries", store.Len())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	sugar.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Graceful shutdown failed", zap.Error(err))
	}
	sugar.Info("server exited")
}

// seedStore restores the watchlist snapshot from the database so a
// restart does not begin with an empty store while remote sources are
// still refreshing.
func seedStore(sugar *zap.SugaredLogger, store *screening.Store, repo *watchlist.Repository) {
	entries, err := repo.LoadEntries(context.Background())
	if err != nil {
		sugar.Warnw("failed to restore watchlist from database", "error", err)
		return
	}
	if len(entries) == 0 {
		return
	}
	stats := store.Load(entries)
	sugar.Infow("watchlist restored from database", "entries", stats.Added)
}
