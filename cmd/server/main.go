// Package main provides the API server entry point for the account scanner.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/solana-scanner/internal/api"
	"github.com/solana-scanner/internal/cache"
	"github.com/solana-scanner/internal/config"
	"github.com/solana-scanner/internal/hub"
	"github.com/solana-scanner/internal/logging"
	"github.com/solana-scanner/internal/pricing"
	"github.com/solana-scanner/internal/registry"
	"github.com/solana-scanner/internal/rpc"
	"github.com/solana-scanner/internal/scheduler"
	"github.com/solana-scanner/internal/service"
	"github.com/solana-scanner/internal/storage"
	"github.com/solana-scanner/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Global().WithError(err).Fatal("Failed to load configuration")
	}

	logging.Init(logging.ParseLevel(cfg.Logging.Level), logging.ParseFormat(cfg.Logging.Format))
	logger := logging.Global()
	logger.WithFields(map[string]any{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Caches: shared Redis when configured, process memory otherwise
	ttls := cache.TTLConfig{
		Metadata:  cfg.Cache.MetadataTTL,
		Price:     cfg.Cache.PriceTTL,
		TokenList: cfg.Cache.TokenListTTL,
		Security:  cfg.Cache.SecurityTTL,
	}
	caches := cache.NewMemoryCaches(ttls)
	if cfg.Redis.Host != "" {
		client, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer client.Close()
		caches = cache.NewRedisCaches(client, ttls)
		logger.WithField("host", cfg.Redis.Host).Info("Using Redis cache backend")
	}

	// Address source: Postgres watchlist when configured, static otherwise
	var source storage.AddressSource = storage.StaticSource(nil)
	var watchlist *storage.WatchlistRepository
	if cfg.Postgres.Host != "" {
		db, err := storage.NewPostgresDB(&cfg.Postgres)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Postgres")
		}
		defer db.Close()
		watchlist = storage.NewWatchlistRepository(db)
		source = watchlist
		logger.WithField("host", cfg.Postgres.Host).Info("Using Postgres watchlist")
	}

	client := rpc.NewClient(cfg.Solana.RPCURL, cfg.Solana.RequestTimeout)

	accountStore := storage.NewMemoryAccountStore()
	historyStore := storage.NewMemoryHistoryStore()

	accounts := service.NewAccountService(client, caches.Metadata)
	tokenRegistry := registry.NewService(cfg.Prices.TokenListURL, caches.Metadata, caches.TokenList, registry.BuiltinDirectory)
	prices := pricing.NewService(cfg.Prices.APIKey, caches.Price, pricing.FallbackTableV1)
	security := service.NewSecurityService(client, caches.Security)

	// The hub and the refresh pipeline reference each other; the pool closes
	// over the service after both exist
	var refresher *service.RefreshService
	pool := worker.NewRefreshPool(func(ctx context.Context, address string) {
		refresher.Refresh(ctx, address)
	}, cfg.Worker.Workers, cfg.Worker.QueueSize)

	wsHub := hub.NewHub(accountStore, cfg.Hub.SendBuffer, func(address string) {
		pool.Enqueue(address)
	})

	refresher = service.NewRefreshService(accounts, tokenRegistry, prices, security, accountStore, historyStore, wsHub)

	pool.Start(ctx)

	// Warm-up: queue a full refresh for every tracked address so early
	// subscribers see real data instead of empty snapshots. Anything the
	// queue cannot take is picked up by the scanner's first pass.
	if addresses, err := source.Addresses(ctx); err != nil {
		logger.WithError(err).Warn("Failed to list tracked addresses for warm-up")
	} else {
		queued := 0
		for _, address := range addresses {
			if pool.Enqueue(address) {
				queued++
			}
		}
		logger.WithFields(map[string]any{
			"addresses": len(addresses),
			"queued":    queued,
		}).Info("Warm-up refreshes queued")
	}

	scanner := scheduler.New(source, refresher, accountStore, cfg.Scanner.Interval)
	go scanner.Run(ctx)

	server := api.NewServer(&api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RateLimitRPS:    cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst:  cfg.RateLimit.Burst,
	}, accountStore, refresher, pool, wsHub.ServeWS)
	if watchlist != nil {
		server.SetWatchlist(watchlist)
	}

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed")
		}
	}()
	logger.WithFields(map[string]any{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}

	pool.Wait()
	logger.Info("Shutdown complete")
}
