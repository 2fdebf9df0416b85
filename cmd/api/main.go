package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"animator/internal/cache"
	"animator/internal/coordinator"
	"animator/internal/domain"
	"animator/internal/fallback"
	"animator/internal/fetch"
	"animator/internal/genai"
	"animator/internal/history"
	"animator/internal/http/handlers"
	httpapi "animator/internal/http/httpapi"
	"animator/internal/infra"
	"animator/internal/minimax"
	"animator/internal/storage"
	"animator/internal/store"
	"animator/internal/telemetry"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	var backing store.Store
	if cfg.StoreBackend == "redis" {
		redisStore, err := store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		backing = redisStore
	} else {
		logger.Warn().Msg("using in-process store, state does not survive restarts")
		backing = store.NewMemoryStore(cfg.MemoryHonorTTL)
	}
	defer backing.Close()

	fileStore, err := storage.NewFileStore(cfg.AssetRoot)
	if err != nil {
		logger.Fatal().Err(err).Str("root", cfg.AssetRoot).Msg("failed to prepare asset root")
	}
	fetcher := fetch.New(nil)

	tel := telemetry.New()

	artifactCache := cache.New(backing, logger)
	artifactCache.DegradedHook = tel.CacheDegraded

	ledger := history.New(backing, logger)

	var video domain.Generator
	if cfg.VideoEnabled() {
		video = minimax.NewClient(minimax.Options{
			APIKey:  cfg.MinimaxAPIKey,
			BaseURL: cfg.MinimaxBaseURL,
			Logger:  logger,
		})
	} else {
		logger.Warn().Msg("video engine not configured, animate and compose use local composition")
	}

	var tryon domain.Generator
	if cfg.TryonEnabled() {
		tryon = genai.NewClient(genai.Options{
			APIKey:    cfg.GenaiAPIKey,
			BaseURL:   cfg.GenaiBaseURL,
			Model:     cfg.GenaiModel,
			Fetcher:   fetcher,
			Store:     fileStore,
			AssetBase: cfg.StorageBaseURL,
			Logger:    logger,
		})
	} else {
		logger.Warn().Msg("image engine not configured, try-on uses local composition")
	}

	pipeline := coordinator.New(coordinator.Options{
		Cache:         artifactCache,
		Ledger:        ledger,
		Telemetry:     tel,
		Video:         video,
		Tryon:         tryon,
		Fallback:      fallback.New(fetcher, fileStore, cfg.StorageBaseURL, logger),
		PollInterval:  cfg.PollInterval,
		JobBudget:     cfg.JobBudget,
		MaxConcurrent: cfg.MaxGenerations,
		VideoTTL:      cfg.VideoCacheTTL,
		TryonTTL:      cfg.TryonCacheTTL,
		Logger:        logger,
	})

	app := handlers.NewApp(pipeline, ledger, tel, logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		Telemetry:   tel,
		AssetRoot:   cfg.AssetRoot,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimitPerMin,
		Logger:      logger,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
