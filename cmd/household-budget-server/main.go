package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/household-budget/internal/cache"
	"github.com/iwvelando/household-budget/internal/config"
	"github.com/iwvelando/household-budget/internal/engine"
	"github.com/iwvelando/household-budget/internal/logging"
	"github.com/iwvelando/household-budget/internal/server"
	"github.com/iwvelando/household-budget/pkg/constants"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	address := flag.String("address", "", "listen address override, e.g. :8080")
	maxUpload := flag.String("max-upload-size", "", "maximum upload size override, e.g. 64K")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *address != "" {
		cfg.Address = *address
	}
	if *maxUpload != "" {
		size, err := server.ParseSize(*maxUpload)
		if err != nil {
			fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"invalid max upload size\", \"error\": \"%v\"}\n", err)
			os.Exit(1)
		}
		cfg.SetUploadSizeBytes(size)
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	profile := engine.DefaultProfile()
	if cfg.ProfileFile != "" {
		conf, err := config.LoadConfiguration(cfg.ProfileFile)
		if err != nil {
			logger.Fatal("failed to load profile",
				zap.String("op", "main"),
				zap.String("path", cfg.ProfileFile),
				zap.Error(err),
			)
		}
		profile, err = conf.Profile.EngineProfile()
		if err != nil {
			logger.Fatal("invalid profile",
				zap.String("op", "main"),
				zap.String("path", cfg.ProfileFile),
				zap.Error(err),
			)
		}
	}

	var resultCache cache.Cache = cache.NewMemoryCache(cfg.CacheTTL(), cfg.Cache.MaxEntries)
	if cfg.Cache.RedisAddr != "" {
		redisCache := cache.NewRedisCache(logger, cfg.Cache.RedisAddr, cfg.CacheTTL())
		defer func() {
			_ = redisCache.Close()
		}()
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			logger.Warn("redis unreachable, results are computed on every request until it recovers",
				zap.String("op", "main"),
				zap.String("addr", cfg.Cache.RedisAddr),
				zap.Error(err),
			)
		}
		cancel()
		resultCache = redisCache
	}

	var limiter *server.RateLimiter
	if cfg.RateLimit.Requests > 0 {
		limiter = server.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimitWindow())
		defer limiter.Stop()
	}

	handler := server.NewHandler(server.Options{
		Logger:        logger,
		MaxUploadSize: cfg.UploadSizeBytes(),
		Version:       version,
		Profile:       &profile,
		Cache:         resultCache,
		Limiter:       limiter,
	})

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting household-budget server",
			zap.String("op", "main"),
			zap.String("address", cfg.Address),
			zap.Int64("maxUploadSize", cfg.UploadSizeBytes()),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Error("server failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
		return
	case <-quit:
		logger.Info("shutting down server", zap.String("op", "main"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("error during server shutdown",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
