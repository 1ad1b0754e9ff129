package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/advergate/advergate/advertiser"
	"github.com/advergate/advergate/config"
	"github.com/advergate/advergate/dialogflow"
	"github.com/advergate/advergate/prompt"
	"github.com/advergate/advergate/server"
	"github.com/advergate/advergate/storage"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}

	ctx := context.Background()

	store, err := advertiser.NewFirestoreStore(ctx, cfg.DialogflowProjectID, cfg.SettingsCollection, cfg.FirestoreCredentials)
	if err != nil {
		logger.Fatal("failed to connect to settings store", "error", err)
	}
	defer store.Close()

	cache, closeCache := newPromptCache(ctx, cfg, logger)
	defer closeCache()

	resolver := prompt.NewResolver(store, cache, logger.With("component", "resolver"))

	tokens, err := dialogflow.NewGoogleTokenSource(ctx, cfg.DialogflowCredentials)
	if err != nil {
		logger.Fatal("failed to load NLU credentials", "error", err)
	}

	detector := dialogflow.NewClient(dialogflow.Config{
		ProjectID:    cfg.DialogflowProjectID,
		Location:     cfg.DialogflowLocation,
		AgentID:      cfg.DialogflowAgentID,
		LanguageCode: cfg.NLULanguageCode,
		Timeout:      cfg.NLUTimeout,
	}, tokens, logger.With("component", "dialogflow"))

	uploader, err := storage.NewUploader(ctx, cfg.DialogflowProjectID, cfg.StorageLocation, cfg.StorageClass, cfg.DialogflowCredentials, logger.With("component", "storage"))
	if err != nil {
		logger.Fatal("failed to create storage client", "error", err)
	}
	defer uploader.Close()

	srv := server.NewServer(cfg, resolver, detector, uploader, logger.With("component", "server"))

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", "error", err)
	}

	logger.Info("server stopped")
}

// newPromptCache picks the Redis backend when Redis is configured and
// reachable, otherwise the in-process TTL cache. The returned closer
// stops the cache janitor or closes the Redis connection.
func newPromptCache(ctx context.Context, cfg *config.Config, logger *log.Logger) (prompt.Cache, func()) {
	if cfg.RedisURL == "" {
		cache := prompt.NewMemoryCache(cfg.PromptCacheTTL)
		return cache, cache.Close
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-memory prompt cache", "error", err)
		_ = client.Close()
		cache := prompt.NewMemoryCache(cfg.PromptCacheTTL)
		return cache, cache.Close
	}

	logger.Info("using redis prompt cache", "addr", cfg.RedisURL)
	cache := prompt.NewRedisCache(client, cfg.PromptCacheTTL, logger.With("component", "cache"))
	return cache, func() { _ = client.Close() }
}
