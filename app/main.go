package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jornt/medialog/app/api"
	"github.com/jornt/medialog/app/atproto"
	"github.com/jornt/medialog/app/auth"
	"github.com/jornt/medialog/app/cache"
	"github.com/jornt/medialog/app/cfg"
	"github.com/jornt/medialog/app/database"
	"github.com/jornt/medialog/app/lexicon"
	"github.com/jornt/medialog/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Medialog server", "version", appCfg.Version)

	db, err := database.NewConnection(
		appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	var appCache cache.CacheInterface
	if appCfg.RedisAddr != "" {
		redisCache, err := cache.NewCache(appCfg.RedisAddr)
		if err != nil {
			slog.Error("Failed to connect to Redis", "addr", appCfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		appCache = redisCache
		slog.Info("Connected to Redis", "addr", appCfg.RedisAddr)
	} else {
		appCache = cache.NewNoop()
		slog.Info("Redis not configured, caching disabled")
	}
	defer appCache.Close()

	lexiconCache := lexicon.NewCache(appCfg.LexiconsDir)
	if err := lexiconCache.Run(); err != nil {
		slog.Error("Failed to load record definitions", "error", err)
		os.Exit(1)
	}
	slog.Info("Record definitions loaded", "count", lexiconCache.GetDefinitionCount())

	userRepo := database.NewUserRepository(db)
	sessionRepo := database.NewSessionRepository(db)
	mediaRepo := database.NewMediaRepository(db)
	reviewRepo := database.NewReviewRepository(db)
	tagRepo := database.NewTagRepository(db)
	shareRepo := database.NewShareRepository(db)
	feedbackRepo := database.NewFeedbackRepository(db)
	feedRepo := database.NewFeedRepository(db)

	atClient := atproto.NewClient(appCfg.PDSUrl, appCfg.PLCUrl, appCfg.UserAgent)
	authService := auth.NewService(atClient, sessionRepo, userRepo)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(sessionRepo, mediaRepo, reviewRepo, shareRepo, atClient, appCache)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(userRepo, sessionRepo, mediaRepo, reviewRepo,
		tagRepo, shareRepo, feedbackRepo, feedRepo,
		atClient, lexiconCache, appCache, authService)
	server := api.NewServer(apiHandler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
