package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lysyi3m/homefeed/app/api"
	"github.com/lysyi3m/homefeed/app/cache"
	"github.com/lysyi3m/homefeed/app/cfg"
	"github.com/lysyi3m/homefeed/app/database"
	"github.com/lysyi3m/homefeed/app/feed"
	"github.com/lysyi3m/homefeed/app/tasks"
)

func main() {
	cfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg == nil {
		// Help was shown
		return
	}

	if logFile := setupLogger(cfg.Debug, cfg.LogFile); logFile != nil {
		defer logFile.Close()
	}

	slog.Info("Starting homefeed", "version", cfg.Version, "site_config", cfg.SiteConfig)

	db, err := database.NewConnection(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("Connected to database", "path", cfg.DBPath)

	configCache := feed.NewConfigCache(cfg.SiteConfig)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load site configuration", "path", cfg.SiteConfig, "error", err)
		os.Exit(1)
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if err := configCache.Watch(watchCtx); err != nil {
		slog.Warn("Site configuration hot reload disabled", "error", err)
	}

	stateRepo := database.NewStateRepository(database.NewKVRepository(db))
	runRepo := database.NewRunRepository(db)

	httpClient := &http.Client{Timeout: time.Duration(cfg.FetchTimeout) * time.Second}
	fetcher := tasks.NewHTTPFetcher(httpClient, cfg.UserAgent, cfg.FetchRate, time.Duration(cfg.FetchTimeout)*time.Second)
	extractor := feed.NewExtractor(fetcher, feed.NewContentExtractor())

	scheduler := tasks.NewScheduler(configCache, stateRepo, runRepo, fetcher,
		feed.NewHarvester(), feed.NewFilterer(), extractor)

	handler := api.NewHandler(configCache, stateRepo, runRepo, scheduler, cfg.SelfURL(), cfg.Version)

	if cfg.RedisAddr != "" {
		feedCache, err := cache.NewCache(cfg.RedisAddr, cfg.SelfURL(), time.Duration(cfg.FeedCacheTTL)*time.Second)
		if err != nil {
			slog.Warn("Feed cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer feedCache.Close()
			handler.SetFeedCache(feedCache)
			scheduler.SetFeedInvalidator(feedCache)
		}
	}

	scheduler.Start()
	slog.Info("Scheduler started", "interval", time.Duration(cfg.SchedulerInterval)*time.Second, "fetch_concurrency", cfg.FetchConcurrency)

	server := api.NewServer(handler, cfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.Port, "feed", cfg.SelfURL())
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

	stopWatch()
	scheduler.Stop()

	slog.Info("Shutdown complete")
}

// setupLogger installs the default slog logger. Output goes to stdout and,
// when logFile is set, to a size-rotated file as well.
func setupLogger(debug bool, logFile string) *lumberjack.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stdout
	var rotated *lumberjack.Logger
	if logFile != "" {
		rotated = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    15, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotated)
	}

	gin.DefaultWriter = out
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))

	return rotated
}
