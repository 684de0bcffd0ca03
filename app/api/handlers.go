package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/homefeed/app/database"
	"github.com/lysyi3m/homefeed/app/feed"
	"github.com/lysyi3m/homefeed/app/tasks"
)

const recentRunsLimit = 10

func NewHandler(configCache *feed.ConfigCache, stateRepo database.StateRepository,
	runRepo database.RunRepository, scheduler tasks.TaskSchedulerInterface,
	selfURL, version string) *Handler {
	return &Handler{
		stateRepo:   stateRepo,
		runRepo:     runRepo,
		generator:   feed.NewGenerator(),
		configCache: configCache,
		scheduler:   scheduler,
		selfURL:     selfURL,
		version:     version,
	}
}

// SetFeedCache enables caching of the rendered feed.
func (h *Handler) SetFeedCache(feedCache FeedCacheInterface) {
	h.feedCache = feedCache
}

func (h *Handler) GetFeed(c *gin.Context) {
	ctx := c.Request.Context()

	if h.feedCache != nil {
		rss, found, err := h.feedCache.GetFeed(ctx)
		if err != nil {
			slog.Warn("Feed cache read failed", "error", err)
		}
		if found {
			c.Header("X-Feed-Cache", "HIT")
			c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
			return
		}
	}

	site, err := h.configCache.GetConfig()
	if err != nil {
		slog.Error("Site configuration not available", "error", err)
		c.Status(http.StatusServiceUnavailable)
		return
	}

	state, err := h.stateRepo.LoadState(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "load_state", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	channel := feed.NewChannel(site, h.selfURL, h.version, state.UpdatedAt)

	rss, err := h.generator.Run(channel, state.FeedItems)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if h.feedCache != nil {
		if err := h.feedCache.SetFeed(ctx, rss); err != nil {
			slog.Warn("Feed cache write failed", "error", err)
		}
		c.Header("X-Feed-Cache", "MISS")
	}

	c.Header("X-Feed-Items", strconv.Itoa(len(state.FeedItems)))
	if !state.UpdatedAt.IsZero() {
		c.Header("X-Last-Updated", state.UpdatedAt.Format(time.RFC3339))
	}

	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if _, err := h.configCache.GetConfig(); err != nil {
		health["status"] = "degraded"
		health["config_error"] = err.Error()
	}

	if count, err := h.runRepo.GetRunCount(c.Request.Context()); err == nil {
		health["runs"] = count
	}

	if h.feedCache != nil {
		health["cache"] = h.feedCache.Health(c.Request.Context())
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	state, err := h.stateRepo.LoadState(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "load_state", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	runs, err := h.runRepo.GetRecentRuns(ctx, recentRunsLimit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	stats := map[string]interface{}{
		"known_entries": len(state.KnownIDs),
		"feed_items":    len(state.FeedItems),
		"recent_runs":   runsJSON(runs),
	}
	if !state.UpdatedAt.IsZero() {
		stats["updated_at"] = state.UpdatedAt
	}

	if last, err := h.runRepo.GetLastSuccessfulRun(ctx); err == nil && last != nil {
		stats["last_success_at"] = last.StartedAt
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIRun(c *gin.Context) {
	task := h.scheduler.NewScrapeTask(tasks.SourceAPI)

	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing scrape task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue scrape task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Scrape queued",
		"task": gin.H{
			"id":   task.GetID(),
			"type": task.GetType(),
		},
	})
}

func (h *Handler) APIListEntries(c *gin.Context) {
	state, err := h.stateRepo.LoadState(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "load_state", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":         state.FeedItems,
		"total":         len(state.FeedItems),
		"known_entries": len(state.KnownIDs),
	})
}

func runsJSON(runs []database.Run) []gin.H {
	out := make([]gin.H, 0, len(runs))
	for _, run := range runs {
		item := gin.H{
			"id":         run.ID,
			"source":     run.Source,
			"status":     run.Status,
			"started_at": run.StartedAt,
			"candidates": run.Candidates,
			"extracted":  run.Extracted,
			"added":      run.Added,
		}
		if run.FinishedAt != nil {
			item["finished_at"] = *run.FinishedAt
		}
		if run.Error != "" {
			item["error"] = run.Error
		}
		out = append(out, item)
	}
	return out
}
