package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/homefeed/app/database"
	"github.com/lysyi3m/homefeed/app/feed"
)

// ScrapeHomepageTask runs the full pipeline once: fetch the homepage,
// harvest candidate links, turn them into entries and merge the new ones
// into the stored state.
type ScrapeHomepageTask struct {
	Task
	configCache *feed.ConfigCache
	stateRepo   database.StateRepository
	runRepo     database.RunRepository
	fetcher     feed.PageFetcher
	harvester   *feed.Harvester
	filterer    *feed.Filterer
	extractor   *feed.Extractor
	concurrency int
	invalidator FeedInvalidator
}

func NewScrapeHomepageTask(source string, configCache *feed.ConfigCache, stateRepo database.StateRepository,
	runRepo database.RunRepository, fetcher feed.PageFetcher, harvester *feed.Harvester,
	filterer *feed.Filterer, extractor *feed.Extractor, concurrency int) *ScrapeHomepageTask {
	if concurrency < 1 {
		concurrency = 1
	}

	return &ScrapeHomepageTask{
		Task:        NewTask(TaskTypeScrapeHomepage, source),
		configCache: configCache,
		stateRepo:   stateRepo,
		runRepo:     runRepo,
		fetcher:     fetcher,
		harvester:   harvester,
		filterer:    filterer,
		extractor:   extractor,
		concurrency: concurrency,
	}
}

func (t *ScrapeHomepageTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	site, err := t.configCache.GetConfig()
	if err != nil {
		return fmt.Errorf("failed to get site config: %w", err)
	}

	runID := t.ID
	if t.RetryCount > 0 {
		runID = fmt.Sprintf("%s-retry-%d", t.ID, t.RetryCount)
	}

	err = t.runRepo.CreateRun(ctx, database.Run{
		ID:        runID,
		Source:    t.Source,
		Status:    database.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	result, err := t.scrape(ctx, site)
	if err != nil {
		result.Status = database.RunStatusFailed
		result.Error = err.Error()
	} else {
		result.Status = database.RunStatusSuccess
	}

	// The run record is closed even when the scrape context is already done.
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if finishErr := t.runRepo.FinishRun(finishCtx, runID, result); finishErr != nil {
		slog.Warn("Failed to record run result", "run", runID, "error", finishErr)
	}

	if err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", "ScrapeHomepage",
		"run", runID,
		"source", t.Source,
		"duration", t.GetDuration(),
		"candidates", result.Candidates,
		"extracted", result.Extracted,
		"new", result.Added)

	return nil
}

func (t *ScrapeHomepageTask) scrape(ctx context.Context, site *feed.Config) (database.RunResult, error) {
	var result database.RunResult

	data, err := t.fetcher.Fetch(ctx, site.Homepage)
	if err != nil {
		// An unreachable homepage leaves the stored state untouched.
		slog.Warn("Failed to fetch homepage, skipping run", "url", site.Homepage, "error", err)
		return result, nil
	}

	links, err := t.harvester.Run(data, site)
	if err != nil {
		slog.Warn("Failed to parse homepage, skipping run", "url", site.Homepage, "error", err)
		return result, nil
	}

	links = t.filterer.Run(links, site.Filters)
	result.Candidates = len(links)

	entries, err := t.extractAll(ctx, links, site)
	if err != nil {
		return result, err
	}
	result.Extracted = len(entries)

	state, err := t.stateRepo.LoadState(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load state: %w", err)
	}

	next, added := feed.Reconcile(*state, entries, site.Limits)
	result.Added = added

	if err := t.stateRepo.SaveState(ctx, next); err != nil {
		return result, fmt.Errorf("failed to save state: %w", err)
	}

	if t.invalidator != nil {
		if err := t.invalidator.InvalidateFeed(ctx); err != nil {
			slog.Warn("Failed to invalidate cached feed", "error", err)
		}
	}

	return result, nil
}

// extractAll resolves links in parallel and returns the surviving entries in
// harvest order.
func (t *ScrapeHomepageTask) extractAll(ctx context.Context, links []feed.RawLink, site *feed.Config) ([]feed.Entry, error) {
	results := make([]*feed.Entry, len(links))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)

	for i, link := range links {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = t.extractor.Run(gctx, link, site)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extraction interrupted: %w", err)
	}

	entries := make([]feed.Entry, 0, len(results))
	for _, entry := range results {
		if entry != nil {
			entries = append(entries, *entry)
		}
	}

	return entries, nil
}
