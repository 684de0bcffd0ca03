package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/homefeed/app/cfg"
	"github.com/lysyi3m/homefeed/app/database"
	"github.com/lysyi3m/homefeed/app/feed"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler owns the task queue. A single worker drains it, which makes
// every scrape the only writer of the stored state while it runs.
type Scheduler struct {
	configCache *feed.ConfigCache
	stateRepo   database.StateRepository
	runRepo     database.RunRepository
	fetcher     feed.PageFetcher
	harvester   *feed.Harvester
	filterer    *feed.Filterer
	extractor   *feed.Extractor
	concurrency int
	invalidator FeedInvalidator
	interval    time.Duration
	taskTimeout time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(configCache *feed.ConfigCache, stateRepo database.StateRepository, runRepo database.RunRepository,
	fetcher feed.PageFetcher, harvester *feed.Harvester, filterer *feed.Filterer, extractor *feed.Extractor) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		configCache: configCache,
		stateRepo:   stateRepo,
		runRepo:     runRepo,
		fetcher:     fetcher,
		harvester:   harvester,
		filterer:    filterer,
		extractor:   extractor,
		concurrency: cfg.FetchConcurrency,
		interval:    time.Duration(cfg.SchedulerInterval) * time.Second,
		taskTimeout: 10 * time.Minute,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 16),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueScrape(SourceStartup)

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueScrape(SourceScheduler)
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if err := s.ctx.Err(); err != nil {
		return fmt.Errorf("scheduler stopped: %w", err)
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// SetFeedInvalidator makes every scrape drop the cached feed after saving.
func (s *Scheduler) SetFeedInvalidator(invalidator FeedInvalidator) {
	s.invalidator = invalidator
}

func (s *Scheduler) NewScrapeTask(source string) TaskInterface {
	task := NewScrapeHomepageTask(source, s.configCache, s.stateRepo, s.runRepo,
		s.fetcher, s.harvester, s.filterer, s.extractor, s.concurrency)
	task.invalidator = s.invalidator
	return task
}

func (s *Scheduler) enqueueScrape(source string) {
	if err := s.EnqueueTask(s.NewScrapeTask(source)); err != nil {
		slog.Warn("Failed to enqueue ScrapeHomepageTask", "source", source, "error", err)
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
	if retryDelay > 30*time.Second {
		retryDelay = 30 * time.Second
	}

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSource(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-time.After(retryDelay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}
