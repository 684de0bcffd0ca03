package tasks

import "context"

// TaskSchedulerInterface is what the rest of the application needs from the
// background worker: lifecycle control and manual triggering.
//
//	scheduler := NewScheduler(configCache, stateRepo, runRepo, fetcher, harvester, filterer, extractor)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(scheduler.NewScrapeTask(SourceAPI))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	NewScrapeTask(source string) TaskInterface
}

// FeedInvalidator drops any cached rendering of the feed once the stored
// state changed.
type FeedInvalidator interface {
	InvalidateFeed(ctx context.Context) error
}
