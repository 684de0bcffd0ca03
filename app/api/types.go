package api

import (
	"context"

	"github.com/lysyi3m/homefeed/app/cache"
	"github.com/lysyi3m/homefeed/app/database"
	"github.com/lysyi3m/homefeed/app/feed"
	"github.com/lysyi3m/homefeed/app/tasks"
)

type GeneratorInterface interface {
	Run(channel feed.Channel, items []feed.FeedItem) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

// FeedCacheInterface stores the rendered feed document between reads.
type FeedCacheInterface interface {
	GetFeed(ctx context.Context) (string, bool, error)
	SetFeed(ctx context.Context, content string) error
	Health(ctx context.Context) map[string]interface{}
}

var _ FeedCacheInterface = (*cache.Cache)(nil)

type Handler struct {
	stateRepo   database.StateRepository
	runRepo     database.RunRepository
	generator   GeneratorInterface
	configCache *feed.ConfigCache
	scheduler   tasks.TaskSchedulerInterface
	feedCache   FeedCacheInterface
	selfURL     string
	version     string
}
