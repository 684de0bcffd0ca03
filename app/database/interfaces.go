package database

import (
	"context"

	"github.com/lysyi3m/homefeed/app/feed"
)

type KVRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	GetMany(ctx context.Context, keys ...string) (map[string]KVEntry, error)
	PutAll(ctx context.Context, values map[string]string) error
}

// StateRepository persists the dedup store as one unit: both collections
// are read together and written in a single transaction.
type StateRepository interface {
	LoadState(ctx context.Context) (*feed.State, error)
	SaveState(ctx context.Context, state feed.State) error
}

type RunRepository interface {
	CreateRun(ctx context.Context, run Run) error
	FinishRun(ctx context.Context, id string, result RunResult) error
	GetRecentRuns(ctx context.Context, limit int) ([]Run, error)
	GetLastSuccessfulRun(ctx context.Context) (*Run, error)
	GetRunCount(ctx context.Context) (int, error)
}
