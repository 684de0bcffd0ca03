package database

import (
	"time"
)

const (
	KeyKnownEntries = "known_entries"
	KeyFeedItems    = "feed_items"
)

type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

type KVEntry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Run is one execution of the scrape pipeline.
type Run struct {
	ID         string
	Source     string // scheduler, startup, api
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt *time.Time
	Candidates int
	Extracted  int
	Added      int
	Error      string
}

type RunResult struct {
	Status     RunStatus
	Candidates int
	Extracted  int
	Added      int
	Error      string
}
