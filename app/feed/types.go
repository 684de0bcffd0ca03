package feed

import (
	"context"
	"time"
)

// Harvest types
type RawLink struct {
	Href    string
	Title   string
	Context string // visible text of the anchor's containing element
}

type EntryKind string

const (
	EntryKindInternal EntryKind = "internal"
	EntryKindExternal EntryKind = "external"
)

// Entry is a normalized content item. ID is the root-relative path for
// internal content and the raw URL for external content.
type Entry struct {
	ID          string
	Kind        EntryKind
	Title       string
	Link        string
	Description string
	PubDate     time.Time
}

// FeedItem is the retained form of an entry inside the feed window.
type FeedItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	PubDate     time.Time `json:"pub_date"`
}

func NewFeedItem(entry Entry) FeedItem {
	return FeedItem{
		ID:          entry.ID,
		Title:       entry.Title,
		Link:        entry.Link,
		Description: entry.Description,
		PubDate:     entry.PubDate,
	}
}

// State is the dedup store snapshot. KnownIDs is kept in insertion order,
// FeedItems newest first.
type State struct {
	KnownIDs  []string
	FeedItems []FeedItem
	UpdatedAt time.Time
}

type Limits struct {
	KnownEntries int `yaml:"known_entries"`
	FeedItems    int `yaml:"feed_items"`
}

type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Configuration types
type Config struct {
	Homepage         string         `yaml:"homepage"`
	OwnerNames       []string       `yaml:"owner_names"`
	Feed             ConfigFeed     `yaml:"feed"`
	InternalPrefixes []string       `yaml:"internal_prefixes"`
	DenyHosts        []string       `yaml:"deny_hosts"`
	Markers          ConfigMarkers  `yaml:"markers"`
	Limits           Limits         `yaml:"limits"`
	Filters          []ConfigFilter `yaml:"filters"`
}

type ConfigFeed struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type ConfigMarkers struct {
	TitleClass string `yaml:"title_class"`
	DateClass  string `yaml:"date_class"`
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
