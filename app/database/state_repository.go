package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lysyi3m/homefeed/app/feed"
)

var _ StateRepository = (*SQLiteStateRepository)(nil)

// SQLiteStateRepository stores the dedup store under two fixed keys holding
// JSON collections.
type SQLiteStateRepository struct {
	kv KVRepository
}

func NewStateRepository(kv KVRepository) *SQLiteStateRepository {
	return &SQLiteStateRepository{kv: kv}
}

// LoadState reads both collections. Missing keys mean a first run and yield
// empty collections.
func (r *SQLiteStateRepository) LoadState(ctx context.Context) (*feed.State, error) {
	entries, err := r.kv.GetMany(ctx, KeyKnownEntries, KeyFeedItems)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	state := &feed.State{
		KnownIDs:  []string{},
		FeedItems: []feed.FeedItem{},
	}

	if entry, ok := entries[KeyKnownEntries]; ok {
		if err := json.Unmarshal([]byte(entry.Value), &state.KnownIDs); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", KeyKnownEntries, err)
		}
		state.UpdatedAt = entry.UpdatedAt
	}

	if entry, ok := entries[KeyFeedItems]; ok {
		if err := json.Unmarshal([]byte(entry.Value), &state.FeedItems); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", KeyFeedItems, err)
		}
		if entry.UpdatedAt.After(state.UpdatedAt) {
			state.UpdatedAt = entry.UpdatedAt
		}
	}

	return state, nil
}

// SaveState writes both collections atomically.
func (r *SQLiteStateRepository) SaveState(ctx context.Context, state feed.State) error {
	knownIDs := state.KnownIDs
	if knownIDs == nil {
		knownIDs = []string{}
	}
	feedItems := state.FeedItems
	if feedItems == nil {
		feedItems = []feed.FeedItem{}
	}

	knownJSON, err := json.Marshal(knownIDs)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", KeyKnownEntries, err)
	}
	itemsJSON, err := json.Marshal(feedItems)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", KeyFeedItems, err)
	}

	err = r.kv.PutAll(ctx, map[string]string{
		KeyKnownEntries: string(knownJSON),
		KeyFeedItems:    string(itemsJSON),
	})
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	return nil
}
