package feed

// Reconcile folds freshly extracted entries into the dedup state and
// reports how many of them were new.
//
// Entries are visited in order; an id that is already known (or repeated
// within the batch) is skipped. New items are placed at the head of the
// feed window as one block, keeping the batch order, and the window is
// then cut to limits.FeedItems. Known ids are trimmed to
// limits.KnownEntries oldest first, never evicting an id that is still in
// the feed window. The input state is not modified.
func Reconcile(state State, entries []Entry, limits Limits) (State, int) {
	known := make(map[string]bool, len(state.KnownIDs)+len(entries))
	for _, id := range state.KnownIDs {
		known[id] = true
	}

	knownIDs := append([]string(nil), state.KnownIDs...)
	added := make([]FeedItem, 0)

	for _, entry := range entries {
		if entry.ID == "" || known[entry.ID] {
			continue
		}
		known[entry.ID] = true
		knownIDs = append(knownIDs, entry.ID)
		added = append(added, NewFeedItem(entry))
	}

	feedItems := make([]FeedItem, 0, len(added)+len(state.FeedItems))
	feedItems = append(feedItems, added...)
	feedItems = append(feedItems, state.FeedItems...)
	if limits.FeedItems > 0 && len(feedItems) > limits.FeedItems {
		feedItems = feedItems[:limits.FeedItems]
	}

	if limits.KnownEntries > 0 && len(knownIDs) > limits.KnownEntries {
		knownIDs = evictOldest(knownIDs, feedItems, limits.KnownEntries)
	}

	return State{
		KnownIDs:  knownIDs,
		FeedItems: feedItems,
		UpdatedAt: state.UpdatedAt,
	}, len(added)
}

func evictOldest(knownIDs []string, feedItems []FeedItem, limit int) []string {
	retained := make(map[string]bool, len(feedItems))
	for _, item := range feedItems {
		retained[item.ID] = true
	}

	excess := len(knownIDs) - limit
	kept := make([]string, 0, limit)
	for _, id := range knownIDs {
		if excess > 0 && !retained[id] {
			excess--
			continue
		}
		kept = append(kept, id)
	}
	return kept
}
