package feed

import (
	"fmt"
	"log/slog"
	"strings"
)

var validFilterFields = map[string]bool{
	"title":   true,
	"href":    true,
	"context": true,
}

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run drops harvested links rejected by the site's include/exclude rules.
func (f *Filterer) Run(links []RawLink, filters []ConfigFilter) []RawLink {
	if len(filters) == 0 {
		return links
	}

	kept := make([]RawLink, 0, len(links))
	for _, link := range links {
		if isFiltered, reason := f.applyFilters(link, filters); isFiltered {
			slog.Debug("Link filtered", "href", link.Href, "reason", reason)
			continue
		}
		kept = append(kept, link)
	}

	return kept
}

func (f *Filterer) applyFilters(link RawLink, filters []ConfigFilter) (bool, string) {
	for _, filter := range filters {
		value := f.getFieldValue(link, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) getFieldValue(link RawLink, field string) string {
	switch field {
	case "title":
		return link.Title
	case "href":
		return link.Href
	case "context":
		return link.Context
	default:
		return ""
	}
}
