package feed

import (
	"testing"
)

func testLinks() []RawLink {
	return []RawLink{
		{Href: "/essay/on-cities", Title: "On Cities", Context: "On Cities (2024)"},
		{Href: "https://nyt.com/opinion/x", Title: "My Take", Context: "My Take (NYT, 2023)"},
		{Href: "/post/weekly-notes-12", Title: "Weekly Notes 12", Context: "Weekly Notes 12"},
	}
}

func TestFilterer_Run_NoFilters(t *testing.T) {
	filterer := NewFilterer()

	result := filterer.Run(testLinks(), nil)

	if len(result) != 3 {
		t.Errorf("Expected 3 links, got %d", len(result))
	}
}

func TestFilterer_Run_TitleExclude(t *testing.T) {
	filterer := NewFilterer()

	result := filterer.Run(testLinks(), []ConfigFilter{
		{Field: "title", Excludes: []string{"weekly notes"}},
	})

	if len(result) != 2 {
		t.Fatalf("Expected 2 links, got %d", len(result))
	}
	for _, link := range result {
		if link.Title == "Weekly Notes 12" {
			t.Errorf("Expected 'Weekly Notes 12' to be filtered out")
		}
	}
}

func TestFilterer_Run_HrefInclude(t *testing.T) {
	filterer := NewFilterer()

	result := filterer.Run(testLinks(), []ConfigFilter{
		{Field: "href", Includes: []string{"/essay/", "nyt.com"}},
	})

	if len(result) != 2 {
		t.Fatalf("Expected 2 links, got %d", len(result))
	}
	if result[0].Href != "/essay/on-cities" {
		t.Errorf("Expected first link '/essay/on-cities', got '%s'", result[0].Href)
	}
	if result[1].Href != "https://nyt.com/opinion/x" {
		t.Errorf("Expected second link 'https://nyt.com/opinion/x', got '%s'", result[1].Href)
	}
}

func TestFilterer_Run_ContextCaseInsensitive(t *testing.T) {
	filterer := NewFilterer()

	result := filterer.Run(testLinks(), []ConfigFilter{
		{Field: "context", Excludes: []string{"nyt"}},
	})

	if len(result) != 2 {
		t.Errorf("Expected 2 links, got %d", len(result))
	}
}

func TestFilterer_Run_ExcludeWinsOverInclude(t *testing.T) {
	filterer := NewFilterer()

	result := filterer.Run(testLinks(), []ConfigFilter{
		{Field: "title", Includes: []string{"on"}, Excludes: []string{"cities"}},
	})

	for _, link := range result {
		if link.Title == "On Cities" {
			t.Errorf("Expected 'On Cities' to be excluded")
		}
	}
}

func TestFilterer_GetFieldValue(t *testing.T) {
	filterer := NewFilterer()
	link := RawLink{Href: "/a", Title: "A", Context: "ctx"}

	tests := map[string]string{
		"title":   "A",
		"href":    "/a",
		"context": "ctx",
		"unknown": "",
	}

	for field, expected := range tests {
		if got := filterer.getFieldValue(link, field); got != expected {
			t.Errorf("Expected %s value '%s', got '%s'", field, expected, got)
		}
	}
}
