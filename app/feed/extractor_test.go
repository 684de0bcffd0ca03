package feed

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type mockFetcher struct {
	pages    map[string]string
	requests []string
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	m.requests = append(m.requests, url)
	page, ok := m.pages[url]
	if !ok {
		return nil, errors.New("HTTP error: 404 Not Found")
	}
	return []byte(page), nil
}

var fixedNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func newTestExtractor(pages map[string]string) (*Extractor, *mockFetcher) {
	fetcher := &mockFetcher{pages: pages}
	extractor := NewExtractor(fetcher, NewContentExtractor())
	extractor.now = func() time.Time { return fixedNow }
	return extractor, fetcher
}

func TestExtractor_Classify(t *testing.T) {
	extractor, _ := newTestExtractor(nil)
	site := NewConfig("https://example.com/")

	tests := []struct {
		href     string
		expected EntryKind
	}{
		{"/essay/foo", EntryKindInternal},
		{"/post/bar?page=2", EntryKindInternal},
		{"https://example.com/essay/foo", EntryKindInternal},
		{"https://www.example.com/post/bar", EntryKindInternal},
		{"/about", EntryKindExternal},
		{"https://nyt.com/essay/foo", EntryKindExternal},
		{"essay/foo", EntryKindExternal},
	}

	for _, test := range tests {
		if got := extractor.Classify(test.href, site); got != test.expected {
			t.Errorf("Classify(%q): expected %s, got %s", test.href, test.expected, got)
		}
	}
}

func TestExtractor_External_NameAndYear(t *testing.T) {
	extractor, fetcher := newTestExtractor(nil)
	site := NewConfig("https://example.com/")

	entry := extractor.Run(context.Background(), RawLink{
		Href:    "https://nyt.com/x",
		Title:   "My Take",
		Context: "My Take (NYT, 2025)",
	}, site)

	if entry == nil {
		t.Fatal("Expected entry, got nil")
	}
	if entry.Kind != EntryKindExternal {
		t.Errorf("Expected external entry, got %s", entry.Kind)
	}
	if entry.ID != "https://nyt.com/x" || entry.Link != "https://nyt.com/x" {
		t.Errorf("Expected id and link 'https://nyt.com/x', got '%s' and '%s'", entry.ID, entry.Link)
	}
	if entry.Description != "Published in NYT" {
		t.Errorf("Expected description 'Published in NYT', got '%s'", entry.Description)
	}
	expectedDate := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !entry.PubDate.Equal(expectedDate) {
		t.Errorf("Expected pub date %v, got %v", expectedDate, entry.PubDate)
	}
	if len(fetcher.requests) != 0 {
		t.Errorf("Expected no fetches for external links, got %d", len(fetcher.requests))
	}
}

func TestExtractor_External_YearOnly(t *testing.T) {
	extractor, _ := newTestExtractor(nil)
	site := NewConfig("https://example.com/")

	entry := extractor.Run(context.Background(), RawLink{
		Href:    "https://example.org/talk",
		Title:   "A Talk",
		Context: "(2024)",
	}, site)

	if entry == nil {
		t.Fatal("Expected entry, got nil")
	}
	if entry.PubDate.Year() != 2024 {
		t.Errorf("Expected year 2024, got %d", entry.PubDate.Year())
	}
	if entry.Description != "(2024)" {
		t.Errorf("Expected description '(2024)', got '%s'", entry.Description)
	}
}

func TestExtractor_External_NoMention(t *testing.T) {
	extractor, _ := newTestExtractor(nil)
	site := NewConfig("https://example.com/")
	context200 := strings.Repeat("x", 250)

	entry := extractor.Run(context.Background(), RawLink{
		Href:    "https://example.org/thing",
		Title:   "Thing",
		Context: context200,
	}, site)

	if entry == nil {
		t.Fatal("Expected entry, got nil")
	}
	expectedDate := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !entry.PubDate.Equal(expectedDate) {
		t.Errorf("Expected pub date %v, got %v", expectedDate, entry.PubDate)
	}
	if len(entry.Description) != 200 {
		t.Errorf("Expected description of 200 characters, got %d", len(entry.Description))
	}
}

func TestExtractor_External_RootRelative(t *testing.T) {
	extractor, fetcher := newTestExtractor(nil)
	site := NewConfig("https://example.com/")

	entry := extractor.Run(context.Background(), RawLink{
		Href:    "/projects",
		Title:   "Projects",
		Context: "Projects",
	}, site)

	if entry == nil {
		t.Fatal("Expected entry, got nil")
	}
	if entry.ID != "/projects" {
		t.Errorf("Expected id '/projects', got '%s'", entry.ID)
	}
	if entry.Link != "https://example.com/projects" {
		t.Errorf("Expected link 'https://example.com/projects', got '%s'", entry.Link)
	}
	if len(fetcher.requests) != 0 {
		t.Errorf("Expected no fetches for external links, got %d", len(fetcher.requests))
	}
}

func TestExtractor_Internal(t *testing.T) {
	page := `<html>
<head>
  <title>Foo Essay | Jane Doe</title>
  <meta name="description" content="An essay about foo.">
</head>
<body>
  <h1 class="post-title">Foo Essay</h1>
  <p class="post-date">March 2023</p>
  <p>Some text about foo that is long enough to matter.</p>
</body>
</html>`
	extractor, fetcher := newTestExtractor(map[string]string{
		"https://example.com/essay/foo": page,
	})
	site := NewConfig("https://example.com/")

	entry := extractor.Run(context.Background(), RawLink{
		Href:    "/essay/foo#intro",
		Title:   "Foo",
		Context: "Foo",
	}, site)

	if entry == nil {
		t.Fatal("Expected entry, got nil")
	}
	if fetcher.requests[0] != "https://example.com/essay/foo" {
		t.Errorf("Expected fetch of 'https://example.com/essay/foo', got '%s'", fetcher.requests[0])
	}
	if entry.ID != "/essay/foo" {
		t.Errorf("Expected id '/essay/foo', got '%s'", entry.ID)
	}
	if entry.Link != "https://example.com/essay/foo" {
		t.Errorf("Expected link 'https://example.com/essay/foo', got '%s'", entry.Link)
	}
	if entry.Title != "Foo Essay" {
		t.Errorf("Expected title 'Foo Essay', got '%s'", entry.Title)
	}
	if entry.Description != "An essay about foo." {
		t.Errorf("Expected description 'An essay about foo.', got '%s'", entry.Description)
	}
	expectedDate := time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)
	if !entry.PubDate.Equal(expectedDate) {
		t.Errorf("Expected pub date %v, got %v", expectedDate, entry.PubDate)
	}
}

func TestExtractor_Internal_Fallbacks(t *testing.T) {
	page := `<html>
<head><title>Untitled</title></head>
<body>
  <h1>Bar</h1>
  <p>Short.</p>
  <p>This paragraph follows the heading and is long enough.</p>
</body>
</html>`
	extractor, _ := newTestExtractor(map[string]string{
		"https://example.com/post/bar": page,
	})
	site := NewConfig("https://example.com/")

	entry := extractor.Run(context.Background(), RawLink{Href: "/post/bar", Title: "Bar Link"}, site)

	if entry == nil {
		t.Fatal("Expected entry, got nil")
	}
	if entry.Title != "Bar Link" {
		t.Errorf("Expected link text title 'Bar Link', got '%s'", entry.Title)
	}
	if entry.Description != "This paragraph follows the heading and is long enough." {
		t.Errorf("Expected paragraph after heading, got '%s'", entry.Description)
	}
	if !entry.PubDate.Equal(fixedNow) {
		t.Errorf("Expected pub date to fall back to now (%v), got %v", fixedNow, entry.PubDate)
	}
}

func TestExtractor_Internal_TimeElement(t *testing.T) {
	page := `<html><body>
  <h1 class="post-title">Dated</h1>
  <time datetime="2024-02-10T08:00:00Z">February 10</time>
</body></html>`
	extractor, _ := newTestExtractor(map[string]string{
		"https://example.com/essay/dated": page,
	})
	site := NewConfig("https://example.com/")

	entry := extractor.Run(context.Background(), RawLink{Href: "https://example.com/essay/dated", Title: "Dated"}, site)

	if entry == nil {
		t.Fatal("Expected entry, got nil")
	}
	expectedDate := time.Date(2024, time.February, 10, 8, 0, 0, 0, time.UTC)
	if !entry.PubDate.Equal(expectedDate) {
		t.Errorf("Expected pub date %v, got %v", expectedDate, entry.PubDate)
	}
	if entry.ID != "/essay/dated" {
		t.Errorf("Expected id '/essay/dated', got '%s'", entry.ID)
	}
}

func TestExtractor_Internal_FetchFailure(t *testing.T) {
	extractor, _ := newTestExtractor(map[string]string{})
	site := NewConfig("https://example.com/")

	entry := extractor.Run(context.Background(), RawLink{Href: "/essay/missing", Title: "Missing"}, site)

	if entry != nil {
		t.Errorf("Expected nil entry for unreachable page, got %+v", entry)
	}
}

func TestParseMention(t *testing.T) {
	tests := []struct {
		text      string
		name      string
		year      int
		yearFound bool
	}{
		{"My Take (NYT, 2023)", "NYT", 2023, true},
		{"Interview (2021)", "", 2021, true},
		{"Piece (The Atlantic)", "The Atlantic", 0, false},
		{"Piece (The Atlantic) (2019)", "The Atlantic", 2019, true},
		{"No parentheses here", "", 0, false},
		{"Empty ()", "", 0, false},
	}

	for _, test := range tests {
		name, year, found := parseMention(test.text)
		if name != test.name || year != test.year || found != test.yearFound {
			t.Errorf("parseMention(%q): expected (%q, %d, %v), got (%q, %d, %v)",
				test.text, test.name, test.year, test.yearFound, name, year, found)
		}
	}
}
