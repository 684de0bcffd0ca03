package feed

import (
	"bytes"
	"cmp"
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const maxContextDescriptionLength = 200

var (
	parenGroupPattern = regexp.MustCompile(`\(([^()]*)\)`)
	yearOnlyPattern   = regexp.MustCompile(`^(\d{4})$`)
	nameYearPattern   = regexp.MustCompile(`^(.+?),\s*(\d{4})$`)
)

type Extractor struct {
	fetcher          PageFetcher
	contentExtractor *ContentExtractor
	now              func() time.Time
}

func NewExtractor(fetcher PageFetcher, contentExtractor *ContentExtractor) *Extractor {
	return &Extractor{
		fetcher:          fetcher,
		contentExtractor: contentExtractor,
		now:              time.Now,
	}
}

// Classify reports whether href points at long-form content on the
// monitored site.
func (e *Extractor) Classify(href string, site *Config) EntryKind {
	path := href
	if u, err := url.Parse(href); err == nil && u.Host != "" {
		home, err := site.HomepageURL()
		if err != nil || normalizeHost(u.Hostname()) != normalizeHost(home.Hostname()) {
			return EntryKindExternal
		}
		path = u.Path
	}

	for _, prefix := range site.InternalPrefixes {
		if strings.HasPrefix(path, prefix) {
			return EntryKindInternal
		}
	}
	return EntryKindExternal
}

// Run turns a harvested link into an entry. It returns nil when the entry
// has to be dropped, which only happens for internal links whose page
// cannot be fetched or parsed.
func (e *Extractor) Run(ctx context.Context, link RawLink, site *Config) *Entry {
	if e.Classify(link.Href, site) == EntryKindInternal {
		return e.extractInternal(ctx, link, site)
	}
	return e.extractExternal(link, site)
}

func (e *Extractor) extractInternal(ctx context.Context, link RawLink, site *Config) *Entry {
	home, err := site.HomepageURL()
	if err != nil {
		slog.Warn("Dropping internal link", "href", link.Href, "error", err)
		return nil
	}

	ref, err := url.Parse(link.Href)
	if err != nil {
		slog.Warn("Dropping internal link", "href", link.Href, "error", err)
		return nil
	}
	pageURL := home.ResolveReference(ref)
	pageURL.Fragment = ""

	data, err := e.fetcher.Fetch(ctx, pageURL.String())
	if err != nil {
		slog.Warn("Failed to fetch detail page, dropping entry", "url", pageURL.String(), "error", err)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		slog.Warn("Failed to parse detail page, dropping entry", "url", pageURL.String(), "error", err)
		return nil
	}

	p := &page{doc: doc, raw: data, url: pageURL, content: e.contentExtractor}

	title, _ := firstText(p, markedHeading(site.Markers.TitleClass))

	pubDate, ok := firstDate(p,
		markedDate(site.Markers.DateClass),
		timeAttribute,
		timeText,
		metaPublished,
		readablePublished,
		pageMonthYear,
	)
	if !ok {
		pubDate = e.now().UTC()
		slog.Debug("No date found on detail page, using current time", "url", pageURL.String())
	}

	description, _ := firstText(p,
		metaDescription,
		paragraphAfterHeading,
		firstParagraph,
		readableExcerpt,
	)

	return &Entry{
		ID:          rootRelative(pageURL),
		Kind:        EntryKindInternal,
		Title:       cmp.Or(title, link.Title),
		Link:        pageURL.String(),
		Description: description,
		PubDate:     pubDate,
	}
}

func (e *Extractor) extractExternal(link RawLink, site *Config) *Entry {
	name, year, found := parseMention(link.Context)
	if !found {
		year = e.now().Year()
	}

	description := truncate(link.Context, maxContextDescriptionLength)
	if name != "" {
		description = "Published in " + name
	}

	return &Entry{
		ID:          link.Href,
		Kind:        EntryKindExternal,
		Title:       link.Title,
		Link:        absoluteLink(link.Href, site),
		Description: description,
		PubDate:     time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// parseMention reads "(<name>, YYYY)", "(YYYY)" and "(<name>)" groups from
// the text around an external link. The first group carrying each part wins.
func parseMention(text string) (name string, year int, yearFound bool) {
	for _, group := range parenGroupPattern.FindAllStringSubmatch(text, -1) {
		inner := strings.TrimSpace(group[1])
		if inner == "" {
			continue
		}

		if m := yearOnlyPattern.FindStringSubmatch(inner); m != nil {
			if !yearFound {
				year, _ = strconv.Atoi(m[1])
				yearFound = true
			}
			continue
		}

		if m := nameYearPattern.FindStringSubmatch(inner); m != nil {
			if name == "" {
				name = strings.TrimSpace(m[1])
			}
			if !yearFound {
				year, _ = strconv.Atoi(m[2])
				yearFound = true
			}
			continue
		}

		if name == "" {
			name = inner
		}
	}
	return name, year, yearFound
}

// absoluteLink resolves hrefs without a host against the homepage. Absolute
// hrefs are returned unchanged.
func absoluteLink(href string, site *Config) string {
	ref, err := url.Parse(href)
	if err != nil || ref.Host != "" {
		return href
	}
	home, err := site.HomepageURL()
	if err != nil {
		return href
	}
	return home.ResolveReference(ref).String()
}

func rootRelative(u *url.URL) string {
	path := cmp.Or(u.EscapedPath(), "/")
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path
}
