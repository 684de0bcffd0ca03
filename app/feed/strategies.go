package feed

import (
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxDescriptionLength = 500
	minParagraphLength   = 20
)

// page is a fetched detail page shared by the strategies of one extraction.
type page struct {
	doc      *goquery.Document
	raw      []byte
	url      *url.URL
	content  *ContentExtractor
	article  *Article
	resolved bool
}

// readable runs readability at most once per page.
func (p *page) readable() *Article {
	if p.resolved {
		return p.article
	}
	p.resolved = true
	if p.content == nil {
		return nil
	}
	article, err := p.content.Run(p.raw, p.url)
	if err != nil {
		return nil
	}
	p.article = article
	return article
}

type textStrategy func(p *page) (string, bool)

type dateStrategy func(p *page) (time.Time, bool)

func firstText(p *page, strategies ...textStrategy) (string, bool) {
	for _, strategy := range strategies {
		if value, ok := strategy(p); ok {
			return value, true
		}
	}
	return "", false
}

func firstDate(p *page, strategies ...dateStrategy) (time.Time, bool) {
	for _, strategy := range strategies {
		if value, ok := strategy(p); ok {
			return value, true
		}
	}
	return time.Time{}, false
}

// Title strategies

func markedHeading(class string) textStrategy {
	return func(p *page) (string, bool) {
		selector := "h1." + class + ", h2." + class + ", h3." + class
		return nonEmpty(collapseSpace(p.doc.Find(selector).First().Text()))
	}
}

// Date strategies

func markedDate(class string) dateStrategy {
	return func(p *page) (time.Time, bool) {
		marker := p.doc.Find("." + class).First()
		if marker.Length() == 0 {
			return time.Time{}, false
		}
		if t, ok := ParseDateText(marker.AttrOr("datetime", "")); ok {
			return t, true
		}
		return ParseDateText(collapseSpace(marker.Text()))
	}
}

func timeAttribute(p *page) (time.Time, bool) {
	return ParseDateText(p.doc.Find("time[datetime]").First().AttrOr("datetime", ""))
}

func timeText(p *page) (time.Time, bool) {
	return ParseDateText(collapseSpace(p.doc.Find("time").First().Text()))
}

func metaPublished(p *page) (time.Time, bool) {
	selector := `meta[property="article:published_time"], meta[name="article:published_time"], meta[itemprop="datePublished"]`
	return ParseDateText(p.doc.Find(selector).First().AttrOr("content", ""))
}

func readablePublished(p *page) (time.Time, bool) {
	article := p.readable()
	if article == nil || article.PublishedAt == nil {
		return time.Time{}, false
	}
	return article.PublishedAt.UTC(), true
}

func pageMonthYear(p *page) (time.Time, bool) {
	return FindMonthYear(collapseSpace(p.doc.Find("body").Text()))
}

// Description strategies

func metaDescription(p *page) (string, bool) {
	selector := `meta[name="description"], meta[property="og:description"]`
	var description string
	p.doc.Find(selector).EachWithBreak(func(_ int, meta *goquery.Selection) bool {
		description = collapseSpace(meta.AttrOr("content", ""))
		return description == ""
	})
	return nonEmpty(truncate(description, maxDescriptionLength))
}

// paragraphAfterHeading returns the first paragraph longer than
// minParagraphLength that follows the first heading of the page.
func paragraphAfterHeading(p *page) (string, bool) {
	var description string
	passedHeading := false

	p.doc.Find("h1, h2, h3, h4, h5, h6, p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !s.Is("p") {
			passedHeading = true
			return true
		}
		if !passedHeading {
			return true
		}
		text := collapseSpace(s.Text())
		if utf8.RuneCountInString(text) > minParagraphLength {
			description = text
			return false
		}
		return true
	})

	return nonEmpty(truncate(description, maxDescriptionLength))
}

func firstParagraph(p *page) (string, bool) {
	var description string
	p.doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		description = collapseSpace(s.Text())
		return description == ""
	})
	return nonEmpty(truncate(description, maxDescriptionLength))
}

func readableExcerpt(p *page) (string, bool) {
	article := p.readable()
	if article == nil {
		return "", false
	}
	return nonEmpty(truncate(article.Excerpt, maxDescriptionLength))
}

func nonEmpty(s string) (string, bool) {
	return s, s != ""
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
