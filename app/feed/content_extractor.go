package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-shiori/go-readability"
)

type Article struct {
	Title       string
	Excerpt     string
	PublishedAt *time.Time
}

type ContentExtractor struct{}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

func (e *ContentExtractor) Run(data []byte, pageURL *url.URL) (*Article, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("HTML data is empty")
	}

	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}

	if article.Excerpt == "" && article.TextContent == "" {
		return nil, fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Content extracted successfully",
		"title", article.Title,
		"excerpt_length", len(article.Excerpt))

	return &Article{
		Title:       article.Title,
		Excerpt:     collapseSpace(article.Excerpt),
		PublishedAt: article.PublishedTime,
	}, nil
}
