package tasks

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/lysyi3m/homefeed/app/feed"
)

var _ feed.PageFetcher = (*HTTPFetcher)(nil)

const maxPageSize = 10 << 20

// HTTPFetcher downloads HTML pages. All fetches share one rate limiter, so
// homepage and detail page requests together stay under the configured rate.
type HTTPFetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	timeout    time.Duration
}

func NewHTTPFetcher(httpClient *http.Client, userAgent string, perSecond float64, timeout time.Duration) *HTTPFetcher {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}

	return &HTTPFetcher{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(perSecond), burst),
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil && mediaType != "text/html" && mediaType != "application/xhtml+xml" {
			return nil, fmt.Errorf("unexpected content type: %s", mediaType)
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
