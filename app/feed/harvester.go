package feed

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
)

type Harvester struct{}

func NewHarvester() *Harvester {
	return &Harvester{}
}

// Run enumerates the homepage anchors in document order, drops navigation
// and social noise and keeps the first occurrence of every href.
func (h *Harvester) Run(data []byte, site *Config) ([]RawLink, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse homepage: %w", err)
	}

	home, err := site.HomepageURL()
	if err != nil {
		return nil, err
	}

	folder := cases.Fold()
	owners := make(map[string]bool, len(site.OwnerNames))
	for _, name := range site.OwnerNames {
		owners[fold(folder, name)] = true
	}

	seen := make(map[string]bool)
	links := make([]RawLink, 0)

	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		title := collapseSpace(a.Text())
		if href == "" || title == "" {
			return
		}

		if h.isNavigation(href, home, site) || owners[fold(folder, title)] {
			return
		}

		if seen[href] {
			return
		}
		seen[href] = true

		links = append(links, RawLink{
			Href:    href,
			Title:   title,
			Context: collapseSpace(a.Parent().Text()),
		})
	})

	return links, nil
}

func (h *Harvester) isNavigation(href string, home *url.URL, site *Config) bool {
	if strings.HasPrefix(href, "#") {
		return true
	}

	ref, err := url.Parse(href)
	if err != nil {
		return true
	}
	resolved := home.ResolveReference(ref)

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return true
	}

	if isHomepage(resolved, home) {
		return true
	}

	return hostDenied(resolved.Hostname(), site.DenyHosts)
}

func fold(folder cases.Caser, s string) string {
	return folder.String(strings.TrimSpace(s))
}

func isHomepage(u, home *url.URL) bool {
	if normalizeHost(u.Hostname()) != normalizeHost(home.Hostname()) {
		return false
	}
	// Query strings on the homepage are pagination or tracking, not content.
	return strings.TrimSuffix(u.Path, "/") == strings.TrimSuffix(home.Path, "/")
}

func hostDenied(host string, denyHosts []string) bool {
	host = normalizeHost(host)
	if host == "" {
		return false
	}
	for _, denied := range denyHosts {
		denied = normalizeHost(denied)
		if denied == "" {
			continue
		}
		if host == denied || strings.HasSuffix(host, "."+denied) {
			return true
		}
	}
	return false
}

func normalizeHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(host)), "www.")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
