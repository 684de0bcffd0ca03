package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

const (
	DefaultKnownEntriesLimit = 1000
	DefaultFeedItemsLimit    = 100
	DefaultTitleClass        = "post-title"
	DefaultDateClass         = "post-date"
)

var DefaultInternalPrefixes = []string{"/post/", "/essay/"}

// Social, profile and publisher-index hosts that never point at content.
var DefaultDenyHosts = []string{
	"twitter.com",
	"x.com",
	"facebook.com",
	"instagram.com",
	"linkedin.com",
	"github.com",
	"youtube.com",
	"mastodon.social",
	"bsky.app",
	"threads.net",
	"medium.com",
	"substack.com",
	"goodreads.com",
	"amazon.com",
	"wikipedia.org",
}

var ErrConfigNotLoaded = errors.New("site configuration not loaded")

type ConfigCache struct {
	path   string
	config *Config
	mu     sync.RWMutex
}

func NewConfigCache(path string) *ConfigCache {
	return &ConfigCache{path: path}
}

// NewConfig returns a configuration for homepage with every default applied.
func NewConfig(homepage string) *Config {
	config := &Config{Homepage: homepage}
	setDefaults(config)
	return config
}

func (cc *ConfigCache) Run() error {
	config, err := cc.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading %s: %w", cc.path, err)
	}

	slog.Debug("Configuration loaded",
		"homepage", config.Homepage,
		"owner_names", len(config.OwnerNames),
		"deny_hosts", len(config.DenyHosts),
		"internal_prefixes", config.InternalPrefixes)

	return nil
}

func (cc *ConfigCache) LoadConfig() (*Config, error) {
	config, err := cc.parseConfig(cc.path)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cc.path, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.config = config

	return config, nil
}

func (cc *ConfigCache) GetConfig() (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	if cc.config == nil {
		return nil, ErrConfigNotLoaded
	}
	return cc.config, nil
}

// Watch reloads the configuration whenever the file changes until ctx is
// cancelled. A broken edit keeps the previous configuration in place.
func (cc *ConfigCache) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// Editors often replace the file, so watch the directory.
	dir := filepath.Dir(cc.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(cc.path)

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if _, err := cc.LoadConfig(); err != nil {
					slog.Warn("Configuration reload failed, keeping previous", "path", cc.path, "error", err)
					continue
				}
				slog.Info("Configuration reloaded", "path", cc.path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("Configuration watcher error", "path", cc.path, "error", err)
			}
		}
	}()

	return nil
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	setDefaults(&config)

	return &config, nil
}

// HomepageURL parses the configured homepage.
func (c *Config) HomepageURL() (*url.URL, error) {
	u, err := url.Parse(c.Homepage)
	if err != nil {
		return nil, fmt.Errorf("invalid homepage URL: %w", err)
	}
	return u, nil
}

func setDefaults(config *Config) {
	if len(config.InternalPrefixes) == 0 {
		config.InternalPrefixes = append([]string(nil), DefaultInternalPrefixes...)
	}
	if config.DenyHosts == nil {
		config.DenyHosts = append([]string(nil), DefaultDenyHosts...)
	}
	if config.Markers.TitleClass == "" {
		config.Markers.TitleClass = DefaultTitleClass
	}
	if config.Markers.DateClass == "" {
		config.Markers.DateClass = DefaultDateClass
	}
	if config.Limits.KnownEntries == 0 {
		config.Limits.KnownEntries = DefaultKnownEntriesLimit
	}
	if config.Limits.FeedItems == 0 {
		config.Limits.FeedItems = DefaultFeedItemsLimit
	}
	if config.Feed.Title == "" {
		if u, err := url.Parse(config.Homepage); err == nil && u.Host != "" {
			config.Feed.Title = u.Host
		}
	}
	if config.Feed.Description == "" {
		config.Feed.Description = fmt.Sprintf("Latest writing and mentions from %s", config.Homepage)
	}
}

func validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	if config.Homepage == "" {
		return fmt.Errorf("homepage is required")
	}

	u, err := config.HomepageURL()
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("homepage must be an absolute http(s) URL: %s", config.Homepage)
	}

	positiveFields := map[string]int{
		"known entries limit": config.Limits.KnownEntries,
		"feed items limit":    config.Limits.FeedItems,
	}

	for fieldName, fieldValue := range positiveFields {
		if fieldValue <= 0 {
			return fmt.Errorf("%s must be positive", fieldName)
		}
	}

	// Every retained feed item has to stay known.
	if config.Limits.FeedItems > config.Limits.KnownEntries {
		return fmt.Errorf("feed items limit (%d) must not exceed known entries limit (%d)",
			config.Limits.FeedItems, config.Limits.KnownEntries)
	}

	for i, prefix := range config.InternalPrefixes {
		if !strings.HasPrefix(prefix, "/") {
			return fmt.Errorf("internal prefix at index %d must be root-relative: %s", i, prefix)
		}
	}

	for i, filter := range config.Filters {
		if !validFilterFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}
