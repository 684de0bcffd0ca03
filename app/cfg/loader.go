package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/homefeed.db" description:"SQLite database file"`

	// Application configuration
	SiteConfig        string `long:"site-config" env:"SITE_CONFIG" default:"./site.yml" description:"YAML file describing the monitored homepage"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://feeds.example.com)"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"900" description:"Scrape interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Fetching
	FetchConcurrency int     `long:"fetch-concurrency" env:"FETCH_CONCURRENCY" default:"4" description:"Maximum number of detail pages fetched in parallel"`
	FetchRate        float64 `long:"fetch-rate" env:"FETCH_RATE" default:"2" description:"Maximum page fetches per second"`
	FetchTimeout     int     `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Per-page fetch timeout in seconds"`

	// Feed cache
	RedisAddr    string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for caching the rendered feed (optional)"`
	FeedCacheTTL int    `long:"feed-cache-ttl" env:"FEED_CACHE_TTL" default:"900" description:"Rendered feed cache TTL in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"homefeed/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
	LogFile   string `long:"log-file" env:"LOG_FILE" description:"Also write logs to this file (rotated)"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs parses the given arguments instead of os.Args when args is non-nil.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		SiteConfig:        raw.SiteConfig,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		FetchConcurrency:  raw.FetchConcurrency,
		FetchRate:         raw.FetchRate,
		FetchTimeout:      raw.FetchTimeout,
		RedisAddr:         raw.RedisAddr,
		FeedCacheTTL:      raw.FeedCacheTTL,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		LogFile:           raw.LogFile,
		Version:           GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// SelfURL is the public address of the feed document.
func (c *Cfg) SelfURL() string {
	if c.BaseUrl != "" {
		return c.BaseUrl + "/feed.xml"
	}
	return fmt.Sprintf("http://localhost:%s/feed.xml", c.Port)
}

func (c *Cfg) validate() error {
	nonPositive := map[string]int{
		"scheduler interval": c.SchedulerInterval,
		"fetch concurrency":  c.FetchConcurrency,
		"fetch timeout":      c.FetchTimeout,
		"feed cache TTL":     c.FeedCacheTTL,
	}
	for name, value := range nonPositive {
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, value)
		}
	}
	if c.FetchRate <= 0 {
		return fmt.Errorf("fetch rate must be positive, got %v", c.FetchRate)
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
