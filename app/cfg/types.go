package cfg

type Cfg struct {
	// Storage
	DBPath string

	// Application configuration
	SiteConfig        string
	Port              string
	BaseUrl           string
	SchedulerInterval int
	APIAccessKey      string

	// Fetching
	FetchConcurrency int
	FetchRate        float64
	FetchTimeout     int

	// Feed cache
	RedisAddr    string
	FeedCacheTTL int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	LogFile   string
	Version   string
}
