package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sparrowryan/sb-rate-parity/models"
)

// BrowserConfig controls headless Chrome flags.
type BrowserConfig struct {
	Headless   bool
	DisableGPU bool
	NoSandbox  bool
	DisableShm bool
	UserAgent  string
}

// TimingConfig controls all wait/sleep durations throughout the scraper.
type TimingConfig struct {
	// How long to wait after initial page navigation before interacting
	PageLoadWait time.Duration
	// Delay between each scroll step (keeps scroll synchronous)
	ScrollStepDelay time.Duration
	// Extra wait after reaching the bottom so lazy content can render
	ScrollBottomWait time.Duration
	// Wait after the date picker confirms before reading its inputs back
	PickerSettleWait time.Duration
	// Poll interval while waiting for a pagination advance
	PaginationPoll time.Duration
	// Give up waiting for a pagination advance after this long
	PaginationWait time.Duration
	// Pause before re-extracting a transiently empty page
	EmptyRenderWait time.Duration
	// Hard timeout for a single reference lookup
	ResolveTimeout time.Duration
}

// DiscoveryConfig controls the listing search crawl.
type DiscoveryConfig struct {
	// SearchURL is the booking site's listing search endpoint, without the
	// date filter query.
	SearchURL string
	// MaxListings caps the unique candidates collected across all pages.
	MaxListings int
	// MaxPages caps how many SPA pages are visited.
	MaxPages int
	// EmptyRenderRetries bounds re-extraction of a page that transiently
	// rendered zero cards.
	EmptyRenderRetries int
	// Pixels to advance per scroll step
	ScrollStep int
	// CaptureURLs enables the post-hoc click-through capture of listing URLs.
	CaptureURLs bool
}

// ReferenceConfig controls reference price lookups.
type ReferenceConfig struct {
	// SearchURL is the travel search engine's query endpoint.
	SearchURL string
	// ScrollPasses bounds the lazy-render scroll loop on a results page.
	ScrollPasses int
	// BodyScanWindow is how many characters after the property name the
	// lowest-confidence body-text strategy may scan for a price.
	BodyScanWindow int
	// MajorProviders is the allow-list of resale brands whose rates feed the
	// major-provider price. Matching is normalized-substring; expected to
	// need maintenance as the target site changes.
	MajorProviders []string
}

// DeliveryConfig controls the webhook pipeline.
type DeliveryConfig struct {
	WebhookURL     string
	BatchSize      int
	MaxRetries     int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	RequestTimeout time.Duration
	// DryRun skips the webhook and writes rows to CSVPath instead.
	DryRun  bool
	CSVPath string
}

// StealthConfig controls politeness behavior between automated requests.
type StealthConfig struct {
	// Min/max bound of the randomized delay before each reference lookup
	RandomDelayMin time.Duration
	RandomDelayMax time.Duration
	// Max requests per second across the browser session (0 = unlimited)
	MaxRequestsPerSecond float64
}

// RunConfig controls the comparison window and optional archival.
type RunConfig struct {
	// CheckInOffsetDays is how far ahead of the run date check-in falls.
	CheckInOffsetDays int
	// Nights is the trip length; check-out is check-in + Nights.
	Nights int
	// DatabaseDSN enables the Postgres row archive when non-empty.
	DatabaseDSN string
}

// Window derives the run's shared date window from the run date.
func (r RunConfig) Window(now time.Time) models.DateWindow {
	checkIn := now.AddDate(0, 0, r.CheckInOffsetDays)
	checkIn = time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	return models.DateWindow{
		CheckIn:  checkIn,
		CheckOut: checkIn.AddDate(0, 0, r.Nights),
	}
}

// Config is the root configuration passed into the run service.
type Config struct {
	Browser   BrowserConfig
	Timing    TimingConfig
	Discovery DiscoveryConfig
	Reference ReferenceConfig
	Delivery  DeliveryConfig
	Stealth   StealthConfig
	Run       RunConfig
}

// Default returns a conservative production-ready configuration.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:   true,
			DisableGPU: true,
			NoSandbox:  true,
			DisableShm: true,
			UserAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Timing: TimingConfig{
			PageLoadWait:     5 * time.Second,
			ScrollStepDelay:  400 * time.Millisecond,
			ScrollBottomWait: 4 * time.Second,
			PickerSettleWait: 2 * time.Second,
			PaginationPoll:   500 * time.Millisecond,
			PaginationWait:   12 * time.Second,
			EmptyRenderWait:  2 * time.Second,
			ResolveTimeout:   90 * time.Second,
		},
		Discovery: DiscoveryConfig{
			SearchURL:          "https://www.staybooked.example/search",
			MaxListings:        40,
			MaxPages:           8,
			EmptyRenderRetries: 2,
			ScrollStep:         400,
			CaptureURLs:        true,
		},
		Reference: ReferenceConfig{
			SearchURL:      "https://www.tripscan.example/hotels",
			ScrollPasses:   3,
			BodyScanWindow: 600,
			MajorProviders: []string{
				"Booking.com",
				"Expedia",
				"Hotels.com",
				"Agoda",
				"Priceline",
			},
		},
		Delivery: DeliveryConfig{
			BatchSize:      25,
			MaxRetries:     4,
			BaseDelay:      2 * time.Second,
			MaxDelay:       30 * time.Second,
			RequestTimeout: 15 * time.Second,
			CSVPath:        "comparisons.csv",
		},
		Stealth: StealthConfig{
			RandomDelayMin:       4 * time.Second,
			RandomDelayMax:       9 * time.Second,
			MaxRequestsPerSecond: 0.5,
		},
		Run: RunConfig{
			CheckInOffsetDays: 30,
			Nights:            3,
		},
	}
}

// Dev returns a faster config suited for local development.
func Dev() *Config {
	cfg := Default()
	cfg.Timing.PageLoadWait = 3 * time.Second
	cfg.Timing.ScrollBottomWait = 2 * time.Second
	cfg.Timing.PaginationWait = 6 * time.Second
	cfg.Discovery.MaxListings = 5
	cfg.Discovery.MaxPages = 2
	cfg.Stealth.RandomDelayMin = 1 * time.Second
	cfg.Stealth.RandomDelayMax = 2 * time.Second
	cfg.Delivery.DryRun = true
	return cfg
}

// FromEnv loads .env if present, then overlays environment variables onto
// Default(). A missing webhook URL outside dry-run is a hard error so the run
// aborts before any scraping starts.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	intVar(&cfg.Run.CheckInOffsetDays, "CHECKIN_OFFSET_DAYS")
	intVar(&cfg.Run.Nights, "TRIP_NIGHTS")
	intVar(&cfg.Discovery.MaxListings, "MAX_LISTINGS")
	intVar(&cfg.Discovery.MaxPages, "MAX_PAGES")
	intVar(&cfg.Delivery.BatchSize, "BATCH_SIZE")
	intVar(&cfg.Delivery.MaxRetries, "MAX_RETRIES")
	boolVar(&cfg.Delivery.DryRun, "DRY_RUN")
	strVar(&cfg.Delivery.WebhookURL, "SHEETS_WEBHOOK_URL")
	strVar(&cfg.Discovery.SearchURL, "LISTING_SEARCH_URL")
	strVar(&cfg.Reference.SearchURL, "REFERENCE_SEARCH_URL")
	strVar(&cfg.Run.DatabaseDSN, "PG_DSN")

	if cfg.Run.Nights < 1 {
		return nil, fmt.Errorf("config: TRIP_NIGHTS must be at least 1, got %d", cfg.Run.Nights)
	}
	if !cfg.Delivery.DryRun && cfg.Delivery.WebhookURL == "" {
		return nil, fmt.Errorf("config: SHEETS_WEBHOOK_URL is required unless DRY_RUN=true")
	}

	return cfg, nil
}

func strVar(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func intVar(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func boolVar(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
