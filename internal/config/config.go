package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen to match typical public-website characteristics
// while keeping unattended crawls bounded.
const (
	// DefaultTimeout is the page fetch timeout. 30 seconds covers slow
	// servers and rendered pages that load resources after the initial
	// response. Static fetches rarely need this long but share the knob.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxDepth bounds BFS depth. Ten levels reaches essentially all
	// human-navigable content; deeper links are almost always calendar
	// pages, facet combinations, or other generated URL spaces.
	DefaultMaxDepth = 10

	// DefaultMaxPages is the maximum number of pages to crawl per target.
	// This prevents runaway crawling on large or infinitely-generating
	// sites. Users can override this via the --max-pages CLI flag.
	DefaultMaxPages = 1000

	// DefaultMaxPagesPerDomain is the per-domain visit quota. It defaults
	// to the same value as DefaultMaxPages so single-domain targets are
	// bounded by the global quota alone.
	DefaultMaxPagesPerDomain = 1000

	// DefaultInactivityTimeout is how long the crawl may go without a
	// successfully parsed page before the watchdog terminates the run.
	// One minute distinguishes a stuck fetcher from a slow site.
	DefaultInactivityTimeout = 60 * time.Second

	// DefaultCrawlDelay is the delay between requests during crawling.
	// This is a politeness setting to avoid overwhelming target servers.
	// 1 second is conservative and respectful of server resources.
	// Can be adjusted via the --crawl-delay CLI flag.
	DefaultCrawlDelay = 1 * time.Second

	// DefaultBatchSize of 4 concurrent target crawls balances throughput
	// with resource usage. Each rendered crawl holds a browser instance,
	// so higher values get expensive quickly.
	DefaultBatchSize = 4

	// DefaultUserAgent identifies sitescan in HTTP requests.
	// Using a descriptive User-Agent is good practice and allows operators
	// to identify crawler traffic in their logs.
	DefaultUserAgent = "sitescan/1.0 (+https://github.com/nao1215/sitescan)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is sufficient for most HTML pages while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// AppName is the application name used for XDG directory paths.
	AppName = "sitescan"
)

// Artifact save formats.
const (
	// SaveFormatHTML saves cleaned pages as .html files.
	SaveFormatHTML = "html"

	// SaveFormatMarkdown saves cleaned pages converted to .md files.
	SaveFormatMarkdown = "markdown"
)

// Resume scan policies. They control how much of the saved artifact tree
// is scanned for unvisited links when resuming a crawl.
const (
	// ResumePolicyUntilFirst stops scanning a domain's artifacts at the
	// first resumable link found.
	ResumePolicyUntilFirst = "until-first"

	// ResumePolicyAll scans every saved artifact for resumable links.
	ResumePolicyAll = "all"
)

// Fetch modes.
const (
	// FetchModeStatic fetches pages with a plain HTTP client.
	FetchModeStatic = "static"

	// FetchModeBrowser fetches pages with a headless browser, executing
	// scripts before the DOM is captured. Required for login automation.
	FetchModeBrowser = "browser"
)

// Config holds all configuration options for sitescan.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// Per-target overrides live in the .sitescan file instead (see Target).
type Config struct {
	// Targets is the list of targets to crawl. Each entry is a target name
	// defined in the configuration file. The crawl command synthesizes
	// single-URL targets for positional URL arguments before validation.
	Targets []string

	// MaxDepth is the maximum BFS depth for web crawling.
	// Depth 0 means only fetch the seed pages.
	MaxDepth int

	// MaxPages is the maximum number of pages to crawl per target.
	// This prevents runaway crawling on large or infinitely-generating sites.
	MaxPages int

	// MaxPagesPerDomain caps visits per domain within a target.
	// Once a domain reaches its quota it is closed for the rest of the run.
	// Zero means no per-domain limit.
	MaxPagesPerDomain int

	// Timeout is the fetch timeout for each page navigation.
	// This applies to individual fetches, not the overall crawl duration.
	Timeout time.Duration

	// InactivityTimeout is the watchdog window: if no page parses
	// successfully within it, the run terminates as timed out.
	InactivityTimeout time.Duration

	// CrawlDelay is the delay between HTTP requests during crawling.
	// This is a "politeness" setting to avoid overwhelming target servers.
	CrawlDelay time.Duration

	// BatchSize is the number of concurrent crawls when processing
	// multiple targets. Each target still crawls single-threaded.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .sitescan in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// TargetConfigs holds per-target configurations loaded from the
	// config file. This is populated by LoadConfigFile.
	TargetConfigs *File

	// OutputDir is the root directory for crawl artifacts. Each target
	// writes under its own subdirectory. Defaults to the XDG data
	// directory (~/.local/share/sitescan/sites on Linux).
	OutputDir string

	// SaveFormat selects the artifact format: SaveFormatHTML or
	// SaveFormatMarkdown. Saved artifacts feed resume scanning, so the
	// format also determines how resume extracts links.
	SaveFormat string

	// FetchMode selects the fetcher: FetchModeStatic or FetchModeBrowser.
	FetchMode string

	// Resume restores crawl state from the target's previous snapshot and
	// saved artifacts before seeding. A missing or corrupt snapshot falls
	// back to a cold start.
	Resume bool

	// ResumePolicy controls artifact scanning on resume:
	// ResumePolicyUntilFirst or ResumePolicyAll.
	ResumePolicy string

	// Screenshots enables a best-effort screenshot of the first
	// successfully fetched page of each target.
	Screenshots bool

	// RespectRobots enables robots.txt checks before fetching.
	// Unreachable robots.txt is treated as allow-all.
	RespectRobots bool

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format used
	// by the static fetcher. Empty means direct connections.
	ProxyAddress string

	// UserAgent is the User-Agent header sent with HTTP requests.
	// A descriptive User-Agent helps site operators identify crawler traffic.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated to prevent memory exhaustion.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. When true, outputs GitHub Flavored Markdown
	// with tables, alerts, and pie charts.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// DBDir is the directory path for storing the SQLite database.
	// When set, crawl results are saved to the database for historical
	// comparison. Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether to save crawl results to the database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, quotas).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxDepth:          DefaultMaxDepth,
		MaxPages:          DefaultMaxPages,
		MaxPagesPerDomain: DefaultMaxPagesPerDomain,
		Timeout:           DefaultTimeout,
		InactivityTimeout: DefaultInactivityTimeout,
		CrawlDelay:        DefaultCrawlDelay,
		BatchSize:         DefaultBatchSize,
		OutputDir:         DefaultOutputDir(),
		SaveFormat:        SaveFormatHTML,
		FetchMode:         FetchModeStatic,
		Resume:            true,
		ResumePolicy:      ResumePolicyUntilFirst,
		Screenshots:       true,
		RespectRobots:     true,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
	}
}

// DefaultOutputDir returns the default root directory for crawl artifacts.
// On Linux: ~/.local/share/sitescan/sites
func DefaultOutputDir() string {
	return filepath.Join(xdg.DataHome, AppName, "sites")
}

// XDGDataDir returns the XDG data directory for sitescan.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/sitescan
// On macOS: ~/Library/Application Support/sitescan
// On Windows: %LOCALAPPDATA%\sitescan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitescan.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/sitescan
// On macOS: ~/Library/Application Support/sitescan
// On Windows: %APPDATA%\sitescan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for sitescan.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.cache/sitescan
// On macOS: ~/Library/Caches/sitescan
// On Windows: %LOCALAPPDATA%\sitescan\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any crawling begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// We must have at least one target to crawl
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// The watchdog window must be positive or every run would time out
	if c.InactivityTimeout <= 0 {
		return ErrInvalidInactivityTimeout
	}

	// Depth may be zero (seeds only) but never negative
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	// MaxPages must be positive; zero would mean no crawling
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}

	// Per-domain quota may be zero (unlimited) but never negative
	if c.MaxPagesPerDomain < 0 {
		return ErrInvalidDomainQuota
	}

	// BatchSize must be positive; zero would mean no crawling
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// CrawlDelay must be non-negative
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	// MaxBodySize must be non-negative; zero uses the default
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.SaveFormat != SaveFormatHTML && c.SaveFormat != SaveFormatMarkdown {
		return ErrInvalidSaveFormat
	}

	if c.ResumePolicy != ResumePolicyUntilFirst && c.ResumePolicy != ResumePolicyAll {
		return ErrInvalidResumePolicy
	}

	if c.FetchMode != FetchModeStatic && c.FetchMode != FetchModeBrowser {
		return ErrInvalidFetchMode
	}

	return nil
}
