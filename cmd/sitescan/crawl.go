package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/sitescan/internal/config"
	"github.com/nao1215/sitescan/internal/crawler"
	"github.com/nao1215/sitescan/internal/database"
	"github.com/nao1215/sitescan/internal/fetch"
	"github.com/nao1215/sitescan/internal/frontier"
	"github.com/nao1215/sitescan/internal/log"
	"github.com/nao1215/sitescan/internal/model"
	"github.com/nao1215/sitescan/internal/report"
	"github.com/nao1215/sitescan/internal/storage"
	"github.com/nao1215/sitescan/internal/urlutil"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url|target]...",
		Short: "Crawl websites and save prioritized page content",
		Long: `Crawl fetches pages breadth-first from one or more seed URLs, cleans
each page down to its meaningful content, and scores interactive
elements by priority.

Every crawled page is saved as an HTML or Markdown artifact under the
output directory, and each run is recorded in the history database for
later comparison. Interrupted crawls resume from their last snapshot.

Positional arguments are URLs or target names defined in the
configuration file.

Examples:
  # Crawl a single site
  sitescan crawl https://example.com

  # Crawl multiple sites concurrently
  sitescan crawl https://example.com https://example.org

  # Crawl a named target from the configuration file
  sitescan crawl docs

  # Save pages as Markdown instead of HTML
  sitescan crawl --format markdown https://example.com

  # Render pages in a headless browser (required for login automation)
  sitescan crawl --fetch-mode browser intranet

  # Output JSON report
  sitescan crawl --json https://example.com

Configuration file (.sitescan) example:
  targets:
    docs:
      seeds:
        - https://docs.example.com/
      allowedDomains:
        - docs.example.com
      depth: 3
    intranet:
      seeds:
        - https://intranet.example.com/
      cookie: "session_id=abc123"`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum crawl depth (0 crawls only the seed pages)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl per target")
	cmd.Flags().Int("max-pages-per-domain", config.DefaultMaxPagesPerDomain,
		"Maximum pages per domain within a target (0 = unlimited)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Fetch timeout for each page")
	cmd.Flags().DurationP("inactivity-timeout", "T", config.DefaultInactivityTimeout,
		"Terminate a run when no page parses within this window")
	cmd.Flags().Duration("crawl-delay", config.DefaultCrawlDelay,
		"Minimum delay between requests to the same host")

	// Fetching flags
	cmd.Flags().String("fetch-mode", config.FetchModeStatic,
		"Page fetcher: static (plain HTTP) or browser (headless rendering)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address for static fetches (e.g., 127.0.0.1:1080)")
	cmd.Flags().Bool("respect-robots", true,
		"Honor robots.txt disallow rules")
	cmd.Flags().Bool("screenshots", true,
		"Capture a screenshot of the first page (browser mode only)")

	// Artifact flags
	cmd.Flags().String("output-dir", config.DefaultOutputDir(),
		"Root directory for crawl artifacts")
	cmd.Flags().StringP("format", "f", config.SaveFormatHTML,
		"Artifact format: html or markdown")

	// Resume flags
	cmd.Flags().BoolP("resume", "r", true,
		"Resume from the previous snapshot when one exists")
	cmd.Flags().String("resume-policy", config.ResumePolicyUntilFirst,
		"Artifact scanning on resume: until-first or all")

	// Batch crawling flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent crawls")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitescan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	verbose := getVerboseFlag(cmd)
	cfg.Verbose = verbose
	logger := setupLogger(verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.MaxDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.MaxPagesPerDomain, err = cmd.Flags().GetInt("max-pages-per-domain")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.InactivityTimeout, err = cmd.Flags().GetDuration("inactivity-timeout")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("crawl-delay")
	if err != nil {
		return nil, err
	}

	cfg.FetchMode, err = cmd.Flags().GetString("fetch-mode")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.ProxyAddress, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.RespectRobots, err = cmd.Flags().GetBool("respect-robots")
	if err != nil {
		return nil, err
	}

	cfg.Screenshots, err = cmd.Flags().GetBool("screenshots")
	if err != nil {
		return nil, err
	}

	cfg.OutputDir, err = cmd.Flags().GetString("output-dir")
	if err != nil {
		return nil, err
	}

	cfg.SaveFormat, err = cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}

	cfg.Resume, err = cmd.Flags().GetBool("resume")
	if err != nil {
		return nil, err
	}

	cfg.ResumePolicy, err = cmd.Flags().GetString("resume-policy")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load per-target configurations from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.TargetConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
		cfg.TargetConfigs = &config.File{
			Targets: make(map[string]config.TargetConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// Always save to database using XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	// Get positional arguments (URLs or target names)
	cfg.Targets = args

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// The secure handler masks credentials and cookies from target configs
// before they reach the log output.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// ensureScheme defaults scheme-less arguments to https so plain host
// arguments like "example.com" work.
func ensureScheme(raw string) string {
	if strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + raw
}

// synthesizeTargets converts raw URL arguments into single-URL target
// definitions so the rest of the pipeline only deals with named targets.
// Arguments matching a name in the configuration file are kept as-is;
// anything else must parse as a crawlable URL. URLs sharing a host merge
// into one target so each host is crawled once.
func synthesizeTargets(cfg *config.Config) error {
	names := make([]string, 0, len(cfg.Targets))
	seen := make(map[string]bool)
	synthesized := make(map[string]bool)

	for _, arg := range cfg.Targets {
		if _, ok := cfg.TargetConfigs.Targets[arg]; ok && !synthesized[arg] {
			if !seen[arg] {
				names = append(names, arg)
				seen[arg] = true
			}
			continue
		}

		seed, err := urlutil.Normalize(ensureScheme(arg))
		if err != nil {
			return fmt.Errorf("invalid target %q: not a config target name or a crawlable URL: %w", arg, err)
		}

		name := urlutil.Host(seed)
		if synthesized[name] {
			tc := cfg.TargetConfigs.Targets[name]
			tc.Seeds = append(tc.Seeds, seed)
			cfg.TargetConfigs.Targets[name] = tc
			continue
		}
		if _, ok := cfg.TargetConfigs.Targets[name]; ok {
			// The URL's host matches a configured target name; the
			// configured target's own seeds and settings win.
			if !seen[name] {
				names = append(names, name)
				seen[name] = true
			}
			continue
		}

		cfg.TargetConfigs.Targets[name] = config.TargetConfig{Seeds: []string{seed}}
		synthesized[name] = true
		seen[name] = true
		names = append(names, name)
	}

	cfg.Targets = names
	return nil
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if len(cfg.Targets) == 0 {
		return config.ErrNoTarget
	}

	// Convert raw URL arguments into target definitions
	if err := synthesizeTargets(cfg); err != nil {
		return err
	}

	logger.Info("starting crawl",
		"targets", cfg.Targets,
		"fetchMode", cfg.FetchMode,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.CrawlDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	// Use batch processor for parallel crawling if multiple targets
	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		return runBatchCrawl(ctx, cfg, db, logger)
	}

	// Single target or sequential crawling
	return runSequentialCrawl(ctx, cfg, db, logger)
}

// runSequentialCrawl crawls targets one at a time.
func runSequentialCrawl(ctx context.Context, cfg *config.Config, db *database.CrawlDB, logger *slog.Logger) error {
	for _, name := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		c, fetcher, err := buildCrawler(cfg, name, logger)
		if err != nil {
			return err
		}

		fmt.Printf("Crawling %s...\n", name)
		startTime := time.Now()

		crawlReport := c.Run(ctx)
		closeFetcher(fetcher)

		elapsed := time.Since(startTime)
		if crawlReport.State.Success() {
			fmt.Printf("Crawl completed in %s (%d pages)\n\n",
				elapsed.Round(time.Millisecond), crawlReport.PagesVisited)
		} else {
			fmt.Fprintf(os.Stderr, "Crawl of %s ended %s: %s\n\n",
				name, crawlReport.State, crawlReport.ErrorMessage)
		}

		// Generate and output report
		if err := outputReport(cfg, crawlReport); err != nil {
			logger.Error("report failed", "target", name, "error", err)
		}

		// Save to database if enabled
		if err := saveCrawlReport(ctx, db, crawlReport, logger); err != nil {
			logger.Error("failed to save crawl report", "target", name, "error", err)
		}
	}

	return nil
}

// runBatchCrawl crawls multiple targets concurrently using BatchProcessor.
func runBatchCrawl(ctx context.Context, cfg *config.Config, db *database.CrawlDB, logger *slog.Logger) error {
	fmt.Printf("Starting batch crawl of %d targets (concurrency: %d)...\n\n",
		len(cfg.Targets), cfg.BatchSize)

	startTime := time.Now()

	// Fetchers stay open until every run completes; the factory records
	// them so they can be released afterwards.
	var mu sync.Mutex
	var fetchers []fetch.Fetcher

	bp := crawler.NewBatchProcessor(
		func(name string) (*crawler.Crawler, error) {
			c, fetcher, err := buildCrawler(cfg, name, logger)
			if err != nil {
				return nil, err
			}
			mu.Lock()
			fetchers = append(fetchers, fetcher)
			mu.Unlock()
			return c, nil
		},
		crawler.WithConcurrency(cfg.BatchSize),
		crawler.WithBatchLogger(logger),
	)

	reports, err := bp.ProcessBatch(ctx, cfg.Targets)

	mu.Lock()
	for _, fetcher := range fetchers {
		closeFetcher(fetcher)
	}
	mu.Unlock()

	for i, crawlReport := range reports {
		// Cancelled slots never produced a report
		if crawlReport == nil {
			continue
		}

		fmt.Printf("[%d/%d] %s: %s (%d pages)\n",
			i+1, len(reports), crawlReport.Target, crawlReport.State, crawlReport.PagesVisited)

		// Generate and output report
		if reportErr := outputReport(cfg, crawlReport); reportErr != nil {
			logger.Error("report failed", "target", crawlReport.Target, "error", reportErr)
		}

		// Save to database if enabled
		if saveErr := saveCrawlReport(ctx, db, crawlReport, logger); saveErr != nil {
			logger.Error("failed to save crawl report", "target", crawlReport.Target, "error", saveErr)
		}
	}

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch crawl completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// buildCrawler assembles the crawler for one resolved target: its
// fetcher, artifact store, and options derived from the global config.
// The fetcher is returned alongside so the caller can close it after
// the run.
func buildCrawler(cfg *config.Config, name string, logger *slog.Logger) (*crawler.Crawler, fetch.Fetcher, error) {
	target, err := cfg.ResolveTarget(name)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve target %q: %w", name, err)
	}

	fetcher, err := fetch.New(cfg.FetchMode, fetch.Options{
		UserAgent:    cfg.UserAgent,
		Headers:      target.Headers,
		Cookie:       target.Cookie,
		Timeout:      cfg.Timeout,
		MaxBodySize:  cfg.MaxBodySize,
		CrawlDelay:   cfg.CrawlDelay,
		ProxyAddress: cfg.ProxyAddress,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build fetcher for %q: %w", name, err)
	}

	store, err := storage.New(cfg.OutputDir, target.Name, target.SaveFormat)
	if err != nil {
		closeFetcher(fetcher)
		return nil, nil, fmt.Errorf("open artifact store for %q: %w", name, err)
	}

	opts := []crawler.Option{
		crawler.WithLogger(logger),
		crawler.WithInactivityTimeout(cfg.InactivityTimeout),
	}
	if cfg.Resume {
		opts = append(opts, crawler.WithResume(resumePolicy(cfg.ResumePolicy)))
	}
	if cfg.Screenshots {
		opts = append(opts, crawler.WithScreenshots())
	}
	if cfg.RespectRobots {
		opts = append(opts, crawler.WithRobots(fetch.NewRobotsCache(robotsClient(cfg, fetcher), cfg.UserAgent)))
	}

	return crawler.New(target, fetcher, store, opts...), fetcher, nil
}

// robotsClient picks the HTTP client for robots.txt fetches. The static
// fetcher shares its client (same proxy and timeout); the browser
// fetcher has none, so robots checks fall back to a plain client.
func robotsClient(cfg *config.Config, fetcher fetch.Fetcher) *http.Client {
	if s, ok := fetcher.(*fetch.Static); ok {
		return s.Client()
	}
	return &http.Client{Timeout: cfg.Timeout}
}

// resumePolicy maps the config policy string onto the frontier's type.
func resumePolicy(policy string) frontier.ScanPolicy {
	if policy == config.ResumePolicyAll {
		return frontier.ScanAll
	}
	return frontier.ScanUntilFirst
}

// closeFetcher releases fetcher resources. The browser fetcher holds a
// real browser process, so skipping this leaks it.
func closeFetcher(fetcher fetch.Fetcher) {
	if closer, ok := fetcher.(io.Closer); ok {
		_ = closer.Close() //nolint:errcheck // Best effort cleanup
	}
}

// outputReport outputs the crawl report in the requested format.
func outputReport(cfg *config.Config, crawlReport *model.CrawlReport) error {
	// Generate the summary if needed
	if crawlReport.Summary == nil {
		crawlReport.Summary = model.NewSummary(crawlReport)
	}

	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Create/overwrite the output file with owner-only permissions;
		// reports list every crawled URL, including authenticated areas
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (full report with all data)
	if cfg.JSONReport {
		writer := report.NewJSONWriter(output, report.WithPrettyPrint())
		_, err := writer.Write(crawlReport)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(crawlReport)
		return err
	}

	// Human-readable report (default)
	writer := report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	_, err := writer.Write(crawlReport)
	return err
}

// saveCrawlReport saves the crawl report to the database if enabled.
// If db is nil, this function is a no-op.
func saveCrawlReport(ctx context.Context, db *database.CrawlDB, crawlReport *model.CrawlReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	// Ensure the summary is generated before saving
	if crawlReport.Summary == nil {
		crawlReport.Summary = model.NewSummary(crawlReport)
	}

	if err := db.SaveReport(ctx, crawlReport); err != nil {
		return fmt.Errorf("failed to save crawl report: %w", err)
	}

	logger.Info("crawl report saved to database", "target", crawlReport.Target, "runID", crawlReport.RunID)
	return nil
}
